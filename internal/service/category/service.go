package category

import (
	"context"
	"fmt"
	"strings"

	"storefront/internal/domain"
	"storefront/internal/repository/category"
)

// ErrNameRequired rejects categories without a name.
var ErrNameRequired = fmt.Errorf("%w: name required", domain.ErrInvalid)

type Service struct {
	repo category.Repository
}

func New(repo category.Repository) *Service {
	return &Service{repo: repo}
}

type CreateInput struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

func (s *Service) List(ctx context.Context) ([]domain.Category, error) {
	return s.repo.List(ctx)
}

// Create derives the slug from the name when none is given.
func (s *Service) Create(ctx context.Context, in CreateInput) (*domain.Category, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	slug := Slugify(in.Slug)
	if slug == "" {
		slug = Slugify(name)
	}
	return s.repo.Create(ctx, domain.Category{Name: name, Slug: slug})
}

func (s *Service) Upsert(ctx context.Context, c domain.Category) (*domain.Category, error) {
	if c.Slug == "" {
		c.Slug = Slugify(c.Name)
	}
	return s.repo.Upsert(ctx, c)
}

// Slugify lowercases s and joins its alphanumeric runs with dashes.
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
