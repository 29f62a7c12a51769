package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/mail"
	"strings"
	"time"

	"storefront/internal/db"
	"storefront/internal/domain"
	userrepo "storefront/internal/repository/user"

	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials is returned when email/password do not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken indicates the provided token could not be validated.
	ErrInvalidToken = errors.New("invalid token")
	// ErrInvalidEmail rejects registrations without a usable address.
	ErrInvalidEmail = fmt.Errorf("%w: a valid email is required", domain.ErrInvalid)
	ErrWeakPassword = fmt.Errorf("%w: password too short", domain.ErrInvalid)
)

type cartEnsurer interface {
	Ensure(ctx context.Context, q db.Querier, userID int64) (*domain.Cart, error)
}

// Service handles registration, login and bearer token lookup.
type Service struct {
	db          db.TxBeginner
	users       userrepo.Repository
	carts       cartEnsurer
	tokens      *tokenManager
	passwordMin int
	logger      *log.Logger
}

type Options struct {
	Secret   []byte
	TokenTTL time.Duration
	Logger   *log.Logger
}

func New(tx db.TxBeginner, users userrepo.Repository, carts cartEnsurer, opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	ttl := opts.TokenTTL
	if ttl <= 0 {
		ttl = 48 * time.Hour
	}
	return &Service{
		db:          tx,
		users:       users,
		carts:       carts,
		tokens:      newTokenManager(opts.Secret, ttl),
		passwordMin: 8,
		logger:      logger,
	}
}

// RegisterInput captures fields expected by the register endpoint.
type RegisterInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

// Session is what register and login hand back to the client.
type Session struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

// Register creates the user and an empty cart together. A taken email
// surfaces as domain.ErrAlreadyExists.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	if err := validatePassword(in.Password, s.passwordMin); err != nil {
		return nil, err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	var created *domain.User
	err = db.WithTx(ctx, s.db, pgx.TxOptions{}, func(tx pgx.Tx) error {
		u, err := s.users.Create(ctx, tx, domain.User{
			Email:        email,
			PasswordHash: string(hashed),
			FullName:     strings.TrimSpace(in.FullName),
		})
		if err != nil {
			return err
		}
		if _, err := s.carts.Ensure(ctx, tx, u.ID); err != nil {
			return fmt.Errorf("create cart: %w", err)
		}
		created = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Printf("auth: registered user_id=%d", created.ID)
	return s.session(created)
}

// Login validates credentials and issues a token.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.session(u)
}

// LookupByToken returns the user bound to a valid, unexpired token.
func (s *Service) LookupByToken(ctx context.Context, token string) (*domain.User, error) {
	userID, ok := s.tokens.Validate(token)
	if !ok {
		return nil, ErrInvalidToken
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	return u, nil
}

// TokenTTLSeconds exposes the token lifetime in seconds.
func (s *Service) TokenTTLSeconds() int {
	return int(s.tokens.ttl.Seconds())
}

func (s *Service) session(u *domain.User) (*Session, error) {
	token, expiresAt, err := s.tokens.Issue(u)
	if err != nil {
		return nil, err
	}
	return &Session{User: u, Token: token, ExpiresAt: expiresAt}, nil
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", ErrInvalidEmail
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return email, nil
}

func validatePassword(p string, min int) error {
	if len(p) < min {
		return fmt.Errorf("%w (need at least %d characters)", ErrWeakPassword, min)
	}
	return nil
}
