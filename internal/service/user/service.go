package user

import (
	"context"
	"fmt"
	"strings"

	"storefront/internal/domain"
	addressrepo "storefront/internal/repository/address"
	userrepo "storefront/internal/repository/user"
)

var (
	ErrAddressLineRequired = fmt.Errorf("%w: line1 and city are required", domain.ErrInvalid)
	ErrCountryCode         = fmt.Errorf("%w: country_code must be two letters", domain.ErrInvalid)
)

// Service serves the caller's profile and address book.
type Service struct {
	users     userrepo.Repository
	addresses addressrepo.Repository
}

func New(users userrepo.Repository, addresses addressrepo.Repository) *Service {
	return &Service{users: users, addresses: addresses}
}

type ProfileInput struct {
	FullName *string `json:"full_name"`
	Phone    *string `json:"phone"`
}

type AddressInput struct {
	Label             string `json:"label"`
	Line1             string `json:"line1"`
	Line2             string `json:"line2"`
	City              string `json:"city"`
	Region            string `json:"region"`
	PostalCode        string `json:"postal_code"`
	CountryCode       string `json:"country_code"`
	IsDefaultBilling  bool   `json:"is_default_billing"`
	IsDefaultShipping bool   `json:"is_default_shipping"`
}

func (s *Service) Profile(ctx context.Context, userID int64) (*domain.User, error) {
	return s.users.GetByID(ctx, userID)
}

func (s *Service) UpdateProfile(ctx context.Context, userID int64, in ProfileInput) (*domain.User, error) {
	return s.users.UpdateProfile(ctx, userID, userrepo.ProfileUpdate{
		FullName: trimmed(in.FullName),
		Phone:    trimmed(in.Phone),
	})
}

func (s *Service) Addresses(ctx context.Context, userID int64) ([]domain.Address, error) {
	return s.addresses.ListByUser(ctx, userID)
}

// Address returns one of the caller's addresses; another user's id is
// reported as domain.ErrNotFound.
func (s *Service) Address(ctx context.Context, userID, id int64) (*domain.Address, error) {
	return s.addresses.Get(ctx, userID, id)
}

func (s *Service) CreateAddress(ctx context.Context, userID int64, in AddressInput) (*domain.Address, error) {
	a, err := toAddress(userID, in)
	if err != nil {
		return nil, err
	}
	return s.addresses.Create(ctx, a)
}

func (s *Service) UpdateAddress(ctx context.Context, userID, id int64, in AddressInput) (*domain.Address, error) {
	a, err := toAddress(userID, in)
	if err != nil {
		return nil, err
	}
	a.ID = id
	return s.addresses.Update(ctx, a)
}

func (s *Service) DeleteAddress(ctx context.Context, userID, id int64) error {
	return s.addresses.Delete(ctx, userID, id)
}

func toAddress(userID int64, in AddressInput) (domain.Address, error) {
	a := domain.Address{
		UserID:            userID,
		Label:             strings.TrimSpace(in.Label),
		Line1:             strings.TrimSpace(in.Line1),
		Line2:             strings.TrimSpace(in.Line2),
		City:              strings.TrimSpace(in.City),
		Region:            strings.TrimSpace(in.Region),
		PostalCode:        strings.TrimSpace(in.PostalCode),
		CountryCode:       strings.ToUpper(strings.TrimSpace(in.CountryCode)),
		IsDefaultBilling:  in.IsDefaultBilling,
		IsDefaultShipping: in.IsDefaultShipping,
	}
	if a.Line1 == "" || a.City == "" {
		return domain.Address{}, ErrAddressLineRequired
	}
	if len(a.CountryCode) != 2 {
		return domain.Address{}, ErrCountryCode
	}
	return a, nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
