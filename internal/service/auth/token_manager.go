package auth

import (
	"errors"
	"strconv"
	"time"

	"storefront/internal/domain"

	"github.com/golang-jwt/jwt/v5"
)

type claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// tokenManager issues and verifies HS256 bearer tokens. The subject is the
// decimal user id.
type tokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func newTokenManager(secret []byte, ttl time.Duration) *tokenManager {
	return &tokenManager{secret: secret, ttl: ttl, now: time.Now}
}

func (m *tokenManager) Issue(u *domain.User) (string, time.Time, error) {
	if len(m.secret) == 0 {
		return "", time.Time{}, errors.New("token secret is not configured")
	}
	issuedAt := m.now()
	expiresAt := issuedAt.Add(m.ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Email: u.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(u.ID, 10),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

func (m *tokenManager) Validate(raw string) (int64, bool) {
	if raw == "" || len(m.secret) == 0 {
		return 0, false
	}
	parsed, err := jwt.ParseWithClaims(raw, &claims{}, func(*jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !parsed.Valid {
		return 0, false
	}
	c, ok := parsed.Claims.(*claims)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
