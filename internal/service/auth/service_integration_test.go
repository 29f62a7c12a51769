package auth

import (
	"context"
	"errors"
	"log"
	"os"
	"testing"
	"time"

	"storefront/internal/domain"
	cartrepo "storefront/internal/repository/cart"
	userrepo "storefront/internal/repository/user"
	"storefront/internal/testdb"
)

func TestRegisterAndLogin_Integration(t *testing.T) {
	ctx := context.Background()
	pool := testdb.New(t)

	logger := log.New(os.Stdout, "[test] ", log.LstdFlags)
	users := userrepo.NewPostgres(pool, logger)
	carts := cartrepo.NewPostgres(pool, logger)
	svc := New(pool, users, carts, Options{Secret: []byte("integration"), TokenTTL: time.Hour, Logger: logger})

	sess, err := svc.Register(ctx, RegisterInput{Email: "integration@example.com", Password: "Abcdefg1", FullName: "Int User"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	var cartCount int
	if err := pool.QueryRow(ctx, `SELECT count(*) FROM carts WHERE user_id = $1`, sess.User.ID).Scan(&cartCount); err != nil {
		t.Fatalf("count carts: %v", err)
	}
	if cartCount != 1 {
		t.Fatalf("expected one cart, got %d", cartCount)
	}

	if _, err := svc.Register(ctx, RegisterInput{Email: "integration@example.com", Password: "Abcdefg1"}); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("expected duplicate email to fail with ErrAlreadyExists, got %v", err)
	}

	login, err := svc.Login(ctx, "integration@example.com", "Abcdefg1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	u, err := svc.LookupByToken(ctx, login.Token)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if u.Email != "integration@example.com" || u.FullName != "Int User" {
		t.Fatalf("unexpected user %+v", u)
	}
}
