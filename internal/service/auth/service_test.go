package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"storefront/internal/db"
	"storefront/internal/domain"
	userrepo "storefront/internal/repository/user"

	"github.com/jackc/pgx/v5"
)

// memoryRepo is a lightweight in-memory user repository for tests.
type memoryRepo struct {
	byEmail map[string]domain.User
	nextID  int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{byEmail: make(map[string]domain.User)}
}

func (r *memoryRepo) Create(_ context.Context, _ db.Querier, u domain.User) (*domain.User, error) {
	if _, exists := r.byEmail[u.Email]; exists {
		return nil, domain.ErrAlreadyExists
	}
	r.nextID++
	u.ID = r.nextID
	r.byEmail[u.Email] = u
	clone := u
	return &clone, nil
}

func (r *memoryRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	if u, ok := r.byEmail[email]; ok {
		clone := u
		return &clone, nil
	}
	return nil, domain.ErrNotFound
}

func (r *memoryRepo) GetByID(_ context.Context, id int64) (*domain.User, error) {
	for _, u := range r.byEmail {
		if u.ID == id {
			clone := u
			return &clone, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memoryRepo) UpdateProfile(context.Context, int64, userrepo.ProfileUpdate) (*domain.User, error) {
	return nil, errors.New("not used")
}

type memoryCarts struct {
	ensured []int64
	err     error
}

func (c *memoryCarts) Ensure(_ context.Context, _ db.Querier, userID int64) (*domain.Cart, error) {
	if c.err != nil {
		return nil, c.err
	}
	c.ensured = append(c.ensured, userID)
	return &domain.Cart{UserID: userID}, nil
}

type stubTx struct {
	pgx.Tx
	committed  *bool
	rolledBack *bool
}

func (t stubTx) Commit(context.Context) error   { *t.committed = true; return nil }
func (t stubTx) Rollback(context.Context) error { *t.rolledBack = true; return nil }

type stubBeginner struct {
	committed  bool
	rolledBack bool
}

func (b *stubBeginner) BeginTx(context.Context, pgx.TxOptions) (pgx.Tx, error) {
	return stubTx{committed: &b.committed, rolledBack: &b.rolledBack}, nil
}

func newTestService(carts *memoryCarts) (*Service, *memoryRepo, *stubBeginner) {
	repo := newMemoryRepo()
	tx := &stubBeginner{}
	svc := New(tx, repo, carts, Options{Secret: []byte("test-secret"), TokenTTL: time.Hour})
	return svc, repo, tx
}

func TestRegisterAndLogin(t *testing.T) {
	carts := &memoryCarts{}
	svc, _, tx := newTestService(carts)
	ctx := context.Background()

	sess, err := svc.Register(ctx, RegisterInput{Email: " User@Example.com ", Password: "hunter22", FullName: "Test User"})
	if err != nil {
		t.Fatalf("register returned error: %v", err)
	}
	if sess.User.Email != "user@example.com" || sess.Token == "" {
		t.Fatalf("unexpected session %+v", sess)
	}
	if sess.User.PasswordHash == "hunter22" {
		t.Fatalf("password stored in clear text")
	}
	if len(carts.ensured) != 1 || carts.ensured[0] != sess.User.ID {
		t.Fatalf("expected cart for user %d, got %v", sess.User.ID, carts.ensured)
	}
	if !tx.committed {
		t.Fatalf("expected registration to commit")
	}

	login, err := svc.Login(ctx, "user@example.com", "hunter22")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	u, err := svc.LookupByToken(ctx, login.Token)
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if u.ID != sess.User.ID {
		t.Fatalf("token resolved to user %d, want %d", u.ID, sess.User.ID)
	}
}

func TestRegister_RejectsDuplicatesAndWeakInput(t *testing.T) {
	svc, _, _ := newTestService(&memoryCarts{})
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterInput{Email: "a@example.com", Password: "longenough"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.Register(ctx, RegisterInput{Email: "a@example.com", Password: "longenough"}); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
	_, err := svc.Register(ctx, RegisterInput{Email: "b@example.com", Password: "short"})
	if !errors.Is(err, ErrWeakPassword) || !errors.Is(err, domain.ErrInvalid) {
		t.Fatalf("expected weak password error, got %v", err)
	}
	_, err = svc.Register(ctx, RegisterInput{Email: "not-an-email", Password: "longenough"})
	if !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("expected invalid email, got %v", err)
	}
}

func TestRegister_CartFailureRollsBack(t *testing.T) {
	svc, _, tx := newTestService(&memoryCarts{err: errors.New("db down")})

	_, err := svc.Register(context.Background(), RegisterInput{Email: "c@example.com", Password: "longenough"})
	if err == nil || !strings.Contains(err.Error(), "create cart") {
		t.Fatalf("expected cart error, got %v", err)
	}
	if tx.committed || !tx.rolledBack {
		t.Fatalf("expected rollback without commit, committed=%v rolledBack=%v", tx.committed, tx.rolledBack)
	}
}

func TestLogin_WrongPasswordOrEmail(t *testing.T) {
	svc, _, _ := newTestService(&memoryCarts{})
	ctx := context.Background()
	if _, err := svc.Register(ctx, RegisterInput{Email: "d@example.com", Password: "longenough"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := svc.Login(ctx, "d@example.com", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if _, err := svc.Login(ctx, "nobody@example.com", "longenough"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials for unknown email, got %v", err)
	}
}

func TestLookupByToken_RejectsExpiredAndForeignTokens(t *testing.T) {
	svc, _, _ := newTestService(&memoryCarts{})
	ctx := context.Background()
	sess, err := svc.Register(ctx, RegisterInput{Email: "e@example.com", Password: "longenough"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	svc.tokens.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, err := svc.LookupByToken(ctx, sess.Token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected expired token to be rejected, got %v", err)
	}
	svc.tokens.now = time.Now

	other := newTokenManager([]byte("other-secret"), time.Hour)
	forged, _, err := other.Issue(sess.User)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := svc.LookupByToken(ctx, forged); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected token signed with another key to be rejected, got %v", err)
	}
	if _, err := svc.LookupByToken(ctx, "garbage"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected garbage token to be rejected, got %v", err)
	}
}
