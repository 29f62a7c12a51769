package httpserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"storefront/internal/domain"
	authsvc "storefront/internal/service/auth"
	cartsvc "storefront/internal/service/cart"
	categorysvc "storefront/internal/service/category"
	ordersvc "storefront/internal/service/order"
	productsvc "storefront/internal/service/product"
	usersvc "storefront/internal/service/user"

	"github.com/gin-gonic/gin"
)

type stubAuthSvc struct {
	user     *domain.User
	regErr   error
	loginErr error
	meErr    error
	lastReg  authsvc.RegisterInput
}

func (s *stubAuthSvc) Register(_ context.Context, in authsvc.RegisterInput) (*authsvc.Session, error) {
	s.lastReg = in
	if s.regErr != nil {
		return nil, s.regErr
	}
	return &authsvc.Session{User: s.user, Token: "token"}, nil
}

func (s *stubAuthSvc) Login(context.Context, string, string) (*authsvc.Session, error) {
	if s.loginErr != nil {
		return nil, s.loginErr
	}
	return &authsvc.Session{User: s.user, Token: "token"}, nil
}

func (s *stubAuthSvc) LookupByToken(_ context.Context, token string) (*domain.User, error) {
	if s.meErr != nil {
		return nil, s.meErr
	}
	if token != "good" {
		return nil, authsvc.ErrInvalidToken
	}
	return s.user, nil
}

func (s *stubAuthSvc) TokenTTLSeconds() int { return 3600 }

type stubUserSvc struct {
	addrErr error
}

func (s *stubUserSvc) Profile(_ context.Context, id int64) (*domain.User, error) {
	return &domain.User{ID: id, Email: "me@example.com"}, nil
}

func (s *stubUserSvc) UpdateProfile(_ context.Context, id int64, in usersvc.ProfileInput) (*domain.User, error) {
	u := &domain.User{ID: id, Email: "me@example.com"}
	if in.FullName != nil {
		u.FullName = *in.FullName
	}
	return u, nil
}

func (s *stubUserSvc) Addresses(context.Context, int64) ([]domain.Address, error) {
	return []domain.Address{}, nil
}

func (s *stubUserSvc) CreateAddress(_ context.Context, userID int64, in usersvc.AddressInput) (*domain.Address, error) {
	if s.addrErr != nil {
		return nil, s.addrErr
	}
	return &domain.Address{ID: 1, UserID: userID, Line1: in.Line1, City: in.City, CountryCode: in.CountryCode}, nil
}

func (s *stubUserSvc) UpdateAddress(_ context.Context, userID, id int64, _ usersvc.AddressInput) (*domain.Address, error) {
	if s.addrErr != nil {
		return nil, s.addrErr
	}
	return &domain.Address{ID: id, UserID: userID}, nil
}

func (s *stubUserSvc) DeleteAddress(context.Context, int64, int64) error { return s.addrErr }

type stubCategorySvc struct{}

func (stubCategorySvc) List(context.Context) ([]domain.Category, error) {
	return []domain.Category{{ID: 1, Name: "Mugs", Slug: "mugs"}}, nil
}

func (stubCategorySvc) Create(_ context.Context, in categorysvc.CreateInput) (*domain.Category, error) {
	return &domain.Category{ID: 2, Name: in.Name, Slug: categorysvc.Slugify(in.Name)}, nil
}

type stubProductSvc struct {
	lastList productsvc.ListInput
	products map[int64]domain.Product
}

func (s *stubProductSvc) List(_ context.Context, in productsvc.ListInput) ([]domain.Product, error) {
	s.lastList = in
	out := []domain.Product{}
	for _, p := range s.products {
		out = append(out, p)
	}
	return out, nil
}

func (s *stubProductSvc) Get(_ context.Context, id int64) (*domain.Product, error) {
	p, ok := s.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (s *stubProductSvc) Create(_ context.Context, in productsvc.CreateInput) (*domain.Product, error) {
	return &domain.Product{ID: 9, Title: in.Title, PriceCents: in.PriceCents, IsActive: true}, nil
}

func (s *stubProductSvc) Update(_ context.Context, id int64, _ productsvc.UpdateInput) (*domain.Product, error) {
	return s.Get(context.Background(), id)
}

func (s *stubProductSvc) Deactivate(_ context.Context, id int64) error {
	_, err := s.Get(context.Background(), id)
	return err
}

func (s *stubProductSvc) SetStock(_ context.Context, id int64, quantity int) (*domain.Product, error) {
	if quantity < 0 {
		return nil, productsvc.ErrNegativeStock
	}
	p, err := s.Get(context.Background(), id)
	if err != nil {
		return nil, err
	}
	p.Stock = quantity
	return p, nil
}

type stubCartSvc struct {
	cart      *domain.Cart
	addErr    error
	updateErr error
}

func (s *stubCartSvc) Get(context.Context, int64) (*domain.Cart, error) { return s.cart, nil }

func (s *stubCartSvc) AddItem(context.Context, int64, cartsvc.AddItemInput) (*domain.Cart, error) {
	if s.addErr != nil {
		return nil, s.addErr
	}
	return s.cart, nil
}

func (s *stubCartSvc) UpdateItem(context.Context, int64, int64, int) (*domain.Cart, error) {
	if s.updateErr != nil {
		return nil, s.updateErr
	}
	return s.cart, nil
}

func (s *stubCartSvc) RemoveItem(context.Context, int64, int64) (*domain.Cart, error) {
	return s.cart, nil
}

func (s *stubCartSvc) Clear(context.Context, int64) error { return nil }

type stubOrderSvc struct {
	order    *domain.Order
	placeErr error
	lastIn   ordersvc.PlaceInput
	calls    int
}

func (s *stubOrderSvc) List(context.Context, int64) ([]domain.Order, error) {
	if s.order == nil {
		return nil, nil
	}
	return []domain.Order{*s.order}, nil
}

func (s *stubOrderSvc) Get(_ context.Context, _, id int64) (*domain.Order, error) {
	if s.order == nil || s.order.ID != id {
		return nil, domain.ErrNotFound
	}
	return s.order, nil
}

func (s *stubOrderSvc) Place(_ context.Context, _ int64, in ordersvc.PlaceInput) (*domain.Order, error) {
	s.calls++
	s.lastIn = in
	if s.placeErr != nil {
		return nil, s.placeErr
	}
	return s.order, nil
}

func testDeps() Deps {
	return Deps{
		AuthSvc:     &stubAuthSvc{user: &domain.User{ID: 1, Email: "me@example.com"}},
		UserSvc:     &stubUserSvc{},
		CategorySvc: stubCategorySvc{},
		ProductSvc:  &stubProductSvc{products: map[int64]domain.Product{}},
		CartSvc:     &stubCartSvc{cart: &domain.Cart{ID: 1, UserID: 1}},
		OrderSvc:    &stubOrderSvc{},
	}
}

func newTestRouter(t *testing.T, deps Deps) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router, err := buildRouter(logDiscard(), nil, deps)
	if err != nil {
		t.Fatalf("build router: %v", err)
	}
	return router
}

func do(router http.Handler, method, path, body string, authed bool) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		req.Header.Set("Authorization", "Bearer good")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}
