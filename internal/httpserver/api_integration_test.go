package httpserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"storefront/internal/domain"
	"storefront/internal/payment"
	addressrepo "storefront/internal/repository/address"
	cartrepo "storefront/internal/repository/cart"
	categoryrepo "storefront/internal/repository/category"
	"storefront/internal/repository/inventory"
	orderrepo "storefront/internal/repository/order"
	productrepo "storefront/internal/repository/product"
	userrepo "storefront/internal/repository/user"
	authsvc "storefront/internal/service/auth"
	cartsvc "storefront/internal/service/cart"
	categorysvc "storefront/internal/service/category"
	"storefront/internal/service/checkout"
	ordersvc "storefront/internal/service/order"
	productsvc "storefront/internal/service/product"
	usersvc "storefront/internal/service/user"
	"storefront/internal/testdb"

	"github.com/gin-gonic/gin"
)

func newIntegrationRouter(t *testing.T) *gin.Engine {
	t.Helper()
	pool := testdb.New(t)

	users := userrepo.NewPostgres(pool, nil)
	addresses := addressrepo.NewPostgres(pool, nil)
	products := productrepo.NewPostgres(pool, nil)
	carts := cartrepo.NewPostgres(pool, nil)
	orders := orderrepo.NewPostgres(pool, nil)

	placer := checkout.New(checkout.Deps{
		DB:        pool,
		Carts:     carts,
		Inventory: inventory.NewPostgres(),
		Orders:    orders,
		Payments:  payment.NewSimulated([]string{"test_decline"}),
	})

	gin.SetMode(gin.TestMode)
	router, err := buildRouter(logDiscard(), pool, Deps{
		AuthSvc:     authsvc.New(pool, users, carts, authsvc.Options{Secret: []byte("integration-secret")}),
		UserSvc:     usersvc.New(users, addresses),
		CategorySvc: categorysvc.New(categoryrepo.NewPostgres(pool)),
		ProductSvc:  productsvc.New(products),
		CartSvc:     cartsvc.New(pool, carts, products),
		OrderSvc:    ordersvc.New(orders, addresses, placer),
	})
	if err != nil {
		t.Fatalf("build router: %v", err)
	}
	return router
}

func call(t *testing.T, router http.Handler, method, path, token, body string, out any) int {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if out != nil && rec.Code < 300 {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			t.Fatalf("%s %s: unmarshal %s: %v", method, path, rec.Body.String(), err)
		}
	}
	return rec.Code
}

func TestAPI_IntegrationCheckoutFlow(t *testing.T) {
	router := newIntegrationRouter(t)

	var sess sessionResponse
	if code := call(t, router, http.MethodPost, "/api/v1/auth/register", "",
		`{"email":"buyer@example.com","password":"correct-horse","full_name":"Buyer"}`, &sess); code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d", code)
	}
	token := sess.Token

	var product productResponse
	if code := call(t, router, http.MethodPost, "/api/v1/products", token,
		`{"title":"Mug","price_cents":500}`, &product); code != http.StatusCreated {
		t.Fatalf("create product: expected 201, got %d", code)
	}
	stockPath := fmt.Sprintf("/api/v1/products/%d/stock", product.ID)
	if code := call(t, router, http.MethodPut, stockPath, token, `{"quantity":3}`, nil); code != http.StatusOK {
		t.Fatalf("set stock: expected 200, got %d", code)
	}

	item := fmt.Sprintf(`{"product_id":%d,"quantity":2}`, product.ID)
	var cart cartResponse
	if code := call(t, router, http.MethodPost, "/api/v1/cart/items", token, item, &cart); code != http.StatusOK && code != http.StatusCreated {
		t.Fatalf("add item: unexpected status %d", code)
	}
	if cart.SubtotalCents != 1000 {
		t.Fatalf("expected subtotal 1000, got %d", cart.SubtotalCents)
	}

	var order orderResponse
	if code := call(t, router, http.MethodPost, "/api/v1/checkout", token, "", &order); code != http.StatusCreated {
		t.Fatalf("checkout: expected 201, got %d", code)
	}
	if order.Status != domain.OrderPaid || order.TotalCents != 1000 || order.Total != "10.00" || len(order.Items) != 1 {
		t.Fatalf("unexpected order %+v", order)
	}

	var after productResponse
	call(t, router, http.MethodGet, fmt.Sprintf("/api/v1/products/%d", product.ID), "", "", &after)
	if after.Stock != 1 {
		t.Fatalf("expected stock 1 after checkout, got %d", after.Stock)
	}

	if code := call(t, router, http.MethodPost, "/api/v1/checkout", token, "", nil); code != http.StatusBadRequest {
		t.Fatalf("second checkout on empty cart: expected 400, got %d", code)
	}

	// A declined payment leaves the last unit in stock.
	call(t, router, http.MethodPost, "/api/v1/cart/items", token, fmt.Sprintf(`{"product_id":%d,"quantity":1}`, product.ID), nil)
	if code := call(t, router, http.MethodPost, "/api/v1/checkout", token, `{"provider":"test_decline"}`, nil); code != http.StatusPaymentRequired {
		t.Fatalf("declined checkout: expected 402, got %d", code)
	}
	call(t, router, http.MethodGet, fmt.Sprintf("/api/v1/products/%d", product.ID), "", "", &after)
	if after.Stock != 1 {
		t.Fatalf("declined checkout changed stock to %d", after.Stock)
	}

	var list struct {
		Items []orderResponse `json:"items"`
	}
	if code := call(t, router, http.MethodGet, "/api/v1/orders", token, "", &list); code != http.StatusOK {
		t.Fatalf("list orders: expected 200, got %d", code)
	}
	if len(list.Items) != 1 || list.Items[0].ID != order.ID {
		t.Fatalf("expected exactly the paid order, got %+v", list.Items)
	}
}

func TestAPI_IntegrationForeignAddressIsRejected(t *testing.T) {
	router := newIntegrationRouter(t)

	var owner, other sessionResponse
	call(t, router, http.MethodPost, "/api/v1/auth/register", "", `{"email":"owner@example.com","password":"correct-horse"}`, &owner)
	call(t, router, http.MethodPost, "/api/v1/auth/register", "", `{"email":"other@example.com","password":"correct-horse"}`, &other)

	var addr domain.Address
	if code := call(t, router, http.MethodPost, "/api/v1/users/me/addresses", owner.Token,
		`{"line1":"1 Main St","city":"Springfield","country_code":"us"}`, &addr); code != http.StatusCreated {
		t.Fatalf("create address: expected 201, got %d", code)
	}

	var product productResponse
	call(t, router, http.MethodPost, "/api/v1/products", other.Token, `{"title":"Tee","price_cents":1500}`, &product)
	call(t, router, http.MethodPut, fmt.Sprintf("/api/v1/products/%d/stock", product.ID), other.Token, `{"quantity":5}`, nil)
	call(t, router, http.MethodPost, "/api/v1/cart/items", other.Token, fmt.Sprintf(`{"product_id":%d,"quantity":1}`, product.ID), nil)

	body := fmt.Sprintf(`{"shipping_address_id":%d}`, addr.ID)
	if code := call(t, router, http.MethodPost, "/api/v1/orders", other.Token, body, nil); code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a foreign address, got %d", code)
	}
}
