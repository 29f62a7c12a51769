package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"storefront/internal/domain"
	"storefront/internal/service/checkout"
	ordersvc "storefront/internal/service/order"
)

func paidOrder() *domain.Order {
	return &domain.Order{
		ID: 9, UserID: 1, Status: domain.OrderPaid,
		SubtotalCents: 1000, TotalCents: 1000,
		PlacedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Lines:    []domain.OrderLine{{ID: 1, OrderID: 9, ProductID: 7, TitleSnapshot: "Mug", UnitPriceCents: 500, Quantity: 2}},
		Payments: []domain.Payment{{ID: 1, OrderID: 9, Provider: "test", ProviderRef: "TEST-1", AmountCents: 1000, Status: domain.PaymentSucceeded}},
	}
}

func TestPlaceOrder_BothRoutes(t *testing.T) {
	for _, path := range []string{"/api/v1/checkout", "/api/v1/orders"} {
		deps := testDeps()
		orders := &stubOrderSvc{order: paidOrder()}
		deps.OrderSvc = orders
		router := newTestRouter(t, deps)

		rec := do(router, http.MethodPost, path, `{"shipping_address_id":3,"provider":"card"}`, true)

		if rec.Code != http.StatusCreated {
			t.Fatalf("%s: expected 201, got %d body=%s", path, rec.Code, rec.Body.String())
		}
		var resp orderResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if resp.Status != domain.OrderPaid || resp.Total != "10.00" || len(resp.Items) != 1 || len(resp.Payments) != 1 {
			t.Fatalf("%s: unexpected order %+v", path, resp)
		}
		if orders.lastIn.ShippingAddressID == nil || *orders.lastIn.ShippingAddressID != 3 || orders.lastIn.Provider != "card" {
			t.Fatalf("%s: unexpected input %+v", path, orders.lastIn)
		}
	}
}

func TestPlaceOrder_EmptyBodyIsAllowed(t *testing.T) {
	deps := testDeps()
	orders := &stubOrderSvc{order: paidOrder()}
	deps.OrderSvc = orders
	router := newTestRouter(t, deps)

	rec := do(router, http.MethodPost, "/api/v1/checkout", "", true)

	if rec.Code != http.StatusCreated || orders.calls != 1 {
		t.Fatalf("expected 201, got %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestPlaceOrder_ErrorMapping(t *testing.T) {
	cases := []struct {
		err      error
		status   int
		code     string
		contains string
	}{
		{checkout.ErrEmptyCart, http.StatusBadRequest, "empty_cart", ""},
		{&checkout.InsufficientStockError{ProductID: 7}, http.StatusConflict, "insufficient_stock", `"product_id":7`},
		{checkout.ErrPaymentFailed, http.StatusPaymentRequired, "payment_failed", ""},
		{checkout.ErrStorageFailure, http.StatusInternalServerError, "checkout_failed", ""},
		{ordersvc.ErrAddressNotFound, http.StatusBadRequest, "address_not_found", ""},
		{errors.New("boom"), http.StatusInternalServerError, "internal_error", ""},
	}
	for _, tc := range cases {
		deps := testDeps()
		deps.OrderSvc = &stubOrderSvc{placeErr: tc.err}
		router := newTestRouter(t, deps)

		rec := do(router, http.MethodPost, "/api/v1/checkout", `{}`, true)

		if rec.Code != tc.status || !strings.Contains(rec.Body.String(), `"error":"`+tc.code+`"`) {
			t.Fatalf("%v: expected %d %s, got %d body=%s", tc.err, tc.status, tc.code, rec.Code, rec.Body.String())
		}
		if tc.contains != "" && !strings.Contains(rec.Body.String(), tc.contains) {
			t.Fatalf("%v: expected body to contain %s, got %s", tc.err, tc.contains, rec.Body.String())
		}
		if strings.Contains(rec.Body.String(), "boom") {
			t.Fatalf("internal error details leaked: %s", rec.Body.String())
		}
	}
}

func TestGetOrder(t *testing.T) {
	deps := testDeps()
	deps.OrderSvc = &stubOrderSvc{order: paidOrder()}
	router := newTestRouter(t, deps)

	if rec := do(router, http.MethodGet, "/api/v1/orders/9", "", true); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec := do(router, http.MethodGet, "/api/v1/orders/10", "", true); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	rec := do(router, http.MethodGet, "/api/v1/orders", "", true)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"total":"10.00"`) {
		t.Fatalf("unexpected list response %d body=%s", rec.Code, rec.Body.String())
	}
}
