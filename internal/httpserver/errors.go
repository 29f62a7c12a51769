package httpserver

import (
	"errors"
	"net/http"

	"storefront/internal/domain"
	authsvc "storefront/internal/service/auth"
	cartsvc "storefront/internal/service/cart"
	"storefront/internal/service/checkout"
	ordersvc "storefront/internal/service/order"

	"github.com/gin-gonic/gin"
)

type errorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	ProductID *int64 `json:"product_id,omitempty"`
}

func writeError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, errorResponse{Error: code, Message: message})
}

// respondError maps service errors onto status codes and stable error codes.
// Unrecognized errors are logged and reported as 500 without details.
func (h *handlers) respondError(c *gin.Context, err error) {
	var stock *checkout.InsufficientStockError
	switch {
	case errors.As(err, &stock):
		pid := stock.ProductID
		c.AbortWithStatusJSON(http.StatusConflict, errorResponse{
			Error: "insufficient_stock", Message: stock.Error(), ProductID: &pid,
		})
	case errors.Is(err, checkout.ErrEmptyCart):
		writeError(c, http.StatusBadRequest, "empty_cart", "cart is empty")
	case errors.Is(err, checkout.ErrPaymentFailed):
		writeError(c, http.StatusPaymentRequired, "payment_failed", "payment was declined")
	case errors.Is(err, checkout.ErrStorageFailure):
		writeError(c, http.StatusInternalServerError, "checkout_failed", "checkout could not be completed")
	case errors.Is(err, cartsvc.ErrInsufficientStock):
		writeError(c, http.StatusConflict, "insufficient_stock", err.Error())
	case errors.Is(err, ordersvc.ErrAddressNotFound):
		writeError(c, http.StatusBadRequest, "address_not_found", "address does not belong to the caller")
	case errors.Is(err, authsvc.ErrInvalidCredentials):
		writeError(c, http.StatusUnauthorized, "invalid_credentials", "email or password is incorrect")
	case errors.Is(err, domain.ErrInvalid):
		writeError(c, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrInactive):
		writeError(c, http.StatusNotFound, "not_found", "resource not found")
	case errors.Is(err, domain.ErrAlreadyExists):
		writeError(c, http.StatusConflict, "already_exists", "resource already exists")
	default:
		h.logger.Printf("http: %s %s error=%v", c.Request.Method, c.FullPath(), err)
		writeError(c, http.StatusInternalServerError, "internal_error", "internal error")
	}
}
