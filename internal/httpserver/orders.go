package httpserver

import (
	"errors"
	"io"
	"net/http"

	ordersvc "storefront/internal/service/order"

	"github.com/gin-gonic/gin"
)

func (h *handlers) listOrders(c *gin.Context) {
	orders, err := h.deps.OrderSvc.List(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	items := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		items = append(items, toOrder(o))
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *handlers) getOrder(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	o, err := h.deps.OrderSvc.Get(c.Request.Context(), currentUser(c).ID, id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrder(*o))
}

// placeOrder serves both POST /orders and POST /checkout. The body is optional.
func (h *handlers) placeOrder(c *gin.Context) {
	var req ordersvc.PlaceInput
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(c, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	o, err := h.deps.OrderSvc.Place(c.Request.Context(), currentUser(c).ID, req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toOrder(*o))
}
