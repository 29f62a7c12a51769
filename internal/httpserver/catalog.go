package httpserver

import (
	"net/http"
	"strconv"

	categorysvc "storefront/internal/service/category"
	productsvc "storefront/internal/service/product"

	"github.com/gin-gonic/gin"
)

type stockRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

func (h *handlers) listCategories(c *gin.Context) {
	cats, err := h.deps.CategorySvc.List(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": cats})
}

func (h *handlers) createCategory(c *gin.Context) {
	var req categorysvc.CreateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	cat, err := h.deps.CategorySvc.Create(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cat)
}

func (h *handlers) listProducts(c *gin.Context) {
	limit, ok := queryInt(c, "limit")
	if !ok {
		return
	}
	offset, ok := queryInt(c, "offset")
	if !ok {
		return
	}
	in := productsvc.ListInput{Search: c.Query("search"), Limit: limit, Offset: offset}
	if raw := c.Query("category_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(c, http.StatusBadRequest, "invalid_request", "category_id must be an integer")
			return
		}
		in.CategoryID = &id
	}

	products, err := h.deps.ProductSvc.List(c.Request.Context(), in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	items := make([]productResponse, 0, len(products))
	for _, p := range products {
		items = append(items, toProduct(p))
	}
	limit, offset = productsvc.Page(limit, offset)
	c.JSON(http.StatusOK, productListResponse{Items: items, Limit: limit, Offset: offset})
}

func (h *handlers) getProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	p, err := h.deps.ProductSvc.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProduct(*p))
}

func (h *handlers) createProduct(c *gin.Context) {
	var req productsvc.CreateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	p, err := h.deps.ProductSvc.Create(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toProduct(*p))
}

func (h *handlers) updateProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req productsvc.UpdateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	p, err := h.deps.ProductSvc.Update(c.Request.Context(), id, req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProduct(*p))
}

func (h *handlers) deleteProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.deps.ProductSvc.Deactivate(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) setStock(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req stockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_request", "quantity is required")
		return
	}
	p, err := h.deps.ProductSvc.SetStock(c.Request.Context(), id, *req.Quantity)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProduct(*p))
}
