package httpserver

import (
	"errors"
	"net/http"

	"storefront/internal/domain"
	authsvc "storefront/internal/service/auth"
	usersvc "storefront/internal/service/user"

	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *handlers) register(c *gin.Context) {
	var req authsvc.RegisterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	sess, err := h.deps.AuthSvc.Register(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			writeError(c, http.StatusConflict, "email_taken", "email is already registered")
			return
		}
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, h.session(sess))
}

func (h *handlers) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_request", "email and password are required")
		return
	}
	sess, err := h.deps.AuthSvc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.session(sess))
}

func (h *handlers) session(s *authsvc.Session) sessionResponse {
	return sessionResponse{
		Token:     s.Token,
		TokenType: "Bearer",
		ExpiresIn: h.deps.AuthSvc.TokenTTLSeconds(),
		User:      s.User,
	}
}

func (h *handlers) me(c *gin.Context) {
	u, err := h.deps.UserSvc.Profile(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, userResponse{User: u})
}

func (h *handlers) updateMe(c *gin.Context) {
	var req usersvc.ProfileInput
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	u, err := h.deps.UserSvc.UpdateProfile(c.Request.Context(), currentUser(c).ID, req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, userResponse{User: u})
}

func (h *handlers) listAddresses(c *gin.Context) {
	addrs, err := h.deps.UserSvc.Addresses(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": addrs})
}

func (h *handlers) createAddress(c *gin.Context) {
	var req usersvc.AddressInput
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	a, err := h.deps.UserSvc.CreateAddress(c.Request.Context(), currentUser(c).ID, req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

func (h *handlers) updateAddress(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req usersvc.AddressInput
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	a, err := h.deps.UserSvc.UpdateAddress(c.Request.Context(), currentUser(c).ID, id, req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (h *handlers) deleteAddress(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.deps.UserSvc.DeleteAddress(c.Request.Context(), currentUser(c).ID, id); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
