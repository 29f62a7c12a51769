package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"storefront/internal/domain"
	authsvc "storefront/internal/service/auth"

	"github.com/gin-gonic/gin"
)

type ctxKey string

const userCtxKey ctxKey = "user"

// authMiddleware resolves the bearer token into a user and stores it on the
// request context. Requests without a valid token stop with 401.
func authMiddleware(svc authService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			writeError(c, http.StatusUnauthorized, "unauthorized", "missing bearer token")
			return
		}
		u, err := svc.LookupByToken(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, authsvc.ErrInvalidToken) {
				writeError(c, http.StatusUnauthorized, "unauthorized", "invalid or expired token")
				return
			}
			writeError(c, http.StatusInternalServerError, "internal_error", "could not verify token")
			return
		}
		ctx := context.WithValue(c.Request.Context(), userCtxKey, u)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func currentUser(c *gin.Context) *domain.User {
	u, _ := c.Request.Context().Value(userCtxKey).(*domain.User)
	return u
}
