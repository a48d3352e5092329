package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"docqa-backend/internal/shared/server/respond"
)

const (
	userTokenKey = "userToken"
	userPhoneKey = "userPhone"
)

// TokenVerifier resolves an opaque bearer token to the owning account.
// A nil error means the token is valid; phone identifies the account.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (phone string, err error)
}

// Auth validates the opaque bearer token issued at signup and stores the
// caller's identity in the request context. Tokens never expire.
func Auth(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			return
		}

		token := strings.TrimSpace(c.GetHeader("Authorization"))
		// Clients send the token verbatim; tolerate a Bearer prefix.
		token = strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))
		if token == "" {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing token", nil)
			return
		}

		phone, err := verifier.VerifyToken(c.Request.Context(), token)
		if err != nil {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "invalid token", nil)
			return
		}

		c.Set(userTokenKey, token)
		c.Set(userPhoneKey, phone)
		c.Next()
	}
}

// UserTokenFromContext fetches the bearer token set by the auth middleware.
func UserTokenFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(userTokenKey)
	if token, ok := val.(string); ok {
		return token
	}
	return ""
}

// UserPhoneFromContext fetches the account phone set by the auth middleware.
func UserPhoneFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(userPhoneKey)
	if phone, ok := val.(string); ok {
		return phone
	}
	return ""
}
