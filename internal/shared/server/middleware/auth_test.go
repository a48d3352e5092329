package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

type staticVerifier struct {
	tokens map[string]string
}

func (v staticVerifier) VerifyToken(ctx context.Context, token string) (string, error) {
	phone, ok := v.tokens[token]
	if !ok {
		return "", errors.New("unknown token")
	}
	return phone, nil
}

func newAuthRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	verifier := staticVerifier{tokens: map[string]string{"user_abc": "+1555"}}

	r := gin.New()
	r.Use(Auth(verifier))
	r.GET("/files", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"token": UserTokenFromContext(c),
			"phone": UserPhoneFromContext(c),
		})
	})
	return r
}

func TestAuthMissingTokenReturns401(t *testing.T) {
	r := newAuthRouter()

	req := httptest.NewRequest(http.MethodGet, "/files", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}

func TestAuthInvalidTokenReturns401(t *testing.T) {
	r := newAuthRouter()

	req := httptest.NewRequest(http.MethodGet, "/files", nil)
	req.Header.Set("Authorization", "user_unknown")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}

func TestAuthValidTokenSetsIdentity(t *testing.T) {
	r := newAuthRouter()

	req := httptest.NewRequest(http.MethodGet, "/files", nil)
	req.Header.Set("Authorization", "user_abc")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	body := resp.Body.String()
	if !strings.Contains(body, "user_abc") || !strings.Contains(body, "+1555") {
		t.Fatalf("identity missing from response: %s", body)
	}
}

func TestAuthToleratesBearerPrefix(t *testing.T) {
	r := newAuthRouter()

	req := httptest.NewRequest(http.MethodGet, "/files", nil)
	req.Header.Set("Authorization", "Bearer user_abc")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 with Bearer prefix, got %d", resp.Code)
	}
}
