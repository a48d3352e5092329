package users

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func newTestRouter() (*gin.Engine, *Service) {
	gin.SetMode(gin.TestMode)
	svc := NewService(NewMemoryRepo())
	handler := NewHandler(svc)
	router := gin.New()
	handler.RegisterRoutes(router)
	return router, svc
}

func postJSON(t *testing.T, router *gin.Engine, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestRegisterThenLogin(t *testing.T) {
	router, _ := newTestRouter()

	resp := postJSON(t, router, "/register", gin.H{
		"name":     "Ada",
		"phone":    "+1555",
		"password": "p",
	})
	if resp.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d: %s", resp.Code, resp.Body.String())
	}

	var registered struct {
		Message string `json:"message"`
		TokenID string `json:"tokenId"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &registered); err != nil {
		t.Fatalf("decode register response: %v", err)
	}
	if registered.TokenID == "" {
		t.Fatal("expected tokenId in register response")
	}

	resp = postJSON(t, router, "/login", gin.H{
		"phone":    "+1555",
		"password": "p",
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var logged struct {
		Message string `json:"message"`
		TokenID string `json:"tokenId"`
		User    struct {
			UserID string `json:"userId"`
			Phone  string `json:"phone"`
			Name   string `json:"name"`
		} `json:"user"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &logged); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if logged.TokenID != registered.TokenID {
		t.Fatalf("login token %q != register token %q", logged.TokenID, registered.TokenID)
	}
	if logged.User.Phone != "+1555" || logged.User.Name != "Ada" {
		t.Fatalf("unexpected user payload: %+v", logged.User)
	}
}

func TestLoginWrongPasswordReturns401(t *testing.T) {
	router, _ := newTestRouter()

	resp := postJSON(t, router, "/register", gin.H{
		"name":     "Ada",
		"phone":    "+1555",
		"password": "right",
	})
	if resp.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d", resp.Code)
	}

	resp = postJSON(t, router, "/login", gin.H{
		"phone":    "+1555",
		"password": "wrong",
	})
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestRegisterMissingFieldsReturns400(t *testing.T) {
	router, _ := newTestRouter()

	resp := postJSON(t, router, "/register", gin.H{"name": "Ada"})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestRegisterDuplicatePhoneReturns400(t *testing.T) {
	router, _ := newTestRouter()

	first := postJSON(t, router, "/register", gin.H{
		"name":     "Ada",
		"phone":    "+1555",
		"password": "p",
	})
	if first.Code != http.StatusCreated {
		t.Fatalf("first register: expected 201, got %d", first.Code)
	}

	second := postJSON(t, router, "/register", gin.H{
		"name":     "Bob",
		"phone":    "+1555",
		"password": "q",
	})
	if second.Code != http.StatusBadRequest {
		t.Fatalf("second register: expected 400, got %d: %s", second.Code, second.Body.String())
	}
}
