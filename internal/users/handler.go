package users

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"docqa-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches the public auth routes.
func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	r.POST("/register", h.register)
	r.POST("/login", h.login)
}

type registerRequest struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	token, err := h.Svc.Register(c.Request.Context(), req.Name, req.Phone, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		case errors.Is(err, ErrPhoneExists):
			respond.Error(c, http.StatusBadRequest, "phone_exists", "phone already registered", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to register user", nil)
		}
		return
	}

	respond.JSON(c, http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"tokenId": token,
	})
}

type loginRequest struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	user, err := h.Svc.Login(c.Request.Context(), req.Phone, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		case errors.Is(err, ErrInvalidCredentials):
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "invalid phone or password", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to log in", nil)
		}
		return
	}

	respond.OK(c, gin.H{
		"message": "Login successful",
		"tokenId": user.Token,
		"user": gin.H{
			"userId": user.Token,
			"phone":  user.Phone,
			"name":   user.Name,
		},
	})
}
