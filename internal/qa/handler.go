package qa

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"docqa-backend/internal/files"
	"docqa-backend/internal/shared/server/middleware"
	"docqa-backend/internal/shared/server/respond"
)

// Handler wires the ask endpoint to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches the question-answering route.
func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	r.POST("/ask", h.ask)
}

type askRequest struct {
	DocumentID string `json:"documentId"`
	Question   string `json:"question"`
}

func (h *Handler) ask(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.DocumentID == "" || req.Question == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "documentId and question are required", nil)
		return
	}
	c.Set("documentId", req.DocumentID)

	callerToken := middleware.UserTokenFromContext(c)
	callerPhone := middleware.UserPhoneFromContext(c)

	answer, err := h.Svc.Ask(c.Request.Context(), callerToken, callerPhone, req.DocumentID, req.Question)
	if err != nil {
		var runFailed *RunFailedError
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", "documentId and question are required", nil)
		case errors.Is(err, files.ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "Document not found", nil)
		case errors.Is(err, ErrNoAnswer):
			respond.Error(c, http.StatusNotFound, "not_found", "No answer was produced for this question", nil)
		case errors.Is(err, ErrTimeout):
			respond.Error(c, http.StatusGatewayTimeout, "upstream_timeout", "The assistant took too long to respond", nil)
		case errors.As(err, &runFailed):
			respond.Error(c, http.StatusInternalServerError, "upstream_failed", "The assistant failed to answer", gin.H{
				"status": runFailed.Status,
				"code":   runFailed.Code,
				"detail": runFailed.Detail,
			})
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "Failed to answer question", nil)
		}
		return
	}

	resp := gin.H{
		"documentId": answer.DocumentID,
		"question":   answer.Question,
		"answer":     answer.Text,
		"threadId":   answer.ThreadID,
	}
	if len(answer.Citations) > 0 {
		resp["citations"] = answer.Citations
	}
	respond.OK(c, resp)
}
