package files

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"docqa-backend/internal/shared/server/middleware"
	"docqa-backend/internal/shared/server/respond"
)

const maxUploadSize = 10 << 20 // 10MB

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches the authenticated file routes.
func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	r.POST("/upload", h.upload)
	r.GET("/files", h.list)
	r.PUT("/files/:documentId", h.rename)
	r.DELETE("/files/:documentId", h.remove)
	r.POST("/share", h.share)
	r.GET("/files-shared", h.sharedWithMe)
}

func (h *Handler) upload(c *gin.Context) {
	ownerToken := middleware.UserTokenFromContext(c)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "No file uploaded", nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()

	rec, err := h.Svc.Upload(c.Request.Context(), ownerToken, fileHeader.Filename, file)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", "invalid file name", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "upload_failed", "File upload failed", err.Error())
		}
		return
	}

	c.Set("documentId", rec.DocumentID)
	respond.OK(c, gin.H{
		"documentId": rec.DocumentID,
		"s3Url":      rec.StorageURL,
		"message":    "File uploaded and processed successfully",
	})
}

func (h *Handler) list(c *gin.Context) {
	ownerToken := middleware.UserTokenFromContext(c)

	recs, err := h.Svc.List(c.Request.Context(), ownerToken)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list files", nil)
		return
	}

	respond.OK(c, gin.H{"report": toViews(recs, false)})
}

type renameRequest struct {
	FileName string `json:"fileName"`
}

func (h *Handler) rename(c *gin.Context) {
	documentID := c.Param("documentId")
	c.Set("documentId", documentID)

	var req renameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "fileName is required", nil)
		return
	}

	if err := h.Svc.Rename(c.Request.Context(), documentID, req.FileName); err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", "fileName is required", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "Failed to update file", nil)
		}
		return
	}

	respond.OK(c, gin.H{
		"success": true,
		"message": "File updated successfully",
	})
}

func (h *Handler) remove(c *gin.Context) {
	documentID := c.Param("documentId")
	c.Set("documentId", documentID)

	if err := h.Svc.Delete(c.Request.Context(), documentID); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "File not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "Failed to delete file", nil)
		}
		return
	}

	respond.OK(c, gin.H{
		"success": true,
		"message": "File deleted successfully",
	})
}

type shareRequest struct {
	DocumentID string `json:"documentId"`
	Phone      string `json:"phone"`
}

func (h *Handler) share(c *gin.Context) {
	ownerToken := middleware.UserTokenFromContext(c)

	var req shareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusUnprocessableEntity, "validation_error", "documentId and phone are required", nil)
		return
	}

	if err := h.Svc.Share(c.Request.Context(), ownerToken, req.DocumentID, req.Phone); err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusUnprocessableEntity, "validation_error", "documentId and phone are required", nil)
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "File not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "Failed to share file", nil)
		}
		return
	}

	respond.OK(c, gin.H{"success": true})
}

func (h *Handler) sharedWithMe(c *gin.Context) {
	phone := middleware.UserPhoneFromContext(c)

	recs, err := h.Svc.SharedWith(c.Request.Context(), phone)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list shared files", nil)
		return
	}

	respond.OK(c, gin.H{"report": toViews(recs, true)})
}
