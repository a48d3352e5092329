package files

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"docqa-backend/internal/shared/storage/object"
	"docqa-backend/internal/shared/util"
)

// Service contains business logic for uploads.
type Service struct {
	Store object.ObjectStore
	Repo  Repo
}

// Upload saves the file bytes to object storage and records the document.
// The storage key embeds the upload time and the original file name. If the
// blob write succeeds but the record insert fails, the orphaned blob is left
// behind; there is no rollback.
func (s *Service) Upload(ctx context.Context, ownerToken, fileName string, r io.Reader) (UploadRecord, error) {
	if strings.TrimSpace(fileName) == "" {
		return UploadRecord{}, ErrInvalidInput
	}
	sanitized, err := util.SanitizeFileName(fileName)
	if err != nil {
		return UploadRecord{}, ErrInvalidInput
	}

	now := time.Now().UTC()
	storageKey := fmt.Sprintf("uploads/%d-%s", now.UnixMilli(), sanitized)

	size, mimeType, err := s.Store.Save(ctx, storageKey, r)
	if err != nil {
		return UploadRecord{}, err
	}

	rec := UploadRecord{
		DocumentID: "document_" + uuid.NewString(),
		OwnerToken: ownerToken,
		StorageKey: storageKey,
		StorageURL: s.Store.URL(storageKey),
		FileName:   fileName,
		SizeBytes:  size,
		MimeType:   mimeType,
		UploadedAt: now,
	}

	if err := s.Repo.Create(ctx, rec); err != nil {
		return UploadRecord{}, err
	}
	return rec, nil
}

// List returns the caller's upload records.
func (s *Service) List(ctx context.Context, ownerToken string) ([]UploadRecord, error) {
	return s.Repo.ListByOwner(ctx, ownerToken)
}

// Rename updates the display name of a document. The document id, storage
// key and stored bytes are untouched.
func (s *Service) Rename(ctx context.Context, documentID, fileName string) error {
	if strings.TrimSpace(documentID) == "" || strings.TrimSpace(fileName) == "" {
		return ErrInvalidInput
	}
	return s.Repo.Rename(ctx, documentID, fileName)
}

// Delete removes a document record. The stored blob is left in place.
func (s *Service) Delete(ctx context.Context, documentID string) error {
	if strings.TrimSpace(documentID) == "" {
		return ErrInvalidInput
	}
	return s.Repo.Delete(ctx, documentID)
}

// Share grants another account read access to one of the caller's documents.
func (s *Service) Share(ctx context.Context, ownerToken, documentID, phone string) error {
	if strings.TrimSpace(documentID) == "" || strings.TrimSpace(phone) == "" {
		return ErrInvalidInput
	}
	rec, err := s.Repo.GetByDocumentID(ctx, documentID)
	if err != nil {
		return err
	}
	if rec.OwnerToken != ownerToken {
		return ErrNotFound
	}
	return s.Repo.Share(ctx, documentID, phone)
}

// SharedWith returns the records other accounts have shared with the phone.
func (s *Service) SharedWith(ctx context.Context, phone string) ([]UploadRecord, error) {
	return s.Repo.ListSharedWith(ctx, phone)
}
