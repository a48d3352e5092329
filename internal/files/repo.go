package files

import (
	"context"
	"errors"
)

var (
	// ErrNotFound indicates no upload record matches the document id.
	ErrNotFound = errors.New("document not found")
	// ErrInvalidInput indicates a missing or malformed field.
	ErrInvalidInput = errors.New("invalid input")
)

// Repo defines persistence operations for upload records.
type Repo interface {
	Create(ctx context.Context, rec UploadRecord) error
	GetByDocumentID(ctx context.Context, documentID string) (UploadRecord, error)
	ListByOwner(ctx context.Context, ownerToken string) ([]UploadRecord, error)
	Rename(ctx context.Context, documentID, fileName string) error
	Delete(ctx context.Context, documentID string) error
	SetProviderResources(ctx context.Context, documentID string, res ProviderResources) error
	Share(ctx context.Context, documentID, phone string) error
	ListSharedWith(ctx context.Context, phone string) ([]UploadRecord, error)
}
