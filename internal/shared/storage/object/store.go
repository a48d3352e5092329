package object

import (
	"context"
	"io"
)

// ObjectStore defines the contract for saving and retrieving binary objects.
// Callers choose the storage key; the store reports the byte count and the
// sniffed MIME type of what it wrote.
type ObjectStore interface {
	Save(ctx context.Context, storageKey string, r io.Reader) (sizeBytes int64, mimeType string, err error)
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
	URL(storageKey string) string
}
