package local

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"docqa-backend/internal/shared/storage/object"
)

// Store implements ObjectStore using the local filesystem.
type Store struct {
	baseDir string
}

// New creates a new local object store rooted at baseDir.
func New(baseDir string) object.ObjectStore {
	return &Store{baseDir: baseDir}
}

// Save writes the reader to disk under the given storage key.
func (s *Store) Save(ctx context.Context, storageKey string, r io.Reader) (int64, string, error) {
	if err := ctx.Err(); err != nil {
		return 0, "", err
	}

	fullPath, err := s.resolve(storageKey)
	if err != nil {
		return 0, "", err
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return 0, "", fmt.Errorf("mkdir: %w", err)
	}

	f, err := os.OpenFile(fullPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, "", fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	var sniff [512]byte
	n, readErr := io.ReadFull(r, sniff[:])
	if readErr != nil && readErr != io.EOF && readErr != io.ErrUnexpectedEOF {
		return 0, "", fmt.Errorf("read sniff: %w", readErr)
	}

	mimeType := http.DetectContentType(sniff[:n])

	size := int64(0)
	if n > 0 {
		if _, err := f.Write(sniff[:n]); err != nil {
			return 0, "", fmt.Errorf("write sniff: %w", err)
		}
		size += int64(n)
	}

	written, err := io.Copy(f, r)
	if err != nil {
		return 0, "", fmt.Errorf("write body: %w", err)
	}
	size += written

	return size, mimeType, nil
}

// Open opens a stored object for reading.
func (s *Store) Open(ctx context.Context, storageKey string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fullPath, err := s.resolve(storageKey)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(fullPath)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// URL returns a file URL for a storage key.
func (s *Store) URL(storageKey string) string {
	fullPath, err := s.resolve(storageKey)
	if err != nil {
		return ""
	}
	abs, err := filepath.Abs(fullPath)
	if err != nil {
		return ""
	}
	return "file://" + filepath.ToSlash(abs)
}

func (s *Store) resolve(storageKey string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(storageKey))
	if strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid storage key")
	}
	return filepath.Join(s.baseDir, clean), nil
}

var _ object.ObjectStore = (*Store)(nil)
