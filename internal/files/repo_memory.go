package files

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu     sync.RWMutex
	byID   map[string]UploadRecord
	shares map[string]map[string]struct{} // documentID -> phones
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		byID:   make(map[string]UploadRecord),
		shares: make(map[string]map[string]struct{}),
	}
}

// Create stores a new upload record.
func (r *MemoryRepo) Create(ctx context.Context, rec UploadRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[rec.DocumentID] = rec
	return nil
}

// GetByDocumentID fetches an upload record by document id.
func (r *MemoryRepo) GetByDocumentID(ctx context.Context, documentID string) (UploadRecord, error) {
	if err := ctx.Err(); err != nil {
		return UploadRecord{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.byID[documentID]
	if !ok {
		return UploadRecord{}, ErrNotFound
	}
	return rec, nil
}

// ListByOwner lists records owned by the token, newest first.
func (r *MemoryRepo) ListByOwner(ctx context.Context, ownerToken string) ([]UploadRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []UploadRecord
	for _, rec := range r.byID {
		if rec.OwnerToken == ownerToken {
			out = append(out, rec)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

// Rename updates only the display name. Renaming an unknown id is a no-op.
func (r *MemoryRepo) Rename(ctx context.Context, documentID, fileName string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.byID[documentID]
	if !ok {
		return nil
	}
	rec.FileName = fileName
	r.byID[documentID] = rec
	return nil
}

// Delete removes the record.
func (r *MemoryRepo) Delete(ctx context.Context, documentID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[documentID]; !ok {
		return ErrNotFound
	}
	delete(r.byID, documentID)
	delete(r.shares, documentID)
	return nil
}

// SetProviderResources persists the assistant-provider identifiers.
func (r *MemoryRepo) SetProviderResources(ctx context.Context, documentID string, res ProviderResources) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.byID[documentID]
	if !ok {
		return ErrNotFound
	}
	rec.Resources = res
	r.byID[documentID] = rec
	return nil
}

// Share grants an account read access to a document. Idempotent.
func (r *MemoryRepo) Share(ctx context.Context, documentID, phone string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.shares[documentID]; !ok {
		r.shares[documentID] = make(map[string]struct{})
	}
	r.shares[documentID][phone] = struct{}{}
	return nil
}

// ListSharedWith lists records shared with the phone, newest first.
func (r *MemoryRepo) ListSharedWith(ctx context.Context, phone string) ([]UploadRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []UploadRecord
	for documentID, phones := range r.shares {
		if _, ok := phones[phone]; !ok {
			continue
		}
		if rec, ok := r.byID[documentID]; ok {
			out = append(out, rec)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func sortNewestFirst(recs []UploadRecord) {
	sort.Slice(recs, func(i, j int) bool {
		return recs[i].UploadedAt.After(recs[j].UploadedAt)
	})
}

var _ Repo = (*MemoryRepo)(nil)
