package users

import (
	"context"
	"sync"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu      sync.RWMutex
	byPhone map[string]User
	byToken map[string]User
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		byPhone: make(map[string]User),
		byToken: make(map[string]User),
	}
}

// Create stores a new user, rejecting duplicate phones.
func (r *MemoryRepo) Create(ctx context.Context, user User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byPhone[user.Phone]; ok {
		return ErrPhoneExists
	}
	r.byPhone[user.Phone] = user
	r.byToken[user.Token] = user
	return nil
}

// GetByPhone fetches a user by phone.
func (r *MemoryRepo) GetByPhone(ctx context.Context, phone string) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.byPhone[phone]
	if !ok {
		return User{}, ErrNotFound
	}
	return user, nil
}

// GetByToken fetches a user by bearer token.
func (r *MemoryRepo) GetByToken(ctx context.Context, token string) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.byToken[token]
	if !ok {
		return User{}, ErrNotFound
	}
	return user, nil
}

var _ Repo = (*MemoryRepo)(nil)
