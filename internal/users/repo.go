package users

import (
	"context"
	"errors"
)

var (
	// ErrNotFound indicates no user matches the lookup.
	ErrNotFound = errors.New("user not found")
	// ErrPhoneExists indicates the phone is already registered.
	ErrPhoneExists = errors.New("phone already registered")
)

// Repo defines persistence operations for users.
type Repo interface {
	Create(ctx context.Context, user User) error
	GetByPhone(ctx context.Context, phone string) (User, error)
	GetByToken(ctx context.Context, token string) (User, error)
}
