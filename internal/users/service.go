package users

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials covers both an unknown phone and a wrong password,
// so a caller cannot distinguish which half failed.
var ErrInvalidCredentials = errors.New("invalid phone or password")

// ErrInvalidInput indicates a missing required field.
var ErrInvalidInput = errors.New("name, phone and password are required")

// Service contains account business logic.
type Service struct {
	Repo Repo
}

// NewService constructs a Service.
func NewService(repo Repo) *Service {
	return &Service{Repo: repo}
}

// Register creates an account and returns the issued bearer token.
func (s *Service) Register(ctx context.Context, name, phone, password string) (string, error) {
	name = strings.TrimSpace(name)
	phone = strings.TrimSpace(phone)
	if name == "" || phone == "" || password == "" {
		return "", ErrInvalidInput
	}

	if _, err := s.Repo.GetByPhone(ctx, phone); err == nil {
		return "", ErrPhoneExists
	} else if !errors.Is(err, ErrNotFound) {
		return "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	user := User{
		Token:        "user_" + uuid.NewString(),
		Phone:        phone,
		Name:         name,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.Repo.Create(ctx, user); err != nil {
		return "", err
	}
	return user.Token, nil
}

// Login verifies credentials and returns the stored account.
func (s *Service) Login(ctx context.Context, phone, password string) (User, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" || password == "" {
		return User{}, ErrInvalidInput
	}

	user, err := s.Repo.GetByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, ErrInvalidCredentials
		}
		return User{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return User{}, ErrInvalidCredentials
	}
	return user, nil
}

// VerifyToken resolves an opaque bearer token to the owning account's phone.
// Implements the auth middleware's TokenVerifier.
func (s *Service) VerifyToken(ctx context.Context, token string) (string, error) {
	if strings.TrimSpace(token) == "" {
		return "", ErrNotFound
	}
	user, err := s.Repo.GetByToken(ctx, token)
	if err != nil {
		return "", err
	}
	return user.Phone, nil
}
