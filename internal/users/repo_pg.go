package users

import (
	"context"
	"database/sql"
	"errors"
	"strings"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a new user. A duplicate phone maps to ErrPhoneExists.
func (r *PGRepo) Create(ctx context.Context, user User) error {
	const query = `
INSERT INTO users (token, phone, name, password_hash, created_at)
VALUES ($1, $2, $3, $4, $5)`
	_, err := r.DB.ExecContext(ctx, query,
		user.Token,
		user.Phone,
		user.Name,
		user.PasswordHash,
		user.CreatedAt,
	)
	if err != nil && isUniqueViolation(err) {
		return ErrPhoneExists
	}
	return err
}

// GetByPhone fetches a user by phone.
func (r *PGRepo) GetByPhone(ctx context.Context, phone string) (User, error) {
	const query = `
SELECT token, phone, name, password_hash, created_at
FROM users
WHERE phone = $1
LIMIT 1`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, phone))
}

// GetByToken fetches a user by bearer token.
func (r *PGRepo) GetByToken(ctx context.Context, token string) (User, error) {
	const query = `
SELECT token, phone, name, password_hash, created_at
FROM users
WHERE token = $1
LIMIT 1`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, token))
}

func (r *PGRepo) scanOne(row *sql.Row) (User, error) {
	var user User
	err := row.Scan(
		&user.Token,
		&user.Phone,
		&user.Name,
		&user.PasswordHash,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return user, nil
}

// isUniqueViolation matches Postgres unique-constraint failures (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23505")
}

var _ Repo = (*PGRepo)(nil)
