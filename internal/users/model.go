package users

import "time"

// User represents a registered account. Token is the opaque bearer
// credential issued at signup; it doubles as the external user id.
type User struct {
	Token        string
	Phone        string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
}
