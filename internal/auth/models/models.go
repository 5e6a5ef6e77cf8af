package models

import (
	"time"

	id "registro/pkg/domain"
)

// User is an operator account of the registry.
type User struct {
	ID           id.UserID
	Username     string
	PasswordHash string
	Nombre       string
	Role         id.Role
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RefreshTokenRecord is a persisted refresh token. TokenHash is the SHA-256
// digest of the opaque cookie value; the raw value is never stored.
type RefreshTokenRecord struct {
	ID        string
	TokenHash string
	UserID    id.UserID
	ExpiresAt time.Time
	Used      bool
	UserAgent string
	CreatedAt time.Time
}

// IsExpired reports whether the token is past its expiry at now.
func (r *RefreshTokenRecord) IsExpired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

// UserUpdate carries the optional fields of an admin user edit.
type UserUpdate struct {
	Nombre   *string
	Role     *id.Role
	Active   *bool
	Password *string
}
