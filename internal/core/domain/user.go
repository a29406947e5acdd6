package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// User is an account holder. Email uniqueness is case-insensitive; the
// password is never kept in cleartext past the request that set it.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Roles        []Role    `json:"roles,omitempty"`
}

// NormalizeEmail lowercases an email for uniqueness comparisons and storage.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsSuperuser reports whether any of the user's roles is a superuser role.
func (u *User) IsSuperuser() bool {
	for _, r := range u.Roles {
		if r.IsSuperuser {
			return true
		}
	}
	return false
}

// Role groups permissions at a given precedence level. The catalog does not
// limit how many roles are superuser roles.
type Role struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Level       int       `json:"level"`
	IsSuperuser bool      `json:"is_superuser"`
}
