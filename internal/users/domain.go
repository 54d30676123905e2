package users

import (
	"time"

	"github.com/trove-market/trove/internal/roles"
)

// User represents a registered account. PasswordHash never leaves the
// package boundary in API responses.
type User struct {
	ID           int64
	Email        string
	Username     string
	PasswordHash string
	Role         roles.Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Summary is the listing projection with the per-user item count.
type Summary struct {
	ID        int64      `json:"id"`
	Username  string     `json:"username"`
	Role      roles.Role `json:"role"`
	ItemCount int64      `json:"itemCount"`
}
