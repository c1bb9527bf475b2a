// Package admins manages administrator accounts and their role
// assignments.
package admins

import (
	"errors"
	"time"
)

// Admin is an administrator account for management listings. The
// password verifier never leaves the repository.
type Admin struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	IsSuper   bool      `json:"is_super"`
	RoleID    int64     `json:"role_id"`
	RoleName  string    `json:"role_name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

var (
	// ErrNotFound indicates the administrator does not exist.
	ErrNotFound = errors.New("admins: not found")
	// ErrDuplicate indicates the login name is taken.
	ErrDuplicate = errors.New("admins: duplicate name")
)
