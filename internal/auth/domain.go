// Package auth authenticates administrators and manages their
// back-office sessions.
package auth

import "time"

// Admin is an administrator account as seen by the credential store.
type Admin struct {
	ID           int64
	Name         string
	PasswordHash string
	IsSuper      bool
	RoleID       int64
	CreatedAt    time.Time
}
