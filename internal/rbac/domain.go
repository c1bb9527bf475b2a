// Package rbac implements the permission registry, roles, and the
// per-request authorization gate for the admin back office.
package rbac

import (
	"errors"
	"time"
)

// Permission is a named capability bound to one canonical route key.
// Route keys are compared by exact string equality; there is no
// wildcard or prefix matching.
type Permission struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Route     string    `json:"route"`
	CreatedAt time.Time `json:"created_at"`
}

// Role is a named bundle of permission references assigned to
// administrators. References are resolved against the live registry at
// check time, so deleting a permission leaves a dangling reference that
// simply never matches.
type Role struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	PermissionIDs []int64   `json:"permission_ids"`
	CreatedAt     time.Time `json:"created_at"`
}

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("rbac: not found")
	// ErrDuplicate indicates a unique name or route collision.
	ErrDuplicate = errors.New("rbac: duplicate")
)
