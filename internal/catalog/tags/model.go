// Package tags manages the movie genre taxonomy.
package tags

import (
	"errors"
	"time"
)

// Tag is a genre label movies are classified under.
type Tag struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

var (
	// ErrNotFound indicates the tag does not exist.
	ErrNotFound = errors.New("tags: not found")
	// ErrDuplicate indicates the tag name is taken.
	ErrDuplicate = errors.New("tags: duplicate name")
)
