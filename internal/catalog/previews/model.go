// Package previews manages homepage banner previews.
package previews

import (
	"errors"
	"time"
)

// Preview is a promotional banner shown on the public homepage.
type Preview struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Logo      string    `json:"logo"`
	CreatedAt time.Time `json:"created_at"`
}

var (
	// ErrNotFound indicates the preview does not exist.
	ErrNotFound = errors.New("previews: not found")
	// ErrDuplicate indicates the title is taken.
	ErrDuplicate = errors.New("previews: duplicate title")
)
