// Package movies manages the film catalog.
package movies

import (
	"errors"
	"time"
)

// Movie is a catalog entry. URL and Logo hold file names produced by
// the storage sink, not absolute paths.
type Movie struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	URL          string    `json:"url"`
	Info         string    `json:"info"`
	Logo         string    `json:"logo"`
	Star         int       `json:"star"`
	PlayCount    int64     `json:"play_count"`
	CommentCount int64     `json:"comment_count"`
	TagID        int64     `json:"tag_id"`
	TagName      string    `json:"tag_name,omitempty"`
	Area         string    `json:"area"`
	ReleaseDate  time.Time `json:"release_date"`
	Length       string    `json:"length"`
	CreatedAt    time.Time `json:"created_at"`
}

// Filters narrows catalog listings.
type Filters struct {
	TagID int64
	Star  int
	Title string
}

var (
	// ErrNotFound indicates the movie does not exist.
	ErrNotFound = errors.New("movies: not found")
	// ErrDuplicate indicates the title is taken.
	ErrDuplicate = errors.New("movies: duplicate title")
)
