// Package members manages end-user accounts, their comments, and
// their favorite lists.
package members

import (
	"errors"
	"time"
)

// Member is a registered end user. UUID is the public identifier;
// the password verifier never leaves the repository in responses.
type Member struct {
	ID           int64     `json:"id"`
	UUID         string    `json:"uuid"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	Info         string    `json:"info"`
	Face         string    `json:"face"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Comment is a member's remark on a movie.
type Comment struct {
	ID         int64     `json:"id"`
	MovieID    int64     `json:"movie_id"`
	MemberID   int64     `json:"member_id"`
	MovieTitle string    `json:"movie_title,omitempty"`
	MemberName string    `json:"member_name,omitempty"`
	Text       string    `json:"text"`
	CreatedAt  time.Time `json:"created_at"`
}

// Favorite marks a movie a member keeps on their list. At most one
// row exists per member and movie.
type Favorite struct {
	ID         int64     `json:"id"`
	MovieID    int64     `json:"movie_id"`
	MemberID   int64     `json:"member_id"`
	MovieTitle string    `json:"movie_title,omitempty"`
	MemberName string    `json:"member_name,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

var (
	// ErrNotFound indicates the record does not exist.
	ErrNotFound = errors.New("members: not found")
	// ErrDuplicate indicates a name, email, or phone is taken.
	ErrDuplicate = errors.New("members: duplicate")
)
