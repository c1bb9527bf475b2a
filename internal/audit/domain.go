// Package audit keeps the append-only trail of administrative
// mutations and the login logs for both principal kinds.
package audit

import "time"

// Entry is one administrative operation record. Entries are written
// once, inside the same transaction as the mutation they describe, and
// never updated or deleted.
type Entry struct {
	ID        int64     `json:"id"`
	AdminID   int64     `json:"admin_id"`
	AdminName string    `json:"admin_name,omitempty"`
	IP        string    `json:"ip"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}

// AdminLogin records one successful administrator authentication.
type AdminLogin struct {
	ID        int64     `json:"id"`
	AdminID   int64     `json:"admin_id"`
	AdminName string    `json:"admin_name,omitempty"`
	IP        string    `json:"ip"`
	CreatedAt time.Time `json:"created_at"`
}

// MemberLogin records one successful member authentication.
type MemberLogin struct {
	ID         int64     `json:"id"`
	MemberID   int64     `json:"member_id"`
	MemberName string    `json:"member_name,omitempty"`
	IP         string    `json:"ip"`
	CreatedAt  time.Time `json:"created_at"`
}

// Filters narrows audit listings. A zero AdminID means all actors.
type Filters struct {
	AdminID  int64
	Page     int
	PageSize int
}
