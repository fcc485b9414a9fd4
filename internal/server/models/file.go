package models

import "encoding/json"

// File is a named, independently versioned document owned by one user.
type File struct {
	ID        int64
	UserID    int64
	Name      string
	Data      json.RawMessage
	CreatedAt int64
	UpdatedAt int64
}

// FileSummary is what listings and mutation results carry: everything but
// the payload.
type FileSummary struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
}

// OwnedFileSummary is the admin listing row, a summary plus the owner.
type OwnedFileSummary struct {
	FileSummary
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
}
