// Package models holds the persisted record shapes: users, the per-user
// live document, and named files.
package models

// User is an account row. PasswordHash holds the salted pbkdf2 verifier in
// "salthex$digesthex" form, never the raw password.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	CreatedAt    int64
	IsAdmin      bool
}

// UserSummary is the admin listing row: account fields plus the number of
// files the user owns.
type UserSummary struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	CreatedAt int64  `json:"created_at"`
	IsAdmin   bool   `json:"is_admin"`
	FileCount int64  `json:"file_count"`
}
