// Package users stores account rows.
package users

import (
	"context"

	"github.com/mindmaster/mindmapd/internal/server/models"
)

type Repository interface {
	// Create inserts a new account and returns it with the assigned id.
	// A duplicate username yields common.ErrorUsernameTaken.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	// GetByUsername returns the account or common.ErrorNotFound.
	GetByUsername(ctx context.Context, username string) (*models.User, error)

	// GetByID returns the account or common.ErrorNotFound.
	GetByID(ctx context.Context, id int64) (*models.User, error)

	// UpdatePassword replaces the stored verifier. Missing user yields
	// common.ErrorNotFound.
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error

	// SetAdmin flips the privilege flag. Missing user yields
	// common.ErrorNotFound.
	SetAdmin(ctx context.Context, id int64, isAdmin bool) error

	// ListWithFileCounts returns every account with its file count, newest
	// accounts first.
	ListWithFileCounts(ctx context.Context) ([]*models.UserSummary, error)
}
