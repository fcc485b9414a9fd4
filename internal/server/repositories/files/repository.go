// Package files stores the named, independently versioned documents a user
// keeps besides the live map. Owner-scoped operations carry the caller's
// user id in the WHERE clause, so a file owned by someone else is
// indistinguishable from one that does not exist.
package files

import (
	"context"
	"encoding/json"

	"github.com/mindmaster/mindmapd/internal/server/models"
)

type Repository interface {
	// Create inserts a new file and returns it with the assigned id.
	Create(ctx context.Context, file *models.File) (*models.File, error)

	// GetOwned returns the full file or common.ErrorNotFound, including when
	// the id exists under a different owner.
	GetOwned(ctx context.Context, userID, fileID int64) (*models.File, error)

	// ListByOwner returns the user's file summaries, most recently updated
	// first. Payloads are never included in listings.
	ListByOwner(ctx context.Context, userID int64) ([]*models.FileSummary, error)

	// Rename updates name and updated_at in one statement; created_at and the
	// payload are untouched. Misses yield common.ErrorNotFound.
	Rename(ctx context.Context, userID, fileID int64, name string, updatedAt int64) (*models.FileSummary, error)

	// UpdateData overwrites the payload and updated_at in one statement.
	// Misses yield common.ErrorNotFound.
	UpdateData(ctx context.Context, userID, fileID int64, data json.RawMessage, updatedAt int64) (*models.FileSummary, error)

	// Delete removes the file permanently. Misses yield common.ErrorNotFound.
	Delete(ctx context.Context, userID, fileID int64) error

	// ListAll returns every file with its owner, most recently updated first.
	// Admin only; no ownership filter.
	ListAll(ctx context.Context) ([]*models.OwnedFileSummary, error)

	// DeleteAny removes a file regardless of owner. Admin only.
	DeleteAny(ctx context.Context, fileID int64) error
}
