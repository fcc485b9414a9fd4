// Package documents stores the one live mind map each user continuously
// syncs.
package documents

import (
	"context"

	"github.com/mindmaster/mindmapd/internal/server/models"
)

type Repository interface {
	// Get returns the user's live document or common.ErrorNotFound when
	// nothing has ever been pushed.
	Get(ctx context.Context, userID int64) (*models.Document, error)

	// GetForUpdate is Get with the row locked until the surrounding
	// transaction ends. Must run inside a transaction; concurrent writers
	// for the same user queue behind the lock.
	GetForUpdate(ctx context.Context, userID int64) (*models.Document, error)

	// Upsert overwrites the user's live document slot, creating it on first
	// push.
	Upsert(ctx context.Context, doc *models.Document) error
}
