package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/mindmaster/mindmapd/internal/common"
	"github.com/mindmaster/mindmapd/internal/dbx"
	"github.com/mindmaster/mindmapd/internal/server/models"
	"github.com/mindmaster/mindmapd/internal/server/repositories/repomanager"
)

// DocumentService is the sync engine for the per-user live document. Writes
// are last-writer-wins with an optimistic staleness check: a push carrying a
// version older than the stored one is rejected, never merged, and the
// client is expected to pull and retry.
type DocumentService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewDocumentService(db *sql.DB, m repomanager.RepositoryManager) *DocumentService {
	return &DocumentService{db: db, repomanager: m}
}

// Pull returns the user's live document, or nil when nothing has ever been
// pushed. An empty slot is a normal state, not an error.
func (s *DocumentService) Pull(ctx context.Context, userID int64) (*models.Document, error) {
	doc, err := s.repomanager.Documents(s.db).Get(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return doc, nil
}

// Push overwrites the user's live document and returns the new version
// stamp.
//
// The staleness check and the write run in one transaction, and the read
// takes the row lock, so concurrent pushes for the same user queue up
// instead of interleaving into a lost update. When the slot holds a newer
// version than the client last saw, the push fails with
// common.ErrorConflict and nothing is written. A nil clientVersion is an
// explicit override: it skips the check entirely and always wins.
//
// Version stamps are wall-clock seconds forced to be strictly increasing:
// two pushes within the same second still get distinct, ordered versions.
func (s *DocumentService) Push(ctx context.Context, userID int64, data json.RawMessage, clientVersion *int64) (int64, error) {
	var newVersion int64

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Documents(tx)

		var storedVersion int64
		stored, err := repo.GetForUpdate(ctx, userID)
		switch {
		case err == nil:
			storedVersion = stored.UpdatedAt
		case errors.Is(err, common.ErrorNotFound):
			// first push for this user
		default:
			return err
		}

		if stored != nil && clientVersion != nil && storedVersion > *clientVersion {
			return common.ErrorConflict
		}

		newVersion = timeNow()
		if newVersion <= storedVersion {
			newVersion = storedVersion + 1
		}

		return repo.Upsert(ctx, &models.Document{
			UserID:    userID,
			Data:      data,
			UpdatedAt: newVersion,
		})
	})
	if err != nil {
		return 0, err
	}
	return newVersion, nil
}
