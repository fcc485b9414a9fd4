package services

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/mindmaster/mindmapd/internal/server/models"
	"github.com/mindmaster/mindmapd/internal/server/repositories/repomanager"
)

// FileService manages the named documents a user keeps besides the live
// map. Every owner-scoped operation takes the caller's user id and cannot
// reach another user's rows; a cross-owner id looks exactly like a missing
// one.
type FileService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewFileService(db *sql.DB, m repomanager.RepositoryManager) *FileService {
	return &FileService{db: db, repomanager: m}
}

// List returns the caller's file summaries, most recently updated first.
func (s *FileService) List(ctx context.Context, userID int64) ([]*models.FileSummary, error) {
	return s.repomanager.Files(s.db).ListByOwner(ctx, userID)
}

// Create stores a new file with created_at == updated_at.
func (s *FileService) Create(ctx context.Context, userID int64, name string, data json.RawMessage) (*models.File, error) {
	now := timeNow()
	return s.repomanager.Files(s.db).Create(ctx, &models.File{
		UserID:    userID,
		Name:      name,
		Data:      data,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

// Get returns the full file including its payload.
func (s *FileService) Get(ctx context.Context, userID, fileID int64) (*models.File, error) {
	return s.repomanager.Files(s.db).GetOwned(ctx, userID, fileID)
}

// Rename changes the display name and bumps updated_at; created_at and the
// payload stay as they were.
func (s *FileService) Rename(ctx context.Context, userID, fileID int64, name string) (*models.FileSummary, error) {
	return s.repomanager.Files(s.db).Rename(ctx, userID, fileID, name, timeNow())
}

// UpdateData overwrites the payload completely and bumps updated_at.
func (s *FileService) UpdateData(ctx context.Context, userID, fileID int64, data json.RawMessage) (*models.FileSummary, error) {
	return s.repomanager.Files(s.db).UpdateData(ctx, userID, fileID, data, timeNow())
}

// Delete removes the file permanently. No soft delete.
func (s *FileService) Delete(ctx context.Context, userID, fileID int64) error {
	return s.repomanager.Files(s.db).Delete(ctx, userID, fileID)
}

// ListAll returns every file with its owner. Admin only; the boundary has
// already checked the privilege flag.
func (s *FileService) ListAll(ctx context.Context) ([]*models.OwnedFileSummary, error) {
	return s.repomanager.Files(s.db).ListAll(ctx)
}

// DeleteAny removes a file regardless of owner. Admin only.
func (s *FileService) DeleteAny(ctx context.Context, fileID int64) error {
	return s.repomanager.Files(s.db).DeleteAny(ctx, fileID)
}
