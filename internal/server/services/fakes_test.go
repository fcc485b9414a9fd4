package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"sort"

	"github.com/mindmaster/mindmapd/internal/common"
	"github.com/mindmaster/mindmapd/internal/dbx"
	"github.com/mindmaster/mindmapd/internal/server/models"
	"github.com/mindmaster/mindmapd/internal/server/repositories/documents"
	"github.com/mindmaster/mindmapd/internal/server/repositories/files"
	"github.com/mindmaster/mindmapd/internal/server/repositories/users"
)

// In-memory fakes standing in for the Postgres repositories. They ignore the
// DBTX handle; transactional behavior is covered by the repository and dbx
// tests.

type fakeRepoManager struct {
	users     *fakeUsersRepo
	documents *fakeDocumentsRepo
	files     *fakeFilesRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{
		users:     &fakeUsersRepo{byID: map[int64]*models.User{}},
		documents: &fakeDocumentsRepo{docs: map[int64]*models.Document{}},
		files:     &fakeFilesRepo{byID: map[int64]*models.File{}},
	}
}

func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository         { return m.users }
func (m *fakeRepoManager) Documents(dbx.DBTX) documents.Repository { return m.documents }
func (m *fakeRepoManager) Files(dbx.DBTX) files.Repository         { return m.files }
func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error {
	return nil
}

// --- users ---

type fakeUsersRepo struct {
	byID      map[int64]*models.User
	nextID    int64
	err       error
	createErr error
	updateErr error
}

func (f *fakeUsersRepo) Create(_ context.Context, user *models.User) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.createErr != nil {
		return nil, f.createErr
	}
	for _, u := range f.byID {
		if u.Username == user.Username {
			return nil, common.ErrorUsernameTaken
		}
	}
	f.nextID++
	user.ID = f.nextID
	clone := *user
	f.byID[user.ID] = &clone
	return user, nil
}

func (f *fakeUsersRepo) GetByUsername(_ context.Context, username string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, u := range f.byID {
		if u.Username == username {
			clone := *u
			return &clone, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) GetByID(_ context.Context, id int64) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	clone := *u
	return &clone, nil
}

func (f *fakeUsersRepo) UpdatePassword(_ context.Context, id int64, passwordHash string) error {
	if f.err != nil {
		return f.err
	}
	if f.updateErr != nil {
		return f.updateErr
	}
	u, ok := f.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

func (f *fakeUsersRepo) SetAdmin(_ context.Context, id int64, isAdmin bool) error {
	if f.err != nil {
		return f.err
	}
	if f.updateErr != nil {
		return f.updateErr
	}
	u, ok := f.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.IsAdmin = isAdmin
	return nil
}

func (f *fakeUsersRepo) ListWithFileCounts(context.Context) ([]*models.UserSummary, error) {
	var result []*models.UserSummary
	for _, u := range f.byID {
		result = append(result, &models.UserSummary{
			ID: u.ID, Username: u.Username, CreatedAt: u.CreatedAt, IsAdmin: u.IsAdmin,
		})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt > result[j].CreatedAt })
	return result, nil
}

// --- documents ---

type fakeDocumentsRepo struct {
	docs        map[int64]*models.Document
	err         error
	lockedReads int
}

func (f *fakeDocumentsRepo) Get(_ context.Context, userID int64) (*models.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	doc, ok := f.docs[userID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	clone := *doc
	return &clone, nil
}

func (f *fakeDocumentsRepo) GetForUpdate(ctx context.Context, userID int64) (*models.Document, error) {
	f.lockedReads++
	return f.Get(ctx, userID)
}

func (f *fakeDocumentsRepo) Upsert(_ context.Context, doc *models.Document) error {
	if f.err != nil {
		return f.err
	}
	clone := *doc
	f.docs[doc.UserID] = &clone
	return nil
}

// --- files ---

type fakeFilesRepo struct {
	byID   map[int64]*models.File
	nextID int64
}

func (f *fakeFilesRepo) Create(_ context.Context, file *models.File) (*models.File, error) {
	f.nextID++
	file.ID = f.nextID
	clone := *file
	f.byID[file.ID] = &clone
	return file, nil
}

func (f *fakeFilesRepo) GetOwned(_ context.Context, userID, fileID int64) (*models.File, error) {
	file, ok := f.byID[fileID]
	if !ok || file.UserID != userID {
		return nil, common.ErrorNotFound
	}
	clone := *file
	return &clone, nil
}

func (f *fakeFilesRepo) ListByOwner(_ context.Context, userID int64) ([]*models.FileSummary, error) {
	var result []*models.FileSummary
	for _, file := range f.byID {
		if file.UserID != userID {
			continue
		}
		result = append(result, &models.FileSummary{
			ID: file.ID, Name: file.Name, CreatedAt: file.CreatedAt, UpdatedAt: file.UpdatedAt,
		})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].UpdatedAt > result[j].UpdatedAt })
	return result, nil
}

func (f *fakeFilesRepo) Rename(_ context.Context, userID, fileID int64, name string, updatedAt int64) (*models.FileSummary, error) {
	file, ok := f.byID[fileID]
	if !ok || file.UserID != userID {
		return nil, common.ErrorNotFound
	}
	file.Name = name
	file.UpdatedAt = updatedAt
	return &models.FileSummary{ID: file.ID, Name: file.Name, CreatedAt: file.CreatedAt, UpdatedAt: file.UpdatedAt}, nil
}

func (f *fakeFilesRepo) UpdateData(_ context.Context, userID, fileID int64, data json.RawMessage, updatedAt int64) (*models.FileSummary, error) {
	file, ok := f.byID[fileID]
	if !ok || file.UserID != userID {
		return nil, common.ErrorNotFound
	}
	file.Data = data
	file.UpdatedAt = updatedAt
	return &models.FileSummary{ID: file.ID, Name: file.Name, CreatedAt: file.CreatedAt, UpdatedAt: file.UpdatedAt}, nil
}

func (f *fakeFilesRepo) Delete(_ context.Context, userID, fileID int64) error {
	file, ok := f.byID[fileID]
	if !ok || file.UserID != userID {
		return common.ErrorNotFound
	}
	delete(f.byID, fileID)
	return nil
}

func (f *fakeFilesRepo) ListAll(context.Context) ([]*models.OwnedFileSummary, error) {
	var result []*models.OwnedFileSummary
	for _, file := range f.byID {
		result = append(result, &models.OwnedFileSummary{
			FileSummary: models.FileSummary{ID: file.ID, Name: file.Name, CreatedAt: file.CreatedAt, UpdatedAt: file.UpdatedAt},
			UserID:      file.UserID,
		})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].UpdatedAt > result[j].UpdatedAt })
	return result, nil
}

func (f *fakeFilesRepo) DeleteAny(_ context.Context, fileID int64) error {
	if _, ok := f.byID[fileID]; !ok {
		return common.ErrorNotFound
	}
	delete(f.byID, fileID)
	return nil
}
