package files

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mindmaster/mindmapd/internal/common"
	"github.com/mindmaster/mindmapd/internal/dbx"
	"github.com/mindmaster/mindmapd/internal/server/models"
)

// PostgresRepository implements Repository over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, file *models.File) (*models.File, error) {
	query :=
		`INSERT INTO files (user_id, name, data_json, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id
		 `

	err := r.db.QueryRowContext(ctx, query,
		file.UserID, file.Name, string(file.Data), file.CreatedAt, file.UpdatedAt).Scan(&file.ID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return file, nil
}

func (r *PostgresRepository) GetOwned(ctx context.Context, userID, fileID int64) (*models.File, error) {
	query :=
		`SELECT id, user_id, name, data_json, created_at, updated_at FROM files
		 WHERE id = $1 AND user_id = $2
		 `

	file := &models.File{}
	var data string
	err := r.db.QueryRowContext(ctx, query, fileID, userID).Scan(
		&file.ID, &file.UserID, &file.Name, &data, &file.CreatedAt, &file.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	file.Data = []byte(data)
	return file, nil
}

func (r *PostgresRepository) ListByOwner(ctx context.Context, userID int64) ([]*models.FileSummary, error) {
	query :=
		`SELECT id, name, created_at, updated_at FROM files
		 WHERE user_id = $1
		 ORDER BY updated_at DESC
		 `

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.FileSummary
	for rows.Next() {
		var item models.FileSummary
		if err := rows.Scan(&item.ID, &item.Name, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Rename is a single guarded UPDATE, so the ownership check and the write
// cannot interleave with another request for the same row.
func (r *PostgresRepository) Rename(ctx context.Context, userID, fileID int64, name string, updatedAt int64) (*models.FileSummary, error) {
	query :=
		`UPDATE files SET name = $1, updated_at = $2
		 WHERE id = $3 AND user_id = $4
		 RETURNING id, name, created_at, updated_at
		 `

	return r.scanSummary(r.db.QueryRowContext(ctx, query, name, updatedAt, fileID, userID))
}

func (r *PostgresRepository) UpdateData(ctx context.Context, userID, fileID int64, data json.RawMessage, updatedAt int64) (*models.FileSummary, error) {
	query :=
		`UPDATE files SET data_json = $1, updated_at = $2
		 WHERE id = $3 AND user_id = $4
		 RETURNING id, name, created_at, updated_at
		 `

	return r.scanSummary(r.db.QueryRowContext(ctx, query, string(data), updatedAt, fileID, userID))
}

func (r *PostgresRepository) scanSummary(row *sql.Row) (*models.FileSummary, error) {
	item := &models.FileSummary{}
	err := row.Scan(&item.ID, &item.Name, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return item, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, userID, fileID int64) error {
	query :=
		`DELETE FROM files
		 WHERE id = $1 AND user_id = $2
		 `

	res, err := r.db.ExecContext(ctx, query, fileID, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireOneRow(res)
}

func (r *PostgresRepository) ListAll(ctx context.Context) ([]*models.OwnedFileSummary, error) {
	query :=
		`SELECT f.id, f.name, f.created_at, f.updated_at, u.id, u.username
		 FROM files f
		 JOIN users u ON u.id = f.user_id
		 ORDER BY f.updated_at DESC
		 `

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.OwnedFileSummary
	for rows.Next() {
		var item models.OwnedFileSummary
		if err := rows.Scan(&item.ID, &item.Name, &item.CreatedAt, &item.UpdatedAt, &item.UserID, &item.Username); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) DeleteAny(ctx context.Context, fileID int64) error {
	query :=
		`DELETE FROM files
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query, fileID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireOneRow(res)
}

func requireOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
