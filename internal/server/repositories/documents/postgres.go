package documents

import (
	"context"
	"database/sql"
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

func (r *PostgresRepository) Get(ctx context.Context, userID int64) (*models.Document, error) {
	query :=
		`SELECT user_id, data_json, updated_at FROM mindmaps
		 WHERE user_id = $1
		 `
	return r.get(ctx, query, userID)
}

// GetForUpdate locks the row until the transaction ends, serializing
// concurrent pushes for the same user. A plain Get inside a READ COMMITTED
// transaction would let two pushes read the same stored version and both
// pass the staleness check.
func (r *PostgresRepository) GetForUpdate(ctx context.Context, userID int64) (*models.Document, error) {
	query :=
		`SELECT user_id, data_json, updated_at FROM mindmaps
		 WHERE user_id = $1
		 FOR UPDATE
		 `
	return r.get(ctx, query, userID)
}

func (r *PostgresRepository) get(ctx context.Context, query string, userID int64) (*models.Document, error) {
	doc := &models.Document{}
	var data string
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&doc.UserID, &data, &doc.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	doc.Data = []byte(data)
	return doc, nil
}

// Upsert writes the whole payload; the live document is always a complete
// overwrite, never an append or merge.
func (r *PostgresRepository) Upsert(ctx context.Context, doc *models.Document) error {
	query :=
		`INSERT INTO mindmaps (user_id, data_json, updated_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (user_id)
		 DO UPDATE SET data_json = EXCLUDED.data_json, updated_at = EXCLUDED.updated_at
		 `

	_, err := r.db.ExecContext(ctx, query, doc.UserID, string(doc.Data), doc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
