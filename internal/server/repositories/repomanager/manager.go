// Package repomanager hands out repositories bound to a concrete database
// handle. Services pass either the shared *sql.DB or, inside dbx.WithTx, the
// transaction, so the same repository code runs in both modes.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/mindmaster/mindmapd/internal/dbx"
	"github.com/mindmaster/mindmapd/internal/server/repositories/documents"
	"github.com/mindmaster/mindmapd/internal/server/repositories/files"
	"github.com/mindmaster/mindmapd/internal/server/repositories/users"
)

type RepositoryManager interface {
	Users(db dbx.DBTX) users.Repository
	Documents(db dbx.DBTX) documents.Repository
	Files(db dbx.DBTX) files.Repository
	RunMigrations(ctx context.Context, db *sql.DB) error
}
