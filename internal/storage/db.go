// Package storage opens the local SQLite database, applies migrations, and
// bundles the per-entity repositories together with the cross-entity
// operations that must run in one transaction.
package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/focuskeeper/internal/common"
	"github.com/dmitrijs2005/focuskeeper/internal/dbx"
	"github.com/dmitrijs2005/focuskeeper/internal/migrations"
	"github.com/dmitrijs2005/focuskeeper/internal/repositories/appstate"
	"github.com/dmitrijs2005/focuskeeper/internal/repositories/folders"
	"github.com/dmitrijs2005/focuskeeper/internal/repositories/sessions"
	"github.com/dmitrijs2005/focuskeeper/internal/repositories/topics"
	"github.com/pressly/goose/v3"
)

// Store owns the database handle and the repositories bound to it.
type Store struct {
	db *sql.DB

	Sessions sessions.Repository
	Folders  folders.Repository
	Topics   topics.Repository
	AppState appstate.Repository
}

// RunMigrations applies the embedded goose migrations.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// Open opens (or creates) the SQLite database at dsn, applies pragmas and
// migrations, and returns the wired Store. The caller must have registered
// an SQLite driver under the name "sqlite" (modernc.org/sqlite).
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, common.WrapStorage("failed to open database", err)
	}

	// A single writer keeps SQLite happy under WAL.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			db.Close()
			return nil, common.WrapStorage(fmt.Sprintf("failed to exec pragma %q", p), err)
		}
	}

	if err := RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, common.WrapStorage("failed to run migrations", err)
	}

	return &Store{
		db:       db,
		Sessions: sessions.NewSQLiteRepository(db),
		Folders:  folders.NewSQLiteRepository(db),
		Topics:   topics.NewSQLiteRepository(db),
		AppState: appstate.NewSQLiteRepository(db),
	}, nil
}

// OpenMemory opens an in-memory store, used by tests.
func OpenMemory(ctx context.Context) (*Store, error) {
	return Open(ctx, ":memory:")
}

func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the raw handle for transactional coordination.
func (s *Store) DB() *sql.DB {
	return s.db
}

// WithTx runs fn inside a transaction with repositories rebound to it.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx *Store) error) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		txStore := &Store{
			db:       s.db,
			Sessions: sessions.NewSQLiteRepository(tx),
			Folders:  folders.NewSQLiteRepository(tx),
			Topics:   topics.NewSQLiteRepository(tx),
			AppState: appstate.NewSQLiteRepository(tx),
		}
		return fn(ctx, txStore)
	})
}
