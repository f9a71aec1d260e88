// Package sqlite is the system-of-record store. One writer, WAL mode,
// foreign keys on. Transactions travel in the context so the store
// methods work identically inside and outside InTx.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"reddot/internal/logger"
	"reddot/internal/store"
)

//go:embed schema.sql
var schema string

// DB wraps the connection and hands out the repository bundle.
type DB struct {
	db  *sql.DB
	log logger.Logger
}

// Open creates or opens the database at path, applies the pragmas and
// the schema. Use ":memory:" for throwaway databases.
func Open(path string, log logger.Logger) (*DB, error) {
	if dir := filepath.Dir(path); path != ":memory:" && dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// Single writer; WAL readers do not block on it.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	log.Info("sqlite opened", logger.String("path", path))
	return &DB{db: db, log: log}, nil
}

func (d *DB) Close() error { return d.db.Close() }

// Stores returns the repository bundle backed by this database.
func (d *DB) Stores() *store.Store {
	return &store.Store{
		Users:     &users{d},
		Questions: &questions{d},
		Comments:  &comments{d},
		Tags:      &tags{d},
		Votes:     &votes{d},
		Bookmarks: &bookmarks{d},
		Tokens:    &tokens{d},
		Deletions: &deletions{d},
		Tx:        d,
	}
}

type ctxKey struct{}

// InTx runs fn inside one transaction. Nested calls join the ongoing
// transaction instead of opening a second one.
func (d *DB) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(ctxKey{}).(*sql.Tx); ok {
		return fn(ctx)
	}
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(context.WithValue(ctx, ctxKey{}, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			d.log.Error("tx rollback failed", logger.Error(rbErr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (d *DB) q(ctx context.Context) querier {
	if tx, ok := ctx.Value(ctxKey{}).(*sql.Tx); ok {
		return tx
	}
	return d.db
}

// Timestamps are stored in UTC with a fixed-width fraction so that the
// TEXT columns compare in time order. RFC3339Nano trims trailing zeros,
// which makes lexicographic comparison diverge from time order within a
// second; Consume and PruneTokens compare stamps in SQL.
const stampLayout = "2006-01-02T15:04:05.000000000Z07:00"

func stamp(t time.Time) string { return t.UTC().Format(stampLayout) }

func parseStamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}

func stampPtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return stamp(*t)
}

func parseStampPtr(s sql.NullString) (*time.Time, error) {
	if !s.Valid {
		return nil, nil
	}
	t, err := parseStamp(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
