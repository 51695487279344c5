// Package sqlite stores small named values in a local SQLite file. It backs
// the durable slot the cart snapshot lives in.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	databaseerrors "locamat/internal/database"
	"locamat/pkg/lib/logger/sl"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

type Slot struct {
	log *slog.Logger
	db  *sqlx.DB
}

func New(ctx context.Context, log *slog.Logger, path string) (*Slot, error) {
	const op = "database.sqlite.New"
	l := log.With("op", op)

	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		l.Error("Error opening slot database", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	// one connection keeps ":memory:" databases shared and writes serialised
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			db.Close()
			l.Error("Error setting pragma", "pragma", p, sl.Err(err))
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	if err := migrate(ctx, db.DB); err != nil {
		db.Close()
		l.Error("Error applying migrations", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Slot{
		log: log,
		db:  db,
	}, nil
}

func NewWithParams(log *slog.Logger, db *sqlx.DB) *Slot {
	return &Slot{
		log: log,
		db:  db,
	}
}

func migrate(ctx context.Context, db *sql.DB) error {
	fsys, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return err
	}
	provider, err := goose.NewProvider(goose.DialectSQLite3, db, fsys)
	if err != nil {
		return err
	}
	_, err = provider.Up(ctx)
	return err
}

func (s *Slot) Get(ctx context.Context, key string) (string, error) {
	const op = "database.sqlite.Get"

	var value string
	err := s.db.GetContext(ctx, &value, `SELECT value FROM slots WHERE key = ?`, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("%s: %w", op, databaseerrors.ErrNotFound)
		}
		s.log.With("op", op).Error("Error reading slot", "key", key, sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return value, nil
}

func (s *Slot) Put(ctx context.Context, key, value string) error {
	const op = "database.sqlite.Put"

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO slots (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`, key, value)
	if err != nil {
		s.log.With("op", op).Error("Error writing slot", "key", key, sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Slot) Delete(ctx context.Context, key string) error {
	const op = "database.sqlite.Delete"

	if _, err := s.db.ExecContext(ctx, `DELETE FROM slots WHERE key = ?`, key); err != nil {
		s.log.With("op", op).Error("Error deleting slot", "key", key, sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Slot) Close() error {
	return s.db.Close()
}
