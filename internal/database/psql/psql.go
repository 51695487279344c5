// Package psql talks to the marketplace backend database. It is the row
// store, blob store and account store the client depends on.
package psql

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	databaseerrors "locamat/internal/database"
	"locamat/pkg/lib/logger/sl"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeExclusionViolation  = "23P01"
)

type Storage struct {
	log *slog.Logger
	db  *sqlx.DB
}

func New(ctx context.Context, log *slog.Logger, connStr string) (*Storage, error) {
	const op = "database.psql.New"
	l := log.With("op", op)

	db, err := sqlx.ConnectContext(ctx, "postgres", connStr)
	if err != nil {
		l.Error("Error connect to database", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	fsys, err := fs.Sub(migrations, "migrations")
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	provider, err := goose.NewProvider(goose.DialectPostgres, db.DB, fsys)
	if err != nil {
		db.Close()
		l.Error("Error preparing migrations", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		db.Close()
		l.Error("Error applying migrations", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	for _, r := range results {
		l.Info("Applied migration", "version", r.Source.Version, "duration", r.Duration)
	}

	return &Storage{
		log: log,
		db:  db,
	}, nil
}

func NewWithParams(log *slog.Logger, db *sqlx.DB) *Storage {
	return &Storage{
		log: log,
		db:  db,
	}
}

func (s *Storage) Close() error {
	return s.db.Close()
}

// done reports a finished ctx before any query is sent.
func done(ctx context.Context, log *slog.Logger, op string) error {
	select {
	case <-ctx.Done():
		log.Error("Context is over", sl.Err(ctx.Err()))
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
		return nil
	}
}

// translate maps constraint violations onto database errors.
func translate(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}

	switch pqErr.Code {
	case codeUniqueViolation:
		return fmt.Errorf("%w: %s", databaseerrors.ErrAlreadyExists, pqErr.Constraint)
	case codeExclusionViolation:
		return fmt.Errorf("%w: %s", databaseerrors.ErrConflict, pqErr.Constraint)
	case codeForeignKeyViolation:
		return fmt.Errorf("%w: %s", databaseerrors.ErrNotFound, pqErr.Constraint)
	default:
		return err
	}
}
