package psql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	databaseerrors "locamat/internal/database"
	"locamat/internal/models"
	"locamat/pkg/lib/logger/sl"
)

// PutObject stores obj. An existing object at the same bucket and path
// yields ErrAlreadyExists.
func (s *Storage) PutObject(ctx context.Context, obj models.Object) error {
	const op = "database.psql.PutObject"
	log := s.log.With("op", op, "bucket", obj.Bucket, "path", obj.Path)

	if err := done(ctx, log, op); err != nil {
		return err
	}

	var owner sql.NullString
	if obj.OwnerId != "" {
		owner = sql.NullString{String: obj.OwnerId, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO objects (bucket, path, data, mime, owner_id)
		VALUES ($1, $2, $3, $4, $5)`,
		obj.Bucket, obj.Path, obj.Data, obj.Mime, owner)
	if err != nil {
		err = translate(err)
		log.Error("Error storing object", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("Object stored", "size", len(obj.Data))
	return nil
}

func (s *Storage) GetObject(ctx context.Context, bucket, path string) (models.Object, error) {
	const op = "database.psql.GetObject"
	log := s.log.With("op", op, "bucket", bucket, "path", path)

	if err := done(ctx, log, op); err != nil {
		return models.Object{}, err
	}

	var obj models.Object
	err := s.db.GetContext(ctx, &obj, `
		SELECT bucket, path, data, mime, COALESCE(owner_id::text, '') AS owner_id
		FROM objects WHERE bucket = $1 AND path = $2`, bucket, path)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Warn("Object not found")
			return models.Object{}, fmt.Errorf("%s: %w", op, databaseerrors.ErrNotFound)
		}
		log.Error("Error retrieving object", sl.Err(err))
		return models.Object{}, fmt.Errorf("%s: %w", op, err)
	}

	return obj, nil
}

func (s *Storage) DeleteObject(ctx context.Context, bucket, path string) error {
	const op = "database.psql.DeleteObject"
	log := s.log.With("op", op, "bucket", bucket, "path", path)

	if err := done(ctx, log, op); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM objects WHERE bucket = $1 AND path = $2`, bucket, path)
	if err != nil {
		log.Error("Error deleting object", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		log.Error("Error reading affected rows", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		log.Warn("Object not found")
		return fmt.Errorf("%s: %w", op, databaseerrors.ErrNotFound)
	}

	log.Info("Object deleted")
	return nil
}
