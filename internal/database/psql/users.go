package psql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	databaseerrors "locamat/internal/database"
	"locamat/internal/models"
	"locamat/pkg/lib/logger/sl"
)

// CreateUser inserts u. A taken e-mail yields ErrAlreadyExists.
func (s *Storage) CreateUser(ctx context.Context, u models.User) (models.User, error) {
	const op = "database.psql.CreateUser"
	log := s.log.With("op", op)

	if err := done(ctx, log, op); err != nil {
		return models.User{}, err
	}

	err := s.db.QueryRowxContext(ctx, `
		INSERT INTO users (email, full_name, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`,
		u.Email, u.FullName, u.PasswordHash,
	).Scan(&u.Id, &u.CreatedAt)
	if err != nil {
		err = translate(err)
		if errors.Is(err, databaseerrors.ErrAlreadyExists) {
			log.Warn("E-mail already registered")
		} else {
			log.Error("Error inserting user", sl.Err(err))
		}
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("User inserted", "user_id", u.Id)
	return u, nil
}

func (s *Storage) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	const op = "database.psql.GetUserByEmail"
	log := s.log.With("op", op)

	if err := done(ctx, log, op); err != nil {
		return models.User{}, err
	}

	var u models.User
	err := s.db.GetContext(ctx, &u, `
		SELECT id, email, full_name, password_hash, created_at
		FROM users WHERE email = $1`, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Warn("User not found")
			return models.User{}, fmt.Errorf("%s: %w", op, databaseerrors.ErrNotFound)
		}
		log.Error("Error retrieving user", sl.Err(err))
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return u, nil
}

// RevokeToken records a signed-out token id until it would have expired anyway.
func (s *Storage) RevokeToken(ctx context.Context, jti string, expiresAt time.Time) error {
	const op = "database.psql.RevokeToken"
	log := s.log.With("op", op)

	if err := done(ctx, log, op); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO revoked_tokens (jti, expires_at) VALUES ($1, $2)
		ON CONFLICT (jti) DO NOTHING`, jti, expiresAt)
	if err != nil {
		log.Error("Error revoking token", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	_, err = s.db.ExecContext(ctx, `DELETE FROM revoked_tokens WHERE expires_at < now()`)
	if err != nil {
		log.Warn("Error pruning revoked tokens", sl.Err(err))
	}

	return nil
}

func (s *Storage) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	const op = "database.psql.IsTokenRevoked"
	log := s.log.With("op", op)

	if err := done(ctx, log, op); err != nil {
		return false, err
	}

	var revoked bool
	err := s.db.GetContext(ctx, &revoked, `SELECT EXISTS (SELECT 1 FROM revoked_tokens WHERE jti = $1)`, jti)
	if err != nil {
		log.Error("Error checking token", sl.Err(err))
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return revoked, nil
}
