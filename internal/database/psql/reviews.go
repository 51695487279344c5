package psql

import (
	"context"
	"fmt"

	"locamat/internal/models"
	"locamat/pkg/lib/logger/sl"
)

func (s *Storage) CreateReview(ctx context.Context, r models.Review) (models.Review, error) {
	const op = "database.psql.CreateReview"
	log := s.log.With("op", op, "product_id", r.ProductId)

	if err := done(ctx, log, op); err != nil {
		return models.Review{}, err
	}

	err := s.db.QueryRowxContext(ctx, `
		INSERT INTO reviews (product_id, user_id, rating, comment)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		r.ProductId, r.UserId, r.Rating, r.Comment,
	).Scan(&r.Id, &r.CreatedAt)
	if err != nil {
		err = translate(err)
		log.Error("Error inserting review", sl.Err(err))
		return models.Review{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("Review inserted", "review_id", r.Id)
	return r, nil
}

// ListReviews returns the reviews of a product, newest first.
func (s *Storage) ListReviews(ctx context.Context, productID string) ([]models.Review, error) {
	const op = "database.psql.ListReviews"
	log := s.log.With("op", op, "product_id", productID)

	if err := done(ctx, log, op); err != nil {
		return nil, err
	}

	reviews := []models.Review{}
	err := s.db.SelectContext(ctx, &reviews, `
		SELECT id, product_id, user_id, rating, comment, created_at
		FROM reviews WHERE product_id = $1 ORDER BY created_at DESC`, productID)
	if err != nil {
		log.Error("Error retrieving reviews", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return reviews, nil
}
