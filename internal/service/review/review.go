package reviewservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"locamat/internal/models"
	"locamat/internal/notify"
	serviceerrors "locamat/internal/service"
	"locamat/pkg/lib/logger/sl"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ReviewStorage interface {
	CreateReview(ctx context.Context, r models.Review) (models.Review, error)
	ListReviews(ctx context.Context, productID string) ([]models.Review, error)
}

// Summary is the aggregate shown next to a product's reviews.
type Summary struct {
	Count   int             `json:"count"`
	Average decimal.Decimal `json:"average"`
}

type submission struct {
	ProductId string `validate:"required,uuid"`
	Rating    int    `validate:"min=1,max=5"`
}

type ReviewService struct {
	log      *slog.Logger
	storage  ReviewStorage
	notifier notify.Notifier
	validate *validator.Validate
}

func New(log *slog.Logger, storage ReviewStorage, notifier notify.Notifier) *ReviewService {
	return &ReviewService{
		log:      log,
		storage:  storage,
		notifier: notifier,
		validate: validator.New(),
	}
}

// Submit records a review by the signed-in user. A rating of 0 means none
// was selected.
func (s *ReviewService) Submit(ctx context.Context, session *models.Session, productID string, rating int, comment string) (models.Review, error) {
	const op = "service.review.Submit"
	log := s.log.With("op", op, "product_id", productID)

	if session == nil {
		log.Warn("Review submitted without a session")
		return models.Review{}, fmt.Errorf("%s: %w", op, serviceerrors.ErrUnauthorized)
	}
	if rating == 0 {
		return models.Review{}, fmt.Errorf("%s: %w", op, serviceerrors.NewValidation("select a rating"))
	}
	if err := s.validate.Struct(submission{ProductId: productID, Rating: rating}); err != nil {
		log.Info("Review rejected", sl.Err(err))
		msg := "rating must be between 1 and 5"
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && verrs[0].Field() == "ProductId" {
			msg = "invalid product id"
		}
		return models.Review{}, fmt.Errorf("%s: %w", op, serviceerrors.NewValidation(msg))
	}
	if err := serviceerrors.CheckContext(ctx); err != nil {
		log.Warn("Context is over", sl.Err(err))
		return models.Review{}, fmt.Errorf("%s: %w", op, err)
	}

	var text *string
	if trimmed := strings.TrimSpace(comment); trimmed != "" {
		text = &trimmed
	}

	review, err := s.storage.CreateReview(ctx, models.Review{
		ProductId: productID,
		UserId:    session.User.Id,
		Rating:    rating,
		Comment:   text,
	})
	if err != nil {
		err = serviceerrors.Report(log, op, "Failed to insert review", err)
		s.notifier.Notify(notify.LevelError, "The review could not be published")
		return models.Review{}, err
	}

	log.Info("Review published", "review_id", review.Id, "rating", rating)
	s.notifier.Notify(notify.LevelSuccess, "Review published")
	return review, nil
}

// List returns a product's reviews, newest first.
func (s *ReviewService) List(ctx context.Context, productID string) ([]models.Review, error) {
	const op = "service.review.List"
	log := s.log.With("op", op, "product_id", productID)

	if _, err := uuid.Parse(productID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, serviceerrors.NewValidation("invalid product id"))
	}
	if err := serviceerrors.CheckContext(ctx); err != nil {
		log.Warn("Context is over", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	reviews, err := s.storage.ListReviews(ctx, productID)
	if err != nil {
		return nil, serviceerrors.Report(log, op, "Failed to list reviews", err)
	}
	if reviews == nil {
		reviews = []models.Review{}
	}
	return reviews, nil
}

// Summarize averages ratings to one decimal place.
func Summarize(reviews []models.Review) Summary {
	if len(reviews) == 0 {
		return Summary{Average: decimal.Zero}
	}

	total := 0
	for _, r := range reviews {
		total += r.Rating
	}

	avg := decimal.NewFromInt(int64(total)).Div(decimal.NewFromInt(int64(len(reviews)))).Round(1)
	return Summary{Count: len(reviews), Average: avg}
}

func (s *ReviewService) Summary(ctx context.Context, productID string) (Summary, error) {
	const op = "service.review.Summary"

	reviews, err := s.List(ctx, productID)
	if err != nil {
		return Summary{}, fmt.Errorf("%s: %w", op, err)
	}
	return Summarize(reviews), nil
}
