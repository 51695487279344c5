package mocks

import (
	"context"

	"locamat/internal/models"

	"github.com/stretchr/testify/mock"
)

type ReviewStorage struct {
	mock.Mock
}

func (m *ReviewStorage) CreateReview(ctx context.Context, r models.Review) (models.Review, error) {
	args := m.Called(ctx, r)
	return args.Get(0).(models.Review), args.Error(1)
}

func (m *ReviewStorage) ListReviews(ctx context.Context, productID string) ([]models.Review, error) {
	args := m.Called(ctx, productID)
	reviews, _ := args.Get(0).([]models.Review)
	return reviews, args.Error(1)
}
