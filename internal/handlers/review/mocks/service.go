package mocks

import (
	"context"

	"locamat/internal/models"

	"github.com/stretchr/testify/mock"
)

type ReviewService struct {
	mock.Mock
}

func (m *ReviewService) Submit(ctx context.Context, session *models.Session, productID string, rating int, comment string) (models.Review, error) {
	args := m.Called(ctx, session, productID, rating, comment)
	return args.Get(0).(models.Review), args.Error(1)
}

func (m *ReviewService) List(ctx context.Context, productID string) ([]models.Review, error) {
	args := m.Called(ctx, productID)
	reviews, _ := args.Get(0).([]models.Review)
	return reviews, args.Error(1)
}

type Sessions struct {
	mock.Mock
}

func (m *Sessions) Session(ctx context.Context) (models.Session, error) {
	args := m.Called(ctx)
	return args.Get(0).(models.Session), args.Error(1)
}
