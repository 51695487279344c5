package mocks

import (
	"context"

	"locamat/internal/models"

	"github.com/stretchr/testify/mock"
)

type ObjectReader struct {
	mock.Mock
}

func (m *ObjectReader) Download(ctx context.Context, bucket, objectPath string) (models.Object, error) {
	args := m.Called(ctx, bucket, objectPath)
	return args.Get(0).(models.Object), args.Error(1)
}
