package mocks

import (
	"context"

	"locamat/internal/models"

	"github.com/stretchr/testify/mock"
)

type ObjectStorage struct {
	mock.Mock
}

func (m *ObjectStorage) PutObject(ctx context.Context, obj models.Object) error {
	args := m.Called(ctx, obj)
	return args.Error(0)
}

func (m *ObjectStorage) GetObject(ctx context.Context, bucket, path string) (models.Object, error) {
	args := m.Called(ctx, bucket, path)
	return args.Get(0).(models.Object), args.Error(1)
}

func (m *ObjectStorage) DeleteObject(ctx context.Context, bucket, path string) error {
	args := m.Called(ctx, bucket, path)
	return args.Error(0)
}
