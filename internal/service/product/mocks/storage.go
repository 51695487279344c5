package mocks

import (
	"context"

	"locamat/internal/models"

	"github.com/stretchr/testify/mock"
)

type ProductStorage struct {
	mock.Mock
}

func (m *ProductStorage) CreateProduct(ctx context.Context, p models.Product) (models.Product, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(models.Product), args.Error(1)
}

func (m *ProductStorage) GetProduct(ctx context.Context, id string) (models.Product, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.Product), args.Error(1)
}

func (m *ProductStorage) ListProducts(ctx context.Context) ([]models.Product, error) {
	args := m.Called(ctx)
	products, _ := args.Get(0).([]models.Product)
	return products, args.Error(1)
}

func (m *ProductStorage) ListProductsByOwner(ctx context.Context, userID string) ([]models.Product, error) {
	args := m.Called(ctx, userID)
	products, _ := args.Get(0).([]models.Product)
	return products, args.Error(1)
}

func (m *ProductStorage) DeleteProduct(ctx context.Context, id, ownerID string) error {
	args := m.Called(ctx, id, ownerID)
	return args.Error(0)
}

type BlobStore struct {
	mock.Mock
}

func (m *BlobStore) Upload(ctx context.Context, bucket, path string, data []byte, mime, ownerID string) error {
	args := m.Called(ctx, bucket, path, data, mime, ownerID)
	return args.Error(0)
}

func (m *BlobStore) Remove(ctx context.Context, bucket, path string) error {
	args := m.Called(ctx, bucket, path)
	return args.Error(0)
}

func (m *BlobStore) PublicURL(bucket, path string) string {
	args := m.Called(bucket, path)
	return args.String(0)
}

func (m *BlobStore) Locate(publicURL string) (string, string, bool) {
	args := m.Called(publicURL)
	return args.String(0), args.String(1), args.Bool(2)
}
