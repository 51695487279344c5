package mocks

import (
	"context"
	"io"

	"locamat/internal/catalog"
	"locamat/internal/models"
	productservice "locamat/internal/service/product"

	"github.com/stretchr/testify/mock"
)

type ProductService struct {
	mock.Mock
}

func (m *ProductService) Publish(ctx context.Context, session *models.Session, draft productservice.Draft, image io.Reader) (models.Product, error) {
	args := m.Called(ctx, session, draft, image)
	return args.Get(0).(models.Product), args.Error(1)
}

func (m *ProductService) Get(ctx context.Context, id string) (models.Product, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.Product), args.Error(1)
}

func (m *ProductService) Catalog(ctx context.Context, f catalog.Filter) ([]catalog.Result, error) {
	args := m.Called(ctx, f)
	results, _ := args.Get(0).([]catalog.Result)
	return results, args.Error(1)
}

func (m *ProductService) Featured(ctx context.Context, n int) ([]models.Product, error) {
	args := m.Called(ctx, n)
	products, _ := args.Get(0).([]models.Product)
	return products, args.Error(1)
}

func (m *ProductService) CategoryCounts(ctx context.Context) (map[models.Category]int, error) {
	args := m.Called(ctx)
	counts, _ := args.Get(0).(map[models.Category]int)
	return counts, args.Error(1)
}

func (m *ProductService) ListMine(ctx context.Context, session *models.Session) ([]models.Product, error) {
	args := m.Called(ctx, session)
	products, _ := args.Get(0).([]models.Product)
	return products, args.Error(1)
}

func (m *ProductService) Delete(ctx context.Context, session *models.Session, id string) error {
	args := m.Called(ctx, session, id)
	return args.Error(0)
}

// Sessions is a SessionProvider mock shared by handler tests.
type Sessions struct {
	mock.Mock
}

func (m *Sessions) Session(ctx context.Context) (models.Session, error) {
	args := m.Called(ctx)
	return args.Get(0).(models.Session), args.Error(1)
}
