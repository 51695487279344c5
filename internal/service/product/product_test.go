package productservice_test

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
	"time"

	"locamat/internal/catalog"
	databaseerrors "locamat/internal/database"
	"locamat/internal/models"
	"locamat/internal/notify"
	serviceerrors "locamat/internal/service"
	productservice "locamat/internal/service/product"
	"locamat/internal/service/product/mocks"
	"locamat/pkg/lib/logger/slogdiscard"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	productID = "5f0c7c1e-2f43-4f0e-9a55-0a4f3c8e2b11"
	ownerID   = "0b8f8f2e-7c3a-4d1e-8d8b-3c2b1a0f9e77"
	otherID   = "a1d2c3b4-5e6f-4a8b-9c0d-1e2f3a4b5c6d"
)

func newTestService(storage *mocks.ProductStorage, blobs *mocks.BlobStore) (*productservice.ProductService, *notify.Feed) {
	logger := slogdiscard.NewDiscardLogger()
	feed := notify.NewFeed(logger, 0)
	svc := productservice.New(logger, storage, blobs, "products", catalog.New(catalog.DefaultMaxPrice), feed)
	return svc, feed
}

func session(userID string) *models.Session {
	return &models.Session{User: models.User{Id: userID}}
}

func price(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func validDraft() productservice.Draft {
	return productservice.Draft{
		Title:       "  Tente de réception ",
		Category:    models.CategoryEvent,
		Price:       price(1000),
		Description: "Tente 5x10",
	}
}

func pngPhoto(t *testing.T) *bytes.Reader {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	img.Set(1, 1, color.RGBA{R: 200, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return bytes.NewReader(buf.Bytes())
}

func TestPublish_RequiresSession(t *testing.T) {
	storage, blobs := new(mocks.ProductStorage), new(mocks.BlobStore)
	svc, _ := newTestService(storage, blobs)

	_, err := svc.Publish(context.Background(), nil, validDraft(), nil)
	assert.ErrorIs(t, err, serviceerrors.ErrUnauthorized)
}

func TestPublish_Validation(t *testing.T) {
	lat := 45.0
	tests := []struct {
		name   string
		mutate func(d *productservice.Draft)
		msg    string
	}{
		{"missing title", func(d *productservice.Draft) { d.Title = "   " }, "title is required"},
		{"missing price", func(d *productservice.Draft) { d.Price = nil }, "price is required"},
		{"missing description", func(d *productservice.Draft) { d.Description = "" }, "description is required"},
		{"unknown category", func(d *productservice.Draft) { d.Category = "boats" }, "unknown category"},
		{"negative price", func(d *productservice.Draft) { d.Price = price(-1) }, "negative"},
		{"half coordinates", func(d *productservice.Draft) { d.Latitude = &lat }, "latitude and longitude"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage, blobs := new(mocks.ProductStorage), new(mocks.BlobStore)
			svc, _ := newTestService(storage, blobs)

			d := validDraft()
			tt.mutate(&d)
			_, err := svc.Publish(context.Background(), session(ownerID), d, nil)
			require.ErrorIs(t, err, serviceerrors.ErrValidation)
			assert.Contains(t, err.Error(), tt.msg)
			storage.AssertNotCalled(t, "CreateProduct", mock.Anything, mock.Anything)
		})
	}
}

func TestPublish_WithoutPhoto(t *testing.T) {
	storage, blobs := new(mocks.ProductStorage), new(mocks.BlobStore)
	svc, feed := newTestService(storage, blobs)

	storage.On("CreateProduct", mock.Anything, mock.MatchedBy(func(p models.Product) bool {
		return p.Title == "Tente de réception" && p.UserId == ownerID && len(p.Images) == 0
	})).Return(models.Product{Id: productID, UserId: ownerID}, nil)

	p, err := svc.Publish(context.Background(), session(ownerID), validDraft(), nil)
	require.NoError(t, err)
	assert.Equal(t, productID, p.Id)
	assert.Len(t, feed.Since(0), 1)
	storage.AssertExpectations(t)
	blobs.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPublish_UploadsPhotoUnderOwnerFolder(t *testing.T) {
	storage, blobs := new(mocks.ProductStorage), new(mocks.BlobStore)
	svc, _ := newTestService(storage, blobs)

	var uploadedPath string
	blobs.On("Upload", mock.Anything, "products", mock.MatchedBy(func(p string) bool {
		return strings.HasPrefix(p, ownerID+"/") && strings.HasSuffix(p, ".jpg")
	}), mock.Anything, "image/jpeg", ownerID).
		Run(func(args mock.Arguments) { uploadedPath = args.String(2) }).
		Return(nil)
	blobs.On("PublicURL", "products", mock.Anything).Return("http://cdn/products/x.jpg")
	storage.On("CreateProduct", mock.Anything, mock.MatchedBy(func(p models.Product) bool {
		return len(p.Images) == 1 && p.Images[0] == "http://cdn/products/x.jpg"
	})).Return(models.Product{Id: productID}, nil)

	_, err := svc.Publish(context.Background(), session(ownerID), validDraft(), pngPhoto(t))
	require.NoError(t, err)
	assert.NotEmpty(t, uploadedPath)
	blobs.AssertExpectations(t)
	storage.AssertExpectations(t)
}

func TestPublish_RemovesPhotoWhenInsertFails(t *testing.T) {
	storage, blobs := new(mocks.ProductStorage), new(mocks.BlobStore)
	svc, _ := newTestService(storage, blobs)

	blobs.On("Upload", mock.Anything, "products", mock.Anything, mock.Anything, "image/jpeg", ownerID).Return(nil)
	blobs.On("PublicURL", "products", mock.Anything).Return("http://cdn/products/x.jpg")
	blobs.On("Remove", mock.Anything, "products", mock.Anything).Return(nil)
	storage.On("CreateProduct", mock.Anything, mock.Anything).Return(models.Product{}, databaseerrors.ErrNotFound)

	_, err := svc.Publish(context.Background(), session(ownerID), validDraft(), pngPhoto(t))
	assert.ErrorIs(t, err, serviceerrors.ErrNotFound)
	blobs.AssertCalled(t, "Remove", mock.Anything, "products", mock.Anything)
}

func TestPublish_UnreadablePhoto(t *testing.T) {
	storage, blobs := new(mocks.ProductStorage), new(mocks.BlobStore)
	svc, _ := newTestService(storage, blobs)

	_, err := svc.Publish(context.Background(), session(ownerID), validDraft(), strings.NewReader("not an image"))
	assert.ErrorIs(t, err, serviceerrors.ErrValidation)
}

func TestCatalog_AppliesPipeline(t *testing.T) {
	storage, blobs := new(mocks.ProductStorage), new(mocks.BlobStore)
	svc, _ := newTestService(storage, blobs)

	storage.On("ListProducts", mock.Anything).Return([]models.Product{
		{Id: "1", Title: "Tente", Category: models.CategoryEvent, Price: decimal.NewFromInt(100)},
		{Id: "2", Title: "Tente chantier", Category: models.CategoryConstruction, Price: decimal.NewFromInt(200)},
		{Id: "3", Title: "Perceuse", Category: models.CategoryTools, Price: decimal.NewFromInt(20)},
	}, nil)

	results, err := svc.Catalog(context.Background(), catalog.Filter{Query: "tente", Category: "construction"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "2", results[0].Id)
}

func TestFeaturedAndCounts(t *testing.T) {
	storage, blobs := new(mocks.ProductStorage), new(mocks.BlobStore)
	svc, _ := newTestService(storage, blobs)

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	storage.On("ListProducts", mock.Anything).Return([]models.Product{
		{Id: "old", Category: models.CategoryTools, CreatedAt: now},
		{Id: "new", Category: models.CategoryTools, CreatedAt: now.Add(time.Hour)},
	}, nil)

	featured, err := svc.Featured(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, featured, 1)
	assert.Equal(t, "new", featured[0].Id)

	counts, err := svc.CategoryCounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, counts[models.CategoryTools])
}

func TestDelete(t *testing.T) {
	owned := models.Product{
		Id:     productID,
		UserId: ownerID,
		Images: []string{"http://cdn/products/" + ownerID + "/a.jpg", "https://elsewhere/b.jpg"},
	}

	t.Run("owner deletes and photos are removed", func(t *testing.T) {
		storage, blobs := new(mocks.ProductStorage), new(mocks.BlobStore)
		svc, _ := newTestService(storage, blobs)

		storage.On("GetProduct", mock.Anything, productID).Return(owned, nil)
		storage.On("DeleteProduct", mock.Anything, productID, ownerID).Return(nil)
		blobs.On("Locate", owned.Images[0]).Return("products", ownerID+"/a.jpg", true)
		blobs.On("Locate", owned.Images[1]).Return("", "", false)
		blobs.On("Remove", mock.Anything, "products", ownerID+"/a.jpg").Return(databaseerrors.ErrNotFound)

		require.NoError(t, svc.Delete(context.Background(), session(ownerID), productID))
		storage.AssertExpectations(t)
		blobs.AssertExpectations(t)
	})

	t.Run("someone else cannot delete", func(t *testing.T) {
		storage, blobs := new(mocks.ProductStorage), new(mocks.BlobStore)
		svc, _ := newTestService(storage, blobs)

		storage.On("GetProduct", mock.Anything, productID).Return(owned, nil)

		err := svc.Delete(context.Background(), session(otherID), productID)
		assert.ErrorIs(t, err, serviceerrors.ErrForbidden)
		storage.AssertNotCalled(t, "DeleteProduct", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("missing product", func(t *testing.T) {
		storage, blobs := new(mocks.ProductStorage), new(mocks.BlobStore)
		svc, _ := newTestService(storage, blobs)

		storage.On("GetProduct", mock.Anything, productID).Return(models.Product{}, databaseerrors.ErrNotFound)

		err := svc.Delete(context.Background(), session(ownerID), productID)
		assert.ErrorIs(t, err, serviceerrors.ErrNotFound)
	})
}

func TestListMine(t *testing.T) {
	storage, blobs := new(mocks.ProductStorage), new(mocks.BlobStore)
	svc, _ := newTestService(storage, blobs)

	storage.On("ListProductsByOwner", mock.Anything, ownerID).Return(nil, nil)

	products, err := svc.ListMine(context.Background(), session(ownerID))
	require.NoError(t, err)
	assert.NotNil(t, products)
	assert.Empty(t, products)

	_, err = svc.ListMine(context.Background(), nil)
	assert.ErrorIs(t, err, serviceerrors.ErrUnauthorized)
}
