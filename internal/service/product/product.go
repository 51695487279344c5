package productservice

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"locamat/internal/catalog"
	"locamat/internal/imaging"
	"locamat/internal/models"
	"locamat/internal/notify"
	serviceerrors "locamat/internal/service"
	"locamat/pkg/lib/logger/sl"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ProductStorage interface {
	CreateProduct(ctx context.Context, p models.Product) (models.Product, error)
	GetProduct(ctx context.Context, id string) (models.Product, error)
	ListProducts(ctx context.Context) ([]models.Product, error)
	ListProductsByOwner(ctx context.Context, userID string) ([]models.Product, error)
	DeleteProduct(ctx context.Context, id, ownerID string) error
}

type BlobStore interface {
	Upload(ctx context.Context, bucket, path string, data []byte, mime, ownerID string) error
	Remove(ctx context.Context, bucket, path string) error
	PublicURL(bucket, path string) string
	Locate(publicURL string) (bucket, path string, ok bool)
}

// Draft is a listing as entered in the publish form.
type Draft struct {
	Title       string           `json:"title" validate:"required"`
	Category    models.Category  `json:"category" validate:"required"`
	Price       *decimal.Decimal `json:"price" validate:"required"`
	Description string           `json:"description" validate:"required"`
	Location    *string          `json:"location,omitempty"`
	Latitude    *float64         `json:"latitude,omitempty"`
	Longitude   *float64         `json:"longitude,omitempty"`
}

type ProductService struct {
	log      *slog.Logger
	storage  ProductStorage
	blobs    BlobStore
	bucket   string
	pipeline *catalog.Pipeline
	notifier notify.Notifier
	validate *validator.Validate
}

func New(log *slog.Logger, storage ProductStorage, blobs BlobStore, bucket string,
	pipeline *catalog.Pipeline, notifier notify.Notifier) *ProductService {
	return &ProductService{
		log:      log,
		storage:  storage,
		blobs:    blobs,
		bucket:   bucket,
		pipeline: pipeline,
		notifier: notifier,
		validate: validator.New(),
	}
}

// Publish validates the draft, uploads the optional photo and inserts the
// listing owned by the signed-in user.
func (s *ProductService) Publish(ctx context.Context, session *models.Session, draft Draft, image io.Reader) (models.Product, error) {
	const op = "service.product.Publish"
	log := s.log.With("op", op)

	if session == nil {
		log.Warn("Publish requested without a session")
		return models.Product{}, fmt.Errorf("%s: %w", op, serviceerrors.ErrUnauthorized)
	}
	log = log.With("user_id", session.User.Id)

	product, err := s.checkDraft(draft)
	if err != nil {
		log.Info("Draft rejected", sl.Err(err))
		return models.Product{}, fmt.Errorf("%s: %w", op, err)
	}
	product.UserId = session.User.Id

	if err := serviceerrors.CheckContext(ctx); err != nil {
		log.Warn("Context is over", sl.Err(err))
		return models.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	var uploaded string
	if image != nil {
		photo, err := imaging.Process(image)
		if err != nil {
			log.Info("Photo rejected", sl.Err(err))
			return models.Product{}, fmt.Errorf("%s: %w", op, serviceerrors.NewValidation("the photo could not be read, use a JPEG, PNG or WebP image"))
		}

		uploaded = session.User.Id + "/" + uuid.NewString() + "." + photo.Ext
		if err := s.blobs.Upload(ctx, s.bucket, uploaded, photo.Data, photo.MIME, session.User.Id); err != nil {
			log.Error("Failed to upload photo", sl.Err(err))
			s.notifier.Notify(notify.LevelError, "The photo could not be uploaded")
			return models.Product{}, fmt.Errorf("%s: %w", op, err)
		}
		product.Images = []string{s.blobs.PublicURL(s.bucket, uploaded)}
	}

	created, err := s.storage.CreateProduct(ctx, product)
	if err != nil {
		err = serviceerrors.Report(log, op, "Failed to insert product", err)
		if uploaded != "" {
			if rmErr := s.blobs.Remove(context.WithoutCancel(ctx), s.bucket, uploaded); rmErr != nil {
				log.Warn("Failed to remove orphaned photo", sl.Err(rmErr), "path", uploaded)
			}
		}
		s.notifier.Notify(notify.LevelError, "The listing could not be published")
		return models.Product{}, err
	}

	log.Info("Product published", "product_id", created.Id)
	s.notifier.Notify(notify.LevelSuccess, "Listing published")
	return created, nil
}

func (s *ProductService) checkDraft(d Draft) (models.Product, error) {
	d.Title = strings.TrimSpace(d.Title)
	d.Description = strings.TrimSpace(d.Description)

	if err := s.validate.Struct(d); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return models.Product{}, serviceerrors.NewValidation(
				fmt.Sprintf("%s is required", strings.ToLower(verrs[0].Field())))
		}
		return models.Product{}, serviceerrors.NewValidation(err.Error())
	}

	if !d.Category.Valid() {
		return models.Product{}, serviceerrors.NewValidation(fmt.Sprintf("unknown category %q", d.Category))
	}
	if d.Price.IsNegative() {
		return models.Product{}, serviceerrors.NewValidation("price must not be negative")
	}
	if (d.Latitude == nil) != (d.Longitude == nil) {
		return models.Product{}, serviceerrors.NewValidation("latitude and longitude go together")
	}
	if d.Latitude != nil && (*d.Latitude < -90 || *d.Latitude > 90 || *d.Longitude < -180 || *d.Longitude > 180) {
		return models.Product{}, serviceerrors.NewValidation("coordinates are out of range")
	}

	var location *string
	if d.Location != nil {
		if trimmed := strings.TrimSpace(*d.Location); trimmed != "" {
			location = &trimmed
		}
	}

	return models.Product{
		Title:       d.Title,
		Category:    d.Category,
		Price:       *d.Price,
		Images:      []string{},
		Description: d.Description,
		Location:    location,
		Latitude:    d.Latitude,
		Longitude:   d.Longitude,
	}, nil
}

func (s *ProductService) Get(ctx context.Context, id string) (models.Product, error) {
	const op = "service.product.Get"
	log := s.log.With("op", op, "product_id", id)

	if _, err := uuid.Parse(id); err != nil {
		return models.Product{}, fmt.Errorf("%s: %w", op, serviceerrors.NewValidation("invalid product id"))
	}
	if err := serviceerrors.CheckContext(ctx); err != nil {
		log.Warn("Context is over", sl.Err(err))
		return models.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	p, err := s.storage.GetProduct(ctx, id)
	if err != nil {
		return models.Product{}, serviceerrors.Report(log, op, "Failed to get product", err)
	}
	return p, nil
}

// Catalog fetches every listing and runs it through the filter pipeline.
func (s *ProductService) Catalog(ctx context.Context, f catalog.Filter) ([]catalog.Result, error) {
	const op = "service.product.Catalog"
	log := s.log.With("op", op)

	products, err := s.all(ctx, log, op)
	if err != nil {
		return nil, err
	}

	results := s.pipeline.Apply(products, f)
	log.Debug("Catalog filtered", "total", len(products), "shown", len(results))
	return results, nil
}

// Featured returns the n newest listings.
func (s *ProductService) Featured(ctx context.Context, n int) ([]models.Product, error) {
	const op = "service.product.Featured"
	log := s.log.With("op", op)

	products, err := s.all(ctx, log, op)
	if err != nil {
		return nil, err
	}
	return catalog.Featured(products, n), nil
}

func (s *ProductService) CategoryCounts(ctx context.Context) (map[models.Category]int, error) {
	const op = "service.product.CategoryCounts"
	log := s.log.With("op", op)

	products, err := s.all(ctx, log, op)
	if err != nil {
		return nil, err
	}
	return catalog.CategoryCounts(products), nil
}

func (s *ProductService) all(ctx context.Context, log *slog.Logger, op string) ([]models.Product, error) {
	if err := serviceerrors.CheckContext(ctx); err != nil {
		log.Warn("Context is over", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	products, err := s.storage.ListProducts(ctx)
	if err != nil {
		return nil, serviceerrors.Report(log, op, "Failed to list products", err)
	}
	return products, nil
}

// ListMine returns the signed-in user's listings, newest first.
func (s *ProductService) ListMine(ctx context.Context, session *models.Session) ([]models.Product, error) {
	const op = "service.product.ListMine"
	log := s.log.With("op", op)

	if session == nil {
		log.Warn("Listing requested without a session")
		return nil, fmt.Errorf("%s: %w", op, serviceerrors.ErrUnauthorized)
	}
	if err := serviceerrors.CheckContext(ctx); err != nil {
		log.Warn("Context is over", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	products, err := s.storage.ListProductsByOwner(ctx, session.User.Id)
	if err != nil {
		return nil, serviceerrors.Report(log, op, "Failed to list products", err)
	}
	if products == nil {
		products = []models.Product{}
	}
	return products, nil
}

// Delete removes one of the signed-in user's listings along with the photos
// it stored. Photo removal is best effort.
func (s *ProductService) Delete(ctx context.Context, session *models.Session, id string) error {
	const op = "service.product.Delete"
	log := s.log.With("op", op, "product_id", id)

	if session == nil {
		log.Warn("Delete requested without a session")
		return fmt.Errorf("%s: %w", op, serviceerrors.ErrUnauthorized)
	}

	p, err := s.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if p.UserId != session.User.Id {
		log.Warn("Only the owner can delete a listing", "user_id", session.User.Id)
		return fmt.Errorf("%s: %w", op, serviceerrors.ErrForbidden)
	}

	if err := s.storage.DeleteProduct(ctx, id, session.User.Id); err != nil {
		return serviceerrors.Report(log, op, "Failed to delete product", err)
	}

	for _, img := range p.Images {
		bucket, path, ok := s.blobs.Locate(img)
		if !ok || !strings.HasPrefix(path, session.User.Id+"/") {
			continue
		}
		if err := s.blobs.Remove(ctx, bucket, path); err != nil {
			log.Warn("Failed to remove photo", sl.Err(err), "path", path)
		}
	}

	log.Info("Product deleted")
	s.notifier.Notify(notify.LevelSuccess, "Listing deleted")
	return nil
}
