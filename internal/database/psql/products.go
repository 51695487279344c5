package psql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	databaseerrors "locamat/internal/database"
	"locamat/internal/models"
	"locamat/pkg/lib/logger/sl"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

const productColumns = `id, title, category, price, images, description, location, latitude, longitude, user_id, created_at`

// productRow mirrors the products table; images arrive as a postgres array.
type productRow struct {
	Id          string          `db:"id"`
	Title       string          `db:"title"`
	Category    string          `db:"category"`
	Price       decimal.Decimal `db:"price"`
	Images      pq.StringArray  `db:"images"`
	Description string          `db:"description"`
	Location    sql.NullString  `db:"location"`
	Latitude    sql.NullFloat64 `db:"latitude"`
	Longitude   sql.NullFloat64 `db:"longitude"`
	UserId      string          `db:"user_id"`
	CreatedAt   time.Time       `db:"created_at"`
}

func (r productRow) model() models.Product {
	p := models.Product{
		Id:          r.Id,
		Title:       r.Title,
		Category:    models.Category(r.Category),
		Price:       r.Price,
		Images:      []string(r.Images),
		Description: r.Description,
		UserId:      r.UserId,
		CreatedAt:   r.CreatedAt,
	}
	if p.Images == nil {
		p.Images = []string{}
	}
	if r.Location.Valid {
		loc := r.Location.String
		p.Location = &loc
	}
	if r.Latitude.Valid && r.Longitude.Valid {
		lat, lng := r.Latitude.Float64, r.Longitude.Float64
		p.Latitude = &lat
		p.Longitude = &lng
	}
	return p
}

func rowsToProducts(rows []productRow) []models.Product {
	products := make([]models.Product, 0, len(rows))
	for _, r := range rows {
		products = append(products, r.model())
	}
	return products
}

// ListProducts returns every listing, newest first.
func (s *Storage) ListProducts(ctx context.Context) ([]models.Product, error) {
	const op = "database.psql.ListProducts"
	log := s.log.With("op", op)

	if err := done(ctx, log, op); err != nil {
		return nil, err
	}

	var rows []productRow
	err := s.db.SelectContext(ctx, &rows, `SELECT `+productColumns+` FROM products ORDER BY created_at DESC`)
	if err != nil {
		log.Error("Error retrieving products", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return rowsToProducts(rows), nil
}

// ListProductsByOwner returns the listings published by userID, newest first.
func (s *Storage) ListProductsByOwner(ctx context.Context, userID string) ([]models.Product, error) {
	const op = "database.psql.ListProductsByOwner"
	log := s.log.With("op", op, "user_id", userID)

	if err := done(ctx, log, op); err != nil {
		return nil, err
	}

	var rows []productRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT `+productColumns+` FROM products WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		log.Error("Error retrieving products", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return rowsToProducts(rows), nil
}

func (s *Storage) GetProduct(ctx context.Context, id string) (models.Product, error) {
	const op = "database.psql.GetProduct"
	log := s.log.With("op", op, "product_id", id)

	if err := done(ctx, log, op); err != nil {
		return models.Product{}, err
	}

	var row productRow
	err := s.db.GetContext(ctx, &row, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Warn("Product not found")
			return models.Product{}, fmt.Errorf("%s: %w", op, databaseerrors.ErrNotFound)
		}
		log.Error("Error retrieving product", sl.Err(err))
		return models.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	return row.model(), nil
}

// CreateProduct inserts p and returns it with the backend-assigned id and
// creation time.
func (s *Storage) CreateProduct(ctx context.Context, p models.Product) (models.Product, error) {
	const op = "database.psql.CreateProduct"
	log := s.log.With("op", op, "user_id", p.UserId)

	if err := done(ctx, log, op); err != nil {
		return models.Product{}, err
	}

	images := p.Images
	if images == nil {
		images = []string{}
	}

	err := s.db.QueryRowxContext(ctx, `
		INSERT INTO products (title, category, price, images, description, location, latitude, longitude, user_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at`,
		p.Title, string(p.Category), p.Price, pq.Array(images), p.Description,
		p.Location, p.Latitude, p.Longitude, p.UserId,
	).Scan(&p.Id, &p.CreatedAt)
	if err != nil {
		err = translate(err)
		log.Error("Error inserting product", sl.Err(err))
		return models.Product{}, fmt.Errorf("%s: %w", op, err)
	}
	p.Images = images

	log.Info("Product inserted", "product_id", p.Id)
	return p, nil
}

// DeleteProduct removes the listing id if it belongs to ownerID.
func (s *Storage) DeleteProduct(ctx context.Context, id, ownerID string) error {
	const op = "database.psql.DeleteProduct"
	log := s.log.With("op", op, "product_id", id)

	if err := done(ctx, log, op); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1 AND user_id = $2`, id, ownerID)
	if err != nil {
		log.Error("Error deleting product", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		log.Error("Error reading affected rows", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		log.Warn("Product not found")
		return fmt.Errorf("%s: %w", op, databaseerrors.ErrNotFound)
	}

	log.Info("Product deleted")
	return nil
}
