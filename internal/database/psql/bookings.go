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

const bookingColumns = `b.id, b.product_id, b.renter_id, b.owner_id,
	to_char(b.start_date, 'YYYY-MM-DD') AS start_date,
	to_char(b.end_date, 'YYYY-MM-DD') AS end_date,
	b.status, b.total_price, b.created_at`

// bookingRow is a booking joined with the summary of its product.
type bookingRow struct {
	Id              string          `db:"id"`
	ProductId       string          `db:"product_id"`
	RenterId        string          `db:"renter_id"`
	OwnerId         string          `db:"owner_id"`
	StartDate       string          `db:"start_date"`
	EndDate         string          `db:"end_date"`
	Status          string          `db:"status"`
	TotalPrice      decimal.Decimal `db:"total_price"`
	CreatedAt       time.Time       `db:"created_at"`
	ProductTitle    string          `db:"product_title"`
	ProductCategory string          `db:"product_category"`
	ProductPrice    decimal.Decimal `db:"product_price"`
	ProductImages   pq.StringArray  `db:"product_images"`
}

func (r bookingRow) model() models.Booking {
	images := []string(r.ProductImages)
	if images == nil {
		images = []string{}
	}
	return models.Booking{
		Id:         r.Id,
		ProductId:  r.ProductId,
		RenterId:   r.RenterId,
		OwnerId:    r.OwnerId,
		StartDate:  r.StartDate,
		EndDate:    r.EndDate,
		Status:     models.BookingStatus(r.Status),
		TotalPrice: r.TotalPrice,
		CreatedAt:  r.CreatedAt,
		Product: &models.Product{
			Id:       r.ProductId,
			Title:    r.ProductTitle,
			Category: models.Category(r.ProductCategory),
			Price:    r.ProductPrice,
			Images:   images,
			UserId:   r.OwnerId,
		},
	}
}

const bookingSelect = `SELECT ` + bookingColumns + `,
	p.title AS product_title, p.category AS product_category,
	p.price AS product_price, p.images AS product_images
	FROM bookings b JOIN products p ON p.id = b.product_id`

// BookedRanges returns the date ranges of every non-cancelled booking of a product.
func (s *Storage) BookedRanges(ctx context.Context, productID string) ([]models.DateRange, error) {
	const op = "database.psql.BookedRanges"
	log := s.log.With("op", op, "product_id", productID)

	if err := done(ctx, log, op); err != nil {
		return nil, err
	}

	var ranges []models.DateRange
	err := s.db.SelectContext(ctx, &ranges, `
		SELECT to_char(start_date, 'YYYY-MM-DD') AS start_date,
		       to_char(end_date, 'YYYY-MM-DD') AS end_date
		FROM bookings
		WHERE product_id = $1 AND status <> $2`,
		productID, string(models.BookingCancelled))
	if err != nil {
		log.Error("Error retrieving booked ranges", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return ranges, nil
}

// CreateBooking inserts b after re-checking, under a lock on the product row,
// that no non-cancelled booking overlaps it. An overlap yields ErrConflict.
func (s *Storage) CreateBooking(ctx context.Context, b models.Booking) (models.Booking, error) {
	const op = "database.psql.CreateBooking"
	log := s.log.With("op", op, "product_id", b.ProductId)

	if err := done(ctx, log, op); err != nil {
		return models.Booking{}, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		log.Error("Error starting transaction", sl.Err(err))
		return models.Booking{}, fmt.Errorf("%s: %w", op, err)
	}
	defer tx.Rollback()

	var locked string
	err = tx.QueryRowxContext(ctx, `SELECT id FROM products WHERE id = $1 FOR UPDATE`, b.ProductId).Scan(&locked)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Warn("Product not found")
			return models.Booking{}, fmt.Errorf("%s: %w", op, databaseerrors.ErrNotFound)
		}
		log.Error("Error locking product", sl.Err(err))
		return models.Booking{}, fmt.Errorf("%s: %w", op, err)
	}

	var overlapping int
	err = tx.QueryRowxContext(ctx, `
		SELECT count(*) FROM bookings
		WHERE product_id = $1 AND status <> $2
		  AND start_date <= $4::date AND end_date >= $3::date`,
		b.ProductId, string(models.BookingCancelled), b.StartDate, b.EndDate,
	).Scan(&overlapping)
	if err != nil {
		log.Error("Error checking overlapping bookings", sl.Err(err))
		return models.Booking{}, fmt.Errorf("%s: %w", op, err)
	}
	if overlapping > 0 {
		log.Warn("Dates already booked", "start_date", b.StartDate, "end_date", b.EndDate)
		return models.Booking{}, fmt.Errorf("%s: %w", op, databaseerrors.ErrConflict)
	}

	err = tx.QueryRowxContext(ctx, `
		INSERT INTO bookings (product_id, renter_id, owner_id, start_date, end_date, status, total_price)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`,
		b.ProductId, b.RenterId, b.OwnerId, b.StartDate, b.EndDate, string(b.Status), b.TotalPrice,
	).Scan(&b.Id, &b.CreatedAt)
	if err != nil {
		err = translate(err)
		log.Error("Error inserting booking", sl.Err(err))
		return models.Booking{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		err = translate(err)
		log.Error("Error committing booking", sl.Err(err))
		return models.Booking{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("Booking inserted", "booking_id", b.Id)
	return b, nil
}

func (s *Storage) GetBooking(ctx context.Context, id string) (models.Booking, error) {
	const op = "database.psql.GetBooking"
	log := s.log.With("op", op, "booking_id", id)

	if err := done(ctx, log, op); err != nil {
		return models.Booking{}, err
	}

	var row bookingRow
	err := s.db.GetContext(ctx, &row, bookingSelect+` WHERE b.id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Warn("Booking not found")
			return models.Booking{}, fmt.Errorf("%s: %w", op, databaseerrors.ErrNotFound)
		}
		log.Error("Error retrieving booking", sl.Err(err))
		return models.Booking{}, fmt.Errorf("%s: %w", op, err)
	}

	return row.model(), nil
}

// UpdateBookingStatus moves booking id from status from to status to. A
// booking that is no longer in status from yields ErrConflict.
func (s *Storage) UpdateBookingStatus(ctx context.Context, id string, from, to models.BookingStatus) error {
	const op = "database.psql.UpdateBookingStatus"
	log := s.log.With("op", op, "booking_id", id)

	if err := done(ctx, log, op); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE bookings SET status = $1 WHERE id = $2 AND status = $3`,
		string(to), id, string(from))
	if err != nil {
		err = translate(err)
		log.Error("Error updating booking", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		log.Error("Error reading affected rows", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		log.Warn("Booking changed concurrently", "from", from, "to", to)
		return fmt.Errorf("%s: %w", op, databaseerrors.ErrConflict)
	}

	log.Info("Booking status updated", "status", to)
	return nil
}

// ListBookingsByOwner returns bookings of the owner's products, newest first.
func (s *Storage) ListBookingsByOwner(ctx context.Context, ownerID string) ([]models.Booking, error) {
	return s.listBookings(ctx, "database.psql.ListBookingsByOwner", `b.owner_id`, ownerID)
}

// ListBookingsByRenter returns bookings made by the renter, newest first.
func (s *Storage) ListBookingsByRenter(ctx context.Context, renterID string) ([]models.Booking, error) {
	return s.listBookings(ctx, "database.psql.ListBookingsByRenter", `b.renter_id`, renterID)
}

func (s *Storage) listBookings(ctx context.Context, op, column, userID string) ([]models.Booking, error) {
	log := s.log.With("op", op, "user_id", userID)

	if err := done(ctx, log, op); err != nil {
		return nil, err
	}

	var rows []bookingRow
	err := s.db.SelectContext(ctx, &rows, bookingSelect+` WHERE `+column+` = $1 ORDER BY b.created_at DESC`, userID)
	if err != nil {
		log.Error("Error retrieving bookings", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	bookings := make([]models.Booking, 0, len(rows))
	for _, r := range rows {
		bookings = append(bookings, r.model())
	}
	return bookings, nil
}
