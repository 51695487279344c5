package bookingservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"locamat/internal/availability"
	"locamat/internal/models"
	"locamat/internal/notify"
	serviceerrors "locamat/internal/service"
	"locamat/pkg/lib/logger/sl"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type BookingStorage interface {
	GetProduct(ctx context.Context, id string) (models.Product, error)
	BookedRanges(ctx context.Context, productID string) ([]models.DateRange, error)
	CreateBooking(ctx context.Context, b models.Booking) (models.Booking, error)
	GetBooking(ctx context.Context, id string) (models.Booking, error)
	UpdateBookingStatus(ctx context.Context, id string, from, to models.BookingStatus) error
	ListBookingsByOwner(ctx context.Context, ownerID string) ([]models.Booking, error)
	ListBookingsByRenter(ctx context.Context, renterID string) ([]models.Booking, error)
}

// Quote is the price of renting a product over an inclusive range of days.
type Quote struct {
	ProductId  string           `json:"product_id"`
	StartDate  availability.Day `json:"start_date"`
	EndDate    availability.Day `json:"end_date"`
	Days       int              `json:"days"`
	DailyPrice decimal.Decimal  `json:"daily_price"`
	TotalPrice decimal.Decimal  `json:"total_price"`
}

type BookingService struct {
	log      *slog.Logger
	storage  BookingStorage
	notifier notify.Notifier
	now      func() time.Time
}

func New(log *slog.Logger, storage BookingStorage, notifier notify.Notifier) *BookingService {
	return &BookingService{
		log:      log,
		storage:  storage,
		notifier: notifier,
		now:      time.Now,
	}
}

// WithClock replaces the clock used to decide which day is today.
func (s *BookingService) WithClock(now func() time.Time) *BookingService {
	s.now = now
	return s
}

func (s *BookingService) today() availability.Day {
	return availability.DayOf(s.now())
}

// Availability returns the days of a product covered by a non-cancelled
// booking, ascending.
func (s *BookingService) Availability(ctx context.Context, productID string) ([]availability.Day, error) {
	const op = "service.booking.Availability"
	log := s.log.With("op", op, "product_id", productID)

	if err := checkID(productID, "product"); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := serviceerrors.CheckContext(ctx); err != nil {
		log.Warn("Context is over", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	disabled, err := s.disabledDays(ctx, productID)
	if err != nil {
		return nil, serviceerrors.Report(log, op, "Failed to load bookings", err)
	}

	return disabled.Sorted(), nil
}

// Quote validates [from, to] against today and the product's bookings and
// prices it. Nothing is written.
func (s *BookingService) Quote(ctx context.Context, productID string, from, to *availability.Day) (Quote, error) {
	const op = "service.booking.Quote"
	log := s.log.With("op", op, "product_id", productID)

	if err := checkID(productID, "product"); err != nil {
		return Quote{}, fmt.Errorf("%s: %w", op, err)
	}
	if err := availability.CheckRequest(from, to, s.today()); err != nil {
		return Quote{}, fmt.Errorf("%s: %w", op, serviceerrors.Invalid(err))
	}
	if err := serviceerrors.CheckContext(ctx); err != nil {
		log.Warn("Context is over", sl.Err(err))
		return Quote{}, fmt.Errorf("%s: %w", op, err)
	}

	product, err := s.storage.GetProduct(ctx, productID)
	if err != nil {
		return Quote{}, serviceerrors.Report(log, op, "Failed to load product", err)
	}

	disabled, err := s.disabledDays(ctx, productID)
	if err != nil {
		return Quote{}, serviceerrors.Report(log, op, "Failed to load bookings", err)
	}

	if err := availability.Validate(from, to, disabled, s.today()); err != nil {
		log.Info("Range rejected", "from", from.String(), "to", to.String(), "reason", err.Error())
		return Quote{}, fmt.Errorf("%s: %w", op, serviceerrors.Invalid(err))
	}

	return quote(product, *from, *to), nil
}

// Request books [from, to] for the signed-in renter with status pending.
// Everything that can be checked locally is checked before the backend is
// contacted; the backend has the final word on overlaps.
func (s *BookingService) Request(ctx context.Context, session *models.Session, productID string, from, to *availability.Day) (models.Booking, error) {
	const op = "service.booking.Request"
	log := s.log.With("op", op, "product_id", productID)

	if session == nil {
		log.Warn("Booking requested without a session")
		return models.Booking{}, fmt.Errorf("%s: %w", op, serviceerrors.ErrUnauthorized)
	}
	if err := checkID(productID, "product"); err != nil {
		return models.Booking{}, fmt.Errorf("%s: %w", op, err)
	}
	if err := availability.CheckRequest(from, to, s.today()); err != nil {
		log.Info("Request rejected locally", "reason", err.Error())
		return models.Booking{}, fmt.Errorf("%s: %w", op, serviceerrors.Invalid(err))
	}
	if err := serviceerrors.CheckContext(ctx); err != nil {
		log.Warn("Context is over", sl.Err(err))
		return models.Booking{}, fmt.Errorf("%s: %w", op, err)
	}

	product, err := s.storage.GetProduct(ctx, productID)
	if err != nil {
		return models.Booking{}, serviceerrors.Report(log, op, "Failed to load product", err)
	}

	disabled, err := s.disabledDays(ctx, productID)
	if err != nil {
		return models.Booking{}, serviceerrors.Report(log, op, "Failed to load bookings", err)
	}
	if err := availability.Validate(from, to, disabled, s.today()); err != nil {
		log.Info("Request overlaps a booking", "from", from.String(), "to", to.String())
		return models.Booking{}, fmt.Errorf("%s: %w", op, serviceerrors.Invalid(err))
	}

	q := quote(product, *from, *to)
	booking, err := s.storage.CreateBooking(ctx, models.Booking{
		ProductId:  product.Id,
		RenterId:   session.User.Id,
		OwnerId:    product.UserId,
		StartDate:  from.String(),
		EndDate:    to.String(),
		Status:     models.BookingPending,
		TotalPrice: q.TotalPrice,
	})
	if err != nil {
		err = serviceerrors.Report(log, op, "Failed to create booking", err)
		if errors.Is(err, serviceerrors.ErrConflict) {
			s.notifier.Notify(notify.LevelError, "These dates were just booked by someone else")
		} else {
			s.notifier.Notify(notify.LevelError, "The booking could not be created")
		}
		return models.Booking{}, err
	}
	booking.Product = &product

	log.Info("Booking requested", "booking_id", booking.Id, "total_price", booking.TotalPrice.String())
	s.notifier.Notify(notify.LevelSuccess, "Booking request sent")
	return booking, nil
}

// Accept confirms a pending booking of one of the owner's products.
func (s *BookingService) Accept(ctx context.Context, session *models.Session, bookingID string) (models.Booking, error) {
	const op = "service.booking.Accept"
	b, err := s.transition(ctx, op, session, bookingID, models.BookingConfirmed)
	if err != nil {
		return models.Booking{}, err
	}
	s.notifier.Notify(notify.LevelSuccess, "Booking confirmed")
	return b, nil
}

// Reject cancels a pending booking of one of the owner's products.
func (s *BookingService) Reject(ctx context.Context, session *models.Session, bookingID string) (models.Booking, error) {
	const op = "service.booking.Reject"
	b, err := s.transition(ctx, op, session, bookingID, models.BookingCancelled)
	if err != nil {
		return models.Booking{}, err
	}
	s.notifier.Notify(notify.LevelInfo, "Booking declined")
	return b, nil
}

func (s *BookingService) transition(ctx context.Context, op string, session *models.Session, bookingID string, to models.BookingStatus) (models.Booking, error) {
	log := s.log.With("op", op, "booking_id", bookingID)

	if session == nil {
		log.Warn("Transition requested without a session")
		return models.Booking{}, fmt.Errorf("%s: %w", op, serviceerrors.ErrUnauthorized)
	}
	if err := checkID(bookingID, "booking"); err != nil {
		return models.Booking{}, fmt.Errorf("%s: %w", op, err)
	}
	if err := serviceerrors.CheckContext(ctx); err != nil {
		log.Warn("Context is over", sl.Err(err))
		return models.Booking{}, fmt.Errorf("%s: %w", op, err)
	}

	b, err := s.storage.GetBooking(ctx, bookingID)
	if err != nil {
		return models.Booking{}, serviceerrors.Report(log, op, "Failed to load booking", err)
	}

	if b.OwnerId != session.User.Id {
		log.Warn("Only the owner can answer a booking", "user_id", session.User.Id)
		return models.Booking{}, fmt.Errorf("%s: %w", op, serviceerrors.ErrForbidden)
	}
	if b.Status != models.BookingPending {
		log.Warn("Booking is not pending", "status", b.Status)
		return models.Booking{}, fmt.Errorf("%s: %w", op, serviceerrors.ErrInvalidTransition)
	}

	err = s.storage.UpdateBookingStatus(ctx, bookingID, models.BookingPending, to)
	if err != nil {
		err = serviceerrors.Report(log, op, "Failed to update booking", err)
		if errors.Is(err, serviceerrors.ErrConflict) {
			return models.Booking{}, fmt.Errorf("%s: %w", op, serviceerrors.ErrInvalidTransition)
		}
		return models.Booking{}, err
	}

	b.Status = to
	log.Info("Booking answered", "status", to)
	return b, nil
}

// ListIncoming returns the bookings made on the signed-in user's products.
func (s *BookingService) ListIncoming(ctx context.Context, session *models.Session) ([]models.Booking, error) {
	const op = "service.booking.ListIncoming"
	return s.list(ctx, op, session, s.storage.ListBookingsByOwner)
}

// ListOutgoing returns the bookings the signed-in user made.
func (s *BookingService) ListOutgoing(ctx context.Context, session *models.Session) ([]models.Booking, error) {
	const op = "service.booking.ListOutgoing"
	return s.list(ctx, op, session, s.storage.ListBookingsByRenter)
}

func (s *BookingService) list(ctx context.Context, op string, session *models.Session,
	fetch func(context.Context, string) ([]models.Booking, error)) ([]models.Booking, error) {
	log := s.log.With("op", op)

	if session == nil {
		log.Warn("Listing requested without a session")
		return nil, fmt.Errorf("%s: %w", op, serviceerrors.ErrUnauthorized)
	}
	if err := serviceerrors.CheckContext(ctx); err != nil {
		log.Warn("Context is over", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	bookings, err := fetch(ctx, session.User.Id)
	if err != nil {
		return nil, serviceerrors.Report(log, op, "Failed to list bookings", err)
	}
	if bookings == nil {
		bookings = []models.Booking{}
	}
	return bookings, nil
}

func (s *BookingService) disabledDays(ctx context.Context, productID string) (availability.DaySet, error) {
	booked, err := s.storage.BookedRanges(ctx, productID)
	if err != nil {
		return nil, err
	}

	ranges := make([]availability.Range, 0, len(booked))
	for _, b := range booked {
		r, err := availability.ParseRange(b.StartDate, b.EndDate)
		if err != nil {
			s.log.Warn("Skipping malformed booked range", "start_date", b.StartDate, "end_date", b.EndDate)
			continue
		}
		ranges = append(ranges, r)
	}
	return availability.DisabledDays(ranges), nil
}

func quote(p models.Product, from, to availability.Day) Quote {
	return Quote{
		ProductId:  p.Id,
		StartDate:  from,
		EndDate:    to,
		Days:       availability.NumberOfDays(from, to),
		DailyPrice: p.Price,
		TotalPrice: availability.Price(from, to, p.Price),
	}
}

func checkID(id, what string) error {
	if _, err := uuid.Parse(id); err != nil {
		return serviceerrors.NewValidation(fmt.Sprintf("invalid %s id", what))
	}
	return nil
}
