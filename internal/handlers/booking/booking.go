package bookinghandler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"locamat/internal/availability"
	"locamat/internal/handlers"
	"locamat/internal/models"
	bookingservice "locamat/internal/service/booking"
	"locamat/pkg/lib/logger/sl"
)

type BookingService interface {
	Availability(ctx context.Context, productID string) ([]availability.Day, error)
	Quote(ctx context.Context, productID string, from, to *availability.Day) (bookingservice.Quote, error)
	Request(ctx context.Context, session *models.Session, productID string, from, to *availability.Day) (models.Booking, error)
	Accept(ctx context.Context, session *models.Session, bookingID string) (models.Booking, error)
	Reject(ctx context.Context, session *models.Session, bookingID string) (models.Booking, error)
	ListIncoming(ctx context.Context, session *models.Session) ([]models.Booking, error)
	ListOutgoing(ctx context.Context, session *models.Session) ([]models.Booking, error)
}

type Handler struct {
	log      *slog.Logger
	service  BookingService
	sessions handlers.SessionProvider
}

func New(log *slog.Logger, service BookingService, sessions handlers.SessionProvider) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		sessions: sessions,
	}
}

// rangeRequest carries the picked days. Empty dates mean not picked yet.
type rangeRequest struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

func (req rangeRequest) days() (from, to *availability.Day, ok bool) {
	parse := func(s string) (*availability.Day, bool) {
		s = strings.TrimSpace(s)
		if s == "" {
			return nil, true
		}
		d, err := availability.ParseDay(s)
		if err != nil {
			return nil, false
		}
		return &d, true
	}

	from, okFrom := parse(req.StartDate)
	to, okTo := parse(req.EndDate)
	return from, to, okFrom && okTo
}

// GET /products/{productId}/availability
func (h *Handler) Availability(w http.ResponseWriter, r *http.Request, productId string) {
	const op = "handlers.booking.Availability"
	log := h.log.With("op", op, "product_id", productId)

	days, err := h.service.Availability(r.Context(), productId)
	if err != nil {
		handlers.ServiceError(w, log, err, "Failed to load availability")
		return
	}

	handlers.JSON(w, log, http.StatusOK, map[string]any{"disabled_days": days})
}

// POST /products/{productId}/quote
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request, productId string) {
	const op = "handlers.booking.Quote"
	log := h.log.With("op", op, "product_id", productId)

	from, to, ok := h.decodeRange(w, r, log)
	if !ok {
		return
	}

	q, err := h.service.Quote(r.Context(), productId, from, to)
	if err != nil {
		handlers.ServiceError(w, log, err, "Failed to price booking")
		return
	}

	handlers.JSON(w, log, http.StatusOK, q)
}

// POST /products/{productId}/bookings
func (h *Handler) Request(w http.ResponseWriter, r *http.Request, productId string) {
	const op = "handlers.booking.Request"
	log := h.log.With("op", op, "product_id", productId)

	session, err := handlers.CurrentSession(r.Context(), h.sessions)
	if err != nil {
		handlers.ServiceError(w, log, err, "Failed to read session")
		return
	}

	from, to, ok := h.decodeRange(w, r, log)
	if !ok {
		return
	}

	b, err := h.service.Request(r.Context(), session, productId, from, to)
	if err != nil {
		handlers.ServiceError(w, log, err, "Failed to create booking")
		return
	}

	handlers.JSON(w, log, http.StatusCreated, b)
}

func (h *Handler) decodeRange(w http.ResponseWriter, r *http.Request, log *slog.Logger) (from, to *availability.Day, ok bool) {
	var req rangeRequest
	if err := handlers.Decode(w, r, &req); err != nil {
		log.Error("Cannot unmarshal request body", sl.Err(err))
		handlers.Error(w, log, http.StatusBadRequest, "Cannot unmarshal request body")
		return nil, nil, false
	}

	from, to, ok = req.days()
	if !ok {
		handlers.Error(w, log, http.StatusBadRequest, "Dates must look like 2006-01-02")
		return nil, nil, false
	}
	return from, to, true
}

// POST /bookings/{bookingId}/accept
func (h *Handler) Accept(w http.ResponseWriter, r *http.Request, bookingId string) {
	h.answer(w, r, "handlers.booking.Accept", bookingId, h.service.Accept)
}

// POST /bookings/{bookingId}/reject
func (h *Handler) Reject(w http.ResponseWriter, r *http.Request, bookingId string) {
	h.answer(w, r, "handlers.booking.Reject", bookingId, h.service.Reject)
}

func (h *Handler) answer(w http.ResponseWriter, r *http.Request, op, bookingId string,
	do func(context.Context, *models.Session, string) (models.Booking, error)) {
	log := h.log.With("op", op, "booking_id", bookingId)

	session, err := handlers.CurrentSession(r.Context(), h.sessions)
	if err != nil {
		handlers.ServiceError(w, log, err, "Failed to read session")
		return
	}

	b, err := do(r.Context(), session, bookingId)
	if err != nil {
		handlers.ServiceError(w, log, err, "Failed to update booking")
		return
	}

	handlers.JSON(w, log, http.StatusOK, b)
}

// GET /bookings/incoming
func (h *Handler) Incoming(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, "handlers.booking.Incoming", h.service.ListIncoming)
}

// GET /bookings/outgoing
func (h *Handler) Outgoing(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, "handlers.booking.Outgoing", h.service.ListOutgoing)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, op string,
	fetch func(context.Context, *models.Session) ([]models.Booking, error)) {
	log := h.log.With("op", op)

	session, err := handlers.CurrentSession(r.Context(), h.sessions)
	if err != nil {
		handlers.ServiceError(w, log, err, "Failed to read session")
		return
	}

	bookings, err := fetch(r.Context(), session)
	if err != nil {
		handlers.ServiceError(w, log, err, "Failed to list bookings")
		return
	}

	handlers.JSON(w, log, http.StatusOK, bookings)
}
