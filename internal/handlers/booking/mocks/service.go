package mocks

import (
	"context"

	"locamat/internal/availability"
	"locamat/internal/models"
	bookingservice "locamat/internal/service/booking"

	"github.com/stretchr/testify/mock"
)

type BookingService struct {
	mock.Mock
}

func (m *BookingService) Availability(ctx context.Context, productID string) ([]availability.Day, error) {
	args := m.Called(ctx, productID)
	days, _ := args.Get(0).([]availability.Day)
	return days, args.Error(1)
}

func (m *BookingService) Quote(ctx context.Context, productID string, from, to *availability.Day) (bookingservice.Quote, error) {
	args := m.Called(ctx, productID, from, to)
	return args.Get(0).(bookingservice.Quote), args.Error(1)
}

func (m *BookingService) Request(ctx context.Context, session *models.Session, productID string, from, to *availability.Day) (models.Booking, error) {
	args := m.Called(ctx, session, productID, from, to)
	return args.Get(0).(models.Booking), args.Error(1)
}

func (m *BookingService) Accept(ctx context.Context, session *models.Session, bookingID string) (models.Booking, error) {
	args := m.Called(ctx, session, bookingID)
	return args.Get(0).(models.Booking), args.Error(1)
}

func (m *BookingService) Reject(ctx context.Context, session *models.Session, bookingID string) (models.Booking, error) {
	args := m.Called(ctx, session, bookingID)
	return args.Get(0).(models.Booking), args.Error(1)
}

func (m *BookingService) ListIncoming(ctx context.Context, session *models.Session) ([]models.Booking, error) {
	args := m.Called(ctx, session)
	bookings, _ := args.Get(0).([]models.Booking)
	return bookings, args.Error(1)
}

func (m *BookingService) ListOutgoing(ctx context.Context, session *models.Session) ([]models.Booking, error) {
	args := m.Called(ctx, session)
	bookings, _ := args.Get(0).([]models.Booking)
	return bookings, args.Error(1)
}

type Sessions struct {
	mock.Mock
}

func (m *Sessions) Session(ctx context.Context) (models.Session, error) {
	args := m.Called(ctx)
	return args.Get(0).(models.Session), args.Error(1)
}
