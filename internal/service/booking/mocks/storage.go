package mocks

import (
	"context"

	"locamat/internal/models"

	"github.com/stretchr/testify/mock"
)

type BookingStorage struct {
	mock.Mock
}

func (m *BookingStorage) GetProduct(ctx context.Context, id string) (models.Product, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.Product), args.Error(1)
}

func (m *BookingStorage) BookedRanges(ctx context.Context, productID string) ([]models.DateRange, error) {
	args := m.Called(ctx, productID)
	ranges, _ := args.Get(0).([]models.DateRange)
	return ranges, args.Error(1)
}

func (m *BookingStorage) CreateBooking(ctx context.Context, b models.Booking) (models.Booking, error) {
	args := m.Called(ctx, b)
	return args.Get(0).(models.Booking), args.Error(1)
}

func (m *BookingStorage) GetBooking(ctx context.Context, id string) (models.Booking, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.Booking), args.Error(1)
}

func (m *BookingStorage) UpdateBookingStatus(ctx context.Context, id string, from, to models.BookingStatus) error {
	args := m.Called(ctx, id, from, to)
	return args.Error(0)
}

func (m *BookingStorage) ListBookingsByOwner(ctx context.Context, ownerID string) ([]models.Booking, error) {
	args := m.Called(ctx, ownerID)
	bookings, _ := args.Get(0).([]models.Booking)
	return bookings, args.Error(1)
}

func (m *BookingStorage) ListBookingsByRenter(ctx context.Context, renterID string) ([]models.Booking, error) {
	args := m.Called(ctx, renterID)
	bookings, _ := args.Get(0).([]models.Booking)
	return bookings, args.Error(1)
}
