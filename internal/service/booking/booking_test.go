package bookingservice_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"locamat/internal/availability"
	databaseerrors "locamat/internal/database"
	"locamat/internal/models"
	"locamat/internal/notify"
	serviceerrors "locamat/internal/service"
	bookingservice "locamat/internal/service/booking"
	"locamat/internal/service/booking/mocks"
	"locamat/pkg/lib/logger/slogdiscard"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	productID = "5f0c7c1e-2f43-4f0e-9a55-0a4f3c8e2b11"
	ownerID   = "0b8f8f2e-7c3a-4d1e-8d8b-3c2b1a0f9e77"
	renterID  = "a1d2c3b4-5e6f-4a8b-9c0d-1e2f3a4b5c6d"
	bookingID = "c0ffee00-1234-4abc-8def-0123456789ab"
)

var clock = func() time.Time { return time.Date(2023, 12, 15, 14, 0, 0, 0, time.UTC) }

func newTestService(storage *mocks.BookingStorage) (*bookingservice.BookingService, *notify.Feed) {
	logger := slogdiscard.NewDiscardLogger()
	feed := notify.NewFeed(logger, 0)
	return bookingservice.New(logger, storage, feed).WithClock(clock), feed
}

func day(s string) *availability.Day {
	d, err := availability.ParseDay(s)
	if err != nil {
		panic(err)
	}
	return &d
}

func session(userID string) *models.Session {
	return &models.Session{AccessToken: "token", User: models.User{Id: userID}}
}

func tent() models.Product {
	return models.Product{Id: productID, Title: "Tente", Price: decimal.NewFromInt(1000), UserId: ownerID}
}

func TestAvailability_SortedDisabledDays(t *testing.T) {
	storage := new(mocks.BookingStorage)
	svc, _ := newTestService(storage)

	storage.On("BookedRanges", mock.Anything, productID).Return([]models.DateRange{
		{StartDate: "2024-01-05", EndDate: "2024-01-05"},
		{StartDate: "2024-01-01", EndDate: "2024-01-03"},
	}, nil)

	days, err := svc.Availability(context.Background(), productID)
	require.NoError(t, err)

	got := make([]string, 0, len(days))
	for _, d := range days {
		got = append(got, d.String())
	}
	assert.Equal(t, []string{"2024-01-01", "2024-01-02", "2024-01-03", "2024-01-05"}, got)
	storage.AssertExpectations(t)
}

func TestAvailability_InvalidID(t *testing.T) {
	storage := new(mocks.BookingStorage)
	svc, _ := newTestService(storage)

	_, err := svc.Availability(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, serviceerrors.ErrValidation)
	storage.AssertExpectations(t)
}

func TestQuote_PricesInclusiveRange(t *testing.T) {
	storage := new(mocks.BookingStorage)
	svc, _ := newTestService(storage)

	storage.On("GetProduct", mock.Anything, productID).Return(tent(), nil)
	storage.On("BookedRanges", mock.Anything, productID).Return([]models.DateRange{}, nil)

	q, err := svc.Quote(context.Background(), productID, day("2024-01-01"), day("2024-01-03"))
	require.NoError(t, err)
	assert.Equal(t, 3, q.Days)
	assert.True(t, decimal.NewFromInt(3000).Equal(q.TotalPrice), q.TotalPrice.String())
	storage.AssertExpectations(t)
}

func TestRequest_RequiresSession(t *testing.T) {
	storage := new(mocks.BookingStorage)
	svc, _ := newTestService(storage)

	_, err := svc.Request(context.Background(), nil, productID, day("2024-01-01"), day("2024-01-03"))
	assert.ErrorIs(t, err, serviceerrors.ErrUnauthorized)
	storage.AssertExpectations(t)
}

func TestRequest_LocalValidationSkipsBackend(t *testing.T) {
	tests := []struct {
		name     string
		from, to *availability.Day
		want     error
	}{
		{"missing start", nil, day("2024-01-03"), availability.ErrRangeRequired},
		{"missing end", day("2024-01-01"), nil, availability.ErrRangeRequired},
		{"inverted", day("2024-01-03"), day("2024-01-01"), availability.ErrRangeInverted},
		{"past", day("2023-12-01"), day("2023-12-03"), availability.ErrPastDate},
		{"longer than a year", day("2024-01-01"), day("2024-12-31"), availability.ErrRangeTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage := new(mocks.BookingStorage)
			svc, _ := newTestService(storage)

			_, err := svc.Request(context.Background(), session(renterID), productID, tt.from, tt.to)
			assert.ErrorIs(t, err, serviceerrors.ErrValidation)
			assert.ErrorIs(t, err, tt.want)
			storage.AssertExpectations(t)
		})
	}
}

func TestRequest_OverlapRejectedBeforeInsert(t *testing.T) {
	storage := new(mocks.BookingStorage)
	svc, _ := newTestService(storage)

	storage.On("GetProduct", mock.Anything, productID).Return(tent(), nil)
	storage.On("BookedRanges", mock.Anything, productID).Return([]models.DateRange{
		{StartDate: "2024-01-03", EndDate: "2024-01-04"},
	}, nil)

	_, err := svc.Request(context.Background(), session(renterID), productID, day("2024-01-01"), day("2024-01-03"))
	assert.ErrorIs(t, err, availability.ErrUnavailable)
	storage.AssertNotCalled(t, "CreateBooking", mock.Anything, mock.Anything)
}

func TestRequest_Success(t *testing.T) {
	storage := new(mocks.BookingStorage)
	svc, feed := newTestService(storage)

	storage.On("GetProduct", mock.Anything, productID).Return(tent(), nil)
	storage.On("BookedRanges", mock.Anything, productID).Return([]models.DateRange{
		{StartDate: "2024-01-04", EndDate: "2024-01-06"},
	}, nil)
	storage.On("CreateBooking", mock.Anything, mock.MatchedBy(func(b models.Booking) bool {
		return b.RenterId == renterID && b.OwnerId == ownerID &&
			b.StartDate == "2024-01-01" && b.EndDate == "2024-01-03" &&
			b.Status == models.BookingPending &&
			b.TotalPrice.Equal(decimal.NewFromInt(3000))
	})).Return(models.Booking{Id: bookingID, Status: models.BookingPending}, nil)

	b, err := svc.Request(context.Background(), session(renterID), productID, day("2024-01-01"), day("2024-01-03"))
	require.NoError(t, err)
	assert.Equal(t, bookingID, b.Id)
	require.NotNil(t, b.Product)
	assert.Equal(t, "Tente", b.Product.Title)

	notices := feed.Since(0)
	require.Len(t, notices, 1)
	assert.Equal(t, notify.LevelSuccess, notices[0].Level)
	storage.AssertExpectations(t)
}

func TestRequest_BackendConflict(t *testing.T) {
	storage := new(mocks.BookingStorage)
	svc, feed := newTestService(storage)

	storage.On("GetProduct", mock.Anything, productID).Return(tent(), nil)
	storage.On("BookedRanges", mock.Anything, productID).Return([]models.DateRange{}, nil)
	storage.On("CreateBooking", mock.Anything, mock.Anything).
		Return(models.Booking{}, databaseerrors.ErrConflict)

	_, err := svc.Request(context.Background(), session(renterID), productID, day("2024-01-01"), day("2024-01-03"))
	assert.ErrorIs(t, err, serviceerrors.ErrConflict)

	notices := feed.Since(0)
	require.Len(t, notices, 1)
	assert.Equal(t, notify.LevelError, notices[0].Level)
}

func TestRequest_ProductNotFound(t *testing.T) {
	storage := new(mocks.BookingStorage)
	svc, _ := newTestService(storage)

	storage.On("GetProduct", mock.Anything, productID).Return(models.Product{}, databaseerrors.ErrNotFound)

	_, err := svc.Request(context.Background(), session(renterID), productID, day("2024-01-01"), day("2024-01-03"))
	assert.ErrorIs(t, err, serviceerrors.ErrNotFound)
}

func TestRequest_ContextCanceled(t *testing.T) {
	storage := new(mocks.BookingStorage)
	svc, _ := newTestService(storage)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Request(ctx, session(renterID), productID, day("2024-01-01"), day("2024-01-03"))
	assert.ErrorIs(t, err, serviceerrors.ErrContextCanceled)
	storage.AssertExpectations(t)
}

func TestAcceptReject(t *testing.T) {
	pending := models.Booking{Id: bookingID, OwnerId: ownerID, RenterId: renterID, Status: models.BookingPending}

	t.Run("owner accepts", func(t *testing.T) {
		storage := new(mocks.BookingStorage)
		svc, _ := newTestService(storage)
		storage.On("GetBooking", mock.Anything, bookingID).Return(pending, nil)
		storage.On("UpdateBookingStatus", mock.Anything, bookingID, models.BookingPending, models.BookingConfirmed).Return(nil)

		b, err := svc.Accept(context.Background(), session(ownerID), bookingID)
		require.NoError(t, err)
		assert.Equal(t, models.BookingConfirmed, b.Status)
		storage.AssertExpectations(t)
	})

	t.Run("owner rejects", func(t *testing.T) {
		storage := new(mocks.BookingStorage)
		svc, _ := newTestService(storage)
		storage.On("GetBooking", mock.Anything, bookingID).Return(pending, nil)
		storage.On("UpdateBookingStatus", mock.Anything, bookingID, models.BookingPending, models.BookingCancelled).Return(nil)

		b, err := svc.Reject(context.Background(), session(ownerID), bookingID)
		require.NoError(t, err)
		assert.Equal(t, models.BookingCancelled, b.Status)
	})

	t.Run("renter cannot accept", func(t *testing.T) {
		storage := new(mocks.BookingStorage)
		svc, _ := newTestService(storage)
		storage.On("GetBooking", mock.Anything, bookingID).Return(pending, nil)

		_, err := svc.Accept(context.Background(), session(renterID), bookingID)
		assert.ErrorIs(t, err, serviceerrors.ErrForbidden)
		storage.AssertNotCalled(t, "UpdateBookingStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("confirmed booking cannot be rejected", func(t *testing.T) {
		storage := new(mocks.BookingStorage)
		svc, _ := newTestService(storage)
		confirmed := pending
		confirmed.Status = models.BookingConfirmed
		storage.On("GetBooking", mock.Anything, bookingID).Return(confirmed, nil)

		_, err := svc.Reject(context.Background(), session(ownerID), bookingID)
		assert.ErrorIs(t, err, serviceerrors.ErrInvalidTransition)
	})

	t.Run("concurrent answer", func(t *testing.T) {
		storage := new(mocks.BookingStorage)
		svc, _ := newTestService(storage)
		storage.On("GetBooking", mock.Anything, bookingID).Return(pending, nil)
		storage.On("UpdateBookingStatus", mock.Anything, bookingID, models.BookingPending, models.BookingConfirmed).
			Return(databaseerrors.ErrConflict)

		_, err := svc.Accept(context.Background(), session(ownerID), bookingID)
		assert.ErrorIs(t, err, serviceerrors.ErrInvalidTransition)
	})
}

func TestListIncomingOutgoing(t *testing.T) {
	storage := new(mocks.BookingStorage)
	svc, _ := newTestService(storage)

	storage.On("ListBookingsByOwner", mock.Anything, ownerID).Return([]models.Booking{{Id: bookingID}}, nil)
	storage.On("ListBookingsByRenter", mock.Anything, ownerID).Return(nil, errors.New("connection reset"))

	incoming, err := svc.ListIncoming(context.Background(), session(ownerID))
	require.NoError(t, err)
	assert.Len(t, incoming, 1)

	_, err = svc.ListOutgoing(context.Background(), session(ownerID))
	assert.Error(t, err)

	_, err = svc.ListIncoming(context.Background(), nil)
	assert.ErrorIs(t, err, serviceerrors.ErrUnauthorized)
	storage.AssertExpectations(t)
}
