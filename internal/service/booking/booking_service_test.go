package booking

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Domenick1991/healthtrip/internal/domain"
	"github.com/Domenick1991/healthtrip/internal/kafka"
	"github.com/Domenick1991/healthtrip/internal/repository/sqlite"
	"github.com/Domenick1991/healthtrip/internal/service/seats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockBookingRepository struct {
	mock.Mock
}

func (m *MockBookingRepository) CreatePending(ctx context.Context, booking *domain.Booking) error {
	args := m.Called(ctx, booking)
	return args.Error(0)
}

func (m *MockBookingRepository) GetByToken(ctx context.Context, token string) (*domain.Booking, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) TransitionStatus(ctx context.Context, token string, from, to domain.BookingStatus) (*domain.Booking, error) {
	args := m.Called(ctx, token, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) ExpirePendingBefore(ctx context.Context, deadline time.Time) ([]domain.Booking, error) {
	args := m.Called(ctx, deadline)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Booking), args.Error(1)
}

type MockSeats struct {
	mock.Mock
}

func (m *MockSeats) ReserveSeats(ctx context.Context, flightID int64, count int) (*domain.Flight, error) {
	args := m.Called(ctx, flightID, count)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Flight), args.Error(1)
}

func (m *MockSeats) ReleaseSeats(ctx context.Context, flightID int64, count int) (*domain.Flight, error) {
	args := m.Called(ctx, flightID, count)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Flight), args.Error(1)
}

func (m *MockSeats) HasCapacity(ctx context.Context, flightID int64, count int) (bool, error) {
	args := m.Called(ctx, flightID, count)
	return args.Bool(0), args.Error(1)
}

type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) Publish(ctx context.Context, topic, key string, value interface{}) error {
	args := m.Called(ctx, topic, key, value)
	return args.Error(0)
}

var fixedNow = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestService(bookings *MockBookingRepository, seatPool *MockSeats, producer *MockProducer) *BookingService {
	return NewBookingService(bookings, seatPool, producer, "booking_events", 15*time.Minute, time.Hour,
		WithClock(func() time.Time { return fixedNow }))
}

func TestBookingService_CreateBooking_Success(t *testing.T) {
	bookings, seatPool, producer := &MockBookingRepository{}, &MockSeats{}, &MockProducer{}
	service := newTestService(bookings, seatPool, producer)
	ctx := context.Background()

	seatPool.On("ReserveSeats", ctx, int64(4), 2).Return(&domain.Flight{ID: 4}, nil).Once()
	bookings.On("CreatePending", ctx, mock.AnythingOfType("*domain.Booking")).Run(func(args mock.Arguments) {
		args.Get(1).(*domain.Booking).Status = domain.BookingStatusPending
	}).Return(nil).Once()
	producer.On("Publish", ctx, "booking_events", mock.Anything, mock.MatchedBy(func(e kafka.BookingEvent) bool {
		return e.Type == "booking_created" && e.Seats == 2
	})).Return(nil).Once()

	booking, err := service.CreateBooking(ctx, CreateBookingInput{FlightID: 4, Seats: 2, Email: " test@example.com "})

	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusPending, booking.Status)
	assert.Equal(t, "test@example.com", booking.Email)
	assert.Equal(t, fixedNow.Add(time.Hour), booking.ExpiresAt)
	assert.NotEmpty(t, booking.Token)
	seatPool.AssertExpectations(t)
	producer.AssertExpectations(t)
}

func TestBookingService_CreateBooking_Validation(t *testing.T) {
	service := newTestService(&MockBookingRepository{}, &MockSeats{}, &MockProducer{})

	_, err := service.CreateBooking(context.Background(), CreateBookingInput{FlightID: 1, Seats: 0, Email: "a@b.c"})
	assert.ErrorIs(t, err, domain.ErrInvalidSeatCount)

	_, err = service.CreateBooking(context.Background(), CreateBookingInput{FlightID: 1, Seats: 1, Email: "nope"})
	assert.ErrorIs(t, err, domain.ErrInvalidBooking)
}

func TestBookingService_CreateBooking_RetriesConflictOnce(t *testing.T) {
	bookings, seatPool, producer := &MockBookingRepository{}, &MockSeats{}, &MockProducer{}
	service := newTestService(bookings, seatPool, producer)
	ctx := context.Background()

	seatPool.On("ReserveSeats", ctx, int64(4), 1).Return(nil, domain.ErrConcurrencyConflict).Once()
	seatPool.On("ReserveSeats", ctx, int64(4), 1).Return(&domain.Flight{ID: 4}, nil).Once()
	bookings.On("CreatePending", ctx, mock.Anything).Return(nil).Once()
	producer.On("Publish", ctx, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	_, err := service.CreateBooking(ctx, CreateBookingInput{FlightID: 4, Seats: 1, Email: "a@b.c"})
	require.NoError(t, err)
	seatPool.AssertNumberOfCalls(t, "ReserveSeats", 2)
}

func TestBookingService_CreateBooking_SecondConflictSurfaces(t *testing.T) {
	seatPool := &MockSeats{}
	service := newTestService(&MockBookingRepository{}, seatPool, &MockProducer{})
	ctx := context.Background()

	seatPool.On("ReserveSeats", ctx, int64(4), 1).Return(nil, domain.ErrConcurrencyConflict).Twice()

	_, err := service.CreateBooking(ctx, CreateBookingInput{FlightID: 4, Seats: 1, Email: "a@b.c"})
	assert.ErrorIs(t, err, domain.ErrConcurrencyConflict)
}

func TestBookingService_CreateBooking_CapacityNotRetried(t *testing.T) {
	seatPool := &MockSeats{}
	service := newTestService(&MockBookingRepository{}, seatPool, &MockProducer{})
	ctx := context.Background()

	capErr := &domain.CapacityError{FlightID: 4, Requested: 3, Available: 1}
	seatPool.On("ReserveSeats", ctx, int64(4), 3).Return(nil, capErr).Once()

	_, err := service.CreateBooking(ctx, CreateBookingInput{FlightID: 4, Seats: 3, Email: "a@b.c"})
	assert.ErrorIs(t, err, domain.ErrCapacityExhausted)
	seatPool.AssertNumberOfCalls(t, "ReserveSeats", 1)
}

func TestBookingService_CreateBooking_InsertFailureReturnsSeats(t *testing.T) {
	bookings, seatPool := &MockBookingRepository{}, &MockSeats{}
	service := newTestService(bookings, seatPool, &MockProducer{})
	ctx := context.Background()

	seatPool.On("ReserveSeats", ctx, int64(4), 2).Return(&domain.Flight{ID: 4}, nil).Once()
	bookings.On("CreatePending", ctx, mock.Anything).Return(errors.New("db error")).Once()
	seatPool.On("ReleaseSeats", ctx, int64(4), 2).Return(&domain.Flight{ID: 4}, nil).Once()

	_, err := service.CreateBooking(ctx, CreateBookingInput{FlightID: 4, Seats: 2, Email: "a@b.c"})
	assert.ErrorContains(t, err, "db error")
	seatPool.AssertExpectations(t)
}

func TestBookingService_CreateBooking_PublishFailureNotFatal(t *testing.T) {
	bookings, seatPool, producer := &MockBookingRepository{}, &MockSeats{}, &MockProducer{}
	service := newTestService(bookings, seatPool, producer)
	ctx := context.Background()

	seatPool.On("ReserveSeats", ctx, int64(4), 1).Return(&domain.Flight{ID: 4}, nil)
	bookings.On("CreatePending", ctx, mock.Anything).Return(nil)
	producer.On("Publish", ctx, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("kafka down"))

	booking, err := service.CreateBooking(ctx, CreateBookingInput{FlightID: 4, Seats: 1, Email: "a@b.c"})
	require.NoError(t, err)
	assert.NotNil(t, booking)
}

func TestBookingService_ConfirmBooking(t *testing.T) {
	bookings, producer := &MockBookingRepository{}, &MockProducer{}
	service := newTestService(bookings, &MockSeats{}, producer)
	ctx := context.Background()

	pending := &domain.Booking{Token: "t1", Status: domain.BookingStatusPending}
	confirmed := &domain.Booking{Token: "t1", Status: domain.BookingStatusConfirmed}
	bookings.On("GetByToken", ctx, "t1").Return(pending, nil).Once()
	bookings.On("TransitionStatus", ctx, "t1", domain.BookingStatusPending, domain.BookingStatusConfirmed).Return(confirmed, nil).Once()
	producer.On("Publish", ctx, "booking_events", "t1", mock.Anything).Return(nil).Once()

	got, err := service.ConfirmBooking(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusConfirmed, got.Status)
}

func TestBookingService_ConfirmBooking_NotPending(t *testing.T) {
	bookings := &MockBookingRepository{}
	service := newTestService(bookings, &MockSeats{}, &MockProducer{})
	ctx := context.Background()

	bookings.On("GetByToken", ctx, "t1").Return(&domain.Booking{Token: "t1", Status: domain.BookingStatusExpired}, nil).Once()
	_, err := service.ConfirmBooking(ctx, "t1")
	assert.ErrorIs(t, err, domain.ErrBookingNotPending)

	bookings.On("GetByToken", ctx, "t2").Return(&domain.Booking{Token: "t2", Status: domain.BookingStatusPending}, nil).Once()
	bookings.On("TransitionStatus", ctx, "t2", domain.BookingStatusPending, domain.BookingStatusConfirmed).Return(nil, domain.ErrBookingStateChanged).Once()
	_, err = service.ConfirmBooking(ctx, "t2")
	assert.ErrorIs(t, err, domain.ErrBookingNotPending)

	bookings.On("GetByToken", ctx, "missing").Return(nil, domain.ErrBookingNotFound).Once()
	_, err = service.ConfirmBooking(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrBookingNotFound)
}

func TestBookingService_CancelBooking_ReleasesSeats(t *testing.T) {
	bookings, seatPool, producer := &MockBookingRepository{}, &MockSeats{}, &MockProducer{}
	service := newTestService(bookings, seatPool, producer)
	ctx := context.Background()

	current := &domain.Booking{Token: "t1", FlightID: 9, Seats: 3, Status: domain.BookingStatusConfirmed}
	cancelled := &domain.Booking{Token: "t1", FlightID: 9, Seats: 3, Status: domain.BookingStatusCancelled}
	bookings.On("GetByToken", ctx, "t1").Return(current, nil).Once()
	bookings.On("TransitionStatus", ctx, "t1", domain.BookingStatusConfirmed, domain.BookingStatusCancelled).Return(cancelled, nil).Once()
	seatPool.On("ReleaseSeats", ctx, int64(9), 3).Return(&domain.Flight{ID: 9}, nil).Once()
	producer.On("Publish", ctx, "booking_events", "t1", mock.Anything).Return(nil).Once()

	got, err := service.CancelBooking(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusCancelled, got.Status)
	seatPool.AssertExpectations(t)
}

func TestBookingService_CancelBooking_AlreadyTerminal(t *testing.T) {
	bookings, seatPool := &MockBookingRepository{}, &MockSeats{}
	service := newTestService(bookings, seatPool, &MockProducer{})
	ctx := context.Background()

	expired := &domain.Booking{Token: "t1", Status: domain.BookingStatusExpired}
	bookings.On("GetByToken", ctx, "t1").Return(expired, nil).Once()

	got, err := service.CancelBooking(ctx, "t1")
	require.NoError(t, err)
	assert.Same(t, expired, got)
	seatPool.AssertNotCalled(t, "ReleaseSeats", mock.Anything, mock.Anything, mock.Anything)
}

func TestBookingService_CancelBooking_LostTransitionDoesNotRelease(t *testing.T) {
	bookings, seatPool := &MockBookingRepository{}, &MockSeats{}
	service := newTestService(bookings, seatPool, &MockProducer{})
	ctx := context.Background()

	bookings.On("GetByToken", ctx, "t1").Return(&domain.Booking{Token: "t1", Status: domain.BookingStatusPending}, nil).Once()
	bookings.On("TransitionStatus", ctx, "t1", domain.BookingStatusPending, domain.BookingStatusCancelled).Return(nil, domain.ErrBookingStateChanged).Once()
	bookings.On("GetByToken", ctx, "t1").Return(&domain.Booking{Token: "t1", Status: domain.BookingStatusExpired}, nil).Once()

	got, err := service.CancelBooking(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusExpired, got.Status)
	seatPool.AssertNotCalled(t, "ReleaseSeats", mock.Anything, mock.Anything, mock.Anything)
}

func TestBookingService_ExpirePendingBookings(t *testing.T) {
	bookings, seatPool, producer := &MockBookingRepository{}, &MockSeats{}, &MockProducer{}
	service := newTestService(bookings, seatPool, producer)
	ctx := context.Background()

	expired := []domain.Booking{
		{Token: "a", FlightID: 1, Seats: 2, Status: domain.BookingStatusExpired},
		{Token: "b", FlightID: 2, Seats: 1, Status: domain.BookingStatusExpired},
	}
	bookings.On("ExpirePendingBefore", ctx, fixedNow).Return(expired, nil).Once()
	seatPool.On("ReleaseSeats", ctx, int64(1), 2).Return(nil, domain.ErrReleaseExceedsCapacity).Once()
	seatPool.On("ReleaseSeats", ctx, int64(2), 1).Return(&domain.Flight{ID: 2}, nil).Once()
	producer.On("Publish", ctx, "booking_events", mock.Anything, mock.Anything).Return(nil).Twice()

	got, err := service.ExpirePendingBookings(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	seatPool.AssertExpectations(t)
	producer.AssertExpectations(t)
}

func TestBookingService_NotificationsTopic(t *testing.T) {
	bookings, seatPool, producer := &MockBookingRepository{}, &MockSeats{}, &MockProducer{}
	service := NewBookingService(bookings, seatPool, producer, "booking_events", time.Minute, 0,
		WithNotificationsTopic("notifications"))
	ctx := context.Background()

	seatPool.On("ReserveSeats", ctx, int64(1), 1).Return(&domain.Flight{ID: 1}, nil)
	bookings.On("CreatePending", ctx, mock.Anything).Return(nil)
	producer.On("Publish", ctx, "booking_events", mock.Anything, mock.Anything).Return(nil).Once()
	producer.On("Publish", ctx, "notifications", mock.Anything, mock.Anything).Return(nil).Once()

	_, err := service.CreateBooking(ctx, CreateBookingInput{FlightID: 1, Seats: 1, Email: "a@b.c"})
	require.NoError(t, err)
	producer.AssertExpectations(t)
}

func TestBookingService_ConcurrentCancelReleasesOnce(t *testing.T) {
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "bookings.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	ctx := context.Background()

	flight := &domain.Flight{
		FromAirport: "IST", ToAirport: "ADB",
		DepartureTime: time.Now().Add(72 * time.Hour), ArrivalTime: time.Now().Add(73 * time.Hour),
		TotalSeats: 6, AvailableSeats: 6, IsBookable: true,
	}
	require.NoError(t, store.Flights().Create(ctx, flight))

	service := NewBookingService(store.Bookings(), seats.NewController(store.Flights()), nil, "", time.Minute, 0)
	booking, err := service.CreateBooking(ctx, CreateBookingInput{FlightID: flight.ID, Seats: 4, Email: "a@b.c"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := service.CancelBooking(ctx, booking.Token)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := store.Flights().GetByID(ctx, flight.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, got.AvailableSeats)

	cancelled, err := store.Bookings().GetByToken(ctx, booking.Token)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusCancelled, cancelled.Status)
}
