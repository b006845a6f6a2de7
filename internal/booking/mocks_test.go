package booking

import (
	"context"
	"sync"
	"time"

	"carpool/internal/trip"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/mock"
)

type stubTx struct{}

func (stubTx) WithTx(ctx context.Context, fn func(q sqlx.ExtContext) error) error {
	return fn(nil)
}

type MockBookingRepo struct{ mock.Mock }

func (m *MockBookingRepo) Create(ctx context.Context, q sqlx.QueryerContext, b *Booking) (*Booking, error) {
	args := m.Called(ctx, b)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Booking), args.Error(1)
}

func (m *MockBookingRepo) GetByID(ctx context.Context, q sqlx.QueryerContext, id int) (*Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	b := *args.Get(0).(*Booking)
	return &b, args.Error(1)
}

func (m *MockBookingRepo) GetForUpdate(ctx context.Context, q sqlx.QueryerContext, id int) (*Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	b := *args.Get(0).(*Booking)
	return &b, args.Error(1)
}

func (m *MockBookingRepo) Save(ctx context.Context, q sqlx.ExecerContext, b *Booking) error {
	return m.Called(ctx, b).Error(0)
}

func (m *MockBookingRepo) HasActive(ctx context.Context, q sqlx.QueryerContext, tripID, passengerID int) (bool, error) {
	args := m.Called(ctx, tripID, passengerID)
	return args.Bool(0), args.Error(1)
}

func (m *MockBookingRepo) ClaimedSeats(ctx context.Context, q sqlx.QueryerContext, tripID int) (int, error) {
	args := m.Called(ctx, tripID)
	return args.Int(0), args.Error(1)
}

func (m *MockBookingRepo) ConfirmedSeats(ctx context.Context, q sqlx.QueryerContext, tripID int) (int, error) {
	args := m.Called(ctx, tripID)
	return args.Int(0), args.Error(1)
}

func (m *MockBookingRepo) InProgressSeats(ctx context.Context, q sqlx.QueryerContext, tripID int) (int, error) {
	args := m.Called(ctx, tripID)
	return args.Int(0), args.Error(1)
}

func (m *MockBookingRepo) PurgeStale(ctx context.Context, q sqlx.ExecerContext, tripID, passengerID int) (int64, error) {
	args := m.Called(ctx, tripID, passengerID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockBookingRepo) ListByPassenger(ctx context.Context, passengerID int) ([]Booking, error) {
	args := m.Called(ctx, passengerID)
	return args.Get(0).([]Booking), args.Error(1)
}

func (m *MockBookingRepo) ListByTrip(ctx context.Context, tripID int) ([]Booking, error) {
	args := m.Called(ctx, tripID)
	return args.Get(0).([]Booking), args.Error(1)
}

func (m *MockBookingRepo) StatsByDay(ctx context.Context, from, to time.Time) ([]DailyStats, error) {
	args := m.Called(ctx, from, to)
	return args.Get(0).([]DailyStats), args.Error(1)
}

type MockTripRepo struct{ mock.Mock }

func (m *MockTripRepo) Create(ctx context.Context, t *trip.Trip) (*trip.Trip, error) {
	args := m.Called(ctx, t)
	return args.Get(0).(*trip.Trip), args.Error(1)
}

func (m *MockTripRepo) GetByID(ctx context.Context, q sqlx.QueryerContext, id int) (*trip.Trip, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trip.Trip), args.Error(1)
}

func (m *MockTripRepo) GetForUpdate(ctx context.Context, q sqlx.QueryerContext, id int) (*trip.Trip, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trip.Trip), args.Error(1)
}

func (m *MockTripRepo) RecomputeAvailableSeats(ctx context.Context, q sqlx.QueryerContext, id int) (int, error) {
	args := m.Called(ctx, id)
	return args.Int(0), args.Error(1)
}

func (m *MockTripRepo) UpdateStatus(ctx context.Context, q sqlx.ExecerContext, id int, status trip.Status) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *MockTripRepo) ListByDriver(ctx context.Context, driverID int) ([]trip.Trip, error) {
	args := m.Called(ctx, driverID)
	return args.Get(0).([]trip.Trip), args.Error(1)
}

type MockEscrow struct{ mock.Mock }

func (m *MockEscrow) EscrowHeld(ctx context.Context, q sqlx.ExtContext, bookingID int) (bool, error) {
	args := m.Called(ctx, bookingID)
	return args.Bool(0), args.Error(1)
}

func (m *MockEscrow) RefundBookingEscrow(ctx context.Context, q sqlx.ExtContext, bookingID int, applyPenalty bool) (bool, error) {
	args := m.Called(ctx, bookingID, applyPenalty)
	return args.Bool(0), args.Error(1)
}

type sentNotification struct {
	UserID int
	Kind   string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
}

func (n *recordingNotifier) Notify(ctx context.Context, userID int, kind, title, message string, data map[string]any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNotification{UserID: userID, Kind: kind})
}

func (n *recordingNotifier) kinds() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.sent))
	for _, s := range n.sent {
		out = append(out, s.Kind)
	}
	return out
}
