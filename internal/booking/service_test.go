package booking

import (
	"context"
	"testing"
	"time"

	"carpool/internal/apperr"
	"carpool/internal/policy"
	"carpool/internal/trip"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	driverID    = 9
	passengerID = 5
	adminID     = 1
)

var departure = time.Date(2026, 6, 10, 14, 0, 0, 0, time.UTC)

type fixture struct {
	repo     *MockBookingRepo
	trips    *MockTripRepo
	escrow   *MockEscrow
	notifier *recordingNotifier
	svc      *service
}

func newFixture(now time.Time) *fixture {
	f := &fixture{
		repo:     new(MockBookingRepo),
		trips:    new(MockTripRepo),
		escrow:   new(MockEscrow),
		notifier: &recordingNotifier{},
	}
	rules := policy.Rules{CommissionRate: 0.10, Penalty: 500, MinWithdrawal: 500, Location: time.UTC}
	f.svc = NewService(f.repo, f.trips, f.escrow, stubTx{}, f.notifier, rules).(*service)
	f.svc.now = func() time.Time { return now }
	return f
}

func openTrip() *trip.Trip {
	return &trip.Trip{ID: 4, DriverID: driverID, DepartureTime: departure, TotalSeats: 3, AvailableSeats: 3,
		PricePerSeat: 5000, Status: trip.StatusConfirmed}
}

func (f *fixture) expectLock(b *Booking) {
	f.repo.On("GetByID", mock.Anything, b.ID).Return(b, nil)
	f.trips.On("GetForUpdate", mock.Anything, b.TripID).Return(openTrip(), nil)
	f.repo.On("GetForUpdate", mock.Anything, b.ID).Return(b, nil)
}

func TestCreate_FreezesTotalPrice(t *testing.T) {
	f := newFixture(departure.AddDate(0, 0, -2))

	f.trips.On("GetForUpdate", mock.Anything, 4).Return(openTrip(), nil)
	f.repo.On("HasActive", mock.Anything, 4, passengerID).Return(false, nil)
	f.repo.On("ClaimedSeats", mock.Anything, 4).Return(0, nil)
	f.repo.On("PurgeStale", mock.Anything, 4, passengerID).Return(int64(1), nil)
	f.repo.On("Create", mock.Anything, mock.MatchedBy(func(b *Booking) bool {
		return b.SeatsBooked == 2 && b.TotalPrice == 10000
	})).Return(&Booking{ID: 11, TripID: 4, PassengerID: passengerID, SeatsBooked: 2, TotalPrice: 10000, Status: StatusPending}, nil)

	b, err := f.svc.Create(context.Background(), 4, passengerID, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(10000), b.TotalPrice)
	assert.Equal(t, StatusPending, b.Status)
	assert.Equal(t, []string{"booking_request"}, f.notifier.kinds())
	f.trips.AssertNotCalled(t, "RecomputeAvailableSeats", mock.Anything, mock.Anything)
}

func TestCreate_SeatsUnavailable(t *testing.T) {
	f := newFixture(departure.AddDate(0, 0, -2))

	f.trips.On("GetForUpdate", mock.Anything, 4).Return(openTrip(), nil)
	f.repo.On("HasActive", mock.Anything, 4, passengerID).Return(false, nil)
	f.repo.On("ClaimedSeats", mock.Anything, 4).Return(2, nil)

	_, err := f.svc.Create(context.Background(), 4, passengerID, 2)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindSeatsUnavailable))
	assert.Contains(t, err.Error(), "only 1 seats left")
	assert.Contains(t, err.Error(), "2 of 3 claimed")
	f.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreate_PastDeparture(t *testing.T) {
	f := newFixture(departure.Add(time.Hour))

	f.trips.On("GetForUpdate", mock.Anything, 4).Return(openTrip(), nil)

	_, err := f.svc.Create(context.Background(), 4, passengerID, 1)
	assert.True(t, apperr.Is(err, apperr.KindSeatsUnavailable))
}

func TestCreate_DuplicateActive(t *testing.T) {
	f := newFixture(departure.AddDate(0, 0, -2))

	f.trips.On("GetForUpdate", mock.Anything, 4).Return(openTrip(), nil)
	f.repo.On("HasActive", mock.Anything, 4, passengerID).Return(true, nil)

	_, err := f.svc.Create(context.Background(), 4, passengerID, 1)
	assert.True(t, apperr.Is(err, apperr.KindDuplicateActiveBooking))
}

func TestConfirm_RecomputesSeats(t *testing.T) {
	f := newFixture(departure.AddDate(0, 0, -2))
	b := &Booking{ID: 11, TripID: 4, PassengerID: passengerID, SeatsBooked: 2, TotalPrice: 10000, Status: StatusPending}

	f.expectLock(b)
	f.repo.On("ConfirmedSeats", mock.Anything, 4).Return(0, nil)
	f.repo.On("Save", mock.Anything, mock.MatchedBy(func(b *Booking) bool { return b.Status == StatusConfirmed })).Return(nil)
	f.trips.On("RecomputeAvailableSeats", mock.Anything, 4).Return(1, nil)

	got, err := f.svc.Confirm(context.Background(), 11, driverID)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, got.Status)
	f.trips.AssertCalled(t, "RecomputeAvailableSeats", mock.Anything, 4)
	assert.Equal(t, []string{"booking_confirmed"}, f.notifier.kinds())
}

func TestConfirm_OnlyTripDriver(t *testing.T) {
	f := newFixture(departure.AddDate(0, 0, -2))
	b := &Booking{ID: 11, TripID: 4, PassengerID: passengerID, SeatsBooked: 2, Status: StatusPending}
	f.expectLock(b)

	_, err := f.svc.Confirm(context.Background(), 11, 77)
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))
	f.repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestConfirm_OnlyFromPending(t *testing.T) {
	f := newFixture(departure.AddDate(0, 0, -2))
	b := &Booking{ID: 11, TripID: 4, PassengerID: passengerID, SeatsBooked: 2, Status: StatusCancelled}
	f.expectLock(b)

	_, err := f.svc.Confirm(context.Background(), 11, driverID)
	assert.True(t, apperr.Is(err, apperr.KindInvalidTransition))
}

func TestConfirm_RechecksCapacity(t *testing.T) {
	f := newFixture(departure.AddDate(0, 0, -2))
	b := &Booking{ID: 11, TripID: 4, PassengerID: passengerID, SeatsBooked: 2, Status: StatusPending}
	f.expectLock(b)
	f.repo.On("ConfirmedSeats", mock.Anything, 4).Return(2, nil)

	_, err := f.svc.Confirm(context.Background(), 11, driverID)
	assert.True(t, apperr.Is(err, apperr.KindSeatsUnavailable))
}

func TestReject(t *testing.T) {
	f := newFixture(departure.AddDate(0, 0, -2))
	b := &Booking{ID: 11, TripID: 4, PassengerID: passengerID, SeatsBooked: 2, Status: StatusPending}
	f.expectLock(b)
	f.repo.On("Save", mock.Anything, mock.Anything).Return(nil)
	f.trips.On("RecomputeAvailableSeats", mock.Anything, 4).Return(3, nil)

	got, err := f.svc.Reject(context.Background(), 11, driverID)
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, got.Status)
	f.repo.AssertNotCalled(t, "ConfirmedSeats", mock.Anything, mock.Anything)
}

func TestCancel_PassengerLateAppliesPenalty(t *testing.T) {
	f := newFixture(departure.Add(-3 * time.Hour))
	b := &Booking{ID: 11, TripID: 4, PassengerID: passengerID, SeatsBooked: 2, Status: StatusConfirmed}
	f.expectLock(b)
	f.escrow.On("EscrowHeld", mock.Anything, 11).Return(true, nil)
	f.repo.On("Save", mock.Anything, mock.MatchedBy(func(b *Booking) bool {
		return b.Status == StatusCancelled && b.CancelledBy != nil && *b.CancelledBy == passengerID
	})).Return(nil)
	f.escrow.On("RefundBookingEscrow", mock.Anything, 11, true).Return(true, nil)
	f.trips.On("RecomputeAvailableSeats", mock.Anything, 4).Return(3, nil)

	res, err := f.svc.Cancel(context.Background(), 11, Actor{UserID: passengerID, Role: policy.RolePassenger}, CancelOptions{})
	require.NoError(t, err)
	assert.True(t, res.Refunded)
	assert.True(t, res.PenaltyApplied)
	assert.False(t, res.EscrowLeftHeld)
	f.escrow.AssertExpectations(t)
}

func TestCancel_PassengerEarlyIsFree(t *testing.T) {
	f := newFixture(departure.AddDate(0, 0, -1))
	b := &Booking{ID: 11, TripID: 4, PassengerID: passengerID, SeatsBooked: 2, Status: StatusConfirmed}
	f.expectLock(b)
	f.escrow.On("EscrowHeld", mock.Anything, 11).Return(true, nil)
	f.repo.On("Save", mock.Anything, mock.Anything).Return(nil)
	f.escrow.On("RefundBookingEscrow", mock.Anything, 11, false).Return(true, nil)
	f.trips.On("RecomputeAvailableSeats", mock.Anything, 4).Return(3, nil)

	res, err := f.svc.Cancel(context.Background(), 11, Actor{UserID: passengerID, Role: policy.RolePassenger}, CancelOptions{})
	require.NoError(t, err)
	assert.True(t, res.Refunded)
	assert.False(t, res.PenaltyApplied)
}

func TestCancel_AdminLeavesEscrowHeld(t *testing.T) {
	f := newFixture(departure.Add(-time.Hour))
	b := &Booking{ID: 11, TripID: 4, PassengerID: passengerID, SeatsBooked: 2, Status: StatusConfirmed}
	f.expectLock(b)
	f.escrow.On("EscrowHeld", mock.Anything, 11).Return(true, nil)
	f.repo.On("Save", mock.Anything, mock.Anything).Return(nil)
	f.trips.On("RecomputeAvailableSeats", mock.Anything, 4).Return(3, nil)

	res, err := f.svc.Cancel(context.Background(), 11, Actor{UserID: adminID, Role: policy.RoleAdmin}, CancelOptions{})
	require.NoError(t, err)
	assert.False(t, res.Refunded)
	assert.True(t, res.EscrowLeftHeld)
	f.escrow.AssertNotCalled(t, "RefundBookingEscrow", mock.Anything, mock.Anything, mock.Anything)
	assert.ElementsMatch(t, []string{"booking_cancelled", "booking_cancelled"}, f.notifier.kinds())
}

func TestCancel_AdminForcedRefund(t *testing.T) {
	f := newFixture(departure.Add(-time.Hour))
	b := &Booking{ID: 11, TripID: 4, PassengerID: passengerID, SeatsBooked: 2, Status: StatusConfirmed}
	f.expectLock(b)
	f.escrow.On("EscrowHeld", mock.Anything, 11).Return(true, nil)
	f.repo.On("Save", mock.Anything, mock.Anything).Return(nil)
	f.escrow.On("RefundBookingEscrow", mock.Anything, 11, false).Return(true, nil)
	f.trips.On("RecomputeAvailableSeats", mock.Anything, 4).Return(3, nil)

	res, err := f.svc.Cancel(context.Background(), 11, Actor{UserID: adminID, Role: policy.RoleAdmin},
		CancelRequest{Refund: true, ApplyPenalty: false}.Options())
	require.NoError(t, err)
	assert.True(t, res.Refunded)
	assert.False(t, res.PenaltyApplied)
}

func TestCancel_StrangerUnauthorized(t *testing.T) {
	f := newFixture(departure.AddDate(0, 0, -1))
	b := &Booking{ID: 11, TripID: 4, PassengerID: passengerID, SeatsBooked: 2, Status: StatusConfirmed}
	f.expectLock(b)

	_, err := f.svc.Cancel(context.Background(), 11, Actor{UserID: 99, Role: policy.RolePassenger}, CancelOptions{})
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))
}

func TestCancel_TerminalBooking(t *testing.T) {
	f := newFixture(departure.AddDate(0, 0, -1))
	b := &Booking{ID: 11, TripID: 4, PassengerID: passengerID, SeatsBooked: 2, Status: StatusInProgress}
	f.expectLock(b)
	f.escrow.On("EscrowHeld", mock.Anything, 11).Return(false, nil)

	_, err := f.svc.Cancel(context.Background(), 11, Actor{UserID: passengerID, Role: policy.RolePassenger}, CancelOptions{})
	assert.True(t, apperr.Is(err, apperr.KindInvalidTransition))
	f.repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestMarkNoShow(t *testing.T) {
	f := newFixture(departure.Add(2 * time.Hour))
	b := &Booking{ID: 11, TripID: 4, PassengerID: passengerID, SeatsBooked: 2, Status: StatusConfirmed, DriverConfirmedDeparture: true}
	f.expectLock(b)
	f.escrow.On("EscrowHeld", mock.Anything, 11).Return(true, nil)
	f.repo.On("Save", mock.Anything, mock.MatchedBy(func(b *Booking) bool {
		return b.Status == StatusCancelled && b.PassengerNoShow
	})).Return(nil)
	f.escrow.On("RefundBookingEscrow", mock.Anything, 11, true).Return(true, nil)
	f.trips.On("RecomputeAvailableSeats", mock.Anything, 4).Return(3, nil)

	got, err := f.svc.MarkNoShow(context.Background(), 11, Actor{UserID: driverID, Role: policy.RoleDriver})
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, got.Status)
	assert.True(t, got.PassengerNoShow)
	f.escrow.AssertExpectations(t)
	assert.Equal(t, []string{"no_show"}, f.notifier.kinds())
}

func TestMarkNoShow_Preconditions(t *testing.T) {
	driver := Actor{UserID: driverID, Role: policy.RoleDriver}

	t.Run("before departure date", func(t *testing.T) {
		f := newFixture(departure.AddDate(0, 0, -1))
		f.expectLock(&Booking{ID: 11, TripID: 4, PassengerID: passengerID, Status: StatusConfirmed})

		_, err := f.svc.MarkNoShow(context.Background(), 11, driver)
		assert.True(t, apperr.Is(err, apperr.KindNotConfirmable))
	})

	t.Run("passenger already confirmed", func(t *testing.T) {
		f := newFixture(departure.Add(time.Hour))
		f.expectLock(&Booking{ID: 11, TripID: 4, PassengerID: passengerID, Status: StatusConfirmed, PassengerConfirmedDeparture: true})

		_, err := f.svc.MarkNoShow(context.Background(), 11, driver)
		assert.True(t, apperr.Is(err, apperr.KindNotConfirmable))
	})

	t.Run("payment not held", func(t *testing.T) {
		f := newFixture(departure.Add(time.Hour))
		f.expectLock(&Booking{ID: 11, TripID: 4, PassengerID: passengerID, Status: StatusConfirmed})
		f.escrow.On("EscrowHeld", mock.Anything, 11).Return(false, nil)

		_, err := f.svc.MarkNoShow(context.Background(), 11, driver)
		assert.True(t, apperr.Is(err, apperr.KindNotInEscrow))
	})

	t.Run("not confirmed", func(t *testing.T) {
		f := newFixture(departure.Add(time.Hour))
		f.expectLock(&Booking{ID: 11, TripID: 4, PassengerID: passengerID, Status: StatusPending})

		_, err := f.svc.MarkNoShow(context.Background(), 11, driver)
		assert.True(t, apperr.Is(err, apperr.KindInvalidTransition))
	})

	t.Run("passenger cannot report", func(t *testing.T) {
		f := newFixture(departure.Add(time.Hour))
		f.expectLock(&Booking{ID: 11, TripID: 4, PassengerID: passengerID, Status: StatusConfirmed})

		_, err := f.svc.MarkNoShow(context.Background(), 11, Actor{UserID: passengerID, Role: policy.RolePassenger})
		assert.True(t, apperr.Is(err, apperr.KindUnauthorized))
	})
}

func (f *fixture) expectLockOnRoad(b *Booking) {
	onRoad := openTrip()
	onRoad.Status = trip.StatusInProgress
	f.repo.On("GetByID", mock.Anything, b.ID).Return(b, nil)
	f.trips.On("GetForUpdate", mock.Anything, b.TripID).Return(onRoad, nil)
	f.repo.On("GetForUpdate", mock.Anything, b.ID).Return(b, nil)
}

func TestComplete(t *testing.T) {
	f := newFixture(departure.Add(5 * time.Hour))
	b := &Booking{ID: 11, TripID: 4, PassengerID: passengerID, Status: StatusInProgress, TripStarted: true}
	f.expectLock(b)
	f.repo.On("Save", mock.Anything, mock.Anything).Return(nil)

	got, err := f.svc.Complete(context.Background(), 11, driverID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)
	f.trips.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestComplete_LastBookingCompletesTrip(t *testing.T) {
	f := newFixture(departure.Add(5 * time.Hour))
	b := &Booking{ID: 11, TripID: 4, PassengerID: passengerID, Status: StatusInProgress, TripStarted: true}
	f.expectLockOnRoad(b)
	f.repo.On("Save", mock.Anything, mock.Anything).Return(nil)
	f.repo.On("InProgressSeats", mock.Anything, 4).Return(0, nil)
	f.trips.On("UpdateStatus", mock.Anything, 4, trip.StatusCompleted).Return(nil)

	_, err := f.svc.Complete(context.Background(), 11, driverID)
	require.NoError(t, err)
	f.trips.AssertCalled(t, "UpdateStatus", mock.Anything, 4, trip.StatusCompleted)
}

func TestComplete_OtherBookingsStillOnRoad(t *testing.T) {
	f := newFixture(departure.Add(5 * time.Hour))
	b := &Booking{ID: 11, TripID: 4, PassengerID: passengerID, Status: StatusInProgress, TripStarted: true}
	f.expectLockOnRoad(b)
	f.repo.On("Save", mock.Anything, mock.Anything).Return(nil)
	f.repo.On("InProgressSeats", mock.Anything, 4).Return(1, nil)

	_, err := f.svc.Complete(context.Background(), 11, driverID)
	require.NoError(t, err)
	f.trips.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestListByTrip_OnlyDriverOrAdmin(t *testing.T) {
	f := newFixture(departure)
	f.trips.On("GetByID", mock.Anything, 4).Return(openTrip(), nil)
	f.repo.On("ListByTrip", mock.Anything, 4).Return([]Booking{{ID: 1}}, nil)

	_, err := f.svc.ListByTrip(context.Background(), 4, Actor{UserID: passengerID, Role: policy.RolePassenger})
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))

	got, err := f.svc.ListByTrip(context.Background(), 4, Actor{UserID: driverID, Role: policy.RoleDriver})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestStateTable(t *testing.T) {
	assert.True(t, CanTransition(StatusPending, StatusConfirmed))
	assert.True(t, CanTransition(StatusPending, StatusCancelled))
	assert.True(t, CanTransition(StatusConfirmed, StatusInProgress))
	assert.True(t, CanTransition(StatusInProgress, StatusCompleted))
	assert.False(t, CanTransition(StatusConfirmed, StatusRejected))
	assert.False(t, CanTransition(StatusInProgress, StatusCancelled))
	assert.False(t, CanTransition(StatusCancelled, StatusConfirmed))
	assert.True(t, IsTerminal(StatusRejected))
	assert.True(t, IsTerminal(StatusCompleted))
	assert.False(t, IsTerminal(StatusConfirmed))
}

func TestStats_RejectsBadRange(t *testing.T) {
	f := newFixture(time.Now())
	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	_, err := f.svc.Stats(context.Background(), day, day)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = f.svc.Stats(context.Background(), day, day.AddDate(2, 0, 0))
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	f.repo.On("StatsByDay", mock.Anything, day, day.AddDate(0, 0, 7)).Return([]DailyStats{}, nil)
	stats, err := f.svc.Stats(context.Background(), day, day.AddDate(0, 0, 7))
	require.NoError(t, err)
	assert.Empty(t, stats)
}
