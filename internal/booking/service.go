package booking

import (
	"context"
	"fmt"
	"time"

	"carpool/internal/apperr"
	"carpool/internal/db"
	"carpool/internal/logger"
	"carpool/internal/metrics"
	"carpool/internal/policy"
	"carpool/internal/trip"

	"github.com/jmoiron/sqlx"
)

// Escrow is the payment side a booking transition may need to settle. It
// runs inside the booking's transaction.
type Escrow interface {
	EscrowHeld(ctx context.Context, q sqlx.ExtContext, bookingID int) (bool, error)
	RefundBookingEscrow(ctx context.Context, q sqlx.ExtContext, bookingID int, applyPenalty bool) (bool, error)
}

type Notifier interface {
	Notify(ctx context.Context, userID int, kind, title, message string, data map[string]any)
}

type Service interface {
	Create(ctx context.Context, tripID, passengerID, seats int) (*Booking, error)
	Confirm(ctx context.Context, id, driverID int) (*Booking, error)
	Reject(ctx context.Context, id, driverID int) (*Booking, error)
	Cancel(ctx context.Context, id int, actor Actor, opts CancelOptions) (*CancelResult, error)
	MarkNoShow(ctx context.Context, id int, actor Actor) (*Booking, error)
	Complete(ctx context.Context, id, driverID int) (*Booking, error)
	Get(ctx context.Context, id int, actor Actor) (*Booking, error)
	ListByPassenger(ctx context.Context, passengerID int) ([]Booking, error)
	ListByTrip(ctx context.Context, tripID int, actor Actor) ([]Booking, error)
	Stats(ctx context.Context, from, to time.Time) ([]DailyStats, error)
}

type service struct {
	repo     Repository
	trips    trip.Repository
	escrow   Escrow
	tx       db.Transactor
	notifier Notifier
	rules    policy.Rules
	now      func() time.Time
}

func NewService(
	repo Repository,
	trips trip.Repository,
	escrow Escrow,
	tx db.Transactor,
	notifier Notifier,
	rules policy.Rules,
) Service {
	return &service{
		repo:     repo,
		trips:    trips,
		escrow:   escrow,
		tx:       tx,
		notifier: notifier,
		rules:    rules,
		now:      time.Now,
	}
}

func (s *service) Create(ctx context.Context, tripID, passengerID, seats int) (*Booking, error) {
	if seats < 1 {
		return nil, apperr.Validation("seats must be at least 1")
	}

	var created *Booking
	var driverID int
	err := s.tx.WithTx(ctx, func(q sqlx.ExtContext) error {
		t, err := s.trips.GetForUpdate(ctx, q, tripID)
		if err != nil {
			return err
		}
		driverID = t.DriverID

		if !t.Bookable(s.now()) {
			return apperr.SeatsUnavailable("trip %d is not open for booking", tripID)
		}
		if t.DriverID == passengerID {
			return apperr.Unauthorized("driver cannot book a seat on their own trip")
		}

		active, err := s.repo.HasActive(ctx, q, tripID, passengerID)
		if err != nil {
			return err
		}
		if active {
			return apperr.DuplicateActiveBooking()
		}

		claimed, err := s.repo.ClaimedSeats(ctx, q, tripID)
		if err != nil {
			return err
		}
		if left := t.TotalSeats - claimed; seats > left {
			return apperr.SeatsUnavailable("only %d seats left on trip %d, %d of %d claimed by pending or accepted bookings",
				max(left, 0), tripID, claimed, t.TotalSeats)
		}

		purged, err := s.repo.PurgeStale(ctx, q, tripID, passengerID)
		if err != nil {
			return err
		}
		if purged > 0 {
			logger.Debug("purged stale bookings", "trip_id", tripID, "passenger_id", passengerID, "count", purged)
		}

		created, err = s.repo.Create(ctx, q, &Booking{
			TripID:      tripID,
			PassengerID: passengerID,
			SeatsBooked: seats,
			TotalPrice:  t.PricePerSeat * int64(seats),
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordBookingTransition(string(StatusPending))
	logger.Info("booking created", "booking_id", created.ID, "trip_id", tripID, "passenger_id", passengerID, "seats", seats)
	s.notifier.Notify(ctx, driverID, "booking_request", "New booking request",
		fmt.Sprintf("A passenger requested %d seat(s) on your trip", seats),
		map[string]any{"booking_id": created.ID, "trip_id": tripID})

	return created, nil
}

// lock takes the trip row and then the booking row, in that order, for the
// rest of the transaction.
func (s *service) lock(ctx context.Context, q sqlx.ExtContext, id int) (*trip.Trip, *Booking, error) {
	b, err := s.repo.GetByID(ctx, q, id)
	if err != nil {
		return nil, nil, err
	}
	t, err := s.trips.GetForUpdate(ctx, q, b.TripID)
	if err != nil {
		return nil, nil, err
	}
	b, err = s.repo.GetForUpdate(ctx, q, id)
	if err != nil {
		return nil, nil, err
	}
	return t, b, nil
}

func (s *service) Confirm(ctx context.Context, id, driverID int) (*Booking, error) {
	b, err := s.driverDecision(ctx, id, driverID, StatusConfirmed)
	if err != nil {
		return nil, err
	}
	s.notifier.Notify(ctx, b.PassengerID, "booking_confirmed", "Booking confirmed",
		"The driver accepted your booking. You can now pay for your seats.",
		map[string]any{"booking_id": b.ID, "total_price": b.TotalPrice})
	return b, nil
}

func (s *service) Reject(ctx context.Context, id, driverID int) (*Booking, error) {
	b, err := s.driverDecision(ctx, id, driverID, StatusRejected)
	if err != nil {
		return nil, err
	}
	s.notifier.Notify(ctx, b.PassengerID, "booking_rejected", "Booking rejected",
		"The driver declined your booking request.",
		map[string]any{"booking_id": b.ID})
	return b, nil
}

func (s *service) driverDecision(ctx context.Context, id, driverID int, to Status) (*Booking, error) {
	var b *Booking
	var available int
	err := s.tx.WithTx(ctx, func(q sqlx.ExtContext) error {
		t, locked, err := s.lock(ctx, q, id)
		if err != nil {
			return err
		}
		b = locked

		if t.DriverID != driverID {
			return apperr.Unauthorized("only the trip driver can %s booking %d", verb(to), id)
		}
		if b.Status != StatusPending {
			return apperr.InvalidTransition("booking", b.Status, to)
		}

		if to == StatusConfirmed {
			confirmed, err := s.repo.ConfirmedSeats(ctx, q, t.ID)
			if err != nil {
				return err
			}
			if confirmed+b.SeatsBooked > t.TotalSeats {
				return apperr.SeatsUnavailable("only %d seats left on trip %d", max(t.TotalSeats-confirmed, 0), t.ID)
			}
		}

		if err := Transition(b, to); err != nil {
			return err
		}
		if err := s.repo.Save(ctx, q, b); err != nil {
			return err
		}

		available, err = s.trips.RecomputeAvailableSeats(ctx, q, t.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordBookingTransition(string(to))
	logger.Info("booking "+string(to), "booking_id", id, "trip_id", b.TripID, "available_seats", available)
	return b, nil
}

func verb(to Status) string {
	if to == StatusRejected {
		return "reject"
	}
	return "confirm"
}

// authorize checks that actor is the passenger, the trip driver or an admin.
func authorize(t *trip.Trip, b *Booking, actor Actor) error {
	switch actor.Role {
	case policy.RoleAdmin:
		return nil
	case policy.RoleDriver:
		if t.DriverID == actor.UserID {
			return nil
		}
	case policy.RolePassenger:
		if b.PassengerID == actor.UserID {
			return nil
		}
	}
	return apperr.Unauthorized("user %d is not a party to booking %d", actor.UserID, b.ID)
}

func (s *service) Cancel(ctx context.Context, id int, actor Actor, opts CancelOptions) (*CancelResult, error) {
	res := &CancelResult{}
	var driverID int
	err := s.tx.WithTx(ctx, func(q sqlx.ExtContext) error {
		t, b, err := s.lock(ctx, q, id)
		if err != nil {
			return err
		}
		driverID = t.DriverID

		if err := authorize(t, b, actor); err != nil {
			return err
		}
		if actor.Role == policy.RolePassenger && opts.ForcedRefund != nil {
			return apperr.Unauthorized("passengers cannot choose the refund terms")
		}

		held, err := s.escrow.EscrowHeld(ctx, q, b.ID)
		if err != nil {
			return err
		}
		decision := policy.DecideCancellation(policy.CancelInput{
			Role:         actor.Role,
			EscrowHeld:   held,
			Late:         s.rules.IsLateCancellation(s.now(), t.DepartureTime),
			ForcedRefund: opts.ForcedRefund,
		})

		if err := Transition(b, StatusCancelled); err != nil {
			return err
		}
		now := s.now()
		cancelledBy := actor.UserID
		b.CancelledBy = &cancelledBy
		b.CancelledAt = &now
		if err := s.repo.Save(ctx, q, b); err != nil {
			return err
		}

		if decision.Refund {
			refunded, err := s.escrow.RefundBookingEscrow(ctx, q, b.ID, decision.ApplyPenalty)
			if err != nil {
				return err
			}
			res.Refunded = refunded
			res.PenaltyApplied = refunded && decision.ApplyPenalty
		}
		res.EscrowLeftHeld = decision.LeaveHeld

		if _, err := s.trips.RecomputeAvailableSeats(ctx, q, t.ID); err != nil {
			return err
		}
		res.Booking = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	b := res.Booking
	metrics.RecordBookingTransition(string(StatusCancelled))
	logger.Info("booking cancelled", "booking_id", id, "by", actor.UserID, "role", actor.Role,
		"refunded", res.Refunded, "penalty", res.PenaltyApplied)
	if res.EscrowLeftHeld {
		metrics.RecordEscrowLeftHeld()
		logger.Warn("booking cancelled with escrow still held", "booking_id", id, "role", actor.Role)
	}

	msg := "Your booking was cancelled."
	if res.Refunded {
		msg = "Your booking was cancelled and your payment refunded to your wallet."
	}
	if actor.UserID != b.PassengerID {
		s.notifier.Notify(ctx, b.PassengerID, "booking_cancelled", "Booking cancelled", msg,
			map[string]any{"booking_id": b.ID, "refunded": res.Refunded})
	}
	if actor.UserID != driverID {
		s.notifier.Notify(ctx, driverID, "booking_cancelled", "Booking cancelled",
			fmt.Sprintf("Booking %d on your trip was cancelled.", b.ID),
			map[string]any{"booking_id": b.ID})
	}
	return res, nil
}

func (s *service) MarkNoShow(ctx context.Context, id int, actor Actor) (*Booking, error) {
	var b *Booking
	err := s.tx.WithTx(ctx, func(q sqlx.ExtContext) error {
		t, locked, err := s.lock(ctx, q, id)
		if err != nil {
			return err
		}
		b = locked

		if actor.Role == policy.RolePassenger {
			return apperr.Unauthorized("only the driver or an admin can report a no-show")
		}
		if err := authorize(t, b, actor); err != nil {
			return err
		}
		if b.Status != StatusConfirmed {
			return apperr.InvalidTransition("booking", b.Status, StatusCancelled)
		}
		if b.PassengerConfirmedDeparture {
			return apperr.NotConfirmable("passenger already confirmed departure on booking %d", id)
		}
		if !s.rules.IsLateCancellation(s.now(), t.DepartureTime) {
			return apperr.NotConfirmable("no-show can only be reported on or after the departure date")
		}

		held, err := s.escrow.EscrowHeld(ctx, q, b.ID)
		if err != nil {
			return err
		}
		if !held {
			return apperr.New(apperr.KindNotInEscrow, "booking %d has no payment held in escrow", id)
		}

		if err := Transition(b, StatusCancelled); err != nil {
			return err
		}
		now := s.now()
		by := actor.UserID
		b.PassengerNoShow = true
		b.CancelledBy = &by
		b.CancelledAt = &now
		if err := s.repo.Save(ctx, q, b); err != nil {
			return err
		}

		decision := policy.DecideNoShow()
		if _, err := s.escrow.RefundBookingEscrow(ctx, q, b.ID, decision.ApplyPenalty); err != nil {
			return err
		}

		_, err = s.trips.RecomputeAvailableSeats(ctx, q, t.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordBookingTransition("no_show")
	logger.Info("passenger marked no-show", "booking_id", id, "by", actor.UserID)
	s.notifier.Notify(ctx, b.PassengerID, "no_show", "Marked as no-show",
		"You were marked as a no-show. Your payment was refunded minus the cancellation penalty.",
		map[string]any{"booking_id": b.ID})
	return b, nil
}

// Complete closes a trip leg after arrival. The trip itself is completed
// once no booking on it is still in progress.
func (s *service) Complete(ctx context.Context, id, driverID int) (*Booking, error) {
	var b *Booking
	var tripDone bool
	err := s.tx.WithTx(ctx, func(q sqlx.ExtContext) error {
		t, locked, err := s.lock(ctx, q, id)
		if err != nil {
			return err
		}
		b = locked

		if t.DriverID != driverID {
			return apperr.Unauthorized("only the trip driver can complete booking %d", id)
		}
		if err := Transition(b, StatusCompleted); err != nil {
			return err
		}
		if err := s.repo.Save(ctx, q, b); err != nil {
			return err
		}

		if t.Status != trip.StatusInProgress {
			return nil
		}
		onRoad, err := s.repo.InProgressSeats(ctx, q, t.ID)
		if err != nil {
			return err
		}
		if onRoad > 0 {
			return nil
		}
		tripDone = true
		return s.trips.UpdateStatus(ctx, q, t.ID, trip.StatusCompleted)
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordBookingTransition(string(StatusCompleted))
	if tripDone {
		logger.Info("trip completed", "trip_id", b.TripID, "last_booking_id", b.ID)
	}
	s.notifier.Notify(ctx, b.PassengerID, "trip_completed", "Trip completed",
		"Thanks for riding. Your trip is complete.", map[string]any{"booking_id": b.ID})
	return b, nil
}

func (s *service) Get(ctx context.Context, id int, actor Actor) (*Booking, error) {
	b, err := s.repo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	t, err := s.trips.GetByID(ctx, nil, b.TripID)
	if err != nil {
		return nil, err
	}
	if err := authorize(t, b, actor); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *service) ListByPassenger(ctx context.Context, passengerID int) ([]Booking, error) {
	return s.repo.ListByPassenger(ctx, passengerID)
}

func (s *service) ListByTrip(ctx context.Context, tripID int, actor Actor) ([]Booking, error) {
	t, err := s.trips.GetByID(ctx, nil, tripID)
	if err != nil {
		return nil, err
	}
	if actor.Role != policy.RoleAdmin && t.DriverID != actor.UserID {
		return nil, apperr.Unauthorized("only the trip driver can list its bookings")
	}
	return s.repo.ListByTrip(ctx, tripID)
}
