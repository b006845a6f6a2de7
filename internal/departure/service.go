// Package departure implements the two-sided departure handshake. Escrow
// moves to the driver only after both the driver and the passenger have
// confirmed.
package departure

import (
	"context"
	"fmt"
	"time"

	"carpool/internal/apperr"
	"carpool/internal/booking"
	"carpool/internal/db"
	"carpool/internal/logger"
	"carpool/internal/metrics"
	"carpool/internal/payment"
	"carpool/internal/trip"

	"github.com/jmoiron/sqlx"
)

type Party string

const (
	PartyDriver    Party = "driver"
	PartyPassenger Party = "passenger"
)

// Payments is the escrow side of the handshake. Both calls run inside the
// confirmation transaction.
type Payments interface {
	LatestForBooking(ctx context.Context, q sqlx.ExtContext, bookingID int) (*payment.Payment, error)
	ReleaseInTx(ctx context.Context, q sqlx.ExtContext, paymentID int) (*payment.Payment, error)
}

// Outcome reports what a confirmation changed. Released is set only on the
// call that started the trip with escrow held.
type Outcome struct {
	Booking     *booking.Booking `json:"booking"`
	TripStarted bool             `json:"trip_started"`
	Released    *payment.Payment `json:"released,omitempty"`
}

type Service interface {
	ConfirmByDriver(ctx context.Context, bookingID, driverID int) (*Outcome, error)
	ConfirmByPassenger(ctx context.Context, bookingID, passengerID int) (*Outcome, error)
}

type service struct {
	bookings booking.Repository
	trips    trip.Repository
	payments Payments
	tx       db.Transactor
	notifier booking.Notifier
	now      func() time.Time
}

func NewService(bookings booking.Repository, trips trip.Repository, payments Payments, tx db.Transactor, notifier booking.Notifier) Service {
	return &service{
		bookings: bookings,
		trips:    trips,
		payments: payments,
		tx:       tx,
		notifier: notifier,
		now:      time.Now,
	}
}

func (s *service) ConfirmByDriver(ctx context.Context, bookingID, driverID int) (*Outcome, error) {
	return s.confirm(ctx, bookingID, driverID, PartyDriver)
}

func (s *service) ConfirmByPassenger(ctx context.Context, bookingID, passengerID int) (*Outcome, error) {
	return s.confirm(ctx, bookingID, passengerID, PartyPassenger)
}

func (s *service) confirm(ctx context.Context, bookingID, userID int, party Party) (*Outcome, error) {
	out := &Outcome{}
	var driverID int
	err := s.tx.WithTx(ctx, func(q sqlx.ExtContext) error {
		unlocked, err := s.bookings.GetByID(ctx, q, bookingID)
		if err != nil {
			return err
		}
		t, err := s.trips.GetForUpdate(ctx, q, unlocked.TripID)
		if err != nil {
			return err
		}
		b, err := s.bookings.GetForUpdate(ctx, q, bookingID)
		if err != nil {
			return err
		}
		driverID = t.DriverID

		flag, at := &b.PassengerConfirmedDeparture, &b.PassengerConfirmedAt
		owner := b.PassengerID
		if party == PartyDriver {
			flag, at = &b.DriverConfirmedDeparture, &b.DriverConfirmedAt
			owner = t.DriverID
		}
		if owner != userID {
			return apperr.Unauthorized("user %d is not the %s of booking %d", userID, party, b.ID)
		}
		if *flag {
			return apperr.AlreadyConfirmed(string(party))
		}
		if b.Status != booking.StatusConfirmed {
			return apperr.NotConfirmable("booking %d is %s, not confirmed", b.ID, b.Status)
		}
		p, err := s.payments.LatestForBooking(ctx, q, b.ID)
		if err != nil {
			return err
		}
		if p == nil || p.Status != payment.StatusCompleted {
			return apperr.NotConfirmable("booking %d has no completed payment", b.ID)
		}

		now := s.now()
		*flag = true
		*at = &now
		out.Booking = b

		if !b.DriverConfirmedDeparture || !b.PassengerConfirmedDeparture || b.TripStarted {
			return s.bookings.Save(ctx, q, b)
		}

		if err := booking.Transition(b, booking.StatusInProgress); err != nil {
			return err
		}
		b.TripStarted = true
		b.TripStartedAt = &now
		if err := s.bookings.Save(ctx, q, b); err != nil {
			return err
		}
		out.TripStarted = true

		if t.Status != trip.StatusInProgress {
			if err := s.trips.UpdateStatus(ctx, q, t.ID, trip.StatusInProgress); err != nil {
				return err
			}
		}
		if _, err := s.trips.RecomputeAvailableSeats(ctx, q, t.ID); err != nil {
			return err
		}

		if p.EscrowStatus == payment.EscrowHeld {
			released, err := s.payments.ReleaseInTx(ctx, q, p.ID)
			if err != nil {
				return err
			}
			out.Released = released
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	b := out.Booking
	logger.Info("departure confirmed", "booking_id", b.ID, "party", party, "trip_started", out.TripStarted)
	s.notifyOther(ctx, b, driverID, party)

	if out.TripStarted {
		metrics.RecordBookingTransition(string(booking.StatusInProgress))
		data := map[string]any{"booking_id": b.ID}
		s.notifier.Notify(ctx, b.PassengerID, "trip_started", "Trip started",
			"Both sides confirmed departure. Have a safe trip.", data)
		s.notifier.Notify(ctx, driverID, "trip_started", "Trip started",
			fmt.Sprintf("Booking %d is on its way.", b.ID), data)
	}
	if p := out.Released; p != nil {
		s.notifier.Notify(ctx, driverID, "payment_released", "Payment released",
			fmt.Sprintf("%d %s for booking %d is now in your wallet.", p.DriverAmount, p.Currency, b.ID),
			map[string]any{"booking_id": b.ID, "payment_id": p.ID, "amount": p.DriverAmount})
	}
	return out, nil
}

func (s *service) notifyOther(ctx context.Context, b *booking.Booking, driverID int, party Party) {
	data := map[string]any{"booking_id": b.ID}
	if party == PartyDriver {
		s.notifier.Notify(ctx, b.PassengerID, "departure_confirmed", "Driver confirmed departure",
			"Your driver confirmed departure. Confirm on your side to start the trip.", data)
		return
	}
	s.notifier.Notify(ctx, driverID, "departure_confirmed", "Passenger confirmed departure",
		fmt.Sprintf("The passenger of booking %d confirmed departure.", b.ID), data)
}
