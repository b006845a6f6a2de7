package booking

import (
	"time"

	"carpool/internal/policy"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusRejected   Status = "rejected"
	StatusCancelled  Status = "cancelled"
	StatusCompleted  Status = "completed"
	StatusInProgress Status = "in_progress"
)

// Booking is one passenger's claim on seats of one trip. TotalPrice is
// frozen at creation.
type Booking struct {
	ID                          int        `db:"id" json:"id"`
	TripID                      int        `db:"trip_id" json:"trip_id"`
	PassengerID                 int        `db:"passenger_id" json:"passenger_id"`
	SeatsBooked                 int        `db:"seats_booked" json:"seats_booked"`
	TotalPrice                  int64      `db:"total_price" json:"total_price"`
	Status                      Status     `db:"status" json:"status"`
	DriverConfirmedDeparture    bool       `db:"driver_confirmed_departure" json:"driver_confirmed_departure"`
	PassengerConfirmedDeparture bool       `db:"passenger_confirmed_departure" json:"passenger_confirmed_departure"`
	DriverConfirmedAt           *time.Time `db:"driver_confirmed_at" json:"driver_confirmed_at,omitempty"`
	PassengerConfirmedAt        *time.Time `db:"passenger_confirmed_at" json:"passenger_confirmed_at,omitempty"`
	TripStarted                 bool       `db:"trip_started" json:"trip_started"`
	TripStartedAt               *time.Time `db:"trip_started_at" json:"trip_started_at,omitempty"`
	PassengerNoShow             bool       `db:"passenger_no_show" json:"passenger_no_show"`
	CancelledBy                 *int       `db:"cancelled_by" json:"cancelled_by,omitempty"`
	CancelledAt                 *time.Time `db:"cancelled_at" json:"cancelled_at,omitempty"`
	CreatedAt                   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt                   time.Time  `db:"updated_at" json:"updated_at"`
}

// Active reports whether the booking still holds a seat claim.
func (b *Booking) Active() bool {
	return b.Status == StatusPending || b.Status == StatusConfirmed
}

// Actor is the authenticated caller of a booking operation.
type Actor struct {
	UserID int
	Role   policy.Role
}

// CancelOptions carries the explicit refund decision of a driver or admin.
// ForcedRefund nil leaves a held escrow untouched; otherwise the escrow is
// refunded and the value says whether the penalty applies.
type CancelOptions struct {
	ForcedRefund *bool
}

type CancelResult struct {
	Booking        *Booking `json:"booking"`
	Refunded       bool     `json:"refunded"`
	PenaltyApplied bool     `json:"penalty_applied"`
	EscrowLeftHeld bool     `json:"escrow_left_held"`
}

type CreateBookingRequest struct {
	Seats int `json:"seats" binding:"required,min=1" example:"2"`
}

type CancelRequest struct {
	Refund       bool `json:"refund" example:"true"`
	ApplyPenalty bool `json:"apply_penalty" example:"false"`
}

func (r CancelRequest) Options() CancelOptions {
	if !r.Refund {
		return CancelOptions{}
	}
	penalty := r.ApplyPenalty
	return CancelOptions{ForcedRefund: &penalty}
}
