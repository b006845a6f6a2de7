package booking

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
)

type Repository interface {
	Create(ctx context.Context, q sqlx.QueryerContext, b *Booking) (*Booking, error)
	GetByID(ctx context.Context, q sqlx.QueryerContext, id int) (*Booking, error)
	GetForUpdate(ctx context.Context, q sqlx.QueryerContext, id int) (*Booking, error)
	// Save writes every mutable column of b.
	Save(ctx context.Context, q sqlx.ExecerContext, b *Booking) error
	HasActive(ctx context.Context, q sqlx.QueryerContext, tripID, passengerID int) (bool, error)
	ClaimedSeats(ctx context.Context, q sqlx.QueryerContext, tripID int) (int, error)
	ConfirmedSeats(ctx context.Context, q sqlx.QueryerContext, tripID int) (int, error)
	InProgressSeats(ctx context.Context, q sqlx.QueryerContext, tripID int) (int, error)
	PurgeStale(ctx context.Context, q sqlx.ExecerContext, tripID, passengerID int) (int64, error)
	ListByPassenger(ctx context.Context, passengerID int) ([]Booking, error)
	ListByTrip(ctx context.Context, tripID int) ([]Booking, error)
	StatsByDay(ctx context.Context, from, to time.Time) ([]DailyStats, error)
}
