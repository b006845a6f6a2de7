package payment

import (
	"context"

	"github.com/jmoiron/sqlx"
)

type Repository interface {
	Create(ctx context.Context, q sqlx.QueryerContext, p *Payment) (*Payment, error)
	GetByID(ctx context.Context, q sqlx.QueryerContext, id int) (*Payment, error)
	GetForUpdate(ctx context.Context, q sqlx.QueryerContext, id int) (*Payment, error)
	GetByTransactionID(ctx context.Context, q sqlx.QueryerContext, transactionID string) (*Payment, error)
	// LatestForBooking returns nil when the booking has no payment.
	LatestForBooking(ctx context.Context, q sqlx.QueryerContext, bookingID int) (*Payment, error)
	// HeldForBookingForUpdate returns the escrow-held payment of a booking,
	// locked, or nil.
	HeldForBookingForUpdate(ctx context.Context, q sqlx.QueryerContext, bookingID int) (*Payment, error)
	HasActive(ctx context.Context, q sqlx.QueryerContext, bookingID int) (bool, error)
	Save(ctx context.Context, q sqlx.ExecerContext, p *Payment) error
	ListByBooking(ctx context.Context, bookingID int) ([]Payment, error)
}
