package payment

import (
	"context"
	"database/sql"
	"errors"

	"carpool/internal/apperr"
	"carpool/internal/db"

	"github.com/jmoiron/sqlx"
)

const paymentColumns = `id, booking_id, payer_id, payee_id, amount, currency, payment_method, phone, status,
		escrow_status, escrow_amount, penalty_amount, refund_amount, driver_amount, commission_amount,
		transaction_id, external_reference, failure_reason, paid_at, held_at, released_at, refunded_at,
		created_at, updated_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, q sqlx.QueryerContext, p *Payment) (*Payment, error) {
	query := `
		INSERT INTO payments (booking_id, payer_id, payee_id, amount, currency, payment_method, phone,
			status, escrow_status, transaction_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + paymentColumns

	var created Payment
	err := sqlx.GetContext(ctx, q, &created, query,
		p.BookingID, p.PayerID, p.PayeeID, p.Amount, p.Currency, p.Method, p.Phone,
		p.Status, p.EscrowStatus, p.TransactionID)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *repository) GetByID(ctx context.Context, q sqlx.QueryerContext, id int) (*Payment, error) {
	if q == nil {
		q = r.db
	}
	return r.get(ctx, q, id, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id)
}

func (r *repository) GetForUpdate(ctx context.Context, q sqlx.QueryerContext, id int) (*Payment, error) {
	return r.get(ctx, q, id, `SELECT `+paymentColumns+` FROM payments WHERE id = $1 FOR UPDATE`, id)
}

func (r *repository) GetByTransactionID(ctx context.Context, q sqlx.QueryerContext, transactionID string) (*Payment, error) {
	if q == nil {
		q = r.db
	}
	return r.get(ctx, q, transactionID, `SELECT `+paymentColumns+` FROM payments WHERE transaction_id = $1`, transactionID)
}

func (r *repository) get(ctx context.Context, q sqlx.QueryerContext, key any, query string, args ...any) (*Payment, error) {
	var p Payment
	err := sqlx.GetContext(ctx, q, &p, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("payment", key)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repository) LatestForBooking(ctx context.Context, q sqlx.QueryerContext, bookingID int) (*Payment, error) {
	if q == nil {
		q = r.db
	}
	return r.optional(ctx, q,
		`SELECT `+paymentColumns+` FROM payments WHERE booking_id = $1 ORDER BY id DESC LIMIT 1`, bookingID)
}

func (r *repository) HeldForBookingForUpdate(ctx context.Context, q sqlx.QueryerContext, bookingID int) (*Payment, error) {
	return r.optional(ctx, q,
		`SELECT `+paymentColumns+` FROM payments WHERE booking_id = $1 AND escrow_status = 'held' FOR UPDATE`, bookingID)
}

func (r *repository) optional(ctx context.Context, q sqlx.QueryerContext, query string, bookingID int) (*Payment, error) {
	var p Payment
	err := sqlx.GetContext(ctx, q, &p, query, bookingID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repository) HasActive(ctx context.Context, q sqlx.QueryerContext, bookingID int) (bool, error) {
	return db.Exists(ctx, q, `
		SELECT EXISTS(
			SELECT 1 FROM payments
			WHERE booking_id = $1 AND status IN ('pending', 'processing', 'completed')
		)`, bookingID)
}

func (r *repository) Save(ctx context.Context, q sqlx.ExecerContext, p *Payment) error {
	query := `
		UPDATE payments
		SET status = $1,
			escrow_status = $2,
			escrow_amount = $3,
			penalty_amount = $4,
			refund_amount = $5,
			driver_amount = $6,
			commission_amount = $7,
			external_reference = $8,
			failure_reason = $9,
			paid_at = $10,
			held_at = $11,
			released_at = $12,
			refunded_at = $13,
			updated_at = NOW()
		WHERE id = $14
	`

	result, err := q.ExecContext(ctx, query,
		p.Status, p.EscrowStatus, p.EscrowAmount, p.PenaltyAmount, p.RefundAmount,
		p.DriverAmount, p.CommissionAmount, p.ExternalReference, p.FailureReason,
		p.PaidAt, p.HeldAt, p.ReleasedAt, p.RefundedAt, p.ID,
	)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return apperr.NotFound("payment", p.ID)
	}
	return nil
}

func (r *repository) ListByBooking(ctx context.Context, bookingID int) ([]Payment, error) {
	payments := []Payment{}
	err := r.db.SelectContext(ctx, &payments,
		`SELECT `+paymentColumns+` FROM payments WHERE booking_id = $1 ORDER BY id ASC`, bookingID)
	if err != nil {
		return nil, err
	}
	return payments, nil
}
