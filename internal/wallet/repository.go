package wallet

import (
	"context"
	"errors"

	"carpool/internal/apperr"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// ErrDuplicateReference is wrapped in an invalid_state_transition error when
// an entry reuses a ledger reference. References are deterministic for escrow
// movements, so this means the movement was already applied.
var ErrDuplicateReference = errors.New("ledger reference already used")

const (
	walletColumns = `id, user_id, balance, pending_balance, currency, created_at, updated_at`
	txColumns     = `id, wallet_id, type, amount, balance_after, reference, description, payment_id, booking_id, created_at`
)

type repository struct {
	db       *sqlx.DB
	currency string
}

func NewRepository(db *sqlx.DB, currency string) Repository {
	return &repository{db: db, currency: currency}
}

func (r *repository) ensure(ctx context.Context, q sqlx.ExtContext, userID int) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO wallets (user_id, currency) VALUES ($1, $2) ON CONFLICT (user_id) DO NOTHING`,
		userID, r.currency,
	)
	return err
}

func (r *repository) GetOrCreate(ctx context.Context, q sqlx.ExtContext, userID int) (*Wallet, error) {
	if q == nil {
		q = r.db
	}
	if err := r.ensure(ctx, q, userID); err != nil {
		return nil, err
	}

	var w Wallet
	if err := sqlx.GetContext(ctx, q, &w, `SELECT `+walletColumns+` FROM wallets WHERE user_id = $1`, userID); err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *repository) Append(ctx context.Context, q sqlx.ExtContext, userID int, amount int64, e Entry) (*Transaction, error) {
	if err := r.ensure(ctx, q, userID); err != nil {
		return nil, err
	}

	var w Wallet
	err := sqlx.GetContext(ctx, q, &w,
		`SELECT `+walletColumns+` FROM wallets WHERE user_id = $1 FOR UPDATE`, userID)
	if err != nil {
		return nil, err
	}

	newBalance := w.Balance + amount
	if newBalance < 0 {
		return nil, apperr.InsufficientFunds("wallet balance %d is below the requested %d", w.Balance, -amount)
	}

	_, err = q.ExecContext(ctx,
		`UPDATE wallets SET balance = $1, updated_at = NOW() WHERE id = $2`,
		newBalance, w.ID,
	)
	if err != nil {
		return nil, err
	}

	var t Transaction
	err = sqlx.GetContext(ctx, q, &t,
		`INSERT INTO wallet_transactions (wallet_id, type, amount, balance_after, reference, description, payment_id, booking_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING `+txColumns,
		w.ID, e.Type, amount, newBalance, e.Reference, e.Description, e.PaymentID, e.BookingID,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, apperr.Wrap(apperr.KindInvalidTransition, ErrDuplicateReference,
				"ledger reference %s was already applied", e.Reference)
		}
		return nil, err
	}
	return &t, nil
}

func (r *repository) Transactions(ctx context.Context, userID, limit, offset int) ([]Transaction, error) {
	if limit <= 0 {
		limit = 50
	}

	txs := []Transaction{}
	err := r.db.SelectContext(ctx, &txs, `
		SELECT t.id, t.wallet_id, t.type, t.amount, t.balance_after, t.reference, t.description,
		       t.payment_id, t.booking_id, t.created_at
		FROM wallet_transactions t
		JOIN wallets w ON w.id = t.wallet_id
		WHERE w.user_id = $1
		ORDER BY t.id DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	return txs, nil
}

// AllTransactions returns the full ledger of a wallet in append order.
func (r *repository) AllTransactions(ctx context.Context, walletID int) ([]Transaction, error) {
	txs := []Transaction{}
	err := r.db.SelectContext(ctx, &txs,
		`SELECT `+txColumns+` FROM wallet_transactions WHERE wallet_id = $1 ORDER BY id ASC`, walletID)
	if err != nil {
		return nil, err
	}
	return txs, nil
}
