package wallet

import (
	"context"

	"carpool/internal/apperr"
	"carpool/internal/logger"
	"carpool/internal/metrics"

	"github.com/jmoiron/sqlx"
)

// Ledger is the only writer of wallet balances. Payment settlement and the
// wallet service both go through it so every balance change has a row.
type Ledger struct {
	repo Repository
}

func NewLedger(repo Repository) *Ledger {
	return &Ledger{repo: repo}
}

func (l *Ledger) Credit(ctx context.Context, q sqlx.ExtContext, userID int, e Entry) (*Transaction, error) {
	if e.Amount <= 0 {
		return nil, apperr.Validation("credit amount must be positive, got %d", e.Amount)
	}
	return l.apply(ctx, q, userID, e.Amount, e)
}

func (l *Ledger) Debit(ctx context.Context, q sqlx.ExtContext, userID int, e Entry) (*Transaction, error) {
	if e.Amount <= 0 {
		return nil, apperr.Validation("debit amount must be positive, got %d", e.Amount)
	}
	return l.apply(ctx, q, userID, -e.Amount, e)
}

func (l *Ledger) apply(ctx context.Context, q sqlx.ExtContext, userID int, amount int64, e Entry) (*Transaction, error) {
	if e.Reference == "" {
		return nil, apperr.Validation("ledger entry needs a reference")
	}

	t, err := l.repo.Append(ctx, q, userID, amount, e)
	if err != nil {
		return nil, err
	}

	metrics.RecordLedgerEntry(string(e.Type))
	logger.Info("ledger entry appended",
		"user_id", userID,
		"type", e.Type,
		"amount", amount,
		"balance_after", t.BalanceAfter,
		"reference", e.Reference,
	)
	return t, nil
}
