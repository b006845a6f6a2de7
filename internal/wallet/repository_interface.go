package wallet

import (
	"context"

	"github.com/jmoiron/sqlx"
)

type Repository interface {
	GetOrCreate(ctx context.Context, q sqlx.ExtContext, userID int) (*Wallet, error)
	// Append locks the wallet row, applies the signed amount and appends the
	// ledger row. It must run inside the caller's transaction.
	Append(ctx context.Context, q sqlx.ExtContext, userID int, amount int64, e Entry) (*Transaction, error)
	Transactions(ctx context.Context, userID, limit, offset int) ([]Transaction, error)
	AllTransactions(ctx context.Context, walletID int) ([]Transaction, error)
}
