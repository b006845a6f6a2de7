package wallet

import (
	"context"
	"time"

	"carpool/internal/apperr"
	"carpool/internal/db"
	"carpool/internal/logger"
	"carpool/internal/metrics"
	"carpool/internal/provider"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type Service interface {
	Get(ctx context.Context, userID int) (*Wallet, error)
	Transactions(ctx context.Context, userID, limit, offset int) ([]Transaction, error)
	Deposit(ctx context.Context, userID int, amount int64, phone string) (*Transaction, error)
	Withdraw(ctx context.Context, userID int, amount int64, phone string) (*Transaction, error)
	Verify(ctx context.Context, userID int) (*Reconciliation, error)
}

type Options struct {
	Currency        string
	MinWithdrawal   int64
	ProviderTimeout time.Duration
}

type service struct {
	repo     Repository
	ledger   *Ledger
	tx       db.Transactor
	provider provider.Provider
	opts     Options
}

func NewService(repo Repository, ledger *Ledger, tx db.Transactor, p provider.Provider, opts Options) Service {
	if opts.ProviderTimeout <= 0 {
		opts.ProviderTimeout = 15 * time.Second
	}
	return &service{repo: repo, ledger: ledger, tx: tx, provider: p, opts: opts}
}

func (s *service) Get(ctx context.Context, userID int) (*Wallet, error) {
	return s.repo.GetOrCreate(ctx, nil, userID)
}

func (s *service) Transactions(ctx context.Context, userID, limit, offset int) ([]Transaction, error) {
	return s.repo.Transactions(ctx, userID, limit, offset)
}

// Deposit charges the user through the provider and credits the wallet with
// the provider's reference, so a replayed charge cannot credit twice.
func (s *service) Deposit(ctx context.Context, userID int, amount int64, phone string) (*Transaction, error) {
	if amount <= 0 {
		return nil, apperr.Validation("deposit amount must be positive")
	}

	pctx, cancel := context.WithTimeout(ctx, s.opts.ProviderTimeout)
	defer cancel()

	res, err := s.provider.Charge(pctx, provider.ChargeRequest{
		Reference: "deposit:" + uuid.NewString(),
		Amount:    amount,
		Currency:  s.opts.Currency,
		Method:    "mobile_money",
		Phone:     phone,
	})
	if err != nil {
		metrics.RecordProviderFailure("deposit")
		return nil, apperr.ProviderFailure(err, "deposit of %d failed at the provider", amount)
	}

	var t *Transaction
	err = s.tx.WithTx(ctx, func(q sqlx.ExtContext) error {
		var err error
		t, err = s.ledger.Credit(ctx, q, userID, Entry{
			Type:        TxDeposit,
			Amount:      amount,
			Reference:   "deposit:" + res.ExternalReference,
			Description: "Wallet top-up",
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// Withdraw debits the wallet first and then asks the provider to pay out.
// A failed payout is compensated by a reversal credit; the debit row stays.
func (s *service) Withdraw(ctx context.Context, userID int, amount int64, phone string) (*Transaction, error) {
	if amount < s.opts.MinWithdrawal {
		return nil, apperr.InsufficientFunds("minimum withdrawal is %d", s.opts.MinWithdrawal)
	}

	ref := "withdrawal:" + uuid.NewString()

	var debit *Transaction
	err := s.tx.WithTx(ctx, func(q sqlx.ExtContext) error {
		var err error
		debit, err = s.ledger.Debit(ctx, q, userID, Entry{
			Type:        TxWithdrawal,
			Amount:      amount,
			Reference:   ref,
			Description: "Withdrawal to " + phone,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	pctx, cancel := context.WithTimeout(ctx, s.opts.ProviderTimeout)
	defer cancel()

	_, err = s.provider.Payout(pctx, provider.PayoutRequest{
		Reference: ref,
		Amount:    amount,
		Currency:  s.opts.Currency,
		Phone:     phone,
	})
	if err == nil {
		logger.Info("withdrawal paid out", "user_id", userID, "amount", amount, "reference", ref)
		return debit, nil
	}

	metrics.RecordProviderFailure("payout")
	logger.Warn("payout failed, reversing withdrawal", "user_id", userID, "amount", amount, "reference", ref, "error", err)

	// The request context may already be done; the reversal must still land.
	rctx := context.WithoutCancel(ctx)
	revErr := s.tx.WithTx(rctx, func(q sqlx.ExtContext) error {
		_, err := s.ledger.Credit(rctx, q, userID, Entry{
			Type:        TxWithdrawal,
			Amount:      amount,
			Reference:   "withdrawal_reversal:" + ref,
			Description: "Reversal of failed withdrawal",
		})
		return err
	})
	if revErr != nil {
		logger.Error("withdrawal reversal failed", "user_id", userID, "reference", ref, "error", revErr)
	}
	return nil, apperr.ProviderFailure(err, "withdrawal of %d failed at the provider", amount)
}

// Verify replays the wallet's ledger and checks it against the stored
// balance and every row's balance_after.
func (s *service) Verify(ctx context.Context, userID int) (*Reconciliation, error) {
	w, err := s.repo.GetOrCreate(ctx, nil, userID)
	if err != nil {
		return nil, err
	}

	txs, err := s.repo.AllTransactions(ctx, w.ID)
	if err != nil {
		return nil, err
	}

	rec := Replay(w, txs)
	if !rec.Consistent {
		logger.Error("wallet ledger mismatch", "user_id", userID, "balance", rec.Balance, "ledger_balance", rec.LedgerBalance)
	}
	return rec, nil
}

// Replay sums the signed ledger amounts in append order.
func Replay(w *Wallet, txs []Transaction) *Reconciliation {
	rec := &Reconciliation{UserID: w.UserID, Balance: w.Balance, Entries: len(txs)}

	var running int64
	for _, t := range txs {
		running += t.Amount
		if t.BalanceAfter != running && rec.FirstBrokenEntry == nil {
			id := t.ID
			rec.FirstBrokenEntry = &id
		}
	}

	rec.LedgerBalance = running
	rec.Consistent = running == w.Balance && rec.FirstBrokenEntry == nil
	return rec
}
