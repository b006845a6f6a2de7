package wallet

import "time"

type TxType string

const (
	TxDeposit       TxType = "deposit"
	TxWithdrawal    TxType = "withdrawal"
	TxEscrowIn      TxType = "escrow_in"
	TxEscrowRelease TxType = "escrow_release"
	TxEscrowRefund  TxType = "escrow_refund"
	TxPenalty       TxType = "penalty"
	TxCommission    TxType = "commission"
	TxBonus         TxType = "bonus"
)

// Wallet is created lazily on first access. Balance only changes together
// with an appended Transaction.
type Wallet struct {
	ID             int       `db:"id" json:"id"`
	UserID         int       `db:"user_id" json:"user_id"`
	Balance        int64     `db:"balance" json:"balance"`
	PendingBalance int64     `db:"pending_balance" json:"pending_balance"`
	Currency       string    `db:"currency" json:"currency"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// Transaction is one append-only ledger row. Amount is signed.
type Transaction struct {
	ID           int       `db:"id" json:"id"`
	WalletID     int       `db:"wallet_id" json:"wallet_id"`
	Type         TxType    `db:"type" json:"type"`
	Amount       int64     `db:"amount" json:"amount"`
	BalanceAfter int64     `db:"balance_after" json:"balance_after"`
	Reference    string    `db:"reference" json:"reference"`
	Description  string    `db:"description" json:"description"`
	PaymentID    *int      `db:"payment_id" json:"payment_id,omitempty"`
	BookingID    *int      `db:"booking_id" json:"booking_id,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Entry describes a ledger movement before it is applied. Amount is always
// positive here; Credit and Debit decide the sign.
type Entry struct {
	Type        TxType
	Amount      int64
	Reference   string
	Description string
	PaymentID   *int
	BookingID   *int
}

// Reconciliation is the result of replaying a wallet's ledger.
type Reconciliation struct {
	UserID        int   `json:"user_id"`
	Balance       int64 `json:"balance"`
	LedgerBalance int64 `json:"ledger_balance"`
	Entries       int   `json:"entries"`
	Consistent    bool  `json:"consistent"`
	// FirstBrokenEntry is the first row whose balance_after does not match
	// the running sum.
	FirstBrokenEntry *int `json:"first_broken_entry,omitempty"`
}

type DepositRequest struct {
	Amount int64  `json:"amount" binding:"required,gt=0" example:"10000"`
	Phone  string `json:"phone" binding:"required" example:"+237670000000"`
}

type WithdrawRequest struct {
	Amount int64  `json:"amount" binding:"required,gt=0" example:"5000"`
	Phone  string `json:"phone" binding:"required" example:"+237670000000"`
}
