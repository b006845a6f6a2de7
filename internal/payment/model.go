package payment

import "time"

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusRefunded   Status = "refunded"
)

type EscrowStatus string

const (
	EscrowNone          EscrowStatus = "none"
	EscrowHeld          EscrowStatus = "held"
	EscrowReleased      EscrowStatus = "released"
	EscrowRefunded      EscrowStatus = "refunded"
	EscrowPartialRefund EscrowStatus = "partial_refund"
)

type Method string

const (
	MethodMobileMoney Method = "mobile_money"
	MethodOrangeMoney Method = "orange_money"
	MethodCard        Method = "card"
	MethodCash        Method = "cash"
)

func (m Method) Valid() bool {
	switch m {
	case MethodMobileMoney, MethodOrangeMoney, MethodCard, MethodCash:
		return true
	}
	return false
}

// Payment is one attempt to pay for one booking. Escrowed money lives on
// this record until it is released to PayeeID or refunded to PayerID.
type Payment struct {
	ID                int          `db:"id" json:"id"`
	BookingID         int          `db:"booking_id" json:"booking_id"`
	PayerID           int          `db:"payer_id" json:"payer_id"`
	PayeeID           int          `db:"payee_id" json:"payee_id"`
	Amount            int64        `db:"amount" json:"amount"`
	Currency          string       `db:"currency" json:"currency"`
	Method            Method       `db:"payment_method" json:"payment_method"`
	Phone             string       `db:"phone" json:"phone,omitempty"`
	Status            Status       `db:"status" json:"status"`
	EscrowStatus      EscrowStatus `db:"escrow_status" json:"escrow_status"`
	EscrowAmount      int64        `db:"escrow_amount" json:"escrow_amount"`
	PenaltyAmount     int64        `db:"penalty_amount" json:"penalty_amount"`
	RefundAmount      int64        `db:"refund_amount" json:"refund_amount"`
	DriverAmount      int64        `db:"driver_amount" json:"driver_amount"`
	CommissionAmount  int64        `db:"commission_amount" json:"commission_amount"`
	TransactionID     string       `db:"transaction_id" json:"transaction_id"`
	ExternalReference string       `db:"external_reference" json:"external_reference,omitempty"`
	FailureReason     string       `db:"failure_reason" json:"failure_reason,omitempty"`
	PaidAt            *time.Time   `db:"paid_at" json:"paid_at,omitempty"`
	HeldAt            *time.Time   `db:"held_at" json:"held_at,omitempty"`
	ReleasedAt        *time.Time   `db:"released_at" json:"released_at,omitempty"`
	RefundedAt        *time.Time   `db:"refunded_at" json:"refunded_at,omitempty"`
	CreatedAt         time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time    `db:"updated_at" json:"updated_at"`
}

type InitiateRequest struct {
	Method Method `json:"payment_method" binding:"required,oneof=mobile_money orange_money card cash" example:"mobile_money"`
	Phone  string `json:"phone" example:"+237670000000"`
}

type RefundRequest struct {
	ApplyPenalty bool `json:"apply_penalty" example:"false"`
}

// WebhookEvent is the provider's asynchronous charge result.
type WebhookEvent struct {
	TransactionID     string `json:"transaction_id" binding:"required"`
	ExternalReference string `json:"external_reference"`
	Status            string `json:"status" binding:"required,oneof=success failed"`
	Message           string `json:"message"`
}
