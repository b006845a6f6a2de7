package payment

import (
	"context"
	"fmt"
	"time"

	"carpool/internal/apperr"
	"carpool/internal/booking"
	"carpool/internal/db"
	"carpool/internal/logger"
	"carpool/internal/metrics"
	"carpool/internal/policy"
	"carpool/internal/provider"
	"carpool/internal/trip"
	"carpool/internal/wallet"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Ledger is the part of the wallet ledger escrow settlement writes to.
type Ledger interface {
	Credit(ctx context.Context, q sqlx.ExtContext, userID int, e wallet.Entry) (*wallet.Transaction, error)
}

type Service interface {
	Initiate(ctx context.Context, bookingID, payerID int, method Method, phone string) (*Payment, error)
	ConfirmCashReceipt(ctx context.Context, paymentID, driverID int) (*Payment, error)
	HandlePaymentSuccess(ctx context.Context, transactionID, externalRef string) (*Payment, error)
	HandlePaymentFailure(ctx context.Context, transactionID, reason string) (*Payment, error)

	ReleaseToDriver(ctx context.Context, paymentID int) (*Payment, error)
	ReleaseInTx(ctx context.Context, q sqlx.ExtContext, paymentID int) (*Payment, error)
	Refund(ctx context.Context, paymentID int, applyPenalty bool) (*Payment, error)
	RefundInTx(ctx context.Context, q sqlx.ExtContext, paymentID int, applyPenalty bool) (*Payment, error)
	EscrowHeld(ctx context.Context, q sqlx.ExtContext, bookingID int) (bool, error)
	RefundBookingEscrow(ctx context.Context, q sqlx.ExtContext, bookingID int, applyPenalty bool) (bool, error)
	LatestForBooking(ctx context.Context, q sqlx.ExtContext, bookingID int) (*Payment, error)

	Get(ctx context.Context, id int, actor booking.Actor) (*Payment, error)
	ListByBooking(ctx context.Context, bookingID int, actor booking.Actor) ([]Payment, error)
}

type Options struct {
	Currency        string
	PlatformUserID  int
	ProviderTimeout time.Duration
}

type service struct {
	repo     Repository
	bookings booking.Repository
	trips    trip.Repository
	ledger   Ledger
	provider provider.Provider
	tx       db.Transactor
	notifier booking.Notifier
	rules    policy.Rules
	opts     Options
	now      func() time.Time
}

func NewService(
	repo Repository,
	bookings booking.Repository,
	trips trip.Repository,
	ledger Ledger,
	p provider.Provider,
	tx db.Transactor,
	notifier booking.Notifier,
	rules policy.Rules,
	opts Options,
) Service {
	if opts.ProviderTimeout <= 0 {
		opts.ProviderTimeout = 15 * time.Second
	}
	return &service{
		repo:     repo,
		bookings: bookings,
		trips:    trips,
		ledger:   ledger,
		provider: p,
		tx:       tx,
		notifier: notifier,
		rules:    rules,
		opts:     opts,
		now:      time.Now,
	}
}

// Initiate records a payment for a confirmed booking. Cash payments wait for
// the driver's receipt; every other method is charged right away and, on
// success, the amount goes into escrow.
func (s *service) Initiate(ctx context.Context, bookingID, payerID int, method Method, phone string) (*Payment, error) {
	if !method.Valid() {
		return nil, apperr.Validation("unsupported payment method %q", method)
	}
	if method != MethodCash && phone == "" {
		return nil, apperr.Validation("phone is required for %s payments", method)
	}

	var p *Payment
	err := s.tx.WithTx(ctx, func(q sqlx.ExtContext) error {
		b, err := s.bookings.GetForUpdate(ctx, q, bookingID)
		if err != nil {
			return err
		}
		if b.PassengerID != payerID {
			return apperr.Unauthorized("only the passenger can pay for booking %d", b.ID)
		}
		if b.Status != booking.StatusConfirmed {
			return apperr.New(apperr.KindBookingNotPayable, "booking must be confirmed before payment")
		}
		active, err := s.repo.HasActive(ctx, q, b.ID)
		if err != nil {
			return err
		}
		if active {
			return apperr.New(apperr.KindPaymentAlreadyExists, "booking %d already has an active payment", b.ID)
		}
		t, err := s.trips.GetByID(ctx, q, b.TripID)
		if err != nil {
			return err
		}

		status := StatusProcessing
		if method == MethodCash {
			status = StatusPending
		}
		p, err = s.repo.Create(ctx, q, &Payment{
			BookingID:     b.ID,
			PayerID:       payerID,
			PayeeID:       t.DriverID,
			Amount:        b.TotalPrice,
			Currency:      s.opts.Currency,
			Method:        method,
			Phone:         phone,
			Status:        status,
			EscrowStatus:  EscrowNone,
			TransactionID: uuid.NewString(),
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	if method == MethodCash {
		metrics.RecordPayment(string(method), string(p.Status))
		logger.Info("cash payment recorded", "payment_id", p.ID, "booking_id", bookingID)
		s.notifier.Notify(ctx, p.PayeeID, "cash_payment_expected", "Cash payment expected",
			fmt.Sprintf("Collect %d %s in cash for booking %d.", p.Amount, p.Currency, bookingID),
			map[string]any{"payment_id": p.ID, "booking_id": bookingID})
		return p, nil
	}

	pctx, cancel := context.WithTimeout(ctx, s.opts.ProviderTimeout)
	defer cancel()

	res, chargeErr := s.provider.Charge(pctx, provider.ChargeRequest{
		Reference: p.TransactionID,
		Amount:    p.Amount,
		Currency:  p.Currency,
		Method:    string(method),
		Phone:     phone,
	})

	// The request may be gone by now; the outcome must still be stored.
	sctx := context.WithoutCancel(ctx)
	if chargeErr != nil {
		metrics.RecordProviderFailure("charge")
		logger.Warn("payment charge failed", "payment_id", p.ID, "booking_id", bookingID, "error", chargeErr)
		if _, err := s.HandlePaymentFailure(sctx, p.TransactionID, chargeErr.Error()); err != nil {
			logger.Error("failed to mark payment failed", "payment_id", p.ID, "error", err)
		}
		return nil, apperr.ProviderFailure(chargeErr, "payment for booking %d failed at the provider", bookingID)
	}

	return s.HandlePaymentSuccess(sctx, p.TransactionID, res.ExternalReference)
}

// HandlePaymentSuccess moves a processing payment into escrow. Replays of an
// already settled payment return it unchanged. A success for a payment that
// already failed credits the payer's wallet once.
func (s *service) HandlePaymentSuccess(ctx context.Context, transactionID, externalRef string) (*Payment, error) {
	var p *Payment
	var settled, refunded, lateCredit bool
	err := s.tx.WithTx(ctx, func(q sqlx.ExtContext) error {
		b, locked, err := s.lockByTransaction(ctx, q, transactionID)
		if err != nil {
			return err
		}
		p = locked

		switch p.Status {
		case StatusCompleted, StatusRefunded:
			return nil
		case StatusFailed:
			// Charged after we gave up on it. The money goes to the payer's
			// wallet; a stored external reference marks it as already credited.
			if p.ExternalReference != "" {
				return nil
			}
			e := s.entry(p, wallet.TxDeposit, p.Amount, "late_charge:", fmt.Sprintf("Late charge for booking %d", p.BookingID))
			if _, err := s.ledger.Credit(ctx, q, p.PayerID, e); err != nil {
				return err
			}
			p.ExternalReference = externalRef
			if err := s.repo.Save(ctx, q, p); err != nil {
				return err
			}
			lateCredit = true
			return nil
		case StatusPending:
			return apperr.InvalidTransition("payment", p.Status, StatusCompleted)
		}

		now := s.now()
		if err := transition(p, StatusCompleted); err != nil {
			return err
		}
		if err := transitionEscrow(p, EscrowHeld); err != nil {
			return err
		}
		p.EscrowAmount = p.Amount
		p.ExternalReference = externalRef
		p.PaidAt = &now
		p.HeldAt = &now
		if err := s.repo.Save(ctx, q, p); err != nil {
			return err
		}
		settled = true

		// The booking was cancelled while the charge was in flight.
		if b.Status != booking.StatusConfirmed && b.Status != booking.StatusCompleted {
			if err := s.refundLocked(ctx, q, p, false); err != nil {
				return err
			}
			refunded = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if lateCredit {
		metrics.RecordPayment(string(p.Method), "late_credit")
		logger.Warn("charge confirmed for a failed payment, credited to payer wallet",
			"payment_id", p.ID, "transaction_id", transactionID, "amount", p.Amount)
		s.notifier.Notify(ctx, p.PayerID, "payment_credited", "Payment credited",
			fmt.Sprintf("Your provider confirmed a charge of %d %s after the payment for booking %d had failed. The amount is in your wallet.",
				p.Amount, p.Currency, p.BookingID),
			map[string]any{"payment_id": p.ID, "booking_id": p.BookingID})
		return p, nil
	}
	if !settled {
		return p, nil
	}

	metrics.RecordPayment(string(p.Method), string(StatusCompleted))
	metrics.RecordEscrow(string(EscrowHeld), map[string]int64{"held": p.EscrowAmount})
	logger.Info("payment held in escrow", "payment_id", p.ID, "booking_id", p.BookingID, "amount", p.EscrowAmount)

	if refunded {
		s.notifier.Notify(ctx, p.PayerID, "payment_refunded", "Payment refunded",
			fmt.Sprintf("Booking %d was cancelled; %d %s went back to your wallet.", p.BookingID, p.RefundAmount, p.Currency),
			map[string]any{"payment_id": p.ID, "booking_id": p.BookingID})
		return p, nil
	}
	s.notifier.Notify(ctx, p.PayerID, "payment_completed", "Payment received",
		fmt.Sprintf("Your payment of %d %s is held until departure.", p.Amount, p.Currency),
		map[string]any{"payment_id": p.ID, "booking_id": p.BookingID})
	s.notifier.Notify(ctx, p.PayeeID, "payment_held", "Booking paid",
		fmt.Sprintf("Booking %d is paid; %d %s is held in escrow.", p.BookingID, p.Amount, p.Currency),
		map[string]any{"payment_id": p.ID, "booking_id": p.BookingID})
	return p, nil
}

// HandlePaymentFailure marks a processing payment failed. Any other state is
// left alone.
func (s *service) HandlePaymentFailure(ctx context.Context, transactionID, reason string) (*Payment, error) {
	var p *Payment
	var failed bool
	err := s.tx.WithTx(ctx, func(q sqlx.ExtContext) error {
		_, locked, err := s.lockByTransaction(ctx, q, transactionID)
		if err != nil {
			return err
		}
		p = locked
		if p.Status != StatusProcessing {
			return nil
		}
		if err := transition(p, StatusFailed); err != nil {
			return err
		}
		p.FailureReason = reason
		failed = true
		return s.repo.Save(ctx, q, p)
	})
	if err != nil {
		return nil, err
	}
	if failed {
		metrics.RecordPayment(string(p.Method), string(StatusFailed))
		logger.Info("payment failed", "payment_id", p.ID, "booking_id", p.BookingID, "reason", reason)
		s.notifier.Notify(ctx, p.PayerID, "payment_failed", "Payment failed",
			fmt.Sprintf("Your payment for booking %d did not go through.", p.BookingID),
			map[string]any{"payment_id": p.ID, "booking_id": p.BookingID})
	}
	return p, nil
}

// lockByTransaction locks the booking before the payment.
func (s *service) lockByTransaction(ctx context.Context, q sqlx.ExtContext, transactionID string) (*booking.Booking, *Payment, error) {
	p, err := s.repo.GetByTransactionID(ctx, q, transactionID)
	if err != nil {
		return nil, nil, err
	}
	b, err := s.bookings.GetForUpdate(ctx, q, p.BookingID)
	if err != nil {
		return nil, nil, err
	}
	p, err = s.repo.GetForUpdate(ctx, q, p.ID)
	if err != nil {
		return nil, nil, err
	}
	return b, p, nil
}

// ConfirmCashReceipt is the driver acknowledging cash in hand. Cash never
// passes through escrow and is only accepted for a confirmed booking.
func (s *service) ConfirmCashReceipt(ctx context.Context, paymentID, driverID int) (*Payment, error) {
	var p *Payment
	err := s.tx.WithTx(ctx, func(q sqlx.ExtContext) error {
		unlocked, err := s.repo.GetByID(ctx, q, paymentID)
		if err != nil {
			return err
		}
		b, err := s.bookings.GetForUpdate(ctx, q, unlocked.BookingID)
		if err != nil {
			return err
		}
		p, err = s.repo.GetForUpdate(ctx, q, paymentID)
		if err != nil {
			return err
		}
		if p.PayeeID != driverID {
			return apperr.Unauthorized("only the driver can confirm cash for payment %d", p.ID)
		}
		if p.Method != MethodCash {
			return apperr.Validation("payment %d is not a cash payment", p.ID)
		}
		if b.Status != booking.StatusConfirmed {
			return apperr.New(apperr.KindBookingNotPayable, "booking %d is %s, not confirmed", b.ID, b.Status)
		}
		if err := transition(p, StatusCompleted); err != nil {
			return err
		}
		now := s.now()
		p.PaidAt = &now
		return s.repo.Save(ctx, q, p)
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordPayment(string(p.Method), string(p.Status))
	logger.Info("cash payment received", "payment_id", p.ID, "driver_id", driverID)
	s.notifier.Notify(ctx, p.PayerID, "payment_completed", "Cash payment confirmed",
		fmt.Sprintf("The driver confirmed your cash payment for booking %d.", p.BookingID),
		map[string]any{"payment_id": p.ID, "booking_id": p.BookingID})
	return p, nil
}

func (s *service) Get(ctx context.Context, id int, actor booking.Actor) (*Payment, error) {
	p, err := s.repo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if actor.Role != policy.RoleAdmin && actor.UserID != p.PayerID && actor.UserID != p.PayeeID {
		return nil, apperr.Unauthorized("user %d cannot view payment %d", actor.UserID, id)
	}
	return p, nil
}

func (s *service) ListByBooking(ctx context.Context, bookingID int, actor booking.Actor) ([]Payment, error) {
	if actor.Role != policy.RoleAdmin {
		b, err := s.bookings.GetByID(ctx, nil, bookingID)
		if err != nil {
			return nil, err
		}
		if b.PassengerID != actor.UserID {
			t, err := s.trips.GetByID(ctx, nil, b.TripID)
			if err != nil {
				return nil, err
			}
			if t.DriverID != actor.UserID {
				return nil, apperr.Unauthorized("user %d cannot view payments of booking %d", actor.UserID, bookingID)
			}
		}
	}
	return s.repo.ListByBooking(ctx, bookingID)
}
