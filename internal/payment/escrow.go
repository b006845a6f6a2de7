package payment

import (
	"context"
	"fmt"

	"carpool/internal/apperr"
	"carpool/internal/logger"
	"carpool/internal/metrics"
	"carpool/internal/wallet"

	"github.com/jmoiron/sqlx"
)

// ReleaseToDriver is the admin path for releasing escrow outside of the
// departure handshake.
func (s *service) ReleaseToDriver(ctx context.Context, paymentID int) (*Payment, error) {
	var p *Payment
	err := s.tx.WithTx(ctx, func(q sqlx.ExtContext) error {
		var err error
		p, err = s.ReleaseInTx(ctx, q, paymentID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.notifyReleased(ctx, p)
	return p, nil
}

// ReleaseInTx pays a held escrow out to the driver, minus the platform
// commission. A payment that is not held fails with NotInEscrow, so a second
// release never credits twice.
func (s *service) ReleaseInTx(ctx context.Context, q sqlx.ExtContext, paymentID int) (*Payment, error) {
	p, err := s.repo.GetForUpdate(ctx, q, paymentID)
	if err != nil {
		return nil, err
	}
	if p.EscrowStatus != EscrowHeld {
		return nil, apperr.NotInEscrow(p.ID, p.EscrowStatus)
	}

	driverAmount, commission := s.rules.Release(p.EscrowAmount)
	if driverAmount > 0 {
		if _, err := s.ledger.Credit(ctx, q, p.PayeeID, s.entry(p, wallet.TxEscrowRelease, driverAmount,
			"escrow_release:", fmt.Sprintf("Payout for booking %d", p.BookingID))); err != nil {
			return nil, err
		}
	}
	if commission > 0 && s.opts.PlatformUserID > 0 {
		if _, err := s.ledger.Credit(ctx, q, s.opts.PlatformUserID, s.entry(p, wallet.TxCommission, commission,
			"commission:", fmt.Sprintf("Commission on booking %d", p.BookingID))); err != nil {
			return nil, err
		}
	}

	if err := transitionEscrow(p, EscrowReleased); err != nil {
		return nil, err
	}
	now := s.now()
	p.DriverAmount = driverAmount
	p.CommissionAmount = commission
	p.ReleasedAt = &now
	if err := s.repo.Save(ctx, q, p); err != nil {
		return nil, err
	}

	metrics.RecordEscrow(string(EscrowReleased), map[string]int64{"driver": driverAmount, "commission": commission})
	logger.Info("escrow released", "payment_id", p.ID, "booking_id", p.BookingID,
		"driver_amount", driverAmount, "commission", commission)
	return p, nil
}

func (s *service) notifyReleased(ctx context.Context, p *Payment) {
	s.notifier.Notify(ctx, p.PayeeID, "payment_released", "Payment released",
		fmt.Sprintf("%d %s for booking %d is now in your wallet.", p.DriverAmount, p.Currency, p.BookingID),
		map[string]any{"payment_id": p.ID, "booking_id": p.BookingID, "amount": p.DriverAmount})
}

func (s *service) Refund(ctx context.Context, paymentID int, applyPenalty bool) (*Payment, error) {
	var p *Payment
	err := s.tx.WithTx(ctx, func(q sqlx.ExtContext) error {
		var err error
		p, err = s.RefundInTx(ctx, q, paymentID, applyPenalty)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.notifier.Notify(ctx, p.PayerID, "payment_refunded", "Payment refunded",
		fmt.Sprintf("%d %s for booking %d went back to your wallet.", p.RefundAmount, p.Currency, p.BookingID),
		map[string]any{"payment_id": p.ID, "booking_id": p.BookingID, "amount": p.RefundAmount})
	return p, nil
}

func (s *service) RefundInTx(ctx context.Context, q sqlx.ExtContext, paymentID int, applyPenalty bool) (*Payment, error) {
	p, err := s.repo.GetForUpdate(ctx, q, paymentID)
	if err != nil {
		return nil, err
	}
	if err := s.refundLocked(ctx, q, p, applyPenalty); err != nil {
		return nil, err
	}
	return p, nil
}

// refundLocked expects p to be locked by the caller.
func (s *service) refundLocked(ctx context.Context, q sqlx.ExtContext, p *Payment, applyPenalty bool) error {
	if p.EscrowStatus != EscrowHeld {
		return apperr.NotRefundable(p.ID, p.EscrowStatus)
	}

	refund, penalty := s.rules.Refund(p.EscrowAmount, applyPenalty)
	if refund > 0 {
		if _, err := s.ledger.Credit(ctx, q, p.PayerID, s.entry(p, wallet.TxEscrowRefund, refund,
			"escrow_refund:", fmt.Sprintf("Refund for booking %d", p.BookingID))); err != nil {
			return err
		}
	}
	if penalty > 0 && s.opts.PlatformUserID > 0 {
		if _, err := s.ledger.Credit(ctx, q, s.opts.PlatformUserID, s.entry(p, wallet.TxPenalty, penalty,
			"penalty:", fmt.Sprintf("Cancellation penalty on booking %d", p.BookingID))); err != nil {
			return err
		}
	}

	to := EscrowRefunded
	if penalty > 0 {
		to = EscrowPartialRefund
	}
	if err := transitionEscrow(p, to); err != nil {
		return err
	}
	if err := transition(p, StatusRefunded); err != nil {
		return err
	}
	now := s.now()
	p.RefundAmount = refund
	p.PenaltyAmount = penalty
	p.RefundedAt = &now
	if err := s.repo.Save(ctx, q, p); err != nil {
		return err
	}

	metrics.RecordEscrow(string(to), map[string]int64{"refund": refund, "penalty": penalty})
	logger.Info("escrow refunded", "payment_id", p.ID, "booking_id", p.BookingID,
		"refund", refund, "penalty", penalty)
	return nil
}

func (s *service) EscrowHeld(ctx context.Context, q sqlx.ExtContext, bookingID int) (bool, error) {
	p, err := s.repo.HeldForBookingForUpdate(ctx, q, bookingID)
	if err != nil {
		return false, err
	}
	return p != nil, nil
}

// RefundBookingEscrow refunds whatever a booking still holds in escrow. It
// reports false when nothing was held.
func (s *service) RefundBookingEscrow(ctx context.Context, q sqlx.ExtContext, bookingID int, applyPenalty bool) (bool, error) {
	p, err := s.repo.HeldForBookingForUpdate(ctx, q, bookingID)
	if err != nil {
		return false, err
	}
	if p == nil {
		return false, nil
	}
	if err := s.refundLocked(ctx, q, p, applyPenalty); err != nil {
		return false, err
	}
	return true, nil
}

func (s *service) LatestForBooking(ctx context.Context, q sqlx.ExtContext, bookingID int) (*Payment, error) {
	return s.repo.LatestForBooking(ctx, q, bookingID)
}

// entry builds a ledger entry whose reference is unique per payment and
// purpose.
func (s *service) entry(p *Payment, typ wallet.TxType, amount int64, prefix, desc string) wallet.Entry {
	paymentID, bookingID := p.ID, p.BookingID
	return wallet.Entry{
		Type:        typ,
		Amount:      amount,
		Reference:   prefix + p.TransactionID,
		Description: desc,
		PaymentID:   &paymentID,
		BookingID:   &bookingID,
	}
}
