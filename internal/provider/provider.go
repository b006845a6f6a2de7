// Package provider is the boundary to the mobile-money / card gateway.
package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrDeclined = errors.New("provider declined the request")

type ChargeRequest struct {
	Reference string
	Amount    int64
	Currency  string
	Method    string
	Phone     string
}

type ChargeResult struct {
	ExternalReference string
	ProcessedAt       time.Time
}

type PayoutRequest struct {
	Reference string
	Amount    int64
	Currency  string
	Phone     string
}

type PayoutResult struct {
	ExternalReference string
	ProcessedAt       time.Time
}

type Provider interface {
	Charge(ctx context.Context, req ChargeRequest) (ChargeResult, error)
	Payout(ctx context.Context, req PayoutRequest) (PayoutResult, error)
}

// Sandbox approves every request except those whose phone number starts
// with FailPhonePrefix. Latency simulates the round trip and is cut short
// by the context deadline.
type Sandbox struct {
	FailPhonePrefix string
	Latency         time.Duration
}

func NewSandbox(failPhonePrefix string) *Sandbox {
	return &Sandbox{FailPhonePrefix: failPhonePrefix}
}

func (s *Sandbox) Charge(ctx context.Context, req ChargeRequest) (ChargeResult, error) {
	if err := s.roundTrip(ctx, req.Phone, req.Amount); err != nil {
		return ChargeResult{}, fmt.Errorf("charge %s: %w", req.Reference, err)
	}
	return ChargeResult{
		ExternalReference: "SBX_" + strings.ToUpper(uuid.NewString()[:8]),
		ProcessedAt:       time.Now(),
	}, nil
}

func (s *Sandbox) Payout(ctx context.Context, req PayoutRequest) (PayoutResult, error) {
	if err := s.roundTrip(ctx, req.Phone, req.Amount); err != nil {
		return PayoutResult{}, fmt.Errorf("payout %s: %w", req.Reference, err)
	}
	return PayoutResult{
		ExternalReference: "SBXP_" + strings.ToUpper(uuid.NewString()[:8]),
		ProcessedAt:       time.Now(),
	}, nil
}

func (s *Sandbox) roundTrip(ctx context.Context, phone string, amount int64) error {
	if s.Latency > 0 {
		timer := time.NewTimer(s.Latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrDeclined)
	}
	if s.FailPhonePrefix != "" && strings.HasPrefix(phone, s.FailPhonePrefix) {
		return ErrDeclined
	}
	return nil
}
