// Package policy holds the money and cancellation rules of the settlement
// engine. Nothing here touches storage; callers pass in the facts.
package policy

import (
	"math"
	"time"
)

type Role string

const (
	RolePassenger Role = "passenger"
	RoleDriver    Role = "driver"
	RoleAdmin     Role = "admin"
)

type Rules struct {
	CommissionRate float64
	Penalty        int64
	MinWithdrawal  int64
	Location       *time.Location
}

func (r Rules) loc() *time.Location {
	if r.Location == nil {
		return time.UTC
	}
	return r.Location
}

// IsLateCancellation reports whether now falls on or after the departure date.
// Only the calendar date counts, in the rules' location.
func (r Rules) IsLateCancellation(now, departure time.Time) bool {
	ny, nm, nd := now.In(r.loc()).Date()
	dy, dm, dd := departure.In(r.loc()).Date()
	nowDate := time.Date(ny, nm, nd, 0, 0, 0, 0, time.UTC)
	depDate := time.Date(dy, dm, dd, 0, 0, 0, 0, time.UTC)
	return !nowDate.Before(depDate)
}

// Release splits an escrowed amount. driverAmount + commission == escrow.
func (r Rules) Release(escrow int64) (driverAmount, commission int64) {
	commission = int64(math.Round(float64(escrow) * r.CommissionRate))
	if commission > escrow {
		commission = escrow
	}
	if commission < 0 {
		commission = 0
	}
	return escrow - commission, commission
}

// Refund splits an escrowed amount on cancellation. refund + penalty == escrow;
// the penalty is capped at the escrowed amount.
func (r Rules) Refund(escrow int64, applyPenalty bool) (refund, penalty int64) {
	if applyPenalty {
		penalty = r.Penalty
	}
	refund = escrow - penalty
	if refund < 0 {
		refund = 0
	}
	return refund, escrow - refund
}

type CancelInput struct {
	Role       Role
	EscrowHeld bool
	Late       bool
	// ForcedRefund is the explicit decision of a driver or admin cancelling on
	// the passenger's behalf: nil leaves the escrow untouched, otherwise the
	// value says whether the penalty applies.
	ForcedRefund *bool
}

type Decision struct {
	Refund       bool
	ApplyPenalty bool
	// LeaveHeld is set when escrow exists but no refund rule applies.
	LeaveHeld bool
}

func DecideCancellation(in CancelInput) Decision {
	if !in.EscrowHeld {
		return Decision{}
	}
	switch in.Role {
	case RolePassenger:
		return Decision{Refund: true, ApplyPenalty: in.Late}
	default:
		if in.ForcedRefund == nil {
			return Decision{LeaveHeld: true}
		}
		return Decision{Refund: true, ApplyPenalty: *in.ForcedRefund}
	}
}

// DecideNoShow always refunds with the full penalty: a no-show can only be
// raised on or after departure day.
func DecideNoShow() Decision {
	return Decision{Refund: true, ApplyPenalty: true}
}
