package payment

import "carpool/internal/apperr"

var statusTransitions = map[Status][]Status{
	StatusPending:    {StatusCompleted, StatusFailed},
	StatusProcessing: {StatusCompleted, StatusFailed},
	StatusCompleted:  {StatusRefunded},
}

var escrowTransitions = map[EscrowStatus][]EscrowStatus{
	EscrowNone: {EscrowHeld},
	EscrowHeld: {EscrowReleased, EscrowRefunded, EscrowPartialRefund},
}

func CanTransition(from, to Status) bool {
	return contains(statusTransitions[from], to)
}

func CanTransitionEscrow(from, to EscrowStatus) bool {
	return contains(escrowTransitions[from], to)
}

func contains[T comparable](list []T, v T) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

func transition(p *Payment, to Status) error {
	if !CanTransition(p.Status, to) {
		return apperr.InvalidTransition("payment", p.Status, to)
	}
	p.Status = to
	return nil
}

func transitionEscrow(p *Payment, to EscrowStatus) error {
	if !CanTransitionEscrow(p.EscrowStatus, to) {
		return apperr.InvalidTransition("escrow", p.EscrowStatus, to)
	}
	p.EscrowStatus = to
	return nil
}
