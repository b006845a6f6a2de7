package booking

import "carpool/internal/apperr"

var transitions = map[Status][]Status{
	StatusPending:    {StatusConfirmed, StatusRejected, StatusCancelled},
	StatusConfirmed:  {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted},
}

func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Transition moves b to status to, or reports why it cannot.
func Transition(b *Booking, to Status) error {
	if !CanTransition(b.Status, to) {
		return apperr.InvalidTransition("booking", b.Status, to)
	}
	b.Status = to
	return nil
}

func IsTerminal(s Status) bool {
	return len(transitions[s]) == 0
}
