// Package apperr defines the stable error kinds surfaced by the settlement
// engine. Every rejected operation carries one kind and a human readable
// message naming the party or condition that failed.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindInvalidTransition      Kind = "invalid_state_transition"
	KindSeatsUnavailable       Kind = "seats_unavailable"
	KindDuplicateActiveBooking Kind = "duplicate_active_booking"
	KindInsufficientFunds      Kind = "insufficient_funds"
	KindNotInEscrow            Kind = "not_in_escrow"
	KindNotRefundable          Kind = "not_refundable"
	KindProviderFailure        Kind = "provider_failure"
	KindAlreadyConfirmed       Kind = "already_confirmed"
	KindNotConfirmable         Kind = "not_confirmable"
	KindUnauthorized           Kind = "unauthorized"
	KindBookingNotPayable      Kind = "booking_not_payable"
	KindPaymentAlreadyExists   Kind = "payment_already_exists"
	KindNotFound               Kind = "not_found"
	KindValidation             Kind = "validation"
	KindInternal               Kind = "internal"
)

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

func InvalidTransition(entity string, from, to any) *Error {
	return New(KindInvalidTransition, "%s cannot move from %v to %v", entity, from, to)
}

func SeatsUnavailable(format string, args ...any) *Error {
	return New(KindSeatsUnavailable, format, args...)
}

func DuplicateActiveBooking() *Error {
	return New(KindDuplicateActiveBooking, "passenger already has a pending or confirmed booking on this trip")
}

func InsufficientFunds(format string, args ...any) *Error {
	return New(KindInsufficientFunds, format, args...)
}

func NotInEscrow(paymentID int, escrow any) *Error {
	return New(KindNotInEscrow, "payment %d is not held in escrow (escrow status %v)", paymentID, escrow)
}

func NotRefundable(paymentID int, escrow any) *Error {
	return New(KindNotRefundable, "payment %d cannot be refunded (escrow status %v)", paymentID, escrow)
}

func ProviderFailure(err error, format string, args ...any) *Error {
	return Wrap(KindProviderFailure, err, format, args...)
}

func AlreadyConfirmed(party string) *Error {
	return New(KindAlreadyConfirmed, "%s has already confirmed departure", party)
}

func NotConfirmable(format string, args ...any) *Error {
	return New(KindNotConfirmable, format, args...)
}

func Unauthorized(format string, args ...any) *Error {
	return New(KindUnauthorized, format, args...)
}

func NotFound(resource string, id any) *Error {
	return New(KindNotFound, "%s %v not found", resource, id)
}

func Validation(format string, args ...any) *Error {
	return New(KindValidation, format, args...)
}

// HTTPStatus maps a kind to the status code returned at the request boundary.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusForbidden
	case KindValidation:
		return http.StatusBadRequest
	case KindInsufficientFunds:
		return http.StatusPaymentRequired
	case KindProviderFailure:
		return http.StatusBadGateway
	case KindInvalidTransition, KindSeatsUnavailable, KindDuplicateActiveBooking,
		KindNotInEscrow, KindNotRefundable, KindAlreadyConfirmed, KindNotConfirmable,
		KindBookingNotPayable, KindPaymentAlreadyExists:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
