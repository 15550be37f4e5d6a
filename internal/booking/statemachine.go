package booking

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidTransition = errors.New("invalid booking transition")
	ErrBookingNotFound   = errors.New("booking not found")
)

// InvalidTransitionError reports the exact rejected edge.
type InvalidTransitionError struct {
	Field string // "status" or "payment_status"
	From  string
	To    string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid %s transition: %s -> %s", e.Field, e.From, e.To)
}

func (e *InvalidTransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// statusTransitions is the full lifecycle table. completed and cancelled are
// terminal: they have no outgoing edges.
var statusTransitions = map[string][]string{
	StatusPending:    {StatusConfirmed, StatusCancelled},
	StatusConfirmed:  {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted},
	StatusCompleted:  {},
	StatusCancelled:  {},
}

var paymentTransitions = map[string][]string{
	PaymentUnpaid:   {PaymentPaid},
	PaymentPaid:     {PaymentRefunded},
	PaymentRefunded: {},
}

func CanTransition(from, to string) bool {
	for _, next := range statusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func CanPaymentTransition(from, to string) bool {
	for _, next := range paymentTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidateTransition returns a typed error for a rejected status edge.
func ValidateTransition(from, to string) error {
	if !CanTransition(from, to) {
		return &InvalidTransitionError{Field: "status", From: from, To: to}
	}
	return nil
}

func ValidatePaymentTransition(from, to string) error {
	if !CanPaymentTransition(from, to) {
		return &InvalidTransitionError{Field: "payment_status", From: from, To: to}
	}
	return nil
}

// CanCancel reports whether a booking may be cancelled directly. A paid
// booking must go through the refund path first.
func (b *Booking) CanCancel() bool {
	return CanTransition(b.Status, StatusCancelled) && b.PaymentStatus == PaymentUnpaid
}
