package wallet

import (
	"errors"
	"fmt"
)

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidAmount       = errors.New("amount must be positive")
)

// InsufficientBalanceError carries the required vs available balance so
// handlers can render a specific message.
type InsufficientBalanceError struct {
	RequiredCents  int64
	AvailableCents int64
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: required %d, available %d", e.RequiredCents, e.AvailableCents)
}

func (e *InsufficientBalanceError) Unwrap() error {
	return ErrInsufficientBalance
}
