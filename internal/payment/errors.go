package payment

import "errors"

var (
	ErrMissingParameters  = errors.New("missing payment parameters")
	ErrSignatureMismatch  = errors.New("payment signature mismatch")
	ErrOrderNotFound      = errors.New("payment order not found")
	ErrOrderConsumed      = errors.New("payment order already consumed")
	ErrIntentExpired      = errors.New("payment intent expired")
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
)
