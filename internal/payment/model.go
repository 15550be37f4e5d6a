package payment

import (
	"database/sql"
	"time"
)

const (
	PurposeBookingPayment = "booking_payment"
	PurposeWalletTopup    = "wallet_topup"
)

const (
	IntentPending  = "pending"
	IntentConsumed = "consumed"
)

// Intent is the pending bridge between a gateway order and local state. No
// wallet or booking mutation happens until the order is verified; an intent
// that never verifies just expires.
type Intent struct {
	ID              int            `db:"id" json:"id"`
	OrderID         string         `db:"order_id" json:"order_id"`
	PaymentID       sql.NullString `db:"payment_id" json:"-"`
	BookingID       sql.NullInt64  `db:"booking_id" json:"-"`
	TopupCustomerID sql.NullInt64  `db:"topup_customer_id" json:"-"`
	AmountCents     int64          `db:"amount_cents" json:"amount_cents"`
	Currency        string         `db:"currency" json:"currency"`
	Purpose         string         `db:"purpose" json:"purpose"`
	Status          string         `db:"status" json:"status"`
	CreatedAt       time.Time      `db:"created_at" json:"created_at"`
	ExpiresAt       time.Time      `db:"expires_at" json:"expires_at"`
}

type RequestPaymentRequest struct {
	Method string `json:"method" binding:"required,oneof=wallet gateway"`
}

type TopUpRequest struct {
	AmountCents int64 `json:"amount_cents" binding:"required,gt=0"`
}

type VerifyRequest struct {
	OrderID   string `json:"order_id" binding:"required"`
	PaymentID string `json:"payment_id" binding:"required"`
	Signature string `json:"signature" binding:"required"`
}

// OrderResponse is returned when a gateway flow is initiated; the client hands
// the order to the gateway checkout and comes back through Verify.
type OrderResponse struct {
	OrderID     string `json:"order_id"`
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
	Purpose     string `json:"purpose"`
}
