package booking

import (
	"database/sql"
	"time"
)

const (
	StatusPending    = "pending"
	StatusConfirmed  = "confirmed"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

const (
	PaymentUnpaid   = "unpaid"
	PaymentPaid     = "paid"
	PaymentRefunded = "refunded"
)

const (
	MethodWallet  = "wallet"
	MethodGateway = "gateway"
)

const (
	LocationAtProvider = "at_provider"
	LocationAtCustomer = "at_customer"
)

// Booking carries a snapshot of the provider's service taken at creation time,
// so later price-list edits never change an existing booking.
type Booking struct {
	ID         int `db:"id" json:"id"`
	CustomerID int `db:"customer_id" json:"customer_id"`
	ProviderID int `db:"provider_id" json:"provider_id"`

	ServiceName        string `db:"service_name" json:"service_name"`
	ServicePriceCents  int64  `db:"service_price_cents" json:"service_price_cents"`
	ServiceDurationMin int    `db:"service_duration_min" json:"service_duration_min"`

	LocationKind string `db:"location_kind" json:"location_kind"`

	PriceCents          int64 `db:"price_cents" json:"price_cents"`
	HomeServiceFeeCents int64 `db:"home_service_fee_cents" json:"home_service_fee_cents"`
	DiscountCents       int64 `db:"discount_cents" json:"discount_cents"`
	TotalAmountCents    int64 `db:"total_amount_cents" json:"total_amount_cents"`
	CommissionCents     int64 `db:"commission_cents" json:"commission_cents"`
	ProviderAmountCents int64 `db:"provider_amount_cents" json:"provider_amount_cents"`

	Status               string         `db:"status" json:"status"`
	PaymentStatus        string         `db:"payment_status" json:"payment_status"`
	PaymentMethod        sql.NullString `db:"payment_method" json:"-"`
	TransactionReference sql.NullString `db:"transaction_reference" json:"-"`

	ScheduledAt time.Time `db:"scheduled_at" json:"scheduled_at"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

type CreateBookingRequest struct {
	ProviderID    int       `json:"provider_id" binding:"required"`
	ServiceID     int       `json:"service_id" binding:"required"`
	LocationKind  string    `json:"location_kind" binding:"required,oneof=at_provider at_customer"`
	DiscountCents int64     `json:"discount_cents" binding:"gte=0"`
	ScheduledAt   time.Time `json:"scheduled_at" binding:"required"`
}

type BookingView struct {
	Booking
	PaymentMethodView        string `json:"payment_method,omitempty"`
	TransactionReferenceView string `json:"transaction_reference,omitempty"`
}

// View resolves nullable columns into plain JSON fields.
func (b *Booking) View() BookingView {
	v := BookingView{Booking: *b}
	if b.PaymentMethod.Valid {
		v.PaymentMethodView = b.PaymentMethod.String
	}
	if b.TransactionReference.Valid {
		v.TransactionReferenceView = b.TransactionReference.String
	}
	return v
}
