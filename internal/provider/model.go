package provider

import "time"

const (
	KindBarber = "barber"
	KindBeauty = "beauty"
	KindSalon  = "salon"
)

// Provider kinds are a plain tag; the core treats every kind identically.
type Provider struct {
	ID                    int       `db:"id" json:"id"`
	Name                  string    `db:"name" json:"name"`
	Kind                  string    `db:"kind" json:"kind"`
	Address               string    `db:"address" json:"address"`
	CommissionRatePercent int64     `db:"commission_rate_percent" json:"commission_rate_percent"`
	EarningsTodayCents    int64     `db:"earnings_today_cents" json:"earnings_today_cents"`
	EarningsMonthCents    int64     `db:"earnings_month_cents" json:"earnings_month_cents"`
	EarningsTotalCents    int64     `db:"earnings_total_cents" json:"earnings_total_cents"`
	Rating                float64   `db:"rating" json:"rating"`
	ReviewCount           int       `db:"review_count" json:"review_count"`
	Active                bool      `db:"active" json:"active"`
	CreatedAt             time.Time `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time `db:"updated_at" json:"updated_at"`
}

// PriceListItem is one entry of a provider's service catalogue.
type PriceListItem struct {
	ID          int       `db:"id" json:"id"`
	ProviderID  int       `db:"provider_id" json:"provider_id"`
	Name        string    `db:"name" json:"name"`
	PriceCents  int64     `db:"price_cents" json:"price_cents"`
	DurationMin int       `db:"duration_min" json:"duration_min"`
	Active      bool      `db:"active" json:"active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

type CreateProviderRequest struct {
	Name                  string `json:"name" binding:"required"`
	Kind                  string `json:"kind" binding:"required,oneof=barber beauty salon"`
	Address               string `json:"address"`
	CommissionRatePercent int64  `json:"commission_rate_percent" binding:"gte=0,lte=100"`
}

type CreatePriceListItemRequest struct {
	Name        string `json:"name" binding:"required"`
	PriceCents  int64  `json:"price_cents" binding:"required,gt=0"`
	DurationMin int    `json:"duration_min" binding:"required,gt=0"`
}
