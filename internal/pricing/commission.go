package pricing

import (
	"errors"

	"github.com/shopspring/decimal"
)

var ErrInvalidPricing = errors.New("invalid pricing input")

// Quote is the raw pricing input for a booking. All amounts are in cents.
type Quote struct {
	PriceCents            int64
	HomeServiceFeeCents   int64
	DiscountCents         int64
	CommissionRatePercent int64
}

// Breakdown is the derived split of a booking's total between platform and provider.
type Breakdown struct {
	TotalCents      int64 `json:"total_cents"`
	CommissionCents int64 `json:"commission_cents"`
	ProviderCents   int64 `json:"provider_cents"`
}

// Calculate derives the commission split for a quote.
// Rounding is half-up at cent granularity; commission + provider always equals total.
func Calculate(q Quote) (Breakdown, error) {
	if q.PriceCents < 0 || q.HomeServiceFeeCents < 0 || q.DiscountCents < 0 {
		return Breakdown{}, ErrInvalidPricing
	}
	if q.CommissionRatePercent < 0 || q.CommissionRatePercent > 100 {
		return Breakdown{}, ErrInvalidPricing
	}

	discount := q.DiscountCents
	if max := q.PriceCents + q.HomeServiceFeeCents; discount > max {
		discount = max
	}

	total := q.PriceCents + q.HomeServiceFeeCents - discount
	if total < 0 {
		return Breakdown{}, ErrInvalidPricing
	}

	commission := decimal.NewFromInt(total).
		Mul(decimal.NewFromInt(q.CommissionRatePercent)).
		Div(decimal.NewFromInt(100)).
		Round(0).
		IntPart()

	provider := total - commission
	if provider < 0 {
		provider = 0
	}

	return Breakdown{
		TotalCents:      total,
		CommissionCents: commission,
		ProviderCents:   provider,
	}, nil
}

// PointsFor returns the loyalty points earned for a paid total:
// ten points per major currency unit, rounded half-up.
func PointsFor(totalCents int64) int64 {
	if totalCents <= 0 {
		return 0
	}
	return decimal.NewFromInt(totalCents).
		Div(decimal.NewFromInt(10)).
		Round(0).
		IntPart()
}
