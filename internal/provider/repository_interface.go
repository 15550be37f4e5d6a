package provider

import (
	"context"

	"github.com/jmoiron/sqlx"
)

type Repository interface {
	Create(ctx context.Context, name, kind, address string, commissionRatePercent int64) (*Provider, error)
	GetByID(ctx context.Context, id int) (*Provider, error)
	GetAll(ctx context.Context) ([]Provider, error)
	AddPriceListItem(ctx context.Context, providerID int, name string, priceCents int64, durationMin int) (*PriceListItem, error)
	GetPriceListItem(ctx context.Context, providerID, itemID int) (*PriceListItem, error)
	GetPriceList(ctx context.Context, providerID int) ([]PriceListItem, error)
	DeactivatePriceListItem(ctx context.Context, providerID, itemID int) error
	CreditEarningsTx(ctx context.Context, tx *sqlx.Tx, providerID int, amountCents int64) error
}
