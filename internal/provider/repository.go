package provider

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

var (
	ErrProviderNotFound = errors.New("provider not found")
	ErrItemNotFound     = errors.New("price list item not found")
)

const providerColumns = `id, name, kind, address, commission_rate_percent, earnings_today_cents,
		earnings_month_cents, earnings_total_cents, rating, review_count, active, created_at, updated_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, name, kind, address string, commissionRatePercent int64) (*Provider, error) {
	var p Provider
	err := r.db.GetContext(ctx, &p, `
		INSERT INTO providers (name, kind, address, commission_rate_percent)
		VALUES ($1, $2, $3, $4)
		RETURNING `+providerColumns,
		name, kind, address, commissionRatePercent,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repository) GetByID(ctx context.Context, id int) (*Provider, error) {
	var p Provider
	err := r.db.GetContext(ctx, &p, `SELECT `+providerColumns+` FROM providers WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProviderNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *repository) GetAll(ctx context.Context) ([]Provider, error) {
	var providers []Provider
	err := r.db.SelectContext(ctx, &providers,
		`SELECT `+providerColumns+` FROM providers WHERE active = TRUE ORDER BY name`,
	)
	if err != nil {
		return nil, err
	}
	return providers, nil
}

func (r *repository) AddPriceListItem(ctx context.Context, providerID int, name string, priceCents int64, durationMin int) (*PriceListItem, error) {
	var item PriceListItem
	err := r.db.GetContext(ctx, &item, `
		INSERT INTO provider_services (provider_id, name, price_cents, duration_min)
		VALUES ($1, $2, $3, $4)
		RETURNING id, provider_id, name, price_cents, duration_min, active, created_at`,
		providerID, name, priceCents, durationMin,
	)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) GetPriceListItem(ctx context.Context, providerID, itemID int) (*PriceListItem, error) {
	var item PriceListItem
	err := r.db.GetContext(ctx, &item, `
		SELECT id, provider_id, name, price_cents, duration_min, active, created_at
		FROM provider_services
		WHERE id = $1 AND provider_id = $2 AND active = TRUE`,
		itemID, providerID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrItemNotFound
		}
		return nil, err
	}
	return &item, nil
}

func (r *repository) GetPriceList(ctx context.Context, providerID int) ([]PriceListItem, error) {
	var items []PriceListItem
	err := r.db.SelectContext(ctx, &items, `
		SELECT id, provider_id, name, price_cents, duration_min, active, created_at
		FROM provider_services
		WHERE provider_id = $1 AND active = TRUE
		ORDER BY name`,
		providerID,
	)
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) DeactivatePriceListItem(ctx context.Context, providerID, itemID int) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE provider_services SET active = FALSE WHERE id = $1 AND provider_id = $2 AND active = TRUE`,
		itemID, providerID,
	)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrItemNotFound
	}
	return nil
}

// CreditEarningsTx adds a completed booking's provider share to all three
// earning windows. Period resets are handled elsewhere.
func (r *repository) CreditEarningsTx(ctx context.Context, tx *sqlx.Tx, providerID int, amountCents int64) error {
	result, err := tx.ExecContext(ctx, `
		UPDATE providers
		SET earnings_today_cents = earnings_today_cents + $1,
		    earnings_month_cents = earnings_month_cents + $1,
		    earnings_total_cents = earnings_total_cents + $1,
		    updated_at = NOW()
		WHERE id = $2`,
		amountCents, providerID,
	)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrProviderNotFound
	}
	return nil
}
