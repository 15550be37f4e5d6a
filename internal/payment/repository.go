package payment

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

const intentColumns = `id, order_id, payment_id, booking_id, topup_customer_id, amount_cents,
		currency, purpose, status, created_at, expires_at`

type Repository interface {
	CreateIntent(ctx context.Context, intent *Intent) (*Intent, error)
	GetByOrderID(ctx context.Context, orderID string) (*Intent, error)
	ConsumeTx(ctx context.Context, tx *sqlx.Tx, orderID, paymentID string) error
	DeleteExpired(ctx context.Context) (int64, error)
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateIntent(ctx context.Context, intent *Intent) (*Intent, error) {
	var created Intent
	err := r.db.GetContext(ctx, &created, `
		INSERT INTO payment_intents (order_id, booking_id, topup_customer_id, amount_cents, currency, purpose, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+intentColumns,
		intent.OrderID, intent.BookingID, intent.TopupCustomerID,
		intent.AmountCents, intent.Currency, intent.Purpose, intent.ExpiresAt,
	)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *repository) GetByOrderID(ctx context.Context, orderID string) (*Intent, error) {
	var intent Intent
	err := r.db.GetContext(ctx, &intent,
		`SELECT `+intentColumns+` FROM payment_intents WHERE order_id = $1`, orderID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &intent, nil
}

// ConsumeTx flips a pending intent to consumed and records which external
// payment consumed it. The (order_id, payment_id) pair is unique-constrained,
// so a second payment can never consume the same order.
func (r *repository) ConsumeTx(ctx context.Context, tx *sqlx.Tx, orderID, paymentID string) error {
	result, err := tx.ExecContext(ctx, `
		UPDATE payment_intents
		SET status = 'consumed', payment_id = $1
		WHERE order_id = $2 AND status = 'pending' AND expires_at > NOW()`,
		paymentID, orderID,
	)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		var current Intent
		err := tx.QueryRowxContext(ctx,
			`SELECT `+intentColumns+` FROM payment_intents WHERE order_id = $1`, orderID,
		).StructScan(&current)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrOrderNotFound
		}
		if err != nil {
			return err
		}
		if current.Status == IntentConsumed {
			return ErrOrderConsumed
		}
		if !current.ExpiresAt.After(time.Now()) {
			return ErrIntentExpired
		}
		return ErrOrderNotFound
	}

	return nil
}

// DeleteExpired garbage-collects intents that were never verified. They carry
// no financial effect, so deletion is safe.
func (r *repository) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM payment_intents WHERE status = 'pending' AND expires_at <= NOW()`,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
