package booking

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

const bookingColumns = `id, customer_id, provider_id, service_name, service_price_cents, service_duration_min,
		location_kind, price_cents, home_service_fee_cents, discount_cents, total_amount_cents,
		commission_cents, provider_amount_cents, status, payment_status, payment_method,
		transaction_reference, scheduled_at, created_at, updated_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, b *Booking) (*Booking, error) {
	query := `
		INSERT INTO bookings (
			customer_id, provider_id, service_name, service_price_cents, service_duration_min,
			location_kind, price_cents, home_service_fee_cents, discount_cents, total_amount_cents,
			commission_cents, provider_amount_cents, status, payment_status, scheduled_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, 'pending', 'unpaid', $13)
		RETURNING ` + bookingColumns

	var created Booking
	err := r.db.GetContext(ctx, &created, query,
		b.CustomerID, b.ProviderID, b.ServiceName, b.ServicePriceCents, b.ServiceDurationMin,
		b.LocationKind, b.PriceCents, b.HomeServiceFeeCents, b.DiscountCents, b.TotalAmountCents,
		b.CommissionCents, b.ProviderAmountCents, b.ScheduledAt,
	)
	if err != nil {
		return nil, err
	}

	return &created, nil
}

func (r *repository) GetByID(ctx context.Context, id int) (*Booking, error) {
	var b Booking
	err := r.db.GetContext(ctx, &b, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return &b, nil
}

// LockByIDTx reads the booking under FOR UPDATE so the caller can make a
// transition decision that holds until commit.
func (r *repository) LockByIDTx(ctx context.Context, tx *sqlx.Tx, id int) (*Booking, error) {
	var b Booking
	err := tx.QueryRowxContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = $1 FOR UPDATE`, id,
	).StructScan(&b)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id int, from, to string) error {
	return r.updateStatus(ctx, r.db, id, from, to)
}

func (r *repository) UpdateStatusTx(ctx context.Context, tx *sqlx.Tx, id int, from, to string) error {
	return r.updateStatus(ctx, tx, id, from, to)
}

// updateStatus performs a compare-and-set on the status column. A zero row
// count means the precondition no longer holds; the current row is re-read to
// report the exact rejected edge.
func (r *repository) updateStatus(ctx context.Context, ext sqlx.ExtContext, id int, from, to string) error {
	if err := ValidateTransition(from, to); err != nil {
		return err
	}

	result, err := ext.ExecContext(ctx,
		`UPDATE bookings SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`,
		to, id, from,
	)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		var current string
		err := sqlx.GetContext(ctx, ext, &current, `SELECT status FROM bookings WHERE id = $1`, id)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrBookingNotFound
		}
		if err != nil {
			return err
		}
		return &InvalidTransitionError{Field: "status", From: current, To: to}
	}

	return nil
}

// MarkPaidTx moves unpaid -> paid and records the payment method and external
// reference. The reference is written exactly once; a row that is already paid
// fails the precondition.
func (r *repository) MarkPaidTx(ctx context.Context, tx *sqlx.Tx, id int, method, reference string) error {
	result, err := tx.ExecContext(ctx,
		`UPDATE bookings
		 SET payment_status = 'paid', payment_method = $1, transaction_reference = $2, updated_at = NOW()
		 WHERE id = $3 AND payment_status = 'unpaid' AND transaction_reference IS NULL`,
		method, reference, id,
	)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		var current string
		err := tx.GetContext(ctx, &current, `SELECT payment_status FROM bookings WHERE id = $1`, id)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrBookingNotFound
		}
		if err != nil {
			return err
		}
		return &InvalidTransitionError{Field: "payment_status", From: current, To: PaymentPaid}
	}

	return nil
}

func (r *repository) MarkRefundedTx(ctx context.Context, tx *sqlx.Tx, id int) error {
	result, err := tx.ExecContext(ctx,
		`UPDATE bookings
		 SET payment_status = 'refunded', updated_at = NOW()
		 WHERE id = $1 AND payment_status = 'paid'`,
		id,
	)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		var current string
		err := tx.GetContext(ctx, &current, `SELECT payment_status FROM bookings WHERE id = $1`, id)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrBookingNotFound
		}
		if err != nil {
			return err
		}
		return &InvalidTransitionError{Field: "payment_status", From: current, To: PaymentRefunded}
	}

	return nil
}

func (r *repository) GetCustomerBookings(ctx context.Context, customerID int) ([]Booking, error) {
	var bookings []Booking
	err := r.db.SelectContext(ctx, &bookings,
		`SELECT `+bookingColumns+` FROM bookings WHERE customer_id = $1 ORDER BY created_at DESC`,
		customerID,
	)
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *repository) GetProviderBookings(ctx context.Context, providerID int) ([]Booking, error) {
	var bookings []Booking
	err := r.db.SelectContext(ctx, &bookings,
		`SELECT `+bookingColumns+` FROM bookings WHERE provider_id = $1 ORDER BY scheduled_at DESC, created_at DESC`,
		providerID,
	)
	if err != nil {
		return nil, err
	}
	return bookings, nil
}
