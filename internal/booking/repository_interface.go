package booking

import (
	"context"

	"github.com/jmoiron/sqlx"
)

type Repository interface {
	Create(ctx context.Context, b *Booking) (*Booking, error)
	GetByID(ctx context.Context, id int) (*Booking, error)
	LockByIDTx(ctx context.Context, tx *sqlx.Tx, id int) (*Booking, error)
	UpdateStatus(ctx context.Context, id int, from, to string) error
	UpdateStatusTx(ctx context.Context, tx *sqlx.Tx, id int, from, to string) error
	MarkPaidTx(ctx context.Context, tx *sqlx.Tx, id int, method, reference string) error
	MarkRefundedTx(ctx context.Context, tx *sqlx.Tx, id int) error
	GetCustomerBookings(ctx context.Context, customerID int) ([]Booking, error)
	GetProviderBookings(ctx context.Context, providerID int) ([]Booking, error)
}
