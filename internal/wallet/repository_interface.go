package wallet

import (
	"context"

	"github.com/jmoiron/sqlx"
)

type Repository interface {
	GetOrCreateWallet(ctx context.Context, customerID int) (*Wallet, error)
	Credit(ctx context.Context, customerID int, amountCents int64, reference string) (*Transaction, error)
	Debit(ctx context.Context, customerID int, amountCents int64, reference string) (*Transaction, error)
	CreditTx(ctx context.Context, tx *sqlx.Tx, customerID int, amountCents int64, reference string) (*Transaction, error)
	DebitTx(ctx context.Context, tx *sqlx.Tx, customerID int, amountCents int64, reference string) (*Transaction, error)
	GetTransactions(ctx context.Context, customerID int, limit, offset int) ([]Transaction, error)
}
