package wallet

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetOrCreateWallet(ctx context.Context, customerID int) (*Wallet, error) {
	w := &Wallet{}
	err := r.db.GetContext(ctx, w, `SELECT * FROM wallets WHERE customer_id = $1`, customerID)
	if err == nil {
		return w, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	err = r.db.QueryRowxContext(ctx,
		`INSERT INTO wallets (customer_id)
		 VALUES ($1)
		 RETURNING id, customer_id, balance_cents, currency, created_at, updated_at`,
		customerID,
	).StructScan(w)
	if err != nil {
		return nil, err
	}

	return w, nil
}

func (r *repository) Credit(ctx context.Context, customerID int, amountCents int64, reference string) (*Transaction, error) {
	return r.apply(ctx, customerID, KindCredit, amountCents, reference)
}

func (r *repository) Debit(ctx context.Context, customerID int, amountCents int64, reference string) (*Transaction, error) {
	return r.apply(ctx, customerID, KindDebit, amountCents, reference)
}

func (r *repository) apply(ctx context.Context, customerID int, kind string, amountCents int64, reference string) (*Transaction, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var entry *Transaction
	if kind == KindDebit {
		entry, err = r.DebitTx(ctx, tx, customerID, amountCents, reference)
	} else {
		entry, err = r.CreditTx(ctx, tx, customerID, amountCents, reference)
	}
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return entry, nil
}

func (r *repository) CreditTx(ctx context.Context, tx *sqlx.Tx, customerID int, amountCents int64, reference string) (*Transaction, error) {
	return appendEntry(ctx, tx, customerID, KindCredit, amountCents, reference)
}

func (r *repository) DebitTx(ctx context.Context, tx *sqlx.Tx, customerID int, amountCents int64, reference string) (*Transaction, error) {
	return appendEntry(ctx, tx, customerID, KindDebit, amountCents, reference)
}

// appendEntry is the single write path for the ledger: lock the wallet row,
// check the balance, update it, and append the transaction in one statement
// sequence so a failed debit never leaves a partial entry.
func appendEntry(ctx context.Context, tx *sqlx.Tx, customerID int, kind string, amountCents int64, reference string) (*Transaction, error) {
	if amountCents <= 0 {
		return nil, ErrInvalidAmount
	}

	w, err := lockWallet(ctx, tx, customerID)
	if err != nil {
		return nil, err
	}

	balanceBefore := w.BalanceCents
	var balanceAfter int64
	switch kind {
	case KindCredit:
		balanceAfter = balanceBefore + amountCents
	case KindDebit:
		if balanceBefore < amountCents {
			return nil, &InsufficientBalanceError{
				RequiredCents:  amountCents,
				AvailableCents: balanceBefore,
			}
		}
		balanceAfter = balanceBefore - amountCents
	default:
		return nil, errors.New("unknown transaction kind: " + kind)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE wallets
		 SET balance_cents = $1, updated_at = NOW()
		 WHERE id = $2`,
		balanceAfter, w.ID,
	)
	if err != nil {
		return nil, err
	}

	entry := &Transaction{}
	err = tx.QueryRowxContext(ctx,
		`INSERT INTO wallet_transactions (wallet_id, kind, amount_cents, balance_before, balance_after, reference)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, wallet_id, kind, amount_cents, balance_before, balance_after, reference, created_at`,
		w.ID, kind, amountCents, balanceBefore, balanceAfter, reference,
	).StructScan(entry)
	if err != nil {
		return nil, err
	}

	return entry, nil
}

func lockWallet(ctx context.Context, tx *sqlx.Tx, customerID int) (*Wallet, error) {
	var w Wallet
	err := tx.QueryRowxContext(ctx,
		`SELECT id, customer_id, balance_cents, currency, created_at, updated_at
		 FROM wallets
		 WHERE customer_id = $1
		 FOR UPDATE`,
		customerID,
	).StructScan(&w)
	if err == nil {
		return &w, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	err = tx.QueryRowxContext(ctx,
		`INSERT INTO wallets (customer_id)
		 VALUES ($1)
		 RETURNING id, customer_id, balance_cents, currency, created_at, updated_at`,
		customerID,
	).StructScan(&w)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *repository) GetTransactions(ctx context.Context, customerID int, limit, offset int) ([]Transaction, error) {
	if limit <= 0 {
		limit = 50
	}

	var walletID int
	err := r.db.GetContext(ctx, &walletID, `SELECT id FROM wallets WHERE customer_id = $1`, customerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return []Transaction{}, nil
		}
		return nil, err
	}

	var txs []Transaction
	err = r.db.SelectContext(ctx, &txs, `
		SELECT id, wallet_id, kind, amount_cents, balance_before, balance_after, reference, created_at
		FROM wallet_transactions
		WHERE wallet_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`, walletID, limit, offset)
	if err != nil {
		return nil, err
	}

	return txs, nil
}
