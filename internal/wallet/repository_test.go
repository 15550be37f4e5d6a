package wallet

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

func setupWalletMock(t *testing.T) (Repository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	repo := NewRepository(sqlxDB)

	closer := func() { sqlxDB.Close() }
	return repo, mock, closer
}

func walletRows(id, customerID int, balanceCents int64) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "customer_id", "balance_cents", "currency", "created_at", "updated_at"}).
		AddRow(id, customerID, balanceCents, "INR", time.Now(), time.Now())
}

func entryRows(id, walletID int, kind string, amount, before, after int64, reference string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "wallet_id", "kind", "amount_cents", "balance_before", "balance_after", "reference", "created_at"}).
		AddRow(id, walletID, kind, amount, before, after, reference, time.Now())
}

func TestGetOrCreateWallet_WhenNotExists(t *testing.T) {
	repo, mock, close := setupWalletMock(t)
	defer close()

	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM wallets WHERE customer_id = $1")).
		WithArgs(10).
		WillReturnError(sql.ErrNoRows)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO wallets (customer_id) VALUES ($1) RETURNING id, customer_id, balance_cents, currency, created_at, updated_at")).
		WithArgs(10).
		WillReturnRows(walletRows(5, 10, 0))

	w, err := repo.GetOrCreateWallet(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, 5, w.ID)
	require.Equal(t, int64(0), w.BalanceCents)
}

func TestCredit_Success(t *testing.T) {
	repo, mock, close := setupWalletMock(t)
	defer close()

	ctx := context.Background()

	mock.ExpectBegin()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, customer_id, balance_cents, currency, created_at, updated_at FROM wallets WHERE customer_id = $1 FOR UPDATE")).
		WithArgs(20).
		WillReturnRows(walletRows(7, 20, 2000))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE wallets SET balance_cents = $1, updated_at = NOW() WHERE id = $2")).
		WithArgs(int64(2500), 7).
		WillReturnResult(sqlmock.NewResult(0, 1))

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO wallet_transactions (wallet_id, kind, amount_cents, balance_before, balance_after, reference) VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, wallet_id, kind, amount_cents, balance_before, balance_after, reference, created_at")).
		WithArgs(7, KindCredit, int64(500), int64(2000), int64(2500), "topup:order_1").
		WillReturnRows(entryRows(1, 7, KindCredit, 500, 2000, 2500, "topup:order_1"))

	mock.ExpectCommit()

	entry, err := repo.Credit(ctx, 20, 500, "topup:order_1")
	require.NoError(t, err)
	require.Equal(t, int64(2000), entry.BalanceBefore)
	require.Equal(t, int64(2500), entry.BalanceAfter)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDebit_Success_ToZero(t *testing.T) {
	repo, mock, close := setupWalletMock(t)
	defer close()

	ctx := context.Background()

	mock.ExpectBegin()

	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs(20).
		WillReturnRows(walletRows(7, 20, 500))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE wallets SET balance_cents = $1, updated_at = NOW() WHERE id = $2")).
		WithArgs(int64(0), 7).
		WillReturnResult(sqlmock.NewResult(0, 1))

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO wallet_transactions")).
		WithArgs(7, KindDebit, int64(500), int64(500), int64(0), "booking:9").
		WillReturnRows(entryRows(2, 7, KindDebit, 500, 500, 0, "booking:9"))

	mock.ExpectCommit()

	entry, err := repo.Debit(ctx, 20, 500, "booking:9")
	require.NoError(t, err)
	require.Equal(t, int64(0), entry.BalanceAfter)
}

func TestDebit_InsufficientBalance_NoLedgerWrite(t *testing.T) {
	repo, mock, close := setupWalletMock(t)
	defer close()

	ctx := context.Background()

	mock.ExpectBegin()

	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs(20).
		WillReturnRows(walletRows(7, 20, 300))

	// No UPDATE and no INSERT expected: the failed debit must leave the
	// ledger untouched.
	mock.ExpectRollback()

	_, err := repo.Debit(ctx, 20, 500, "booking:9")
	require.Error(t, err)
	require.ErrorIs(t, err, ErrInsufficientBalance)

	var insufficient *InsufficientBalanceError
	require.True(t, errors.As(err, &insufficient))
	require.Equal(t, int64(500), insufficient.RequiredCents)
	require.Equal(t, int64(300), insufficient.AvailableCents)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDebit_RejectsNonPositiveAmount(t *testing.T) {
	repo, mock, close := setupWalletMock(t)
	defer close()

	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := repo.Debit(ctx, 20, 0, "noop")
	require.ErrorIs(t, err, ErrInvalidAmount)

	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err = repo.Credit(ctx, 20, -5, "noop")
	require.ErrorIs(t, err, ErrInvalidAmount)
}

func TestGetTransactions_EmptyWhenNoWallet(t *testing.T) {
	repo, mock, close := setupWalletMock(t)
	defer close()

	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM wallets WHERE customer_id = $1")).
		WithArgs(33).
		WillReturnError(sql.ErrNoRows)

	txs, err := repo.GetTransactions(ctx, 33, 10, 0)
	require.NoError(t, err)
	require.Empty(t, txs)
}

func TestGetTransactions_DefaultsLimit(t *testing.T) {
	repo, mock, close := setupWalletMock(t)
	defer close()

	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM wallets WHERE customer_id = $1")).
		WithArgs(20).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3")).
		WithArgs(7, 50, 0).
		WillReturnRows(entryRows(1, 7, KindCredit, 500, 0, 500, "topup:order_1"))

	txs, err := repo.GetTransactions(ctx, 20, 0, 0)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	require.Equal(t, KindCredit, txs[0].Kind)
}
