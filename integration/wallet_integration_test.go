package integration_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zivadmn8866/ziva-oneroof/internal/wallet"
)

func TestWalletLedger_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	conn := setupTestDB(t)
	defer conn.Close()

	cleanDatabase(t, conn)

	repo := wallet.NewRepository(conn)
	ctx := context.Background()

	customerID := createTestCustomer(t, conn, "ledger@test.com", "Ledger User")

	w, err := repo.GetOrCreateWallet(ctx, customerID)
	require.NoError(t, err)
	require.Equal(t, customerID, w.CustomerID)
	require.Equal(t, int64(0), w.BalanceCents)

	// Credit, then debit, and check the balance chain links up.
	credit, err := repo.Credit(ctx, customerID, 50000, "topup:order_1")
	require.NoError(t, err)
	require.Equal(t, int64(0), credit.BalanceBefore)
	require.Equal(t, int64(50000), credit.BalanceAfter)

	debit, err := repo.Debit(ctx, customerID, 12500, "booking:1")
	require.NoError(t, err)
	require.Equal(t, int64(50000), debit.BalanceBefore)
	require.Equal(t, int64(37500), debit.BalanceAfter)

	w, err = repo.GetOrCreateWallet(ctx, customerID)
	require.NoError(t, err)
	require.Equal(t, int64(37500), w.BalanceCents)

	txns, err := repo.GetTransactions(ctx, customerID, 10, 0)
	require.NoError(t, err)
	require.Len(t, txns, 2)
}

func TestWalletInsufficientBalance_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	conn := setupTestDB(t)
	defer conn.Close()

	cleanDatabase(t, conn)

	repo := wallet.NewRepository(conn)
	ctx := context.Background()

	customerID := createTestCustomer(t, conn, "poor@test.com", "Poor User")

	_, err := repo.Credit(ctx, customerID, 300, "topup:order_1")
	require.NoError(t, err)

	_, err = repo.Debit(ctx, customerID, 5000, "booking:1")

	var insufficient *wallet.InsufficientBalanceError
	require.True(t, errors.As(err, &insufficient))
	require.Equal(t, int64(5000), insufficient.RequiredCents)
	require.Equal(t, int64(300), insufficient.AvailableCents)

	// The failed debit must leave no trace in the ledger.
	txns, err := repo.GetTransactions(ctx, customerID, 10, 0)
	require.NoError(t, err)
	require.Len(t, txns, 1)
}

func TestWalletConcurrentDebits_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	conn := setupTestDB(t)
	defer conn.Close()

	cleanDatabase(t, conn)

	repo := wallet.NewRepository(conn)
	ctx := context.Background()

	customerID := createTestCustomer(t, conn, "racer@test.com", "Racer User")

	// 10000 covers exactly three 3000-cent debits; the other two must
	// fail with InsufficientBalance no matter how the debits interleave.
	_, err := repo.Credit(ctx, customerID, 10000, "topup:order_1")
	require.NoError(t, err)

	const debits = 5
	errs := make([]error, debits)

	var wg sync.WaitGroup
	for i := 0; i < debits; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = repo.Debit(ctx, customerID, 3000, fmt.Sprintf("booking:%d", i))
		}(i)
	}
	wg.Wait()

	succeeded, rejected := 0, 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		var insufficient *wallet.InsufficientBalanceError
		require.True(t, errors.As(err, &insufficient), "unexpected debit error: %v", err)
		rejected++
	}
	require.Equal(t, 3, succeeded)
	require.Equal(t, 2, rejected)

	w, err := repo.GetOrCreateWallet(ctx, customerID)
	require.NoError(t, err)
	require.Equal(t, int64(1000), w.BalanceCents)

	// Replay the ledger from zero: each entry picks up where the
	// previous one left off and lands on the wallet balance.
	var entries []wallet.Transaction
	require.NoError(t, conn.Select(&entries, `
		SELECT id, wallet_id, kind, amount_cents, balance_before, balance_after, reference, created_at
		FROM wallet_transactions
		ORDER BY id`))
	require.Len(t, entries, 4)

	running := int64(0)
	for _, e := range entries {
		require.Equal(t, running, e.BalanceBefore)
		switch e.Kind {
		case wallet.KindCredit:
			running += e.AmountCents
		case wallet.KindDebit:
			running -= e.AmountCents
		}
		require.Equal(t, running, e.BalanceAfter)
	}
	require.Equal(t, w.BalanceCents, running)
}
