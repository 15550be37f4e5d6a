package wallet

import "time"

type Wallet struct {
	ID           int       `db:"id" json:"id"`
	CustomerID   int       `db:"customer_id" json:"customer_id"`
	BalanceCents int64     `db:"balance_cents" json:"balance_cents"`
	Currency     string    `db:"currency" json:"currency"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

const (
	KindCredit = "credit"
	KindDebit  = "debit"
)

// Transaction is an append-only ledger entry. Amounts are positive; the kind
// carries the direction. balance_after = balance_before + signed amount.
type Transaction struct {
	ID            int       `db:"id" json:"id"`
	WalletID      int       `db:"wallet_id" json:"wallet_id"`
	Kind          string    `db:"kind" json:"kind"`
	AmountCents   int64     `db:"amount_cents" json:"amount_cents"`
	BalanceBefore int64     `db:"balance_before" json:"balance_before"`
	BalanceAfter  int64     `db:"balance_after" json:"balance_after"`
	Reference     string    `db:"reference" json:"reference"` // booking:42, topup:<order>, refund:42
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// Signed returns the amount with its direction applied.
func (t *Transaction) Signed() int64 {
	if t.Kind == KindDebit {
		return -t.AmountCents
	}
	return t.AmountCents
}
