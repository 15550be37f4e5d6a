// Package coordinator applies every multi-entity mutation of the platform as
// one database transaction keyed for idempotency: wallet ledger, booking
// payment state, provider earnings and customer loyalty never move apart.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/zivadmn8866/ziva-oneroof/internal/booking"
	"github.com/zivadmn8866/ziva-oneroof/internal/customer"
	"github.com/zivadmn8866/ziva-oneroof/internal/logger"
	"github.com/zivadmn8866/ziva-oneroof/internal/metrics"
	"github.com/zivadmn8866/ziva-oneroof/internal/pricing"
	"github.com/zivadmn8866/ziva-oneroof/internal/provider"
	"github.com/zivadmn8866/ziva-oneroof/internal/wallet"
)

var (
	ErrConcurrencyConflict = errors.New("concurrent update conflict")
	ErrNotBookingOwner     = errors.New("booking belongs to another customer")
	ErrNoPaymentReference  = errors.New("gateway-paid booking has no transaction reference")
)

const (
	maxRetries   = 3
	retryBackoff = 25 * time.Millisecond
)

const (
	PurposeBookingPayment = "booking_payment"
	PurposeWalletTopup    = "wallet_topup"
)

// Result is the durable outcome of a coordinated operation. It is stored
// alongside the idempotency key so replays observe the first execution.
type Result struct {
	Booking           *booking.Booking    `json:"booking,omitempty"`
	WalletTransaction *wallet.Transaction `json:"wallet_transaction,omitempty"`
	AlreadyProcessed  bool                `json:"-"`
}

// GatewayPaymentInput describes a verified gateway confirmation to apply.
// Exactly one of BookingID / TopupCustomerID is set, matching the purpose.
type GatewayPaymentInput struct {
	OrderID         string
	PaymentID       string
	Purpose         string
	BookingID       int
	TopupCustomerID int
	AmountCents     int64
}

// IntentConsumer marks a payment intent consumed inside the operation's
// transaction. Implemented by the payment package.
type IntentConsumer interface {
	ConsumeTx(ctx context.Context, tx *sqlx.Tx, orderID, paymentID string) error
}

type Coordinator struct {
	db           *sqlx.DB
	bookingRepo  booking.Repository
	walletRepo   wallet.Repository
	providerRepo provider.Repository
	customerRepo customer.Repository
	intents      IntentConsumer
}

func New(
	db *sqlx.DB,
	bookingRepo booking.Repository,
	walletRepo wallet.Repository,
	providerRepo provider.Repository,
	customerRepo customer.Repository,
	intents IntentConsumer,
) *Coordinator {
	return &Coordinator{
		db:           db,
		bookingRepo:  bookingRepo,
		walletRepo:   walletRepo,
		providerRepo: providerRepo,
		customerRepo: customerRepo,
		intents:      intents,
	}
}

// PayBookingWithWallet debits the customer's wallet and marks the booking paid
// in a single transaction. Replays return the first outcome.
func (c *Coordinator) PayBookingWithWallet(ctx context.Context, customerID, bookingID int) (*Result, error) {
	key := fmt.Sprintf("booking:%d:wallet_pay", bookingID)

	res, err := c.run(ctx, key, func(tx *sqlx.Tx) (*Result, error) {
		b, err := c.bookingRepo.LockByIDTx(ctx, tx, bookingID)
		if err != nil {
			return nil, err
		}
		if b.CustomerID != customerID {
			return nil, ErrNotBookingOwner
		}
		if b.Status == booking.StatusCancelled {
			return nil, &booking.InvalidTransitionError{Field: "status", From: b.Status, To: b.Status}
		}
		if err := booking.ValidatePaymentTransition(b.PaymentStatus, booking.PaymentPaid); err != nil {
			return nil, err
		}

		reference := "wtx-" + uuid.NewString()
		entry, err := c.walletRepo.DebitTx(ctx, tx, customerID, b.TotalAmountCents, fmt.Sprintf("booking:%d", bookingID))
		if err != nil {
			return nil, err
		}

		if err := c.bookingRepo.MarkPaidTx(ctx, tx, bookingID, booking.MethodWallet, reference); err != nil {
			return nil, err
		}

		paid, err := c.bookingRepo.LockByIDTx(ctx, tx, bookingID)
		if err != nil {
			return nil, err
		}

		return &Result{Booking: paid, WalletTransaction: entry}, nil
	})
	if err != nil {
		return nil, err
	}

	if !res.AlreadyProcessed {
		metrics.RecordPayment("wallet", "success")
	}
	return res, nil
}

// ApplyGatewayPayment consumes a verified payment intent and applies its
// financial effect: a booking becomes paid, or a wallet top-up is credited.
func (c *Coordinator) ApplyGatewayPayment(ctx context.Context, in GatewayPaymentInput) (*Result, error) {
	key := fmt.Sprintf("%s:%s", in.OrderID, in.PaymentID)

	res, err := c.run(ctx, key, func(tx *sqlx.Tx) (*Result, error) {
		if err := c.intents.ConsumeTx(ctx, tx, in.OrderID, in.PaymentID); err != nil {
			return nil, err
		}

		switch in.Purpose {
		case PurposeBookingPayment:
			b, err := c.bookingRepo.LockByIDTx(ctx, tx, in.BookingID)
			if err != nil {
				return nil, err
			}
			if err := booking.ValidatePaymentTransition(b.PaymentStatus, booking.PaymentPaid); err != nil {
				return nil, err
			}
			if err := c.bookingRepo.MarkPaidTx(ctx, tx, in.BookingID, booking.MethodGateway, in.PaymentID); err != nil {
				return nil, err
			}
			paid, err := c.bookingRepo.LockByIDTx(ctx, tx, in.BookingID)
			if err != nil {
				return nil, err
			}
			return &Result{Booking: paid}, nil

		case PurposeWalletTopup:
			entry, err := c.walletRepo.CreditTx(ctx, tx, in.TopupCustomerID, in.AmountCents, "topup:"+in.OrderID)
			if err != nil {
				return nil, err
			}
			return &Result{WalletTransaction: entry}, nil

		default:
			return nil, fmt.Errorf("unknown payment purpose: %s", in.Purpose)
		}
	})
	if err != nil {
		return nil, err
	}

	if !res.AlreadyProcessed {
		metrics.RecordPayment("gateway", "success")
	}
	return res, nil
}

// CompleteBooking moves the booking to completed and credits the provider's
// earnings and the customer's loyalty points, all exactly once. A confirmed
// booking passes through in_progress within the same transaction.
func (c *Coordinator) CompleteBooking(ctx context.Context, bookingID int) (*booking.Booking, error) {
	key := fmt.Sprintf("booking:%d:complete", bookingID)

	res, err := c.run(ctx, key, func(tx *sqlx.Tx) (*Result, error) {
		b, err := c.bookingRepo.LockByIDTx(ctx, tx, bookingID)
		if err != nil {
			return nil, err
		}

		current := b.Status
		if current == booking.StatusConfirmed {
			if err := c.bookingRepo.UpdateStatusTx(ctx, tx, bookingID, current, booking.StatusInProgress); err != nil {
				return nil, err
			}
			current = booking.StatusInProgress
		}
		if err := c.bookingRepo.UpdateStatusTx(ctx, tx, bookingID, current, booking.StatusCompleted); err != nil {
			return nil, err
		}

		if err := c.providerRepo.CreditEarningsTx(ctx, tx, b.ProviderID, b.ProviderAmountCents); err != nil {
			return nil, err
		}

		points := pricing.PointsFor(b.TotalAmountCents)
		if err := c.customerRepo.AddLoyaltyPointsTx(ctx, tx, b.CustomerID, points); err != nil {
			return nil, err
		}

		done, err := c.bookingRepo.LockByIDTx(ctx, tx, bookingID)
		if err != nil {
			return nil, err
		}
		return &Result{Booking: done}, nil
	})
	if err != nil {
		return nil, err
	}

	if !res.AlreadyProcessed {
		metrics.RecordBooking(booking.StatusCompleted, paymentMethodLabel(res.Booking))
	}
	return res.Booking, nil
}

// RefundFunc performs the external gateway refund for a payment reference and
// returns the gateway's refund id.
type RefundFunc func(ctx context.Context, reference string, amountCents int64) (string, error)

// RefundBooking reverses a paid booking: payment moves to refunded and a
// not-yet-started booking is cancelled in the same step. A wallet payment is
// credited back to the customer's wallet; a gateway payment is returned at the
// gateway via refundExternal, invoked only after this transaction has claimed
// the refund key. A concurrent refund blocks on the key and then observes the
// stored result, so the gateway is never called twice for the same booking.
// refundExternal failing aborts the transaction before any local state moves.
func (c *Coordinator) RefundBooking(ctx context.Context, bookingID int, refundExternal RefundFunc) (*booking.Booking, error) {
	key := fmt.Sprintf("booking:%d:refund", bookingID)

	res, err := c.run(ctx, key, func(tx *sqlx.Tx) (*Result, error) {
		b, err := c.bookingRepo.LockByIDTx(ctx, tx, bookingID)
		if err != nil {
			return nil, err
		}
		if err := booking.ValidatePaymentTransition(b.PaymentStatus, booking.PaymentRefunded); err != nil {
			return nil, err
		}

		gatewayPaid := b.PaymentMethod.Valid && b.PaymentMethod.String == booking.MethodGateway
		if gatewayPaid {
			if !b.TransactionReference.Valid {
				return nil, ErrNoPaymentReference
			}
			if _, err := refundExternal(ctx, b.TransactionReference.String, b.TotalAmountCents); err != nil {
				return nil, err
			}
		}

		if err := c.bookingRepo.MarkRefundedTx(ctx, tx, bookingID); err != nil {
			return nil, err
		}

		var entry *wallet.Transaction
		if !gatewayPaid {
			entry, err = c.walletRepo.CreditTx(ctx, tx, b.CustomerID, b.TotalAmountCents, fmt.Sprintf("refund:%d", bookingID))
			if err != nil {
				return nil, err
			}
		}

		if booking.CanTransition(b.Status, booking.StatusCancelled) {
			if err := c.bookingRepo.UpdateStatusTx(ctx, tx, bookingID, b.Status, booking.StatusCancelled); err != nil {
				return nil, err
			}
		}

		refunded, err := c.bookingRepo.LockByIDTx(ctx, tx, bookingID)
		if err != nil {
			return nil, err
		}
		return &Result{Booking: refunded, WalletTransaction: entry}, nil
	})
	if err != nil {
		return nil, err
	}

	if !res.AlreadyProcessed {
		metrics.RecordRefund()
	}
	return res.Booking, nil
}

// run executes op as one transaction under the idempotency key, retrying a
// bounded number of times on serialization conflicts. A key that was already
// committed short-circuits to its stored result.
func (c *Coordinator) run(ctx context.Context, key string, op func(tx *sqlx.Tx) (*Result, error)) (*Result, error) {
	if cached, err := fetchResult(ctx, c.db, key); err != nil {
		return nil, err
	} else if cached != nil {
		return cached, nil
	}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(retryBackoff << uint(attempt-1)):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		res, err := c.attempt(ctx, key, op)
		if err == nil {
			return res, nil
		}
		if !isRetryable(err) {
			return nil, err
		}

		logger.Debugf("coordinated operation %s hit a conflict, retrying: %v", key, err)
		lastErr = err
	}

	logger.Errorf("coordinated operation %s gave up after %d attempts: %v", key, maxRetries, lastErr)
	return nil, ErrConcurrencyConflict
}

func (c *Coordinator) attempt(ctx context.Context, key string, op func(tx *sqlx.Tx) (*Result, error)) (*Result, error) {
	tx, err := c.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	claimed, err := claimKey(ctx, tx, key)
	if err != nil {
		return nil, err
	}
	if !claimed {
		// A racer committed first; surface its result.
		if err := tx.Rollback(); err != nil {
			return nil, err
		}
		cached, err := fetchResult(ctx, c.db, key)
		if err != nil {
			return nil, err
		}
		if cached == nil {
			return nil, ErrConcurrencyConflict
		}
		return cached, nil
	}

	res, err := op(tx)
	if err != nil {
		return nil, err
	}

	if err := storeResult(ctx, tx, key, res); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return res, nil
}

// isRetryable matches postgres serialization and deadlock failures.
func isRetryable(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "40001" || pqErr.Code == "40P01"
	}
	return false
}

func paymentMethodLabel(b *booking.Booking) string {
	if b != nil && b.PaymentMethod.Valid {
		return b.PaymentMethod.String
	}
	return "none"
}
