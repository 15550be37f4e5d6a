package payment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/zivadmn8866/ziva-oneroof/internal/booking"
	"github.com/zivadmn8866/ziva-oneroof/internal/coordinator"
	"github.com/zivadmn8866/ziva-oneroof/internal/notification"
	"github.com/zivadmn8866/ziva-oneroof/internal/wallet"
)

var ErrNotBookingOwner = errors.New("booking belongs to another customer")

// Coordinator is the slice of the transaction coordinator the payment flow
// needs. Implemented by coordinator.Coordinator.
type Coordinator interface {
	PayBookingWithWallet(ctx context.Context, customerID, bookingID int) (*coordinator.Result, error)
	ApplyGatewayPayment(ctx context.Context, in coordinator.GatewayPaymentInput) (*coordinator.Result, error)
	RefundBooking(ctx context.Context, bookingID int, refundExternal coordinator.RefundFunc) (*booking.Booking, error)
}

// Result is what a payment operation hands back to the HTTP layer: the
// updated booking or ledger entry for an applied payment, or the gateway
// order for a deferred one. The booking is carried as a view so the
// payment method and transaction reference survive serialization.
type Result struct {
	Booking           *booking.BookingView `json:"booking,omitempty"`
	WalletTransaction *wallet.Transaction  `json:"wallet_transaction,omitempty"`
	Order             *OrderResponse       `json:"order,omitempty"`
	AlreadyProcessed  bool                 `json:"already_processed,omitempty"`
}

func bookingView(b *booking.Booking) *booking.BookingView {
	if b == nil {
		return nil
	}
	v := b.View()
	return &v
}

type Service interface {
	RequestBookingPayment(ctx context.Context, customerID, bookingID int, method string) (*Result, error)
	RequestTopUp(ctx context.Context, customerID int, amountCents int64) (*Result, error)
	Verify(ctx context.Context, req VerifyRequest) (*Result, error)
	Refund(ctx context.Context, bookingID int) (*booking.Booking, error)
}

type service struct {
	repo        Repository
	gateway     Gateway
	coord       Coordinator
	bookingRepo booking.Repository
	notifier    *notification.Publisher

	secret    string
	currency  string
	intentTTL time.Duration
}

func NewService(
	repo Repository,
	gateway Gateway,
	coord Coordinator,
	bookingRepo booking.Repository,
	notifier *notification.Publisher,
	gatewaySecret string,
	intentTTL time.Duration,
) Service {
	return &service{
		repo:        repo,
		gateway:     gateway,
		coord:       coord,
		bookingRepo: bookingRepo,
		notifier:    notifier,
		secret:      gatewaySecret,
		currency:    "INR",
		intentTTL:   intentTTL,
	}
}

func (s *service) RequestBookingPayment(ctx context.Context, customerID, bookingID int, method string) (*Result, error) {
	switch method {
	case booking.MethodWallet:
		res, err := s.coord.PayBookingWithWallet(ctx, customerID, bookingID)
		if err != nil {
			return nil, err
		}
		if res.Booking != nil {
			s.notifier.PublishBookingStatus(ctx, res.Booking.ID, "paid")
		}
		return &Result{
			Booking:           bookingView(res.Booking),
			WalletTransaction: res.WalletTransaction,
			AlreadyProcessed:  res.AlreadyProcessed,
		}, nil

	case booking.MethodGateway:
		return s.createBookingOrder(ctx, customerID, bookingID)

	default:
		return nil, ErrMissingParameters
	}
}

// createBookingOrder asks the gateway for an order handle and records the
// pending intent. Nothing financial moves locally until Verify.
func (s *service) createBookingOrder(ctx context.Context, customerID, bookingID int) (*Result, error) {
	b, err := s.bookingRepo.GetByID(ctx, bookingID)
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

	receipt := fmt.Sprintf("booking-%d-%s", bookingID, uuid.NewString()[:8])
	order, err := s.gateway.CreateOrder(ctx, b.TotalAmountCents, s.currency, receipt)
	if err != nil {
		return nil, err
	}

	intent := &Intent{
		OrderID:     order.ID,
		BookingID:   sql.NullInt64{Int64: int64(bookingID), Valid: true},
		AmountCents: b.TotalAmountCents,
		Currency:    s.currency,
		Purpose:     PurposeBookingPayment,
		ExpiresAt:   time.Now().Add(s.intentTTL),
	}
	if _, err := s.repo.CreateIntent(ctx, intent); err != nil {
		return nil, err
	}

	return &Result{
		Order: &OrderResponse{
			OrderID:     order.ID,
			AmountCents: b.TotalAmountCents,
			Currency:    s.currency,
			Purpose:     PurposeBookingPayment,
		},
	}, nil
}

func (s *service) RequestTopUp(ctx context.Context, customerID int, amountCents int64) (*Result, error) {
	if amountCents <= 0 {
		return nil, wallet.ErrInvalidAmount
	}

	receipt := fmt.Sprintf("topup-%d-%s", customerID, uuid.NewString()[:8])
	order, err := s.gateway.CreateOrder(ctx, amountCents, s.currency, receipt)
	if err != nil {
		return nil, err
	}

	intent := &Intent{
		OrderID:         order.ID,
		TopupCustomerID: sql.NullInt64{Int64: int64(customerID), Valid: true},
		AmountCents:     amountCents,
		Currency:        s.currency,
		Purpose:         PurposeWalletTopup,
		ExpiresAt:       time.Now().Add(s.intentTTL),
	}
	if _, err := s.repo.CreateIntent(ctx, intent); err != nil {
		return nil, err
	}

	return &Result{
		Order: &OrderResponse{
			OrderID:     order.ID,
			AmountCents: amountCents,
			Currency:    s.currency,
			Purpose:     PurposeWalletTopup,
		},
	}, nil
}

// Verify is the sole authority that a gateway payment is genuine. The
// signature is recomputed locally; a client claiming success is never
// trusted. Replays of the same (orderID, paymentID) pair return the first
// outcome without re-applying any financial effect.
func (s *service) Verify(ctx context.Context, req VerifyRequest) (*Result, error) {
	if req.OrderID == "" || req.PaymentID == "" || req.Signature == "" {
		return nil, ErrMissingParameters
	}

	intent, err := s.repo.GetByOrderID(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}

	if !VerifySignature(req.OrderID, req.PaymentID, req.Signature, s.secret) {
		return nil, ErrSignatureMismatch
	}

	in := coordinator.GatewayPaymentInput{
		OrderID:     req.OrderID,
		PaymentID:   req.PaymentID,
		Purpose:     intent.Purpose,
		AmountCents: intent.AmountCents,
	}
	if intent.BookingID.Valid {
		in.BookingID = int(intent.BookingID.Int64)
	}
	if intent.TopupCustomerID.Valid {
		in.TopupCustomerID = int(intent.TopupCustomerID.Int64)
	}

	res, err := s.coord.ApplyGatewayPayment(ctx, in)
	if err != nil {
		return nil, err
	}

	if res.Booking != nil && !res.AlreadyProcessed {
		s.notifier.PublishBookingStatus(ctx, res.Booking.ID, "paid")
	}

	return &Result{
		Booking:           bookingView(res.Booking),
		WalletTransaction: res.WalletTransaction,
		AlreadyProcessed:  res.AlreadyProcessed,
	}, nil
}

// Refund reverses a paid booking. A wallet payment is credited back as store
// balance; a gateway payment is refunded at the gateway from inside the
// coordinator's refund transaction, after the refund key has been claimed,
// and memoized across its retry attempts, so one payment is never refunded
// twice at the gateway.
func (s *service) Refund(ctx context.Context, bookingID int) (*booking.Booking, error) {
	var refundID string
	refundOnce := func(ctx context.Context, reference string, amountCents int64) (string, error) {
		if refundID != "" {
			return refundID, nil
		}
		id, err := s.gateway.Refund(ctx, reference, amountCents)
		if err != nil {
			return "", err
		}
		refundID = id
		return id, nil
	}

	refunded, err := s.coord.RefundBooking(ctx, bookingID, refundOnce)
	if err != nil {
		if errors.Is(err, coordinator.ErrNoPaymentReference) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	s.notifier.PublishBookingStatus(ctx, bookingID, refunded.Status)
	return refunded, nil
}
