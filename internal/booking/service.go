package booking

import (
	"context"
	"errors"
	"time"

	"github.com/zivadmn8866/ziva-oneroof/internal/metrics"
	"github.com/zivadmn8866/ziva-oneroof/internal/notification"
	"github.com/zivadmn8866/ziva-oneroof/internal/pricing"
	"github.com/zivadmn8866/ziva-oneroof/internal/provider"
)

var (
	ErrNotBookingOwner     = errors.New("booking belongs to another customer")
	ErrPaidNeedsRefund     = errors.New("paid booking must be refunded before cancellation")
	ErrScheduledInPast     = errors.New("cannot book a time in the past")
	ErrServiceNotAvailable = errors.New("service is not available from this provider")
)

// Completer is the coordinator operation that finishes a booking: the status
// move, provider earnings and customer loyalty are applied as one unit.
type Completer interface {
	CompleteBooking(ctx context.Context, bookingID int) (*Booking, error)
}

type Service interface {
	Create(ctx context.Context, customerID int, req CreateBookingRequest) (*Booking, error)
	Accept(ctx context.Context, bookingID int) (*Booking, error)
	Start(ctx context.Context, bookingID int) (*Booking, error)
	Complete(ctx context.Context, bookingID int) (*Booking, error)
	Cancel(ctx context.Context, customerID, bookingID int) (*Booking, error)
	GetByID(ctx context.Context, id int) (*Booking, error)
	GetCustomerBookings(ctx context.Context, customerID int) ([]Booking, error)
	GetProviderBookings(ctx context.Context, providerID int) ([]Booking, error)
}

type service struct {
	repo         Repository
	providerRepo provider.Repository
	completer    Completer
	notifier     *notification.Publisher

	homeServiceFeeCents int64
}

func NewService(
	repo Repository,
	providerRepo provider.Repository,
	completer Completer,
	notifier *notification.Publisher,
	homeServiceFeeCents int64,
) Service {
	return &service{
		repo:                repo,
		providerRepo:        providerRepo,
		completer:           completer,
		notifier:            notifier,
		homeServiceFeeCents: homeServiceFeeCents,
	}
}

func (s *service) Create(ctx context.Context, customerID int, req CreateBookingRequest) (*Booking, error) {
	if req.ScheduledAt.Before(time.Now()) {
		return nil, ErrScheduledInPast
	}

	prov, err := s.providerRepo.GetByID(ctx, req.ProviderID)
	if err != nil {
		return nil, err
	}
	if !prov.Active {
		return nil, provider.ErrProviderNotFound
	}

	item, err := s.providerRepo.GetPriceListItem(ctx, req.ProviderID, req.ServiceID)
	if err != nil {
		if errors.Is(err, provider.ErrItemNotFound) {
			return nil, ErrServiceNotAvailable
		}
		return nil, err
	}

	fee := int64(0)
	if req.LocationKind == LocationAtCustomer {
		fee = s.homeServiceFeeCents
	}

	breakdown, err := pricing.Calculate(pricing.Quote{
		PriceCents:            item.PriceCents,
		HomeServiceFeeCents:   fee,
		DiscountCents:         req.DiscountCents,
		CommissionRatePercent: prov.CommissionRatePercent,
	})
	if err != nil {
		return nil, err
	}

	b := &Booking{
		CustomerID:          customerID,
		ProviderID:          req.ProviderID,
		ServiceName:         item.Name,
		ServicePriceCents:   item.PriceCents,
		ServiceDurationMin:  item.DurationMin,
		LocationKind:        req.LocationKind,
		PriceCents:          item.PriceCents,
		HomeServiceFeeCents: fee,
		DiscountCents:       req.DiscountCents,
		TotalAmountCents:    breakdown.TotalCents,
		CommissionCents:     breakdown.CommissionCents,
		ProviderAmountCents: breakdown.ProviderCents,
		ScheduledAt:         req.ScheduledAt,
	}

	created, err := s.repo.Create(ctx, b)
	if err != nil {
		return nil, err
	}

	metrics.RecordBooking(StatusPending, "none")
	s.notifier.PublishBookingStatus(ctx, created.ID, created.Status)
	return created, nil
}

func (s *service) Accept(ctx context.Context, bookingID int) (*Booking, error) {
	return s.transition(ctx, bookingID, StatusPending, StatusConfirmed)
}

func (s *service) Start(ctx context.Context, bookingID int) (*Booking, error) {
	return s.transition(ctx, bookingID, StatusConfirmed, StatusInProgress)
}

func (s *service) transition(ctx context.Context, bookingID int, from, to string) (*Booking, error) {
	if err := s.repo.UpdateStatus(ctx, bookingID, from, to); err != nil {
		return nil, err
	}

	b, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	metrics.RecordBooking(to, "none")
	s.notifier.PublishBookingStatus(ctx, bookingID, to)
	return b, nil
}

func (s *service) Complete(ctx context.Context, bookingID int) (*Booking, error) {
	b, err := s.completer.CompleteBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	s.notifier.PublishBookingStatus(ctx, bookingID, b.Status)
	return b, nil
}

// Cancel ends an unpaid booking. A paid booking keeps the money trail intact:
// it must go through the refund path, which cancels it as part of the same
// coordinated step.
func (s *service) Cancel(ctx context.Context, customerID, bookingID int) (*Booking, error) {
	b, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.CustomerID != customerID {
		return nil, ErrNotBookingOwner
	}
	if b.PaymentStatus != PaymentUnpaid {
		return nil, ErrPaidNeedsRefund
	}

	if err := s.repo.UpdateStatus(ctx, bookingID, b.Status, StatusCancelled); err != nil {
		return nil, err
	}

	cancelled, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	metrics.RecordBooking(StatusCancelled, "none")
	s.notifier.PublishBookingStatus(ctx, bookingID, StatusCancelled)
	return cancelled, nil
}

func (s *service) GetByID(ctx context.Context, id int) (*Booking, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) GetCustomerBookings(ctx context.Context, customerID int) ([]Booking, error) {
	return s.repo.GetCustomerBookings(ctx, customerID)
}

func (s *service) GetProviderBookings(ctx context.Context, providerID int) ([]Booking, error) {
	return s.repo.GetProviderBookings(ctx, providerID)
}
