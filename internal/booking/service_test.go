package booking

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zivadmn8866/ziva-oneroof/internal/provider"
)

// Mock repositories

type MockRepo struct{ mock.Mock }

func (m *MockRepo) Create(ctx context.Context, b *Booking) (*Booking, error) {
	args := m.Called(ctx, b)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Booking), args.Error(1)
}

func (m *MockRepo) GetByID(ctx context.Context, id int) (*Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Booking), args.Error(1)
}

func (m *MockRepo) LockByIDTx(ctx context.Context, tx *sqlx.Tx, id int) (*Booking, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Booking), args.Error(1)
}

func (m *MockRepo) UpdateStatus(ctx context.Context, id int, from, to string) error {
	return m.Called(ctx, id, from, to).Error(0)
}

func (m *MockRepo) UpdateStatusTx(ctx context.Context, tx *sqlx.Tx, id int, from, to string) error {
	return m.Called(ctx, tx, id, from, to).Error(0)
}

func (m *MockRepo) MarkPaidTx(ctx context.Context, tx *sqlx.Tx, id int, method, reference string) error {
	return m.Called(ctx, tx, id, method, reference).Error(0)
}

func (m *MockRepo) MarkRefundedTx(ctx context.Context, tx *sqlx.Tx, id int) error {
	return m.Called(ctx, tx, id).Error(0)
}

func (m *MockRepo) GetCustomerBookings(ctx context.Context, customerID int) ([]Booking, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Booking), args.Error(1)
}

func (m *MockRepo) GetProviderBookings(ctx context.Context, providerID int) ([]Booking, error) {
	args := m.Called(ctx, providerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Booking), args.Error(1)
}

type MockProviderRepo struct{ mock.Mock }

func (m *MockProviderRepo) Create(ctx context.Context, name, kind, address string, commissionRatePercent int64) (*provider.Provider, error) {
	args := m.Called(ctx, name, kind, address, commissionRatePercent)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.Provider), args.Error(1)
}

func (m *MockProviderRepo) GetByID(ctx context.Context, id int) (*provider.Provider, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.Provider), args.Error(1)
}

func (m *MockProviderRepo) GetAll(ctx context.Context) ([]provider.Provider, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]provider.Provider), args.Error(1)
}

func (m *MockProviderRepo) AddPriceListItem(ctx context.Context, providerID int, name string, priceCents int64, durationMin int) (*provider.PriceListItem, error) {
	args := m.Called(ctx, providerID, name, priceCents, durationMin)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.PriceListItem), args.Error(1)
}

func (m *MockProviderRepo) GetPriceListItem(ctx context.Context, providerID, itemID int) (*provider.PriceListItem, error) {
	args := m.Called(ctx, providerID, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.PriceListItem), args.Error(1)
}

func (m *MockProviderRepo) GetPriceList(ctx context.Context, providerID int) ([]provider.PriceListItem, error) {
	args := m.Called(ctx, providerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]provider.PriceListItem), args.Error(1)
}

func (m *MockProviderRepo) DeactivatePriceListItem(ctx context.Context, providerID, itemID int) error {
	return m.Called(ctx, providerID, itemID).Error(0)
}

func (m *MockProviderRepo) CreditEarningsTx(ctx context.Context, tx *sqlx.Tx, providerID int, amountCents int64) error {
	return m.Called(ctx, tx, providerID, amountCents).Error(0)
}

type MockCompleter struct{ mock.Mock }

func (m *MockCompleter) CompleteBooking(ctx context.Context, bookingID int) (*Booking, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Booking), args.Error(1)
}

type bookingFixture struct {
	svc       Service
	repo      *MockRepo
	providers *MockProviderRepo
	completer *MockCompleter
}

func newBookingFixture() *bookingFixture {
	f := &bookingFixture{
		repo:      &MockRepo{},
		providers: &MockProviderRepo{},
		completer: &MockCompleter{},
	}
	f.svc = NewService(f.repo, f.providers, f.completer, nil, 10000)
	return f
}

func activeProvider() *provider.Provider {
	return &provider.Provider{
		ID: 2, Name: "Sharp Cuts", Kind: "barber",
		CommissionRatePercent: 20, Active: true,
	}
}

func haircut() *provider.PriceListItem {
	return &provider.PriceListItem{
		ID: 3, ProviderID: 2, Name: "Haircut",
		PriceCents: 50000, DurationMin: 30, Active: true,
	}
}

func TestCreate_SnapshotsServiceAndPricing(t *testing.T) {
	f := newBookingFixture()
	ctx := context.Background()

	f.providers.On("GetByID", ctx, 2).Return(activeProvider(), nil).Once()
	f.providers.On("GetPriceListItem", ctx, 2, 3).Return(haircut(), nil).Once()
	f.repo.On("Create", ctx, mock.MatchedBy(func(b *Booking) bool {
		return b.CustomerID == 1 &&
			b.ServiceName == "Haircut" &&
			b.ServicePriceCents == 50000 &&
			b.HomeServiceFeeCents == 10000 &&
			b.TotalAmountCents == 60000 &&
			b.CommissionCents == 12000 &&
			b.ProviderAmountCents == 48000
	})).Return(&Booking{ID: 9, Status: StatusPending}, nil).Once()

	created, err := f.svc.Create(ctx, 1, CreateBookingRequest{
		ProviderID:   2,
		ServiceID:    3,
		LocationKind: LocationAtCustomer,
		ScheduledAt:  time.Now().Add(24 * time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, 9, created.ID)

	f.repo.AssertExpectations(t)
}

func TestCreate_NoHomeFeeAtProvider(t *testing.T) {
	f := newBookingFixture()
	ctx := context.Background()

	f.providers.On("GetByID", ctx, 2).Return(activeProvider(), nil).Once()
	f.providers.On("GetPriceListItem", ctx, 2, 3).Return(haircut(), nil).Once()
	f.repo.On("Create", ctx, mock.MatchedBy(func(b *Booking) bool {
		return b.HomeServiceFeeCents == 0 && b.TotalAmountCents == 50000
	})).Return(&Booking{ID: 9, Status: StatusPending}, nil).Once()

	_, err := f.svc.Create(ctx, 1, CreateBookingRequest{
		ProviderID:   2,
		ServiceID:    3,
		LocationKind: LocationAtProvider,
		ScheduledAt:  time.Now().Add(24 * time.Hour),
	})
	require.NoError(t, err)
}

func TestCreate_RejectsPastSchedule(t *testing.T) {
	f := newBookingFixture()

	_, err := f.svc.Create(context.Background(), 1, CreateBookingRequest{
		ProviderID:   2,
		ServiceID:    3,
		LocationKind: LocationAtProvider,
		ScheduledAt:  time.Now().Add(-time.Hour),
	})
	assert.ErrorIs(t, err, ErrScheduledInPast)

	f.providers.AssertNotCalled(t, "GetByID")
}

func TestCreate_InactiveProvider(t *testing.T) {
	f := newBookingFixture()
	ctx := context.Background()

	inactive := activeProvider()
	inactive.Active = false
	f.providers.On("GetByID", ctx, 2).Return(inactive, nil).Once()

	_, err := f.svc.Create(ctx, 1, CreateBookingRequest{
		ProviderID:   2,
		ServiceID:    3,
		LocationKind: LocationAtProvider,
		ScheduledAt:  time.Now().Add(time.Hour),
	})
	assert.ErrorIs(t, err, provider.ErrProviderNotFound)
}

func TestCreate_UnknownService(t *testing.T) {
	f := newBookingFixture()
	ctx := context.Background()

	f.providers.On("GetByID", ctx, 2).Return(activeProvider(), nil).Once()
	f.providers.On("GetPriceListItem", ctx, 2, 99).Return(nil, provider.ErrItemNotFound).Once()

	_, err := f.svc.Create(ctx, 1, CreateBookingRequest{
		ProviderID:   2,
		ServiceID:    99,
		LocationKind: LocationAtProvider,
		ScheduledAt:  time.Now().Add(time.Hour),
	})
	assert.ErrorIs(t, err, ErrServiceNotAvailable)
}

func TestAccept_UsesCompareAndSet(t *testing.T) {
	f := newBookingFixture()
	ctx := context.Background()

	f.repo.On("UpdateStatus", ctx, 9, StatusPending, StatusConfirmed).Return(nil).Once()
	f.repo.On("GetByID", ctx, 9).Return(&Booking{ID: 9, Status: StatusConfirmed}, nil).Once()

	b, err := f.svc.Accept(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, b.Status)
}

func TestAccept_InvalidFromState(t *testing.T) {
	f := newBookingFixture()
	ctx := context.Background()

	f.repo.On("UpdateStatus", ctx, 9, StatusPending, StatusConfirmed).
		Return(&InvalidTransitionError{Field: "status", From: StatusCancelled, To: StatusConfirmed}).Once()

	_, err := f.svc.Accept(ctx, 9)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestComplete_DelegatesToCompleter(t *testing.T) {
	f := newBookingFixture()
	ctx := context.Background()

	f.completer.On("CompleteBooking", ctx, 9).
		Return(&Booking{ID: 9, Status: StatusCompleted}, nil).Once()

	b, err := f.svc.Complete(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, b.Status)

	f.completer.AssertExpectations(t)
}

func TestCancel_UnpaidBooking(t *testing.T) {
	f := newBookingFixture()
	ctx := context.Background()

	pending := &Booking{ID: 9, CustomerID: 1, Status: StatusPending, PaymentStatus: PaymentUnpaid}
	cancelled := &Booking{ID: 9, CustomerID: 1, Status: StatusCancelled, PaymentStatus: PaymentUnpaid}

	f.repo.On("GetByID", ctx, 9).Return(pending, nil).Once()
	f.repo.On("UpdateStatus", ctx, 9, StatusPending, StatusCancelled).Return(nil).Once()
	f.repo.On("GetByID", ctx, 9).Return(cancelled, nil).Once()

	b, err := f.svc.Cancel(ctx, 1, 9)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, b.Status)
}

func TestCancel_PaidBookingNeedsRefund(t *testing.T) {
	f := newBookingFixture()
	ctx := context.Background()

	paid := &Booking{ID: 9, CustomerID: 1, Status: StatusConfirmed, PaymentStatus: PaymentPaid}
	f.repo.On("GetByID", ctx, 9).Return(paid, nil).Once()

	_, err := f.svc.Cancel(ctx, 1, 9)
	assert.ErrorIs(t, err, ErrPaidNeedsRefund)

	f.repo.AssertNotCalled(t, "UpdateStatus")
}

func TestCancel_WrongOwner(t *testing.T) {
	f := newBookingFixture()
	ctx := context.Background()

	other := &Booking{ID: 9, CustomerID: 42, Status: StatusPending, PaymentStatus: PaymentUnpaid}
	f.repo.On("GetByID", ctx, 9).Return(other, nil).Once()

	_, err := f.svc.Cancel(ctx, 1, 9)
	assert.ErrorIs(t, err, ErrNotBookingOwner)
}
