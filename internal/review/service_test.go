package review

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zivadmn8866/ziva-oneroof/internal/booking"
)

type MockReviewRepo struct{ mock.Mock }

func (m *MockReviewRepo) Create(ctx context.Context, r *Review) (*Review, error) {
	args := m.Called(ctx, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Review), args.Error(1)
}

func (m *MockReviewRepo) RecomputeRating(ctx context.Context, providerID int) (float64, int, error) {
	args := m.Called(ctx, providerID)
	return args.Get(0).(float64), args.Int(1), args.Error(2)
}

func (m *MockReviewRepo) GetByProvider(ctx context.Context, providerID int) ([]Review, error) {
	args := m.Called(ctx, providerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Review), args.Error(1)
}

type MockBookingRepo struct{ mock.Mock }

func (m *MockBookingRepo) Create(ctx context.Context, b *booking.Booking) (*booking.Booking, error) {
	args := m.Called(ctx, b)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.Booking), args.Error(1)
}

func (m *MockBookingRepo) GetByID(ctx context.Context, id int) (*booking.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.Booking), args.Error(1)
}

func (m *MockBookingRepo) LockByIDTx(ctx context.Context, tx *sqlx.Tx, id int) (*booking.Booking, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.Booking), args.Error(1)
}

func (m *MockBookingRepo) UpdateStatus(ctx context.Context, id int, from, to string) error {
	return m.Called(ctx, id, from, to).Error(0)
}

func (m *MockBookingRepo) UpdateStatusTx(ctx context.Context, tx *sqlx.Tx, id int, from, to string) error {
	return m.Called(ctx, tx, id, from, to).Error(0)
}

func (m *MockBookingRepo) MarkPaidTx(ctx context.Context, tx *sqlx.Tx, id int, method, reference string) error {
	return m.Called(ctx, tx, id, method, reference).Error(0)
}

func (m *MockBookingRepo) MarkRefundedTx(ctx context.Context, tx *sqlx.Tx, id int) error {
	return m.Called(ctx, tx, id).Error(0)
}

func (m *MockBookingRepo) GetCustomerBookings(ctx context.Context, customerID int) ([]booking.Booking, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]booking.Booking), args.Error(1)
}

func (m *MockBookingRepo) GetProviderBookings(ctx context.Context, providerID int) ([]booking.Booking, error) {
	args := m.Called(ctx, providerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]booking.Booking), args.Error(1)
}

func TestSubmit_Success(t *testing.T) {
	repo := &MockReviewRepo{}
	bookings := &MockBookingRepo{}
	svc := NewService(repo, bookings)
	ctx := context.Background()

	completed := &booking.Booking{ID: 9, CustomerID: 1, ProviderID: 2, Status: booking.StatusCompleted}
	bookings.On("GetByID", ctx, 9).Return(completed, nil).Once()
	repo.On("Create", ctx, mock.MatchedBy(func(r *Review) bool {
		return r.BookingID == 9 && r.ProviderID == 2 && r.CustomerID == 1 && r.Rating == 5
	})).Return(&Review{ID: 1, Rating: 5}, nil).Once()
	repo.On("RecomputeRating", ctx, 2).Return(5.0, 1, nil).Once()

	created, err := svc.Submit(ctx, 1, 9, SubmitReviewRequest{Rating: 5, Comment: "great"})
	require.NoError(t, err)
	assert.Equal(t, 1, created.ID)

	repo.AssertExpectations(t)
}

func TestSubmit_NotCompleted(t *testing.T) {
	repo := &MockReviewRepo{}
	bookings := &MockBookingRepo{}
	svc := NewService(repo, bookings)
	ctx := context.Background()

	for _, status := range []string{booking.StatusPending, booking.StatusConfirmed, booking.StatusInProgress, booking.StatusCancelled} {
		b := &booking.Booking{ID: 9, CustomerID: 1, ProviderID: 2, Status: status}
		bookings.On("GetByID", ctx, 9).Return(b, nil).Once()

		_, err := svc.Submit(ctx, 1, 9, SubmitReviewRequest{Rating: 4})
		assert.ErrorIs(t, err, ErrBookingNotCompleted, "status %s", status)
	}

	repo.AssertNotCalled(t, "Create")
}

func TestSubmit_WrongOwner(t *testing.T) {
	repo := &MockReviewRepo{}
	bookings := &MockBookingRepo{}
	svc := NewService(repo, bookings)
	ctx := context.Background()

	b := &booking.Booking{ID: 9, CustomerID: 42, Status: booking.StatusCompleted}
	bookings.On("GetByID", ctx, 9).Return(b, nil).Once()

	_, err := svc.Submit(ctx, 1, 9, SubmitReviewRequest{Rating: 4})
	assert.ErrorIs(t, err, ErrNotBookingOwner)
}

func TestSubmit_DuplicatePropagates(t *testing.T) {
	repo := &MockReviewRepo{}
	bookings := &MockBookingRepo{}
	svc := NewService(repo, bookings)
	ctx := context.Background()

	completed := &booking.Booking{ID: 9, CustomerID: 1, ProviderID: 2, Status: booking.StatusCompleted}
	bookings.On("GetByID", ctx, 9).Return(completed, nil).Once()
	repo.On("Create", ctx, mock.Anything).Return(nil, ErrAlreadyReviewed).Once()

	_, err := svc.Submit(ctx, 1, 9, SubmitReviewRequest{Rating: 4})
	assert.ErrorIs(t, err, ErrAlreadyReviewed)

	repo.AssertNotCalled(t, "RecomputeRating")
}
