package review

import (
	"context"
	"errors"

	"github.com/zivadmn8866/ziva-oneroof/internal/booking"
	"github.com/zivadmn8866/ziva-oneroof/internal/metrics"
)

var (
	ErrBookingNotCompleted = errors.New("only completed bookings can be reviewed")
	ErrNotBookingOwner     = errors.New("booking belongs to another customer")
)

type Service interface {
	Submit(ctx context.Context, customerID, bookingID int, req SubmitReviewRequest) (*Review, error)
	GetProviderReviews(ctx context.Context, providerID int) ([]Review, error)
}

type service struct {
	repo        Repository
	bookingRepo booking.Repository
}

func NewService(repo Repository, bookingRepo booking.Repository) Service {
	return &service{
		repo:        repo,
		bookingRepo: bookingRepo,
	}
}

// Submit records a review for a completed booking and recomputes the
// provider's aggregate rating. A booking is reviewable exactly once.
func (s *service) Submit(ctx context.Context, customerID, bookingID int, req SubmitReviewRequest) (*Review, error) {
	b, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.CustomerID != customerID {
		return nil, ErrNotBookingOwner
	}
	if b.Status != booking.StatusCompleted {
		return nil, ErrBookingNotCompleted
	}

	created, err := s.repo.Create(ctx, &Review{
		BookingID:  bookingID,
		ProviderID: b.ProviderID,
		CustomerID: customerID,
		Rating:     req.Rating,
		Comment:    req.Comment,
	})
	if err != nil {
		return nil, err
	}

	if _, _, err := s.repo.RecomputeRating(ctx, b.ProviderID); err != nil {
		return nil, err
	}

	metrics.RecordReview()
	return created, nil
}

func (s *service) GetProviderReviews(ctx context.Context, providerID int) ([]Review, error) {
	return s.repo.GetByProvider(ctx, providerID)
}
