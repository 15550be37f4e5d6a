package review

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var ErrAlreadyReviewed = errors.New("booking already has a review")

type Repository interface {
	Create(ctx context.Context, r *Review) (*Review, error)
	RecomputeRating(ctx context.Context, providerID int) (float64, int, error)
	GetByProvider(ctx context.Context, providerID int) ([]Review, error)
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, rev *Review) (*Review, error) {
	var created Review
	err := r.db.GetContext(ctx, &created, `
		INSERT INTO reviews (booking_id, provider_id, customer_id, rating, comment)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, booking_id, provider_id, customer_id, rating, comment, created_at`,
		rev.BookingID, rev.ProviderID, rev.CustomerID, rev.Rating, rev.Comment,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, ErrAlreadyReviewed
		}
		return nil, err
	}
	return &created, nil
}

// RecomputeRating derives the provider's aggregate strictly from committed
// reviews. Full re-scan of the provider's review scores; fine at the current
// data size.
func (r *repository) RecomputeRating(ctx context.Context, providerID int) (float64, int, error) {
	var ratings []int
	err := r.db.SelectContext(ctx, &ratings,
		`SELECT rating FROM reviews WHERE provider_id = $1 ORDER BY id`, providerID,
	)
	if err != nil {
		return 0, 0, err
	}

	rating, count := AggregateRating(ratings)

	_, err = r.db.ExecContext(ctx,
		`UPDATE providers SET rating = $1, review_count = $2, updated_at = NOW() WHERE id = $3`,
		rating, count, providerID,
	)
	if err != nil {
		return 0, 0, err
	}

	return rating, count, nil
}

func (r *repository) GetByProvider(ctx context.Context, providerID int) ([]Review, error) {
	var reviews []Review
	err := r.db.SelectContext(ctx, &reviews, `
		SELECT id, booking_id, provider_id, customer_id, rating, comment, created_at
		FROM reviews
		WHERE provider_id = $1
		ORDER BY created_at DESC`,
		providerID,
	)
	if err != nil {
		return nil, err
	}
	return reviews, nil
}
