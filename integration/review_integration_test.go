package integration_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zivadmn8866/ziva-oneroof/internal/booking"
	"github.com/zivadmn8866/ziva-oneroof/internal/review"
)

func TestSubmitReview_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	conn := setupTestDB(t)
	defer conn.Close()

	cleanDatabase(t, conn)

	ctx := context.Background()
	svc := review.NewService(review.NewRepository(conn), booking.NewRepository(conn))

	customerID := createTestCustomer(t, conn, "reviewer@test.com", "Reviewer")
	providerID := createTestProvider(t, conn, "Sharp Cuts", 20)
	bookingID := createTestBooking(t, conn, customerID, providerID, booking.StatusCompleted, booking.PaymentPaid)

	rev, err := svc.Submit(ctx, customerID, bookingID, review.SubmitReviewRequest{Rating: 5, Comment: "great cut"})
	require.NoError(t, err)
	require.Equal(t, 5, rev.Rating)

	// The provider's aggregate updates on submission.
	var rating float64
	var count int
	require.NoError(t, conn.Get(&rating, "SELECT rating FROM providers WHERE id = $1", providerID))
	require.NoError(t, conn.Get(&count, "SELECT review_count FROM providers WHERE id = $1", providerID))
	require.Equal(t, 5.0, rating)
	require.Equal(t, 1, count)

	// One review per booking; the unique index backs this up.
	_, err = svc.Submit(ctx, customerID, bookingID, review.SubmitReviewRequest{Rating: 4, Comment: "second thoughts"})
	require.ErrorIs(t, err, review.ErrAlreadyReviewed)
}

func TestRatingAggregation_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	conn := setupTestDB(t)
	defer conn.Close()

	cleanDatabase(t, conn)

	ctx := context.Background()
	svc := review.NewService(review.NewRepository(conn), booking.NewRepository(conn))

	providerID := createTestProvider(t, conn, "Velvet Salon", 25)

	ratings := []int{5, 4, 3}
	for i, r := range ratings {
		customerID := createTestCustomer(t, conn, string(rune('a'+i))+"@test.com", "Reviewer")
		bookingID := createTestBooking(t, conn, customerID, providerID, booking.StatusCompleted, booking.PaymentPaid)
		_, err := svc.Submit(ctx, customerID, bookingID, review.SubmitReviewRequest{Rating: r})
		require.NoError(t, err)
	}

	var rating float64
	var count int
	require.NoError(t, conn.Get(&rating, "SELECT rating FROM providers WHERE id = $1", providerID))
	require.NoError(t, conn.Get(&count, "SELECT review_count FROM providers WHERE id = $1", providerID))
	require.Equal(t, 4.0, rating)
	require.Equal(t, 3, count)
}
