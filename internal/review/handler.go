package review

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/zivadmn8866/ziva-oneroof/internal/auth"
	"github.com/zivadmn8866/ziva-oneroof/internal/booking"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Submit godoc
// @Summary      Review a completed booking
// @Tags         reviews
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        bookingID  path      int                  true  "Booking ID"
// @Param        request    body      SubmitReviewRequest  true  "Rating and comment"
// @Success      201        {object}  Review
// @Failure      404        {object}  gin.H
// @Failure      409        {object}  gin.H
// @Router       /bookings/{bookingID}/review [post]
func (h *Handler) Submit(c *gin.Context) {
	customerID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	bookingID, err := strconv.Atoi(c.Param("bookingID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid booking ID"})
		return
	}

	var req SubmitReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "rating must be between 1 and 5"})
		return
	}

	review, err := h.service.Submit(c.Request.Context(), customerID, bookingID, req)
	if err != nil {
		switch {
		case errors.Is(err, booking.ErrBookingNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Booking not found"})
		case errors.Is(err, ErrNotBookingOwner):
			c.JSON(http.StatusForbidden, gin.H{"error": "You can only review your own bookings"})
		case errors.Is(err, ErrBookingNotCompleted):
			c.JSON(http.StatusConflict, gin.H{"error": "Only completed bookings can be reviewed"})
		case errors.Is(err, ErrAlreadyReviewed):
			c.JSON(http.StatusConflict, gin.H{"error": "Booking already has a review"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to submit review"})
		}
		return
	}

	c.JSON(http.StatusCreated, review)
}

// ListProviderReviews godoc
// @Summary      List a provider's reviews
// @Tags         reviews
// @Produce      json
// @Param        providerID  path      int  true  "Provider ID"
// @Success      200         {array}   Review
// @Router       /providers/{providerID}/reviews [get]
func (h *Handler) ListProviderReviews(c *gin.Context) {
	providerID, err := strconv.Atoi(c.Param("providerID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid provider ID"})
		return
	}

	reviews, err := h.service.GetProviderReviews(c.Request.Context(), providerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch reviews"})
		return
	}

	c.JSON(http.StatusOK, reviews)
}
