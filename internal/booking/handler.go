package booking

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/zivadmn8866/ziva-oneroof/internal/auth"
	"github.com/zivadmn8866/ziva-oneroof/internal/provider"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// CreateBooking godoc
// @Summary      Create booking
// @Description  Books a service with a provider. The service snapshot and the
// @Description  commission split are fixed at creation time.
// @Tags         bookings
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      CreateBookingRequest  true  "Booking data"
// @Success      201      {object}  BookingView
// @Failure      400      {object}  gin.H
// @Failure      404      {object}  gin.H
// @Failure      422      {object}  gin.H
// @Router       /bookings [post]
func (h *Handler) CreateBooking(c *gin.Context) {
	customerID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	b, err := h.service.Create(c.Request.Context(), customerID, req)
	if err != nil {
		switch {
		case errors.Is(err, provider.ErrProviderNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Provider not found"})
		case errors.Is(err, ErrServiceNotAvailable):
			c.JSON(http.StatusNotFound, gin.H{"error": "Service is not available from this provider"})
		case errors.Is(err, ErrScheduledInPast):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot book a time in the past"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create booking"})
		}
		return
	}

	c.JSON(http.StatusCreated, b.View())
}

// GetBooking godoc
// @Summary      Get booking
// @Tags         bookings
// @Security     BearerAuth
// @Produce      json
// @Param        bookingID  path      int  true  "Booking ID"
// @Success      200        {object}  BookingView
// @Failure      404        {object}  gin.H
// @Router       /bookings/{bookingID} [get]
func (h *Handler) GetBooking(c *gin.Context) {
	bookingID, err := strconv.Atoi(c.Param("bookingID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid booking ID"})
		return
	}

	b, err := h.service.GetByID(c.Request.Context(), bookingID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Booking not found"})
		return
	}

	c.JSON(http.StatusOK, b.View())
}

// ListMyBookings godoc
// @Summary      List my bookings
// @Tags         bookings
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}  Booking
// @Router       /bookings [get]
func (h *Handler) ListMyBookings(c *gin.Context) {
	customerID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	bookings, err := h.service.GetCustomerBookings(c.Request.Context(), customerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch bookings"})
		return
	}

	c.JSON(http.StatusOK, bookings)
}

func (h *Handler) ListProviderBookings(c *gin.Context) {
	providerID, err := strconv.Atoi(c.Param("providerID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid provider ID"})
		return
	}

	bookings, err := h.service.GetProviderBookings(c.Request.Context(), providerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch bookings"})
		return
	}

	c.JSON(http.StatusOK, bookings)
}

// Accept godoc
// @Summary      Accept booking
// @Description  Moves a pending booking to confirmed. Provider side.
// @Tags         bookings
// @Security     BearerAuth
// @Produce      json
// @Param        bookingID  path      int  true  "Booking ID"
// @Success      200        {object}  BookingView
// @Failure      404        {object}  gin.H
// @Failure      409        {object}  gin.H
// @Router       /bookings/{bookingID}/accept [post]
func (h *Handler) Accept(c *gin.Context) {
	h.transition(c, h.service.Accept)
}

func (h *Handler) Start(c *gin.Context) {
	h.transition(c, h.service.Start)
}

func (h *Handler) Complete(c *gin.Context) {
	h.transition(c, h.service.Complete)
}

func (h *Handler) transition(c *gin.Context, op func(ctx context.Context, bookingID int) (*Booking, error)) {
	bookingID, err := strconv.Atoi(c.Param("bookingID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid booking ID"})
		return
	}

	b, err := op(c.Request.Context(), bookingID)
	if err != nil {
		respondTransitionError(c, err)
		return
	}

	c.JSON(http.StatusOK, b.View())
}

// Cancel godoc
// @Summary      Cancel booking
// @Description  Cancels an unpaid booking. Paid bookings go through the
// @Description  refund endpoint instead.
// @Tags         bookings
// @Security     BearerAuth
// @Produce      json
// @Param        bookingID  path      int  true  "Booking ID"
// @Success      200        {object}  BookingView
// @Failure      403        {object}  gin.H
// @Failure      404        {object}  gin.H
// @Failure      409        {object}  gin.H
// @Router       /bookings/{bookingID}/cancel [post]
func (h *Handler) Cancel(c *gin.Context) {
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

	b, err := h.service.Cancel(c.Request.Context(), customerID, bookingID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotBookingOwner):
			c.JSON(http.StatusForbidden, gin.H{"error": "You can only cancel your own bookings"})
		case errors.Is(err, ErrPaidNeedsRefund):
			c.JSON(http.StatusConflict, gin.H{"error": "Paid booking must be refunded before cancellation"})
		default:
			respondTransitionError(c, err)
		}
		return
	}

	c.JSON(http.StatusOK, b.View())
}

func respondTransitionError(c *gin.Context, err error) {
	var invalid *InvalidTransitionError
	switch {
	case errors.Is(err, ErrBookingNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Booking not found"})
	case errors.As(err, &invalid):
		c.JSON(http.StatusConflict, gin.H{"error": invalid.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update booking"})
	}
}
