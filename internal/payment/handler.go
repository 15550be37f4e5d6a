package payment

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/zivadmn8866/ziva-oneroof/internal/auth"
	"github.com/zivadmn8866/ziva-oneroof/internal/booking"
	"github.com/zivadmn8866/ziva-oneroof/internal/coordinator"
	"github.com/zivadmn8866/ziva-oneroof/internal/metrics"
	"github.com/zivadmn8866/ziva-oneroof/internal/wallet"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// RequestPayment godoc
// @Summary      Pay for a booking
// @Description  Pays immediately from the wallet, or opens a gateway order
// @Description  that the client completes at checkout and then verifies.
// @Tags         payments
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        bookingID  path      int                    true  "Booking ID"
// @Param        request    body      RequestPaymentRequest  true  "Payment method"
// @Success      200        {object}  Result
// @Failure      402        {object}  gin.H
// @Failure      404        {object}  gin.H
// @Failure      409        {object}  gin.H
// @Failure      502        {object}  gin.H
// @Router       /bookings/{bookingID}/pay [post]
func (h *Handler) RequestPayment(c *gin.Context) {
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

	var req RequestPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.service.RequestBookingPayment(c.Request.Context(), customerID, bookingID, req.Method)
	if err != nil {
		h.respondPaymentError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// TopUp godoc
// @Summary      Top up wallet via gateway
// @Tags         payments
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      TopUpRequest  true  "Top-up amount"
// @Success      200      {object}  Result
// @Failure      400      {object}  gin.H
// @Failure      502      {object}  gin.H
// @Router       /wallet/topup [post]
func (h *Handler) TopUp(c *gin.Context) {
	customerID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req TopUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount_cents must be positive"})
		return
	}

	result, err := h.service.RequestTopUp(c.Request.Context(), customerID, req.AmountCents)
	if err != nil {
		h.respondPaymentError(c, err)
		return
	}

	metrics.RecordWalletTopUp()
	c.JSON(http.StatusOK, result)
}

// Verify godoc
// @Summary      Verify gateway payment
// @Description  Checks the gateway signature and applies the payment exactly
// @Description  once. Safe to call again with the same order and payment IDs.
// @Tags         payments
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      VerifyRequest  true  "Gateway confirmation"
// @Success      200      {object}  Result
// @Failure      400      {object}  gin.H
// @Failure      404      {object}  gin.H
// @Failure      422      {object}  gin.H
// @Router       /payments/verify [post]
func (h *Handler) Verify(c *gin.Context) {
	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "order_id, payment_id and signature are required"})
		return
	}

	result, err := h.service.Verify(c.Request.Context(), req)
	if err != nil {
		h.respondPaymentError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Webhook consumes the gateway's out-of-band confirmation. It carries the
// same signed format as the client-side verify path and shares its
// idempotency, so webhook-plus-callback duplication is harmless.
func (h *Handler) Webhook(c *gin.Context) {
	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed webhook payload"})
		return
	}

	result, err := h.service.Verify(c.Request.Context(), req)
	if err != nil {
		// The gateway retries on non-2xx; only signal retryable failures.
		if errors.Is(err, ErrGatewayUnavailable) || errors.Is(err, coordinator.ErrConcurrencyConflict) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "temporarily unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "processed", "already_processed": result.AlreadyProcessed})
}

// Refund godoc
// @Summary      Refund a paid booking
// @Tags         payments
// @Security     BearerAuth
// @Produce      json
// @Param        bookingID  path      int  true  "Booking ID"
// @Success      200        {object}  booking.BookingView
// @Failure      404        {object}  gin.H
// @Failure      409        {object}  gin.H
// @Failure      502        {object}  gin.H
// @Router       /bookings/{bookingID}/refund [post]
func (h *Handler) Refund(c *gin.Context) {
	bookingID, err := strconv.Atoi(c.Param("bookingID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid booking ID"})
		return
	}

	b, err := h.service.Refund(c.Request.Context(), bookingID)
	if err != nil {
		h.respondPaymentError(c, err)
		return
	}

	c.JSON(http.StatusOK, b.View())
}

func (h *Handler) respondPaymentError(c *gin.Context, err error) {
	var insufficient *wallet.InsufficientBalanceError
	var invalid *booking.InvalidTransitionError

	switch {
	case errors.As(err, &insufficient):
		c.JSON(http.StatusPaymentRequired, gin.H{
			"error":           "Insufficient wallet balance",
			"required_cents":  insufficient.RequiredCents,
			"available_cents": insufficient.AvailableCents,
		})
	case errors.As(err, &invalid):
		c.JSON(http.StatusConflict, gin.H{"error": invalid.Error()})
	case errors.Is(err, booking.ErrBookingNotFound), errors.Is(err, ErrOrderNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case errors.Is(err, ErrNotBookingOwner), errors.Is(err, coordinator.ErrNotBookingOwner):
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only pay for your own bookings"})
	case errors.Is(err, ErrSignatureMismatch):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Payment signature mismatch"})
	case errors.Is(err, ErrOrderConsumed):
		c.JSON(http.StatusConflict, gin.H{"error": "Payment order already consumed"})
	case errors.Is(err, ErrIntentExpired):
		c.JSON(http.StatusGone, gin.H{"error": "Payment order expired"})
	case errors.Is(err, ErrMissingParameters), errors.Is(err, wallet.ErrInvalidAmount):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, ErrGatewayUnavailable):
		metrics.RecordPayment("gateway", "gateway_unavailable")
		c.JSON(http.StatusBadGateway, gin.H{"error": "Payment gateway unavailable, please retry"})
	case errors.Is(err, coordinator.ErrConcurrencyConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "Concurrent update, please retry"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Payment failed"})
	}
}
