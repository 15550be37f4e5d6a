package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ziva_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ziva_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	BookingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ziva_bookings_total",
			Help: "Total number of booking transitions",
		},
		[]string{"status", "payment_method"},
	)

	PaymentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ziva_payments_total",
			Help: "Total number of payments applied",
		},
		[]string{"method", "outcome"},
	)

	RefundsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ziva_refunds_total",
			Help: "Total number of booking refunds",
		},
	)

	WalletTopUpsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ziva_wallet_topups_total",
			Help: "Total number of wallet top-ups",
		},
	)

	ReviewsSubmittedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ziva_reviews_submitted_total",
			Help: "Total number of reviews submitted",
		},
	)

	NotificationsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ziva_notifications_published_total",
			Help: "Total number of booking notifications published",
		},
		[]string{"status"},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordBooking(status, paymentMethod string) {
	BookingsTotal.WithLabelValues(status, paymentMethod).Inc()
}

func RecordPayment(method, outcome string) {
	PaymentsTotal.WithLabelValues(method, outcome).Inc()
}

func RecordRefund() {
	RefundsTotal.Inc()
}

func RecordWalletTopUp() {
	WalletTopUpsTotal.Inc()
}

func RecordReview() {
	ReviewsSubmittedTotal.Inc()
}

func RecordNotification(status string) {
	NotificationsPublishedTotal.WithLabelValues(status).Inc()
}
