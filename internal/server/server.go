package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/zivadmn8866/ziva-oneroof/internal/auth"
	"github.com/zivadmn8866/ziva-oneroof/internal/booking"
	"github.com/zivadmn8866/ziva-oneroof/internal/config"
	"github.com/zivadmn8866/ziva-oneroof/internal/coordinator"
	"github.com/zivadmn8866/ziva-oneroof/internal/customer"
	"github.com/zivadmn8866/ziva-oneroof/internal/notification"
	"github.com/zivadmn8866/ziva-oneroof/internal/payment"
	"github.com/zivadmn8866/ziva-oneroof/internal/provider"
	"github.com/zivadmn8866/ziva-oneroof/internal/review"
	"github.com/zivadmn8866/ziva-oneroof/internal/wallet"
)

type Server struct {
	router *gin.Engine
	srv    *http.Server
	db     *sqlx.DB
	config *config.Config
}

func New(db *sqlx.DB, cfg *config.Config, notifier *notification.Publisher) *Server {
	router := gin.Default()
	router.Use(corsMiddleware())
	router.Use(RequestLoggingMiddleware())
	router.Use(MetricsMiddleware())
	router.Use(RateLimitMiddleware(50, 100))

	customerRepo := customer.NewRepository(db)
	providerRepo := provider.NewRepository(db)
	bookingRepo := booking.NewRepository(db)
	walletRepo := wallet.NewRepository(db)
	reviewRepo := review.NewRepository(db)
	intentRepo := payment.NewRepository(db)

	coord := coordinator.New(db, bookingRepo, walletRepo, providerRepo, customerRepo, intentRepo)

	gateway := payment.NewHTTPGateway(cfg.GatewayBaseURL, cfg.GatewayKeyID, cfg.GatewaySecret)
	intentTTL := time.Duration(cfg.PaymentIntentTTLMinutes) * time.Minute

	customerHandler := customer.NewHandler(customer.NewService(customerRepo, cfg.JWTSecret))
	providerHandler := provider.NewHandler(providerRepo, cfg.DefaultCommissionRatePercent)
	bookingHandler := booking.NewHandler(booking.NewService(bookingRepo, providerRepo, coord, notifier, cfg.HomeServiceFeeCents))
	walletHandler := wallet.NewHandler(walletRepo)
	paymentHandler := payment.NewHandler(payment.NewService(intentRepo, gateway, coord, bookingRepo, notifier, cfg.GatewaySecret, intentTTL))
	reviewHandler := review.NewHandler(review.NewService(reviewRepo, bookingRepo))

	public := router.Group("/auth")
	{
		public.POST("/register", customerHandler.Register)
		public.POST("/login", customerHandler.Login)
		public.POST("/refresh", customerHandler.Refresh)
	}

	// Gateway webhooks authenticate by signature, not by bearer token.
	router.POST("/payments/webhook", paymentHandler.Webhook)

	authMiddleware := auth.AuthMiddleware(cfg.JWTSecret)
	protected := router.Group("/")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", customerHandler.GetMe)
		protected.DELETE("/me", customerHandler.Deactivate)

		protected.GET("/providers", providerHandler.ListProviders)
		protected.GET("/providers/:providerID", providerHandler.GetProvider)
		protected.GET("/providers/:providerID/services", providerHandler.GetPriceList)
		protected.GET("/providers/:providerID/reviews", reviewHandler.ListProviderReviews)

		protected.POST("/bookings", bookingHandler.CreateBooking)
		protected.GET("/bookings", bookingHandler.ListMyBookings)
		protected.GET("/bookings/:bookingID", bookingHandler.GetBooking)
		protected.POST("/bookings/:bookingID/cancel", bookingHandler.Cancel)
		protected.POST("/bookings/:bookingID/pay", paymentHandler.RequestPayment)
		protected.POST("/bookings/:bookingID/review", reviewHandler.Submit)

		protected.POST("/payments/verify", paymentHandler.Verify)

		protected.GET("/wallet", walletHandler.GetBalance)
		protected.GET("/wallet/transactions", walletHandler.ListTransactions)
		protected.POST("/wallet/topup", paymentHandler.TopUp)
	}

	providerOnly := auth.RequireRole("provider", "admin")
	providerRoutes := router.Group("/provider")
	providerRoutes.Use(authMiddleware, providerOnly)
	{
		providerRoutes.GET("/bookings/:providerID", bookingHandler.ListProviderBookings)
		providerRoutes.POST("/bookings/:bookingID/accept", bookingHandler.Accept)
		providerRoutes.POST("/bookings/:bookingID/start", bookingHandler.Start)
		providerRoutes.POST("/bookings/:bookingID/complete", bookingHandler.Complete)
	}

	adminMiddleware := auth.RequireRole("admin")
	admin := router.Group("/admin")
	admin.Use(authMiddleware, adminMiddleware)
	{
		admin.POST("/providers", providerHandler.CreateProvider)
		admin.POST("/providers/:providerID/services", providerHandler.AddPriceListItem)
		admin.DELETE("/providers/:providerID/services/:serviceID", providerHandler.RemovePriceListItem)
		admin.POST("/bookings/:bookingID/refund", paymentHandler.Refund)
	}

	router.GET("/health", Health)
	router.GET("/metrics", Metrics())
	SetupSwagger(router)

	return &Server{
		router: router,
		db:     db,
		config: cfg,
	}
}

func (s *Server) Start(port string) error {
	s.srv = &http.Server{
		Addr:    ":" + port,
		Handler: s.router,
	}
	return s.srv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
