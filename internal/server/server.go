package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"carpool/internal/auth"
	"carpool/internal/booking"
	"carpool/internal/config"
	"carpool/internal/departure"
	"carpool/internal/payment"
	"carpool/internal/trip"
	"carpool/internal/wallet"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

type Handlers struct {
	Trips     *trip.Handler
	Bookings  *booking.Handler
	Payments  *payment.Handler
	Departure *departure.Handler
	Wallet    *wallet.Handler
}

// Deps are the infrastructure pieces the HTTP layer touches directly.
type Deps struct {
	Redis  *redis.Client
	Queue  QueueLengther
	Checks map[string]Check
}

type Server struct {
	router *gin.Engine
	http   *http.Server
}

func New(cfg *config.Config, deps Deps, h Handlers) *Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLoggingMiddleware())
	router.Use(MetricsMiddleware())
	router.Use(corsMiddleware())
	router.Use(RateLimitMiddleware(cfg.RateLimitRPS, cfg.RateLimitBurst))

	idem := NewIdempotency(deps.Redis)

	router.GET("/health", Health(deps.Checks))
	router.GET("/metrics", Metrics())
	SetupSwagger(router)

	router.POST("/webhooks/payments", idem.Handler(WebhookKey), h.Payments.Webhook)

	authMiddleware := auth.AuthMiddleware(cfg.JWTSecret)
	passenger := auth.RequireRole(auth.RolePassenger)
	driver := auth.RequireRole(auth.RoleDriver)
	driverOrAdmin := auth.RequireRole(auth.RoleDriver, auth.RoleAdmin)

	protected := router.Group("/")
	protected.Use(authMiddleware)
	{
		protected.POST("/trips", driver, h.Trips.CreateTrip)
		protected.GET("/trips", driver, h.Trips.ListMyTrips)
		protected.GET("/trips/:tripID", h.Trips.GetTrip)
		protected.POST("/trips/:tripID/bookings", passenger, h.Bookings.CreateBooking)
		protected.GET("/trips/:tripID/bookings", driverOrAdmin, h.Bookings.ListTripBookings)

		protected.GET("/bookings", passenger, h.Bookings.ListMyBookings)
		protected.GET("/bookings/:id", h.Bookings.GetBooking)
		protected.POST("/bookings/:id/cancel", h.Bookings.CancelBooking)
		protected.POST("/bookings/:id/confirm", driver, h.Bookings.ConfirmBooking)
		protected.POST("/bookings/:id/reject", driver, h.Bookings.RejectBooking)
		protected.POST("/bookings/:id/complete", driver, h.Bookings.CompleteBooking)
		protected.POST("/bookings/:id/no-show", driver, h.Bookings.MarkNoShow)
		protected.POST("/bookings/:id/departure/driver", driver, h.Departure.ConfirmDriver)
		protected.POST("/bookings/:id/departure/passenger", passenger, h.Departure.ConfirmPassenger)

		protected.POST("/bookings/:id/payments", passenger, idem.Handler(HeaderKey), h.Payments.InitiatePayment)
		protected.GET("/bookings/:id/payments", h.Payments.ListBookingPayments)
		protected.GET("/payments/:id", h.Payments.GetPayment)
		protected.GET("/payments/:id/receipt", h.Payments.GetReceipt)
		protected.POST("/payments/:id/cash-received", driver, h.Payments.ConfirmCash)

		protected.GET("/wallet", h.Wallet.GetBalance)
		protected.GET("/wallet/transactions", h.Wallet.ListTransactions)
		protected.POST("/wallet/deposit", idem.Handler(HeaderKey), h.Wallet.Deposit)
		protected.POST("/wallet/withdraw", idem.Handler(HeaderKey), h.Wallet.Withdraw)
	}

	admin := router.Group("/admin")
	admin.Use(authMiddleware, auth.RequireRole(auth.RoleAdmin))
	{
		admin.POST("/bookings/:id/cancel", h.Bookings.CancelBooking)
		admin.POST("/bookings/:id/no-show", h.Bookings.MarkNoShow)
		admin.POST("/payments/:id/release", h.Payments.ReleasePayment)
		admin.POST("/payments/:id/refund", h.Payments.RefundPayment)
		admin.GET("/wallets/:userID/verify", h.Wallet.Verify)
		admin.GET("/stats/bookings", h.Bookings.BookingStats)
		admin.GET("/notifications/queue", NotificationQueue(deps.Queue))
	}

	return &Server{
		router: router,
		http: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Start blocks until the server stops. A graceful Shutdown is not an error.
func (s *Server) Start() error {
	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
