package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"carpool/internal/booking"
	"carpool/internal/config"
	"carpool/internal/db"
	"carpool/internal/departure"
	"carpool/internal/logger"
	"carpool/internal/notify"
	"carpool/internal/payment"
	"carpool/internal/policy"
	"carpool/internal/provider"
	"carpool/internal/server"
	"carpool/internal/trip"
	"carpool/internal/wallet"

	"github.com/redis/go-redis/v9"
)

// @title Carpool Settlement API
// @version 1.0
// @description Seat booking, escrowed payments, departure confirmation and driver wallets.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	logger.Init()
	logger.Info("Starting carpool settlement service")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	database, err := db.Connect(cfg.DatabaseURL, cfg.DBMaxConnections, cfg.DBMaxIdleConnections)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()
	logger.Info("Database connected")

	if err := db.RunMigrations(database, cfg.MigrationsPath); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}
	logger.Info("Migrations completed")

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})

	var dispatcher notify.Dispatcher = notify.LogDispatcher{}
	if cfg.AMQPURL != "" {
		conn, ch, err := notify.DialAMQP(cfg.AMQPURL)
		if err != nil {
			logger.Fatalf("Failed to connect to broker: %v", err)
		}
		defer conn.Close()
		defer ch.Close()
		dispatcher = notify.NewAMQPDispatcher(ch)
		logger.Info("Notifications published to RabbitMQ", "exchange", notify.Exchange)
	}

	notifier := notify.New(rdb, dispatcher)
	defer notifier.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go notifier.Start(ctx)

	rules := policy.Rules{
		CommissionRate: cfg.CommissionRate,
		Penalty:        cfg.CancellationPenalty,
		MinWithdrawal:  cfg.MinWithdrawal,
		Location:       cfg.Location(),
	}
	tx := db.NewTxManager(database)
	gateway := provider.NewSandbox(cfg.ProviderFailPhonePrefix)

	tripRepo := trip.NewRepository(database)
	bookingRepo := booking.NewRepository(database)
	paymentRepo := payment.NewRepository(database)
	walletRepo := wallet.NewRepository(database, cfg.Currency)
	ledger := wallet.NewLedger(walletRepo)

	payments := payment.NewService(paymentRepo, bookingRepo, tripRepo, ledger, gateway, tx, notifier, rules, payment.Options{
		Currency:        cfg.Currency,
		PlatformUserID:  cfg.PlatformUserID,
		ProviderTimeout: cfg.ProviderTimeout,
	})
	bookings := booking.NewService(bookingRepo, tripRepo, payments, tx, notifier, rules)
	departures := departure.NewService(bookingRepo, tripRepo, payments, tx, notifier)
	wallets := wallet.NewService(walletRepo, ledger, tx, gateway, wallet.Options{
		Currency:        cfg.Currency,
		MinWithdrawal:   cfg.MinWithdrawal,
		ProviderTimeout: cfg.ProviderTimeout,
	})

	srv := server.New(cfg, server.Deps{
		Redis: rdb,
		Queue: notifier,
		Checks: map[string]server.Check{
			"database": database.PingContext,
			"redis":    func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		},
	}, server.Handlers{
		Trips:     trip.NewHandler(trip.NewService(tripRepo)),
		Bookings:  booking.NewHandler(bookings),
		Payments:  payment.NewHandler(payments, cfg.WebhookSecret),
		Departure: departure.NewHandler(departures),
		Wallet:    wallet.NewHandler(wallets),
	})

	serverErrChan := make(chan error, 1)
	go func() {
		logger.Infof("Server starting on port %s", cfg.Port)
		if err := srv.Start(); err != nil {
			serverErrChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Infof("Received signal: %v", sig)
	case err := <-serverErrChan:
		logger.Errorf("Server error: %v", err)
	}

	logger.Info("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Error during server shutdown: %v", err)
	}
	cancel()

	logger.Info("Server stopped")
}
