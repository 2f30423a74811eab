package main

import (
	"context"
	"database/sql"
	"errors"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/01moynul/tvshop-golang/internal/auth"
	"github.com/01moynul/tvshop-golang/internal/cart"
	"github.com/01moynul/tvshop-golang/internal/checkout"
	"github.com/01moynul/tvshop-golang/internal/config"
	"github.com/01moynul/tvshop-golang/internal/database"
	"github.com/01moynul/tvshop-golang/internal/email"
	"github.com/01moynul/tvshop-golang/internal/events"
	"github.com/01moynul/tvshop-golang/internal/handlers"
	"github.com/01moynul/tvshop-golang/internal/invoice"
	"github.com/01moynul/tvshop-golang/internal/lock"
	"github.com/01moynul/tvshop-golang/internal/logging"
	"github.com/01moynul/tvshop-golang/internal/middleware"
	"github.com/01moynul/tvshop-golang/internal/order"
	"github.com/01moynul/tvshop-golang/internal/payment"
	"github.com/01moynul/tvshop-golang/internal/routes"
	"github.com/01moynul/tvshop-golang/internal/store"
	"github.com/01moynul/tvshop-golang/internal/worker"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	// 0. --- Configuration (.env + environment) ---
	cfg, err := config.Load()
	if err != nil {
		bootLogger := logging.New("info", false)
		bootLogger.Fatal().Err(err).Msg("invalid configuration")
	}
	logger := logging.New(cfg.Log.Level, cfg.Log.Pretty)
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}
	if !cfg.Log.Pretty {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. --- Main Database Connection (Read/Write) ---
	db, err := database.OpenDB(ctx, cfg.DB, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to primary database")
	}
	defer db.Close()

	if err := database.MigrateUp(db); err != nil {
		logger.Fatal().Err(err).Msg("failed to apply migrations")
	}

	// 2. --- Services ---
	app, cleanup := buildApp(cfg, db, logger)
	defer cleanup()

	// 3. --- Background Workers ---
	// Orders whose payment never resolved are cancelled after PENDING_ORDER_TTL.
	sweeper := worker.NewSweeper(app.store, cfg.Worker.PendingOrderTTL, cfg.Worker.SweepInterval, logger)
	go sweeper.Run(ctx)

	// 4. --- Router Setup ---
	router := routes.SetupRouter(app.handlers, routes.Options{
		Tokens:          auth.NewManager(cfg.JWT.Secret, cfg.JWT.TTL),
		AllowedOrigin:   cfg.HTTP.AllowedOrigin,
		CheckoutLimiter: middleware.NewRateLimiter(cfg.Checkout.RatePerSecond, cfg.Checkout.Burst, 10*time.Minute),
		Logger:          logger,
	})

	// 5. --- Start Server ---
	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", cfg.HTTP.Addr).Str("store", cfg.Store.Name).Msg("starting TV Shop API server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	// In-flight checkouts get enough time to settle their payment.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Payment.Timeout+5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
}

type app struct {
	store    *store.Store
	handlers *handlers.Handlers
}

// buildApp wires every dependency. Redis, Kafka and SMTP are optional:
// without them locks stay in-process, events are dropped and emails are logged.
func buildApp(cfg *config.Config, db *sql.DB, logger zerolog.Logger) (*app, func()) {
	var closers []func() error

	st := store.New(db)

	var locker lock.Locker = lock.NewLocalLocker()
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		closers = append(closers, rdb.Close)
		locker = lock.NewRedisLocker(rdb, cfg.Redis.LockTTL)
		logger.Info().Str("addr", cfg.Redis.Addr).Msg("using redis cart locks")
	}

	var publisher events.Publisher = events.NopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		kp := events.NewKafkaPublisher(events.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.OrderTopic))
		closers = append(closers, kp.Close)
		publisher = kp
		logger.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.OrderTopic).Msg("publishing order events")
	}

	var mailer email.Mailer = email.NewLogMailer(logger)
	if cfg.SMTP.Host != "" {
		mailer = email.NewSMTPMailer(cfg.SMTP)
	}

	cartSvc := cart.NewService(st, locker, logger)
	outcome := payment.NewRandomOutcome(rand.NewSource(time.Now().UnixNano()), cfg.Payment.SuccessRate)
	invoices := invoice.NewGenerator(st, logger)

	orchestrator := checkout.New(checkout.Deps{
		Cart:           cartSvc,
		Orders:         st,
		Payments:       payment.NewSimulator(outcome, cfg.Payment.Latency, logger),
		Invoices:       invoices,
		Assembler:      order.NewAssembler(),
		Events:         publisher,
		Notifier:       email.NewOrderNotifier(mailer, cfg.Store),
		Logger:         logger,
		PaymentTimeout: cfg.Payment.Timeout,
	})

	h := &handlers.Handlers{
		Cart:         cartSvc,
		Orchestrator: orchestrator,
		Orders:       st,
		Catalog:      st,
		Ratings:      st,
		Invoices:     invoices,
		Events:       publisher,
		Settings:     cfg.Store,
		Logger:       logger,
	}

	cleanup := func() {
		for _, c := range closers {
			if err := c(); err != nil {
				logger.Warn().Err(err).Msg("close failed")
			}
		}
	}
	return &app{store: st, handlers: h}, cleanup
}
