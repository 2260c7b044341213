package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront-be/internal/api"
	"storefront-be/internal/auth"
	"storefront-be/internal/cart"
	"storefront-be/internal/config"
	"storefront-be/internal/db"
	"storefront-be/internal/inventory"
	"storefront-be/internal/logger"
	"storefront-be/internal/metrics"
	"storefront-be/internal/middleware"
	"storefront-be/internal/notification"
	"storefront-be/internal/order"
	"storefront-be/internal/payment"
	"storefront-be/internal/payment/webhook"
	"storefront-be/internal/pricing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

func main() {
	hashPassword := flag.String("hash-password", "", "print a bcrypt hash for STOREFRONT_ADMIN_PASSWORD_HASH and exit")
	flag.Parse()

	if *hashPassword != "" {
		hash, err := auth.HashPassword(*hashPassword)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println(hash)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger.Init(cfg.App.Env)
	defer logger.Sync()
	log := logger.L()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal("server stopped with error", zap.Error(err))
	}
	log.Info("server stopped")
}

func run(ctx context.Context, cfg *config.Config) (err error) {
	log := logger.L()

	database, err := db.NewDatabase(ctx, cfg.DB)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, database.Close()) }()

	redisOpts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("parsing redis url: %w", err)
	}
	rdb := redis.NewClient(redisOpts)
	defer func() { err = multierr.Append(err, rdb.Close()) }()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	handler, err := newServer(ctx, cfg, database, rdb, reg)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("http server listening", zap.String("addr", srv.Addr), zap.String("env", cfg.App.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()
	return multierr.Combine(srv.Shutdown(shutdownCtx), <-serveErr)
}

// newServer wires every component behind the HTTP router.
func newServer(ctx context.Context, cfg *config.Config, database *sql.DB, rdb *redis.Client, reg *prometheus.Registry) (http.Handler, error) {
	engineCfg, err := cfg.Pricing.EngineConfig()
	if err != nil {
		return nil, err
	}
	engine := pricing.NewEngine(engineCfg)
	m := metrics.NewOrderMetrics(reg)

	gateway := payment.NewPaystackGateway(payment.PaystackConfig{
		SecretKey: cfg.Paystack.SecretKey,
		BaseURL:   cfg.Paystack.BaseURL,
		Timeout:   cfg.Paystack.Timeout,
	}, m)

	renderer, err := notification.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("building notification templates: %w", err)
	}
	var sender notification.Sender
	if cfg.SMTP.Enabled() {
		sender = notification.NewSMTPSender(notification.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.User,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		})
	} else {
		logger.FromCtx(ctx).Warn("SMTP not configured; notifications are logged only")
		sender = notification.NewLogSender(logger.L())
	}

	orderSvc := order.NewService(
		order.NewRepository(database),
		engine,
		gateway,
		notification.NewNotifier(renderer, sender),
		m,
		order.Config{ChargeCurrency: cfg.Pricing.Charge(), CallbackURL: cfg.Paystack.CallbackURL},
	)
	cartSvc := cart.NewService(cart.NewRepository(rdb, cfg.Redis.CartTTL), engine)

	tokens, err := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.TTL)
	if err != nil {
		return nil, err
	}
	if cfg.Admin.Email == "" || cfg.Admin.PasswordHash == "" {
		logger.FromCtx(ctx).Warn("admin credentials not configured; admin login disabled")
	}

	webhookHandler := webhook.NewWebhookHandler(orderSvc, gateway, payment.NewRepository(database), m)

	return api.NewRouter(api.Deps{
		Orders:    api.NewOrderHandler(orderSvc),
		Carts:     api.NewCartHandler(cartSvc, engine),
		Pricing:   api.NewPricingHandler(engine, cfg.Pricing.Charge()),
		Inventory: api.NewInventoryHandler(inventory.NewService(inventory.NewRepository(database))),
		Admin: api.NewAdminHandler(
			auth.NewAdminAuthenticator(cfg.Admin.Email, cfg.Admin.PasswordHash, tokens),
			orderSvc,
			cfg.App.IsProd(),
		),
		Webhook:    http.HandlerFunc(webhookHandler.PaymentWebhookHandler),
		Tokens:     tokens,
		Limiter:    middleware.NewRateLimiter(ctx, cfg.App.InternalKey),
		Gatherer:   reg,
		CORSOrigin: cfg.App.CORSOrigin,
		Checks: map[string]api.Checker{
			"db":    database.PingContext,
			"redis": func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		},
	}), nil
}
