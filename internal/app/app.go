// Package app wires configuration, storage, domain services, and the HTTP
// server into a running application.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/alibolt/nuvi-checkout/internal/domain/checkout"
	"github.com/alibolt/nuvi-checkout/internal/domain/discount"
	"github.com/alibolt/nuvi-checkout/internal/handler"
	"github.com/alibolt/nuvi-checkout/internal/payment"
	"github.com/alibolt/nuvi-checkout/internal/repository"
	"github.com/alibolt/nuvi-checkout/pkg/health"
	"github.com/alibolt/nuvi-checkout/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	checkoutCfg, err := buildCheckoutConfig(cfg)
	if err != nil {
		return errors.Wrap(err, "build checkout config")
	}

	// PostgreSQL pool + migrations.
	pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddReadinessCheck("postgres", 5*time.Second, func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	// Repositories.
	storeRepo := repository.NewStoreRepository(pool)
	catalogRepo := repository.NewCatalogRepository(pool)
	discountRepo := repository.NewDiscountRepository(pool)
	orderRepo := repository.NewOrderRepository(pool)

	// Payment gateways. The platform gateway is absent until platform Stripe
	// credentials are configured; the nuvi branch then fails with a server
	// error instead of reaching the provider.
	var platform payment.Gateway
	if cfg.Platform.StripeSecretKey != "" {
		platform = payment.NewStripeClient(payment.StripeConfig{
			SecretKey: cfg.Platform.StripeSecretKey,
			AccountID: cfg.Platform.ConnectedAccountID,
		})
	} else {
		lg.Warn("Platform Stripe credentials not configured, nuvi payments disabled")
	}
	merchant := func(secretKey string) payment.Gateway {
		return payment.NewStripeClient(payment.StripeConfig{SecretKey: secretKey})
	}

	// Domain services.
	discountValidator := discount.NewRepoValidator(discountRepo)
	checkoutSvc := checkout.NewService(
		storeRepo, catalogRepo, discountValidator, orderRepo,
		platform, merchant, checkoutCfg,
	)

	// HTTP surface: storefront API + health endpoints on one mux.
	h := handler.NewHandler(checkoutSvc, storeRepo, catalogRepo)
	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	h.Register(mux)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type"},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.Instrument("nuvi-checkout", m),
			httpmiddleware.LogRequests(),
		),
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}

// buildCheckoutConfig parses the decimal-valued configuration strings into the
// injected checkout constants.
func buildCheckoutConfig(cfg *Config) (checkout.Config, error) {
	shipping, err := decimal.NewFromString(cfg.Checkout.ShippingFlatRate)
	if err != nil {
		return checkout.Config{}, errors.Wrapf(err, "parse shipping rate %q", cfg.Checkout.ShippingFlatRate)
	}
	taxRate, err := decimal.NewFromString(cfg.Checkout.TaxRate)
	if err != nil {
		return checkout.Config{}, errors.Wrapf(err, "parse tax rate %q", cfg.Checkout.TaxRate)
	}
	commission, err := decimal.NewFromString(cfg.Platform.CommissionPercent)
	if err != nil {
		return checkout.Config{}, errors.Wrapf(err, "parse commission percent %q", cfg.Platform.CommissionPercent)
	}
	fixedFee, err := decimal.NewFromString(cfg.Platform.FixedFee)
	if err != nil {
		return checkout.Config{}, errors.Wrapf(err, "parse fixed fee %q", cfg.Platform.FixedFee)
	}

	return checkout.Config{
		BaseURL:           cfg.BaseURL,
		PlatformAccountID: cfg.Platform.ConnectedAccountID,
		CommissionPercent: commission,
		FixedFee:          fixedFee,
		Pricing: checkout.PricingConfig{
			ShippingRate: shipping,
			TaxRate:      taxRate,
		},
	}, nil
}
