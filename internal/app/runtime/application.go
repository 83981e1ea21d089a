// Package runtime wires configuration, the chain gateway, the payment
// client and the HTTP server into a runnable application.
package runtime

import (
	"context"
	"fmt"
	"net/http"
	"time"

	app "github.com/taskchain/backend/internal/app"
	"github.com/taskchain/backend/internal/app/httpapi"
	"github.com/taskchain/backend/internal/app/metrics"
	"github.com/taskchain/backend/internal/chain"
	"github.com/taskchain/backend/internal/config"
	"github.com/taskchain/backend/internal/middleware"
	"github.com/taskchain/backend/internal/payment"
	"github.com/taskchain/backend/pkg/logger"
)

// Application manages the HTTP server lifecycle around the wired services.
type Application struct {
	cfg        *config.Config
	log        *logger.Logger
	app        *app.Application
	httpServer *http.Server
}

// NewApplication constructs an application instance with default wiring.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log := logger.New(logger.LoggingConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})

	client, err := chain.NewClient(chain.Config{
		RPCURL:    cfg.Chain.RPCURL,
		NetworkID: cfg.Chain.NetworkMagic,
	})
	if err != nil {
		return nil, fmt.Errorf("create chain client: %w", err)
	}

	gateway, err := chain.NewAchievements(client, cfg.Chain.ContractHash, cfg.Chain.OwnerKey, log.Named("chain"))
	if err != nil {
		return nil, fmt.Errorf("create achievement gateway: %w", err)
	}

	payments, err := payment.NewClient(payment.Config{
		SecretKey:  cfg.Stripe.SecretKey,
		PriceID:    cfg.Stripe.PriceID,
		SuccessURL: cfg.Stripe.SuccessURL,
		CancelURL:  cfg.Stripe.CancelURL,
	}, log.Named("payment"))
	if err != nil {
		return nil, fmt.Errorf("create payment client: %w", err)
	}

	application, err := app.New(app.Stores{}, app.Dependencies{
		Gateway:         gateway,
		Payments:        payments,
		NotifyPolicy:    config.NotifyPolicy(cfg.Chain.NotifyPolicy),
		AllowDirectMint: cfg.Chain.AllowDirectMint,
		DefaultBadgeURI: cfg.Chain.BadgeTokenURI,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("build application: %w", err)
	}

	router := httpapi.NewRouter(application)
	router.Use(metrics.InstrumentHandler)
	router.Use(middleware.LoggingMiddleware(log.Named("http")))

	cors := middleware.NewCORSMiddleware(cfg.AllowedOrigins())

	httpSrv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      cors.Handler(router),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 3 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	return &Application{
		cfg:        cfg,
		log:        log,
		app:        application,
		httpServer: httpSrv,
	}, nil
}

// Run seeds the store, starts the HTTP server and blocks until the context
// is cancelled.
func (a *Application) Run(ctx context.Context) error {
	if a.cfg.Seed.OwnerAddress != "" || a.cfg.Seed.File != "" {
		seed := config.LoadSeedOrDefault(a.cfg.Seed.File, a.cfg.Seed.OwnerAddress)
		if err := a.app.Seed(ctx, seed); err != nil {
			return fmt.Errorf("seed store: %w", err)
		}
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.With("addr", a.httpServer.Addr).Info("HTTP server listening")
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

// Shutdown gracefully shuts down the HTTP server.
func (a *Application) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	return a.httpServer.Shutdown(shutdownCtx)
}
