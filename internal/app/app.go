// Package app wires configuration, storage, the backend client, the events
// publisher, and the finalization workflow into one HTTP server.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	sdkapp "github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/quickserve/pos-billing/internal/api"
	"github.com/quickserve/pos-billing/internal/backend"
	"github.com/quickserve/pos-billing/internal/domain/billing"
	"github.com/quickserve/pos-billing/internal/domain/order"
	"github.com/quickserve/pos-billing/internal/events"
	"github.com/quickserve/pos-billing/internal/storage/postgres"
	"github.com/quickserve/pos-billing/pkg/health"
	"github.com/quickserve/pos-billing/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, _ *sdkapp.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	// PostgreSQL pool + migrations.
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	// Upstream POS backend client and the local open-tab cache.
	backendClient := backend.NewClient(cfg.BackendURL, cfg.BackendTimeout)
	store := postgres.NewOrderStore(pool, backendClient)

	// Optional bill-printed event publisher, wired as the post-commit hook.
	var hook billing.PostCommitHook
	if cfg.AMQPURL != "" {
		publisher, err := events.NewPublisher(cfg.AMQPURL)
		if err != nil {
			return errors.Wrap(err, "connect events publisher")
		}
		defer publisher.Close()

		hook = func(ctx context.Context, o *order.Order) error {
			return publisher.PublishBillPrinted(ctx, o)
		}
		lg.Info("Billing events enabled", zap.String("exchange", events.Exchange))
	}

	// Workflow controllers.
	finalizer := billing.NewController(backendClient, store, hook)
	reprinter := billing.NewReprinter(backendClient)

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddReadinessCheck("postgres", 5*time.Second, func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.Start(ctx, 10*time.Second)
	defer healthSvc.Stop()
	healthSvc.SetReady(true)

	// Mux: health endpoints + API routes on one server.
	mux := http.NewServeMux()
	mux.HandleFunc("GET /livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("GET /readyz", healthSvc.ReadyEndpoint)
	api.NewHandler(finalizer, reprinter, store).Register(mux)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(cfg.CORS.middleware()),
			httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.LogRequests(),
		),
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		lg.Info("Server listening", zap.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "server")
		}
		return nil
	})
	g.Go(func() error {
		// Drain: stop advertising readiness, give the LB a moment, then
		// shut the server down within the configured budget.
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
		return nil
	})

	return g.Wait()
}
