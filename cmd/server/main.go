package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dukerupert/esans/internal"
	"github.com/dukerupert/esans/internal/cookie"
	"github.com/dukerupert/esans/internal/handler/storefront"
	"github.com/dukerupert/esans/internal/middleware"
	"github.com/dukerupert/esans/internal/remote"
	"github.com/dukerupert/esans/internal/router"
	"github.com/dukerupert/esans/internal/routes"
	"github.com/dukerupert/esans/internal/session"
	"github.com/dukerupert/esans/internal/storage"
	"github.com/dukerupert/esans/internal/telemetry"
)

const shutdownTimeout = 15 * time.Second

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)
	slog.SetDefault(logger)

	// Error tracking
	flushSentry, err := telemetry.InitSentry(telemetry.SentryConfig{
		DSN:              cfg.Sentry.DSN,
		Enabled:          cfg.Sentry.Enabled,
		Environment:      cfg.Sentry.Environment,
		Release:          cfg.Sentry.Release,
		SampleRate:       cfg.Sentry.SampleRate,
		TracesSampleRate: cfg.Sentry.TracesSampleRate,
		Debug:            cfg.Sentry.Debug,
	}, logger)
	if err != nil {
		return fmt.Errorf("sentry initialization failed: %w", err)
	}
	defer flushSentry()

	telemetry.InitBusinessMetrics(cfg.Storage.Namespace)

	// Cart persistence
	logger.Info("Initializing cart storage...", "provider", cfg.Storage.Provider)
	store, err := storage.NewStorage(cfg.Storage)
	if err != nil {
		return fmt.Errorf("storage initialization failed: %w", err)
	}
	if closer, ok := store.(io.Closer); ok {
		defer closer.Close()
	}

	// Store API client
	api := remote.NewClient(cfg.API, nil, logger)
	logger.Info("Store API client initialized", "base_url", cfg.API.BaseURL)

	// Per-visitor state
	sessions := session.NewManager(session.Config{
		Namespace:   cfg.Storage.Namespace,
		IdleTimeout: cfg.Session.IdleTimeout,
	}, store, api, logger)
	defer sessions.Stop()

	// ==========================================================================
	// Initialize middleware
	// ==========================================================================

	metrics := middleware.NewMetrics(cfg.Storage.Namespace, nil)
	cookies := cookie.NewConfig(cfg.Domain.BaseDomain, cfg.Domain.Secure)

	limits := middleware.DefaultRateLimiterConfig()
	limits.RequestsPerSecond = cfg.Limits.RPS
	limits.BurstSize = cfg.Limits.Burst
	defaultRateLimiter := middleware.NewRateLimiter(limits)
	defer defaultRateLimiter.Stop()

	strictRateLimiter := middleware.NewRateLimiter(middleware.StrictRateLimiterConfig())
	defer strictRateLimiter.Stop()

	// ==========================================================================
	// Create routers and register routes
	// ==========================================================================

	r := router.New(
		router.Recovery(logger),
		middleware.RequestID,
		middleware.WithClientIP(),
		metrics.Middleware,
		router.Logger(logger),
	)

	routes.RegisterOpsRoutes(r, routes.OpsDeps{Metrics: metrics.Handler()})

	shop := r.Group(
		defaultRateLimiter.Middleware,
		middleware.MaxBodySize(middleware.DefaultMaxBodySize),
		middleware.Session(cookies, cfg.Session.CookieName, 30*24*time.Hour),
		middleware.Authenticate(api),
		middleware.WithRequestLogger(logger),
		telemetry.SentryMiddleware(),
	)
	routes.RegisterStorefrontRoutes(shop, routes.StorefrontDeps{
		CartHandler:      storefront.NewCartHandler(sessions, api),
		FavoritesHandler: storefront.NewFavoritesHandler(sessions, api),
		CheckoutHandler:  storefront.NewCheckoutHandler(sessions),
		StrictLimit:      strictRateLimiter.Middleware,
	})

	var h http.Handler = r
	if len(cfg.Domain.AllowedOrigins) > 0 {
		// Preflight requests have no route of their own.
		h = router.CORS(cfg.Domain.AllowedOrigins)(h)
	}

	// ==========================================================================
	// Start server
	// ==========================================================================

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting storefront API server", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	// The deferred sessions.Stop flushes every cart before storage closes.
	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
