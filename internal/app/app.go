// Package app wires configuration, logging, services and the HTTP router
// into a runnable application.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"plapulse/internal/config"
	"plapulse/internal/fetch"
	"plapulse/internal/infrastructure"
	customMiddleware "plapulse/internal/middleware"
	"plapulse/internal/services"
	handlers "plapulse/internal/transport/http"
)

const (
	// Version is the application version reported by /api/version.
	Version = "1.2.0"
	// AppName is the human-readable application name.
	AppName = "PLA Pulse - Military Activity Data Engine"
)

// BuildTime is set at compile time via -ldflags.
var BuildTime = "unknown"

// Application is the main application container.
type Application struct {
	Config        *config.Config
	Logger        *slog.Logger
	Router        *chi.Mux
	Server        *http.Server
	Metrics       *infrastructure.Metrics
	DataService   *services.DataService
	HealthService *services.HealthService
}

// NewApplication creates a new application instance with dependency
// injection.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("application starting",
		slog.String("name", AppName),
		slog.String("version", Version))

	app := &Application{
		Config:  cfg,
		Logger:  logger,
		Metrics: infrastructure.NewMetrics(),
	}

	if err := app.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.setupRouter()
	app.createServer()

	return app, nil
}

// initializeServices initializes the service layer.
func (a *Application) initializeServices() error {
	fetcher := fetch.NewFetcher(a.Logger)

	dataService, err := services.NewDataService(a.Config, fetcher, a.Metrics, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize data service: %w", err)
	}
	a.DataService = dataService
	a.HealthService = services.NewHealthService(Version, BuildTime, dataService, a.Logger)

	return nil
}

// setupRouter configures the HTTP router with all routes.
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.StructuredLogger(a.Logger))
	r.Use(customMiddleware.Recoverer(a.Logger))
	r.Use(customMiddleware.SecurityHeaders)

	if a.Config.Security.EnableCORS {
		r.Use(customMiddleware.CORS(customMiddleware.CORSConfig{
			AllowedOrigins: a.Config.Security.AllowedOrigins,
		}))
	}

	if a.Config.Security.RateLimit.Enabled {
		r.Use(customMiddleware.NewRateLimiter(
			a.Config.Security.RateLimit.RPS,
			a.Config.Security.RateLimit.Burst,
			a.Logger,
		).Handler)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Use(customMiddleware.Timeout(a.Config.Server.ReadTimeout, a.Logger))

		healthHandler := handlers.NewHealthHandler(a.HealthService, a.Logger)
		r.Get("/health", healthHandler.HealthCheck)
		r.Get("/version", healthHandler.Version)

		dataHandler := handlers.NewDataHandler(a.DataService, a.Logger)
		r.Mount("/data", dataHandler.Routes())
	})

	// Metrics endpoint outside the API middleware group.
	r.Handle("/metrics", a.Metrics.Handler())

	a.Router = r
}

// createServer creates the HTTP server.
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:      a.Router,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
		IdleTimeout:  a.Config.Server.IdleTimeout,
	}
}

// Run loads the datasets, starts the HTTP server and blocks until
// shutdown. A failed initial load leaves the server running in degraded
// mode; the rendering layer sees a clear dataset-unavailable error and
// can trigger a reload later.
func (a *Application) Run(ctx context.Context) error {
	loadCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	if err := a.DataService.LoadAll(loadCtx); err != nil {
		a.Logger.Warn("initial dataset load failed, serving degraded",
			slog.String("error", err.Error()))
	}
	cancel()

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info("http server listening", slog.String("addr", a.Server.Addr))
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	case sig := <-stop:
		a.Logger.Info("shutdown signal received", slog.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	a.Logger.Info("server stopped")
	return infrastructure.CloseLogFile()
}
