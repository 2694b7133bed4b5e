// Package app wires configuration, logging, the analysis service and the
// HTTP transport into a runnable server.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"pricelens/internal/config"
	"pricelens/internal/infrastructure"
	"pricelens/internal/middleware"
	"pricelens/internal/services"
	transporthttp "pricelens/internal/transport/http"
)

// Application holds the assembled server and its dependencies.
type Application struct {
	Config  *config.Config
	Logger  *slog.Logger
	Service *services.AnalysisService
	Server  *http.Server
}

// New builds the application from configuration. The dataset is loaded
// eagerly so the first request never pays the pipeline cost.
func New(cfg *config.Config) (*Application, error) {
	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}
	slog.SetDefault(logger)

	service := services.NewAnalysisService(cfg, logger)

	app := &Application{
		Config:  cfg,
		Logger:  logger,
		Service: service,
	}
	app.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      app.router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	return app, nil
}

func (a *Application) router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.StructuredLogger(a.Logger))
	r.Use(middleware.Recoverer(a.Logger))
	if a.Config.Server.RateLimit.Enabled {
		r.Use(middleware.RateLimit(a.Config.Server.RateLimit.RPS, a.Config.Server.RateLimit.Burst))
	}

	handler := transporthttp.NewDataHandler(a.Service, a.Logger, a.Config.Pipeline.IncludePriceChange)
	r.Mount("/api", handler.Routes())
	return r
}

// Run loads the dataset, starts the HTTP server and blocks until the
// context is cancelled or a termination signal arrives.
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := a.Service.Refresh(ctx); err != nil {
		// Serve anyway so /api/health can report the empty dataset.
		a.Logger.ErrorContext(ctx, "initial dataset load failed",
			slog.String("error", err.Error()),
			slog.String("source", a.Config.Input.Path))
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Logger.InfoContext(ctx, "server listening",
			slog.String("addr", a.Server.Addr))
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		a.Logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout())
		defer cancel()
		if err := a.Server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	})

	err := g.Wait()
	infrastructure.CloseLogFile()
	return err
}

func (a *Application) shutdownTimeout() time.Duration {
	if a.Config.Server.ShutdownTimeout > 0 {
		return a.Config.Server.ShutdownTimeout
	}
	return 10 * time.Second
}
