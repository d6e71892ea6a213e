package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

const (
	readTimeout           = 15 * time.Second
	shutdownTimeout       = 15 * time.Second
	healthShutdownTimeout = 5 * time.Second
)

type Application struct {
	Config     Config
	Dispatcher *Dispatcher
	Router     *mux.Router
	// Handler is Router wrapped with CORS when origins are configured.
	Handler http.Handler

	logger    *slog.Logger
	accessLog *slog.Logger
}

// NewApplication sets up the Application with its dispatcher and routes
func NewApplication(cfg Config, dispatcher *Dispatcher, logger *slog.Logger) *Application {
	app := &Application{
		Config:     cfg,
		Dispatcher: dispatcher,
		Router:     mux.NewRouter(),
		logger:     logger,
		accessLog:  logger.With("logger", "iou.api"),
	}
	app.setupRoutes()
	app.Handler = app.withCORS(app.Router)
	return app
}

// Serve handles open requests on ln until ctx is cancelled.
func (app *Application) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           app.Handler,
		ReadHeaderTimeout: readTimeout,
		ReadTimeout:       readTimeout,
	}

	app.logger.Info("Listening for URLs.", "address", ln.Addr().String(), "wsl", app.Config.WSL)
	err := serve(ctx, srv, ln, shutdownTimeout)
	if urls := app.Dispatcher.InFlightURLs(); len(urls) > 0 {
		app.logger.Warn("Stopped with URL opens still running.", "in_flight", len(urls), "urls", urls)
	}
	app.logger.Info("Server stopped.")
	return err
}

// ServeHealth runs the health check server on ln until ctx is cancelled.
func (app *Application) ServeHealth(ctx context.Context, ln net.Listener) error {
	router := mux.NewRouter()
	app.setupHealthRoutes(router)
	srv := &http.Server{
		Handler:           router,
		ReadHeaderTimeout: readTimeout,
	}

	app.logger.Info("Health check server starting.", "address", fmt.Sprintf("http://%s/health", ln.Addr()))
	return serve(ctx, srv, ln, healthShutdownTimeout)
}

// serve runs srv on ln and shuts it down gracefully once ctx is done.
func serve(ctx context.Context, srv *http.Server, ln net.Listener, timeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
