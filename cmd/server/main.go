// Command server runs the fieldops HTTP API together with its background
// sweeps and activity feed.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"go.uber.org/zap"

	"fieldops.io/fieldops/internal/app"
	"fieldops.io/fieldops/internal/config"
	"fieldops.io/fieldops/internal/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fieldops: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.Bootstrap(ctx, cfg)
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	defer application.Shutdown()

	if err := application.Start(ctx); err != nil {
		return fmt.Errorf("start background services: %w", err)
	}

	srv := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Server.Port),
		Handler:      application.Router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	logger.Info("fieldops listening",
		zap.String("addr", srv.Addr),
		zap.String("store", cfg.Database.Driver),
		zap.Bool("activity_feed", cfg.Kafka.Enabled),
		zap.String("log_level", cfg.Log.Level),
	)
	return serve(ctx, srv, cfg.Server)
}

// serve blocks until ctx is cancelled or the listener fails, then drains
// in-flight requests within the configured shutdown timeout.
func serve(ctx context.Context, srv *http.Server, cfg config.ServerConfig) error {
	listenErr := make(chan error, 1)
	go func() { //nolint:naked-goroutine // listener goroutine owned by main
		listenErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-listenErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
		logger.Info("shutdown signal received, draining requests",
			zap.Duration("timeout", cfg.ShutdownTimeout),
		)
	}

	drainCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(drainCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}
