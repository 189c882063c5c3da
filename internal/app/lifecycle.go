package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"fieldops.io/fieldops/internal/app/modules"
	"fieldops.io/fieldops/internal/pkg/logger"
)

// Start starts all background services (River workers, sweep tickers).
func (a *Application) Start(ctx context.Context) error {
	if a.DB != nil && a.DB.RiverClient != nil {
		if err := a.DB.RiverClient.Start(ctx); err != nil {
			return fmt.Errorf("start river client: %w", err)
		}
		logger.Info("River client started, jobs will now be consumed")
	}
	for _, mod := range a.Modules {
		s, ok := mod.(modules.Starter)
		if !ok {
			continue
		}
		if err := s.Start(ctx); err != nil {
			return fmt.Errorf("start module %s: %w", mod.Name(), err)
		}
	}
	return nil
}

// Shutdown gracefully shuts down all application components.
func (a *Application) Shutdown() {
	shutdownCtx := context.Background()

	if a.DB != nil && a.DB.RiverClient != nil {
		if err := a.DB.RiverClient.Stop(shutdownCtx); err != nil {
			logger.Error("failed to stop river client", zap.Error(err))
		}
		logger.Info("River client stopped")
	}

	// Pools drain first so queued feed publishes reach the sender before it closes.
	if a.Pools != nil {
		a.Pools.Shutdown()
	}

	for _, mod := range a.Modules {
		if mod == nil {
			continue
		}
		if err := mod.Shutdown(shutdownCtx); err != nil {
			logger.Warn("module shutdown returned error",
				zap.String("module", mod.Name()),
				zap.Error(err),
			)
		}
	}

	switch {
	case a.DB != nil:
		a.DB.Close()
	case a.infra != nil && a.infra.Store != nil:
		a.infra.Store.Close()
	}
}
