// Package jobs defines River Queue job types for scheduled maintenance.
//
// With the postgres store the sweeps run as River periodic jobs. The memory
// store has no queue tables, so the same workers are driven by a ticker
// running on the worker pool.
//
// Import Path: fieldops.io/fieldops/internal/jobs
package jobs

import (
	"context"
	"time"

	"github.com/riverqueue/river"
	"go.uber.org/zap"

	"fieldops.io/fieldops/internal/pkg/logger"
	"fieldops.io/fieldops/internal/pkg/worker"
)

// PeriodicQuoteExpiry returns the River periodic job for the expiry sweep.
func PeriodicQuoteExpiry(interval time.Duration) *river.PeriodicJob {
	if interval <= 0 {
		interval = DefaultQuoteExpiryInterval
	}
	return river.NewPeriodicJob(
		river.PeriodicInterval(interval),
		func() (river.JobArgs, *river.InsertOpts) {
			return QuoteExpiryArgs{}, nil
		},
		&river.PeriodicJobOpts{RunOnStart: true},
	)
}

// Detached runs detached tasks on the worker pool. *worker.Pools satisfies it.
type Detached interface {
	SubmitDetached(poolName string, task worker.Task) error
}

// StartTicker runs w's sweep every interval on the general pool until the
// pool's service context is cancelled.
func StartTicker(pools Detached, w *QuoteExpiryWorker, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultQuoteExpiryInterval
	}
	return pools.SubmitDetached(worker.PoolGeneral, func(ctx context.Context) {
		runTicker(ctx, w, interval)
	})
}

func runTicker(ctx context.Context, w *QuoteExpiryWorker, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info("quote expiry ticker started", zap.Duration("interval", interval))
	for {
		if err := w.sweep(ctx); err != nil {
			logger.Warn("quote expiry sweep failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			logger.Info("quote expiry ticker stopped")
			return
		case <-ticker.C:
		}
	}
}
