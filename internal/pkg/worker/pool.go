// Package worker runs background work on bounded ants pools.
//
// Nothing in fieldops starts a bare goroutine for request-scoped or
// background work. Tasks go through a named pool so shutdown can cancel and
// drain them, and so the pool gauges on /metrics stay truthful.
package worker

import (
	"context"
	"errors"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"fieldops.io/fieldops/internal/pkg/logger"
	"fieldops.io/fieldops/internal/pkg/metrics"
)

// Pool names accepted by SubmitDetached.
const (
	PoolGeneral = "general"
	PoolFeed    = "feed"
)

// drainTimeout bounds how long Shutdown waits for running tasks per pool.
const drainTimeout = 30 * time.Second

// ErrPoolClosed is returned when submitting after Shutdown.
var ErrPoolClosed = errors.New("worker pool is closed")

// Task receives the context it must honour at blocking points.
type Task func(ctx context.Context)

// Pool is one named ants pool.
type Pool struct {
	name string
	ants *ants.Pool
}

// Pools holds the general pool (expiry ticker, misc) and the feed pool
// (post-commit activity publishing to Kafka).
type Pools struct {
	General *Pool
	Feed    *Pool

	// serviceCtx outlives requests and is cancelled by Shutdown.
	serviceCtx    context.Context
	serviceCancel context.CancelFunc
}

// PoolConfig sizes the pools.
type PoolConfig struct {
	GeneralPoolSize int
	FeedPoolSize    int
}

// DefaultPoolConfig mirrors the config package defaults.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{GeneralPoolSize: 100, FeedPoolSize: 20}
}

func newPool(name string, size int, idle time.Duration) (*Pool, error) {
	p, err := ants.NewPool(size,
		ants.WithNonblocking(false),
		ants.WithExpiryDuration(idle),
		ants.WithPanicHandler(func(v any) {
			logger.Error("worker task panicked",
				zap.String("pool", name),
				zap.Any("panic", v),
				zap.Stack("stack"),
			)
		}),
	)
	if err != nil {
		return nil, err
	}
	return &Pool{name: name, ants: p}, nil
}

// NewPools creates both pools. Detached tasks inherit a context derived
// from ctx.
func NewPools(ctx context.Context, cfg PoolConfig) (*Pools, error) {
	general, err := newPool(PoolGeneral, cfg.GeneralPoolSize, 10*time.Second)
	if err != nil {
		return nil, err
	}
	// Feed workers hold broker connections, so idle workers live longer.
	feed, err := newPool(PoolFeed, cfg.FeedPoolSize, 30*time.Second)
	if err != nil {
		general.ants.Release()
		return nil, err
	}

	serviceCtx, serviceCancel := context.WithCancel(ctx)
	return &Pools{
		General:       general,
		Feed:          feed,
		serviceCtx:    serviceCtx,
		serviceCancel: serviceCancel,
	}, nil
}

// Submit queues task with the caller's ctx. A ctx that is already done is
// returned as its error; a ctx cancelled while queued skips the task.
func (p *Pool) Submit(ctx context.Context, task Task) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.run(ctx, task)
}

func (p *Pool) run(ctx context.Context, task Task) error {
	err := p.ants.Submit(func() {
		if ctx.Err() != nil {
			logger.Debug("worker task skipped", zap.String("pool", p.name), zap.Error(ctx.Err()))
			return
		}
		task(ctx)
	})
	if errors.Is(err, ants.ErrPoolClosed) {
		return ErrPoolClosed
	}
	return err
}

// SubmitDetached runs task under the service context rather than a request
// context, so it survives the request but stops at Shutdown. Unknown pool
// names run on the general pool.
func (p *Pools) SubmitDetached(poolName string, task Task) error {
	return p.byName(poolName).run(p.serviceCtx, task)
}

func (p *Pools) byName(name string) *Pool {
	if name == PoolFeed {
		return p.Feed
	}
	return p.General
}

// Shutdown cancels detached tasks and waits for running ones to return.
func (p *Pools) Shutdown() {
	p.serviceCancel()
	for _, pool := range []*Pool{p.General, p.Feed} {
		if err := pool.ants.ReleaseTimeout(drainTimeout); err != nil {
			logger.Warn("worker pool did not drain", zap.String("pool", pool.name), zap.Error(err))
		}
	}
}

// Stats snapshots both pools for the prometheus pool collector.
func (p *Pools) Stats() []metrics.PoolStat {
	return []metrics.PoolStat{p.General.stat(), p.Feed.stat()}
}

func (p *Pool) stat() metrics.PoolStat {
	return metrics.PoolStat{
		Name:    p.name,
		Running: p.ants.Running(),
		Free:    p.ants.Free(),
		Cap:     p.ants.Cap(),
		Waiting: p.ants.Waiting(),
	}
}
