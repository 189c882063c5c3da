package modules

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/riverqueue/river"
	"go.uber.org/zap"

	"fieldops.io/fieldops/internal/config"
	"fieldops.io/fieldops/internal/domain"
	"fieldops.io/fieldops/internal/infrastructure"
	"fieldops.io/fieldops/internal/pkg/logger"
	"fieldops.io/fieldops/internal/pkg/metrics"
	"fieldops.io/fieldops/internal/pkg/worker"
	"fieldops.io/fieldops/internal/store"
	"fieldops.io/fieldops/internal/store/memory"
)

// Infrastructure holds shared cross-cutting dependencies for all modules.
// It is a provider, not a Module.
type Infrastructure struct {
	Config *config.Config
	Store  store.Store
	// DB is nil with the memory driver.
	DB      *infrastructure.DatabaseClients
	Pools   *worker.Pools
	Events  *domain.EventDispatcher
	Metrics *prometheus.Registry
}

// NewInfrastructure opens the configured store and creates the worker pools.
func NewInfrastructure(ctx context.Context, cfg *config.Config) (*Infrastructure, error) {
	infra := &Infrastructure{
		Config:  cfg,
		Events:  domain.NewEventDispatcher(),
		Metrics: metrics.NewRegistry(),
	}

	switch cfg.Database.Driver {
	case config.DriverPostgres:
		db, err := infrastructure.NewDatabaseClients(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("init database: %w", err)
		}
		// Dev-mode: create store tables + River queue tables.
		if cfg.Database.AutoMigrate {
			if err := db.AutoMigrate(ctx); err != nil {
				db.Close()
				return nil, fmt.Errorf("auto-migrate: %w", err)
			}
		}
		infra.DB = db
		infra.Store = db.Store
	case config.DriverMemory, "":
		infra.Store = memory.New()
		logger.Warn("using in-memory store; data is lost on restart")
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}

	pools, err := worker.NewPools(ctx, worker.PoolConfig{
		GeneralPoolSize: cfg.Worker.GeneralPoolSize,
		FeedPoolSize:    cfg.Worker.FeedPoolSize,
	})
	if err != nil {
		infra.Close()
		return nil, fmt.Errorf("init worker pools: %w", err)
	}
	infra.Pools = pools
	infra.Metrics.MustRegister(metrics.NewPoolCollector(pools.Stats))

	logger.Info("infrastructure ready", zap.String("driver", cfg.Database.Driver))
	return infra, nil
}

// UsesRiver reports whether jobs run through the River queue.
func (i *Infrastructure) UsesRiver() bool {
	return i != nil && i.DB != nil
}

// InitRiver initializes the River client on top of a prepared worker
// registry. It is a no-op without a database.
func (i *Infrastructure) InitRiver(workers *river.Workers, periodic []*river.PeriodicJob) error {
	if i == nil || i.Config == nil {
		return fmt.Errorf("infrastructure is not initialized")
	}
	if !i.UsesRiver() {
		return nil
	}
	if err := i.DB.InitRiverClient(workers, periodic, i.Config.River); err != nil {
		return fmt.Errorf("init river: %w", err)
	}
	return nil
}

// Close releases infra resources in reverse dependency order.
func (i *Infrastructure) Close() {
	if i == nil {
		return
	}
	if i.Pools != nil {
		i.Pools.Shutdown()
	}
	if i.DB != nil {
		i.DB.Close()
	} else if i.Store != nil {
		i.Store.Close()
	}
}
