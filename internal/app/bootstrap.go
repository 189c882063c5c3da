// Package app is the composition root. Bootstrap stays orchestration-only;
// each module owns its own wiring.
package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/riverqueue/river"

	"fieldops.io/fieldops/internal/api/handlers"
	"fieldops.io/fieldops/internal/app/modules"
	"fieldops.io/fieldops/internal/config"
	"fieldops.io/fieldops/internal/infrastructure"
	"fieldops.io/fieldops/internal/pkg/worker"
	"fieldops.io/fieldops/internal/usecase"
)

// Application holds composed application dependencies.
type Application struct {
	Config   *config.Config
	Router   *gin.Engine
	DB       *infrastructure.DatabaseClients
	Pools    *worker.Pools
	Services *usecase.Services
	Modules  []modules.Module

	infra *modules.Infrastructure
}

// Bootstrap initializes all dependencies using module-oriented manual DI.
func Bootstrap(ctx context.Context, cfg *config.Config) (*Application, error) {
	infra, err := modules.NewInfrastructure(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("init infrastructure: %w", err)
	}

	core := modules.NewFieldOpsModule(infra)
	feed, err := modules.NewFeedModule(infra)
	if err != nil {
		infra.Close()
		return nil, fmt.Errorf("init feed module: %w", err)
	}
	allModules := []modules.Module{core, feed}

	workers := river.NewWorkers()
	var periodic []*river.PeriodicJob
	for _, mod := range allModules {
		mod.RegisterWorkers(workers)
		if p, ok := mod.(modules.PeriodicJobProvider); ok {
			periodic = append(periodic, p.PeriodicJobs()...)
		}
	}
	if err := infra.InitRiver(workers, periodic); err != nil {
		infra.Close()
		return nil, fmt.Errorf("init river workers: %w", err)
	}

	server := handlers.NewServer(modules.NewServerDeps(allModules))

	return &Application{
		Config:   cfg,
		Router:   newRouter(cfg, server, modules.JWTConfig(cfg), infra.Metrics),
		DB:       infra.DB,
		Pools:    infra.Pools,
		Services: core.Services(),
		Modules:  allModules,
		infra:    infra,
	}, nil
}
