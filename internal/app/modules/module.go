// Package modules contains the dependency modules wired by the composition root.
//
// Import Path: fieldops.io/fieldops/internal/app/modules
package modules

import (
	"context"

	"github.com/riverqueue/river"

	"fieldops.io/fieldops/internal/api/handlers"
)

// Module represents a domain-specific dependency unit in the composition root.
type Module interface {
	// Name returns a stable module identifier for logging/debugging.
	Name() string

	// ContributeServerDeps injects module-owned dependencies into the HTTP server deps.
	ContributeServerDeps(*handlers.ServerDeps)

	// RegisterWorkers registers module workers into a shared River worker registry.
	RegisterWorkers(*river.Workers)

	// Shutdown performs module-local graceful cleanup.
	Shutdown(context.Context) error
}

// PeriodicJobProvider is implemented by modules that schedule River periodic jobs.
type PeriodicJobProvider interface {
	PeriodicJobs() []*river.PeriodicJob
}

// Starter is implemented by modules with background work that must begin
// after bootstrap completes.
type Starter interface {
	Start(context.Context) error
}
