package modules

import (
	"context"
	"fmt"

	"github.com/riverqueue/river"

	"fieldops.io/fieldops/internal/api/handlers"
	"fieldops.io/fieldops/internal/governance/audit"
	"fieldops.io/fieldops/internal/jobs"
	"fieldops.io/fieldops/internal/usecase"
)

// FieldOpsModule wires the mutation orchestrator, the entity services and
// the quote expiry sweep.
type FieldOpsModule struct {
	infra    *Infrastructure
	services *usecase.Services
	trail    *audit.Service
	expiry   *jobs.QuoteExpiryWorker
}

// NewFieldOpsModule creates the module over infra's store and event dispatcher.
func NewFieldOpsModule(infra *Infrastructure) *FieldOpsModule {
	services := usecase.NewServices(usecase.NewOrchestrator(infra.Store, infra.Events))
	return &FieldOpsModule{
		infra:    infra,
		services: services,
		trail:    audit.NewService(infra.Store),
		expiry:   jobs.NewQuoteExpiryWorker(services.Quotes),
	}
}

func (m *FieldOpsModule) Name() string { return "fieldops" }

// Services exposes the entity services for in-process callers such as the seeder.
func (m *FieldOpsModule) Services() *usecase.Services { return m.services }

func (m *FieldOpsModule) ContributeServerDeps(deps *handlers.ServerDeps) {
	if deps == nil {
		return
	}
	deps.Services = m.services
	deps.Trail = m.trail
	deps.Health = m.infra.Store
}

func (m *FieldOpsModule) RegisterWorkers(workers *river.Workers) {
	if workers == nil || m == nil {
		return
	}
	river.AddWorker(workers, m.expiry)
}

func (m *FieldOpsModule) PeriodicJobs() []*river.PeriodicJob {
	return []*river.PeriodicJob{jobs.PeriodicQuoteExpiry(m.infra.Config.River.QuoteExpiryInterval)}
}

// Start drives the expiry sweep from a ticker when River is unavailable.
func (m *FieldOpsModule) Start(context.Context) error {
	if m.infra.UsesRiver() {
		return nil
	}
	if err := jobs.StartTicker(m.infra.Pools, m.expiry, m.infra.Config.River.QuoteExpiryInterval); err != nil {
		return fmt.Errorf("start quote expiry ticker: %w", err)
	}
	return nil
}

func (m *FieldOpsModule) Shutdown(context.Context) error { return nil }
