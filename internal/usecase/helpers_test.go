package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"fieldops.io/fieldops/internal/domain"
	apperrors "fieldops.io/fieldops/internal/pkg/errors"
	"fieldops.io/fieldops/internal/pkg/logger"
	"fieldops.io/fieldops/internal/store"
	"fieldops.io/fieldops/internal/store/memory"
)

func init() {
	_ = logger.Init("error", "json")
}

var (
	dispatcher = domain.ActorContext{DispatcherID: "disp-1", IPAddress: "10.0.0.9"}
	tech       = domain.ActorContext{TechID: "tech-actor"}
)

// testClock advances one minute per reading so stamps are distinguishable.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Minute)
	return c.now
}

type fixture struct {
	t      *testing.T
	ctx    context.Context
	store  *memory.Store
	svc    *Services
	events *domain.EventDispatcher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWith(t, nil)
}

// newFixtureWith wraps the memory store with wrap when given.
func newFixtureWith(t *testing.T, wrap func(store.Store) store.Store) *fixture {
	t.Helper()
	mem := memory.New()
	var s store.Store = mem
	if wrap != nil {
		s = wrap(mem)
	}
	events := domain.NewEventDispatcher()
	clock := &testClock{now: time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)}
	o := NewOrchestrator(s, events).WithClock(clock.Now)
	return &fixture{t: t, ctx: context.Background(), store: mem, svc: NewServices(o), events: events}
}

func (f *fixture) client(name string) *domain.ClientDetail {
	f.t.Helper()
	c, err := f.svc.Clients.Create(f.ctx, domain.CreateClientInput{Name: name}, dispatcher)
	require.NoError(f.t, err)
	return c
}

func (f *fixture) job(clientID string) *domain.JobDetail {
	f.t.Helper()
	j, err := f.svc.Jobs.Create(f.ctx, domain.CreateJobInput{ClientID: clientID, Title: "Boiler service"}, dispatcher)
	require.NoError(f.t, err)
	return j
}

func (f *fixture) visit(jobID string, status domain.VisitStatus) *domain.Visit {
	f.t.Helper()
	v, err := f.svc.Visits.Create(f.ctx, domain.CreateVisitInput{JobID: jobID, Status: status}, dispatcher)
	require.NoError(f.t, err)
	return v
}

func (f *fixture) audit(kind domain.Kind, id string) []domain.AuditLogEntry {
	f.t.Helper()
	entries, err := f.store.QueryAudit(f.ctx, domain.AuditQuery{EntityType: kind, EntityID: id})
	require.NoError(f.t, err)
	return entries
}

func (f *fixture) activity() []domain.ActivityLogEntry {
	f.t.Helper()
	entries, err := f.store.RecentActivity(f.ctx, 100)
	require.NoError(f.t, err)
	return entries
}

func requireKind(t *testing.T, err error, kind apperrors.Kind, code string) {
	t.Helper()
	require.Error(t, err)
	appErr, ok := apperrors.IsAppError(err)
	require.True(t, ok, "expected AppError, got %T: %v", err, err)
	require.Equal(t, kind, appErr.Kind)
	if code != "" {
		require.Equal(t, code, appErr.Code)
	}
}

// failingAuditStore fails every audit append.
type failingAuditStore struct {
	store.Store
}

func (s failingAuditStore) RunInTx(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	return s.Store.RunInTx(ctx, func(ctx context.Context, tx store.Tx) error {
		return fn(ctx, failingAuditTx{tx})
	})
}

type failingAuditTx struct {
	store.Tx
}

func (t failingAuditTx) Savepoint(ctx context.Context, fn func(store.Tx) error) error {
	return t.Tx.Savepoint(ctx, func(sp store.Tx) error { return fn(failingAuditTx{sp}) })
}

func (failingAuditTx) AppendAudit(context.Context, *domain.AuditLogEntry) error {
	return errors.New("audit_logs: relation is read-only")
}

// brokenStore fails every transaction with an unclassified error.
type brokenStore struct {
	store.Store
}

func (brokenStore) RunInTx(context.Context, func(ctx context.Context, tx store.Tx) error) error {
	return errors.New("connection reset by peer")
}
