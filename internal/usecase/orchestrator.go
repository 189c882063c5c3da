// Package usecase provides the mutation orchestrator and the per-entity
// operations built on it.
//
// Input is validated before the transaction opens. Every mutation then runs
// as one store transaction: load, apply the lifecycle rules, persist, then record the audit and activity entries in
// savepoints of the same transaction. Side-log failures roll back only
// their own savepoint, so they can never abort the business write.
// Domain events collected during the transaction are dispatched after commit.
//
// Import Path: fieldops.io/fieldops/internal/usecase
package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"fieldops.io/fieldops/internal/changeset"
	"fieldops.io/fieldops/internal/domain"
	"fieldops.io/fieldops/internal/governance/activity"
	"fieldops.io/fieldops/internal/governance/audit"
	apperrors "fieldops.io/fieldops/internal/pkg/errors"
	"fieldops.io/fieldops/internal/pkg/logger"
	"fieldops.io/fieldops/internal/pkg/metrics"
	"fieldops.io/fieldops/internal/pkg/validate"
	"fieldops.io/fieldops/internal/store"
)

// Action names an orchestrated operation for metrics and logs.
type Action string

const (
	ActionCreate  Action = "create"
	ActionUpdate  Action = "update"
	ActionDelete  Action = "delete"
	ActionConvert Action = "convert"
	ActionAdjust  Action = "adjust"
	ActionPing    Action = "ping"
	ActionExpire  Action = "expire"
)

// Op identifies one orchestrated call.
type Op struct {
	Entity domain.Kind
	Action Action
}

// Orchestrator runs mutations atomically against a store.
type Orchestrator struct {
	store    store.Store
	recorder *audit.Recorder
	activity *activity.Logger
	events   *domain.EventDispatcher
	now      func() time.Time
}

// NewOrchestrator creates an Orchestrator. events may be nil.
func NewOrchestrator(s store.Store, events *domain.EventDispatcher) *Orchestrator {
	if events == nil {
		events = domain.NewEventDispatcher()
	}
	o := &Orchestrator{
		store:    s,
		recorder: audit.NewRecorder(),
		activity: activity.NewLogger(),
		events:   events,
	}
	return o.WithClock(func() time.Time { return time.Now().UTC() })
}

// WithClock overrides the time source for entity and trail timestamps.
func (o *Orchestrator) WithClock(now func() time.Time) *Orchestrator {
	o.now = now
	o.recorder.WithClock(now)
	o.activity.WithClock(now)
	return o
}

// Store returns the underlying store.
func (o *Orchestrator) Store() store.Store {
	return o.store
}

// Execute runs fn in a single transaction. fn's error rolls everything back.
// The returned error is always nil or an *errors.AppError.
func (o *Orchestrator) Execute(ctx context.Context, op Op, actor domain.ActorContext, fn func(u *Unit) error) error {
	start := time.Now()
	if actor.Ambiguous() {
		err := apperrors.New(apperrors.KindValidationFailed, apperrors.CodeActorAmbiguous,
			"a mutation is attributed to a technician or a dispatcher, not both")
		o.observe(op, start, err)
		return err
	}

	var events []*domain.DomainEvent
	err := o.store.RunInTx(ctx, func(ctx context.Context, tx store.Tx) error {
		u := &Unit{ctx: ctx, tx: tx, actor: actor, now: o.now(), o: o}
		if err := fn(u); err != nil {
			return err
		}
		events = u.events
		return nil
	})
	err = o.boundary(op, actor, err)
	o.observe(op, start, err)
	if err != nil {
		return err
	}

	o.events.DispatchAll(ctx, events)
	return nil
}

// ExecuteValidated checks input against its validate tags and only then
// runs Execute, so a rejected payload never opens a transaction.
func (o *Orchestrator) ExecuteValidated(ctx context.Context, op Op, input any, actor domain.ActorContext, fn func(u *Unit) error) error {
	if err := validate.Struct(input); err != nil {
		o.observe(op, time.Now(), err)
		return err
	}
	return o.Execute(ctx, op, actor, fn)
}

// View runs fn against a read-only snapshot with the same error boundary.
func (o *Orchestrator) View(ctx context.Context, op Op, fn func(ctx context.Context, r store.Reader) error) error {
	err := o.store.View(ctx, fn)
	return o.boundary(op, domain.ActorContext{}, err)
}

// boundary classifies err. Anything that is not already an AppError is
// logged and replaced by a generic failure.
func (o *Orchestrator) boundary(op Op, actor domain.ActorContext, err error) error {
	if err == nil {
		return nil
	}
	if appErr, ok := apperrors.IsAppError(err); ok {
		return appErr
	}
	var conflict *store.ConflictError
	if errors.As(err, &conflict) {
		return conflictError(conflict)
	}
	logger.Error("Mutation failed",
		zap.String("entity_type", string(op.Entity)),
		zap.String("action", string(op.Action)),
		zap.String("actor", actor.Label()),
		zap.Error(err),
	)
	return apperrors.ErrInternalFailure(err)
}

func (o *Orchestrator) observe(op Op, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = string(apperrors.KindOf(err))
	}
	metrics.MutationsTotal.WithLabelValues(string(op.Entity), string(op.Action), outcome).Inc()
	metrics.MutationDuration.WithLabelValues(string(op.Entity), string(op.Action)).Observe(time.Since(start).Seconds())
}

func conflictError(c *store.ConflictError) *apperrors.AppError {
	switch {
	case c.Kind == domain.KindTechnician && c.Field == "email":
		return apperrors.Conflict(apperrors.CodeTechnicianEmailTaken, "a technician with this email already exists")
	case c.Kind == domain.KindInventoryItem && c.Field == "sku":
		return apperrors.Conflict(apperrors.CodeInventorySKUTaken, "an inventory item with this sku already exists")
	default:
		return apperrors.Conflict(apperrors.CodeDuplicateRecord,
			fmt.Sprintf("%s %s must be unique", c.Kind, c.Field)).
			WithParams(map[string]interface{}{"entity_type": string(c.Kind), "field": c.Field})
	}
}

// Unit is the transaction-scoped handle passed to mutation bodies.
type Unit struct {
	ctx    context.Context
	tx     store.Tx
	actor  domain.ActorContext
	now    time.Time
	o      *Orchestrator
	events []*domain.DomainEvent
}

func (u *Unit) Context() context.Context   { return u.ctx }
func (u *Unit) Tx() store.Tx               { return u.tx }
func (u *Unit) Actor() domain.ActorContext { return u.actor }
func (u *Unit) Now() time.Time             { return u.now }

// Audit records one entry for ref. An update with no changes is skipped.
func (u *Unit) Audit(ref domain.Ref, action domain.AuditAction, changes domain.ChangeRecord) {
	u.auditAs(ref, action, changes, u.actor)
}

func (u *Unit) auditAs(ref domain.Ref, action domain.AuditAction, changes domain.ChangeRecord, actor domain.ActorContext) {
	if action == domain.AuditUpdated && len(changes) == 0 {
		return
	}
	u.o.recorder.Record(u.ctx, u.tx, audit.Entry(ref, action, changes, actor))
}

// Log writes an activity line for ref and queues it for the outbound feed.
func (u *Unit) Log(ref domain.Ref, description string) {
	entry := u.o.activity.Log(u.ctx, u.tx, description, u.actor, ref)
	if entry == nil {
		return
	}
	ev, err := domain.NewActivityEvent(*entry, u.actor)
	if err != nil {
		logger.Warn("Failed to build activity event", zap.String("activity_id", entry.ID), zap.Error(err))
		return
	}
	u.events = append(u.events, ev)
}

// Derived audits a status change on a parent computed from a child
// mutation. The entry keeps the caller's attribution and names the cause.
func (u *Unit) Derived(ref domain.Ref, from, to, reason string) {
	actor := u.actor
	actor.Reason = reason
	u.auditAs(ref, domain.AuditUpdated, domain.ChangeRecord{"status": {Old: from, New: to}}, actor)
	metrics.DerivedStatusChanges.WithLabelValues(string(ref.Kind), to).Inc()

	ev, err := domain.NewStatusDerivedEvent(ref, from, to, reason, u.now)
	if err != nil {
		logger.Warn("Failed to build status event", zap.String("entity", ref.String()), zap.Error(err))
		return
	}
	u.events = append(u.events, ev)
}

// Create inserts e and records it as created.
func (u *Unit) Create(e domain.Entity, tracked []string, description string) error {
	if err := store.Insert(u.ctx, u.tx, e); err != nil {
		return fmt.Errorf("insert %s: %w", e.EntityKind(), err)
	}
	ref := domain.RefOf(e)
	u.Audit(ref, domain.AuditCreated, changeset.Created(e, tracked))
	if description != "" {
		u.Log(ref, description)
	}
	return nil
}

// Save writes e when changes is non-empty and records the update.
func (u *Unit) Save(e domain.Entity, changes domain.ChangeRecord, description string) error {
	if len(changes) == 0 {
		return nil
	}
	if err := store.Update(u.ctx, u.tx, e); err != nil {
		return fmt.Errorf("update %s %s: %w", e.EntityKind(), e.EntityID(), err)
	}
	ref := domain.RefOf(e)
	u.Audit(ref, domain.AuditUpdated, changes)
	if description != "" {
		u.Log(ref, description)
	}
	return nil
}

// Remove deletes e and records it as deleted. extra is merged into the
// audit changes, e.g. a cascade summary.
func (u *Unit) Remove(e domain.Entity, tracked []string, extra domain.ChangeRecord, description string) error {
	if err := store.Delete(u.ctx, u.tx, e); err != nil {
		return fmt.Errorf("delete %s %s: %w", e.EntityKind(), e.EntityID(), err)
	}
	ref := domain.RefOf(e)
	u.Audit(ref, domain.AuditDeleted, changeset.Merge(changeset.Deleted(e, tracked), extra))
	if description != "" {
		u.Log(ref, description)
	}
	return nil
}

// load reads one entity, mapping a missing row to the entity's not-found error.
func load[T any](ctx context.Context, r store.Reader, kind domain.Kind, id string) (*T, error) {
	if id == "" {
		return nil, apperrors.ErrEntityNotFound(string(kind), id)
	}
	v, err := store.Get[T](ctx, r, kind, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperrors.ErrEntityNotFound(string(kind), id)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s %s: %w", kind, id, err)
	}
	return v, nil
}

// requireExists fails with the entity's not-found error when (kind, id) is absent.
func requireExists(ctx context.Context, r store.Reader, kind domain.Kind, id string) error {
	ok, err := store.Exists(ctx, r, kind, id)
	if err != nil {
		return fmt.Errorf("check %s %s: %w", kind, id, err)
	}
	if !ok {
		return apperrors.ErrEntityNotFound(string(kind), id)
	}
	return nil
}
