// Package audit implements the audit trail.
//
// Audit logs are append-only compliance records. Writes are best-effort:
// a failed write is logged to the operational channel and swallowed so it
// never fails the mutation it describes.
package audit

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"fieldops.io/fieldops/internal/domain"
	"fieldops.io/fieldops/internal/pkg/logger"
	"fieldops.io/fieldops/internal/pkg/metrics"
	"fieldops.io/fieldops/internal/store"
)

// Recorder writes audit entries inside the caller's transaction.
type Recorder struct {
	now func() time.Time
}

// NewRecorder creates a Recorder using the wall clock.
func NewRecorder() *Recorder {
	return &Recorder{now: func() time.Time { return time.Now().UTC() }}
}

// WithClock overrides the timestamp source.
func (r *Recorder) WithClock(now func() time.Time) *Recorder {
	r.now = now
	return r
}

// Entry builds an audit entry for ref attributed to actor.
func Entry(ref domain.Ref, action domain.AuditAction, changes domain.ChangeRecord, actor domain.ActorContext) domain.AuditLogEntry {
	if changes == nil {
		changes = domain.ChangeRecord{}
	}
	return domain.AuditLogEntry{
		EntityType:        ref.Kind,
		EntityID:          ref.ID,
		Action:            action,
		Changes:           changes,
		ActorTechID:       actor.TechPtr(),
		ActorDispatcherID: actor.DispatcherPtr(),
		Reason:            optional(actor.Reason),
		IPAddress:         optional(actor.IPAddress),
		UserAgent:         optional(actor.UserAgent),
	}
}

// Record appends entry in a savepoint of tx. It never returns an error: a
// failure rolls back only the audit write, then is logged and counted.
func (r *Recorder) Record(ctx context.Context, tx store.Tx, entry domain.AuditLogEntry) {
	if entry.ActorTechID != nil && entry.ActorDispatcherID != nil {
		r.fail(entry, fmt.Errorf("audit entry names both technician %s and dispatcher %s",
			*entry.ActorTechID, *entry.ActorDispatcherID))
		return
	}
	if entry.ID == "" {
		entry.ID = domain.NewID()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = r.now()
	}
	if entry.Changes == nil {
		entry.Changes = domain.ChangeRecord{}
	}

	err := tx.Savepoint(ctx, func(sp store.Tx) error {
		return sp.AppendAudit(ctx, &entry)
	})
	if err != nil {
		r.fail(entry, err)
	}
}

func (r *Recorder) fail(entry domain.AuditLogEntry, err error) {
	metrics.SideLogFailures.WithLabelValues(metrics.LogAudit).Inc()
	logger.Error("Failed to write audit log",
		zap.String("action", string(entry.Action)),
		zap.String("entity_type", string(entry.EntityType)),
		zap.String("entity_id", entry.EntityID),
		zap.Error(err),
	)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
