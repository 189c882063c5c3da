// Package activity writes the human-readable operations feed. Entries carry
// no structured change data and are only written for attributed actors.
package activity

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"fieldops.io/fieldops/internal/domain"
	"fieldops.io/fieldops/internal/pkg/logger"
	"fieldops.io/fieldops/internal/pkg/metrics"
	"fieldops.io/fieldops/internal/store"
)

var errAmbiguousActor = errors.New("activity actor names both a technician and a dispatcher")

// Logger writes activity entries inside the caller's transaction.
type Logger struct {
	now func() time.Time
}

// NewLogger creates a Logger using the wall clock.
func NewLogger() *Logger {
	return &Logger{now: func() time.Time { return time.Now().UTC() }}
}

// WithClock overrides the timestamp source.
func (l *Logger) WithClock(now func() time.Time) *Logger {
	l.now = now
	return l
}

// Log appends description for actor in a savepoint of tx. It returns the
// written entry, or nil when the actor is the system or the write failed.
// Failures are logged and counted, never returned.
func (l *Logger) Log(ctx context.Context, tx store.Tx, description string, actor domain.ActorContext, ref domain.Ref) *domain.ActivityLogEntry {
	if actor.IsSystem() {
		return nil
	}
	entry := &domain.ActivityLogEntry{
		ID:                domain.NewID(),
		Description:       description,
		ActorTechID:       actor.TechPtr(),
		ActorDispatcherID: actor.DispatcherPtr(),
		EntityType:        ref.Kind,
		EntityID:          ref.ID,
		CreatedAt:         l.now(),
	}
	if actor.Ambiguous() {
		l.fail(entry, errAmbiguousActor)
		return nil
	}

	err := tx.Savepoint(ctx, func(sp store.Tx) error {
		return sp.AppendActivity(ctx, entry)
	})
	if err != nil {
		l.fail(entry, err)
		return nil
	}
	return entry
}

func (l *Logger) fail(entry *domain.ActivityLogEntry, err error) {
	metrics.SideLogFailures.WithLabelValues(metrics.LogActivity).Inc()
	logger.Error("Failed to write activity log",
		zap.String("description", entry.Description),
		zap.String("entity_type", string(entry.EntityType)),
		zap.String("entity_id", entry.EntityID),
		zap.Error(err),
	)
}
