package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"fieldops.io/fieldops/internal/domain"
	"fieldops.io/fieldops/internal/pkg/logger"
	"fieldops.io/fieldops/internal/pkg/metrics"
	"fieldops.io/fieldops/internal/pkg/worker"
)

// feedPool is the pool name publishing tasks are submitted to.
const feedPool = worker.PoolFeed

// Submitter runs detached background tasks. *worker.Pools satisfies it.
type Submitter interface {
	SubmitDetached(poolName string, task worker.Task) error
}

// Triggers connects committed domain events to the feed sender.
type Triggers struct {
	sender Sender
	pools  Submitter
}

// NewTriggers creates the feed triggers.
func NewTriggers(sender Sender, pools Submitter) *Triggers {
	if sender == nil {
		sender = NopSender{}
	}
	return &Triggers{sender: sender, pools: pools}
}

// Register subscribes the triggers on d.
func (t *Triggers) Register(d *domain.EventDispatcher) {
	d.Register(domain.EventActivityLogged, t.OnActivityLogged)
	d.Register(domain.EventStatusDerived, t.OnStatusDerived)
}

// OnActivityLogged queues the activity entry for publishing. It returns an
// error only when the task could not be queued; delivery failures are
// reported from the task itself.
func (t *Triggers) OnActivityLogged(_ context.Context, event *domain.DomainEvent) error {
	var entry domain.ActivityLogEntry
	if err := json.Unmarshal(event.Payload, &entry); err != nil {
		metrics.SideLogFailures.WithLabelValues(metrics.LogFeed).Inc()
		return fmt.Errorf("decode activity payload: %w", err)
	}

	msg := Message{
		Key:       entry.ID,
		Value:     event.Payload,
		EventType: string(event.EventType),
		Time:      entry.CreatedAt,
	}
	publish := func(ctx context.Context) {
		if err := t.sender.Send(ctx, msg); err != nil {
			metrics.SideLogFailures.WithLabelValues(metrics.LogFeed).Inc()
			logger.Error("failed to publish activity to feed",
				zap.String("activity_id", entry.ID),
				zap.String("entity_type", string(entry.EntityType)),
				zap.String("entity_id", entry.EntityID),
				zap.Error(err),
			)
		}
	}

	if t.pools == nil {
		publish(context.Background())
		return nil
	}
	if err := t.pools.SubmitDetached(feedPool, publish); err != nil {
		metrics.SideLogFailures.WithLabelValues(metrics.LogFeed).Inc()
		return fmt.Errorf("queue activity %s: %w", entry.ID, err)
	}
	return nil
}

// OnStatusDerived records derived parent status changes in the service log.
func (t *Triggers) OnStatusDerived(_ context.Context, event *domain.DomainEvent) error {
	var p domain.StatusDerivedPayload
	if err := json.Unmarshal(event.Payload, &p); err != nil {
		return fmt.Errorf("decode status payload: %w", err)
	}
	logger.Info("status derived",
		zap.String("entity_type", string(event.AggregateType)),
		zap.String("entity_id", event.AggregateID),
		zap.String("from", p.From),
		zap.String("to", p.To),
		zap.String("reason", p.Reason),
	)
	return nil
}
