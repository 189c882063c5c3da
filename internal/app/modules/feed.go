package modules

import (
	"context"
	"fmt"

	"github.com/riverqueue/river"
	"go.uber.org/zap"

	"fieldops.io/fieldops/internal/api/handlers"
	"fieldops.io/fieldops/internal/domain"
	"fieldops.io/fieldops/internal/notification"
	"fieldops.io/fieldops/internal/pkg/logger"
)

// FeedModule publishes committed activity entries to the outbound feed.
type FeedModule struct {
	sender notification.Sender
}

// NewFeedModule subscribes the feed triggers to infra's event dispatcher.
// With kafka disabled the triggers still run against a no-op sender.
func NewFeedModule(infra *Infrastructure) (*FeedModule, error) {
	kc := infra.Config.Kafka

	var sender notification.Sender = notification.NopSender{}
	if kc.Enabled {
		ks, err := notification.NewKafkaSender(notification.KafkaConfig{
			Brokers:      kc.Brokers,
			Topic:        kc.ActivityTopic,
			WriteTimeout: kc.WriteTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("init kafka sender: %w", err)
		}
		sender = ks
		logger.Info("activity feed enabled",
			zap.Strings("brokers", kc.Brokers),
			zap.String("topic", kc.ActivityTopic),
		)
	}

	notification.NewTriggers(sender, infra.Pools).Register(infra.Events)
	logger.Debug("feed subscribers registered",
		zap.Int("activity", infra.Events.Subscribers(domain.EventActivityLogged)),
		zap.Int("status_derived", infra.Events.Subscribers(domain.EventStatusDerived)),
	)
	return &FeedModule{sender: sender}, nil
}

func (m *FeedModule) Name() string { return "feed" }

func (m *FeedModule) ContributeServerDeps(*handlers.ServerDeps) {}

func (m *FeedModule) RegisterWorkers(*river.Workers) {}

func (m *FeedModule) Shutdown(context.Context) error {
	return m.sender.Close()
}
