package cmd

import (
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/dukex/dno/pkg/channels/gochannel"
	"github.com/dukex/dno/pkg/channels/kafka"
	"github.com/dukex/dno/pkg/eventbus"
)

var SupportedEventBusProviders = []string{"gochannel", "kafka"}

// NewEventBus creates the lifecycle event bus for provider.
func NewEventBus(provider string, logger *slog.Logger, otelEnabled bool) (eventbus.EventBus, error) {
	wmLogger := watermill.NewSlogLogger(logger)

	switch provider {
	case "", "gochannel":
		pub, sub, err := gochannel.CreateChannel(wmLogger)
		if err != nil {
			return nil, fmt.Errorf("failed to create in-memory pub/sub: %w", err)
		}

		return eventbus.NewWatermillEventBus(pub, sub), nil
	case "kafka":
		pub, sub, err := kafka.CreateChannel(wmLogger, kafka.Config{
			Brokers:     kafka.BrokersFromEnv(),
			ServiceName: "dno",
			OTELEnabled: otelEnabled,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create Kafka pub/sub: %w", err)
		}

		return eventbus.NewWatermillEventBus(pub, sub), nil
	default:
		return nil, fmt.Errorf("unsupported event bus provider %q, allowed: %v", provider, SupportedEventBusProviders)
	}
}
