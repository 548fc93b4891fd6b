//go:build integration

package containers

import (
	"context"
	"fmt"

	"github.com/testcontainers/testcontainers-go/modules/redpanda"
)

// KafkaContainer is a Kafka compatible broker.
type KafkaContainer struct {
	Container *redpanda.Container
	Brokers   []string
}

func startKafka(ctx context.Context) (*KafkaContainer, error) {
	container, err := redpanda.Run(ctx, "docker.redpanda.com/redpandadata/redpanda:v24.2.4",
		redpanda.WithAutoCreateTopics(),
	)
	if err != nil {
		return nil, fmt.Errorf("start redpanda: %w", err)
	}
	broker, err := container.KafkaSeedBroker(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("redpanda seed broker: %w", err)
	}
	return &KafkaContainer{Container: container, Brokers: []string{broker}}, nil
}
