//go:build integration

package events

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"territorial/internal/events"
	"territorial/internal/outbox"
	kafkaadmin "territorial/internal/platform/kafka/admin"
	"territorial/internal/platform/kafka/consumer"
	"territorial/internal/platform/kafka/producer"
	id "territorial/pkg/domain"
	"territorial/pkg/testutil/containers"
)

func TestRelayDeliversThroughBroker(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	kc := containers.Kafka(t)
	require.NoError(t, kafkaadmin.EnsureTopics(ctx, kc.Brokers, 1, 1, events.Topics...))

	store := outbox.NewInMemoryStore()
	for range 3 {
		env, err := events.New(events.TypeTerritoryCreated, id.NewTerritoryID().String(), time.Now(), events.TerritorySnapshot{
			TerritoryID:    id.NewTerritoryID(),
			CongregationID: id.NewCongregationID(),
		})
		require.NoError(t, err)
		require.NoError(t, store.Append(ctx, env))
	}

	prod, err := producer.New(kc.Brokers)
	require.NoError(t, err)
	defer prod.Close()
	sent, err := outbox.NewRelay(store, prod, zap.NewNop()).RelayOnce(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, sent)

	var seen atomic.Int32
	router := events.NewRouter(zap.NewNop())
	router.Register(events.TypeTerritoryCreated, events.HandlerFunc(func(context.Context, events.Envelope) error {
		seen.Add(1)
		return nil
	}))
	cons, err := consumer.New(kc.Brokers, "it-"+id.NewUserID().String(), events.Topics, router, zap.NewNop())
	require.NoError(t, err)

	runCtx, stop := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- cons.Run(runCtx) }()

	require.Eventually(t, func() bool { return seen.Load() == 3 }, 30*time.Second, 100*time.Millisecond)
	stop()
	<-done

	pending, err := store.Pending(ctx, 10)
	require.NoError(t, err)
	require.Empty(t, pending)
}
