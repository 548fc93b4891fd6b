//go:build integration

// Package containers starts the backing services for integration tests. Each
// container is started once per test binary and shared by every suite; Ryuk
// removes them when the binary exits.
package containers

import (
	"context"
	"sync"
	"testing"
	"time"
)

const startTimeout = 2 * time.Minute

type lazy[T any] struct {
	once sync.Once
	val  T
	err  error
}

func (l *lazy[T]) get(t *testing.T, start func(context.Context) (T, error)) T {
	t.Helper()
	l.once.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), startTimeout)
		defer cancel()
		l.val, l.err = start(ctx)
	})
	if l.err != nil {
		t.Fatalf("container unavailable: %v", l.err)
	}
	return l.val
}

var (
	mongoC    lazy[*MongoContainer]
	postgresC lazy[*PostgresContainer]
	redisC    lazy[*RedisContainer]
	kafkaC    lazy[*KafkaContainer]
)

func Mongo(t *testing.T) *MongoContainer       { return mongoC.get(t, startMongo) }
func Postgres(t *testing.T) *PostgresContainer { return postgresC.get(t, startPostgres) }
func Redis(t *testing.T) *RedisContainer       { return redisC.get(t, startRedis) }
func Kafka(t *testing.T) *KafkaContainer       { return kafkaC.get(t, startKafka) }
