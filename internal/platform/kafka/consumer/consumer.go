// Package consumer runs an at-least-once Kafka consumer group. Offsets are
// committed only after the handler returns nil for a record.
package consumer

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/twmb/franz-go/pkg/kgo"
	"go.uber.org/zap"
)

// Message is a consumed record, decoupled from the client library.
type Message struct {
	Topic     string
	Partition int32
	Offset    int64
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Timestamp time.Time
}

// Handler processes one message. Returning an error wrapped with
// backoff.Permanent skips the message; any other error is retried.
type Handler interface {
	Handle(ctx context.Context, msg *Message) error
}

type Consumer struct {
	client     *kgo.Client
	handler    Handler
	logger     *zap.Logger
	maxBackoff time.Duration
}

type Option func(*Consumer)

func WithMaxBackoff(d time.Duration) Option {
	return func(c *Consumer) {
		c.maxBackoff = d
	}
}

// New joins group on topics. The client starts fetching from the earliest
// offset when the group has no committed offset.
func New(brokers []string, group string, topics []string, handler Handler, logger *zap.Logger, opts ...Option) (*Consumer, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ConsumerGroup(group),
		kgo.ConsumeTopics(topics...),
		kgo.DisableAutoCommit(),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	if err != nil {
		return nil, err
	}
	c := &Consumer{client: client, handler: handler, logger: logger, maxBackoff: 30 * time.Second}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Run polls until ctx is cancelled. Records are handled in partition order;
// a failing record is retried with backoff and blocks its partition.
func (c *Consumer) Run(ctx context.Context) error {
	defer c.client.Close()
	for {
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() || ctx.Err() != nil {
			return ctx.Err()
		}
		fetches.EachError(func(topic string, partition int32, err error) {
			c.logger.Error("kafka fetch error",
				zap.String("topic", topic),
				zap.Int32("partition", partition),
				zap.Error(err),
			)
		})

		var handled []*kgo.Record
		fetches.EachRecord(func(rec *kgo.Record) {
			if ctx.Err() != nil {
				return
			}
			if err := c.process(ctx, rec); err != nil {
				return
			}
			handled = append(handled, rec)
		})
		if len(handled) == 0 {
			continue
		}
		if err := c.client.CommitRecords(ctx, handled...); err != nil {
			c.logger.Error("kafka commit failed", zap.Error(err))
		}
	}
}

// process runs the handler with retries. It returns an error only when ctx
// ended before the record was handled.
func (c *Consumer) process(ctx context.Context, rec *kgo.Record) error {
	msg := toMessage(rec)
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = min(policy.InitialInterval, c.maxBackoff)
	policy.MaxInterval = c.maxBackoff
	policy.MaxElapsedTime = 0

	attempt := 0
	var rejected error
	err := backoff.Retry(func() error {
		attempt++
		err := c.handler.Handle(ctx, msg)
		var permanent *backoff.PermanentError
		switch {
		case err == nil:
		case errors.As(err, &permanent):
			rejected = permanent.Err
		default:
			c.logger.Warn("kafka handler failed",
				zap.String("topic", msg.Topic),
				zap.Int32("partition", msg.Partition),
				zap.Int64("offset", msg.Offset),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
		}
		return err
	}, backoff.WithContext(policy, ctx))

	if err == nil {
		return nil
	}
	if rejected != nil {
		c.logger.Error("kafka handler rejected message, skipping",
			zap.String("topic", msg.Topic),
			zap.Int64("offset", msg.Offset),
			zap.Error(rejected),
		)
		return nil
	}
	return err
}

func toMessage(rec *kgo.Record) *Message {
	headers := make(map[string]string, len(rec.Headers))
	for _, h := range rec.Headers {
		headers[h.Key] = string(h.Value)
	}
	return &Message{
		Topic:     rec.Topic,
		Partition: rec.Partition,
		Offset:    rec.Offset,
		Key:       rec.Key,
		Value:     rec.Value,
		Headers:   headers,
		Timestamp: rec.Timestamp,
	}
}
