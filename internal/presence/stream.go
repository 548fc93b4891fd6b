package presence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"territorial/internal/presence/realtime"
)

// Consumer reads the presence stream through a consumer group and acknowledges
// each entry after the mirror applied it. Entries that fail stay pending and
// are retried from the pending list. Entries left pending by another consumer
// for longer than the claim idle time are claimed and replayed here.
type Consumer struct {
	client  redis.UniversalClient
	mirror  *Mirror
	group   string
	name    string
	stream  string
	batch   int64
	block   time.Duration
	retry   time.Duration
	idle    time.Duration
	logger  *zap.Logger
	metrics *Metrics
}

type ConsumerOption func(*Consumer)

func WithBlock(d time.Duration) ConsumerOption {
	return func(c *Consumer) {
		if d > 0 {
			c.block = d
		}
	}
}

func WithRetryDelay(d time.Duration) ConsumerOption {
	return func(c *Consumer) {
		if d > 0 {
			c.retry = d
		}
	}
}

// WithClaimIdle sets how long an entry must sit unacknowledged under another
// consumer before this one claims it.
func WithClaimIdle(d time.Duration) ConsumerOption {
	return func(c *Consumer) {
		if d > 0 {
			c.idle = d
		}
	}
}

func WithConsumerMetrics(m *Metrics) ConsumerOption {
	return func(c *Consumer) {
		c.metrics = m
	}
}

func NewConsumer(client redis.UniversalClient, mirror *Mirror, group, name string, logger *zap.Logger, opts ...ConsumerOption) *Consumer {
	c := &Consumer{
		client: client,
		mirror: mirror,
		group:  group,
		name:   name,
		stream: realtime.StreamKey,
		batch:  100,
		block:  5 * time.Second,
		retry:  time.Second,
		idle:   time.Minute,
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// EnsureGroup creates the consumer group at the start of the stream.
func (c *Consumer) EnsureGroup(ctx context.Context) error {
	err := c.client.XGroupCreateMkStream(ctx, c.stream, c.group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("create consumer group %s: %w", c.group, err)
	}
	return nil
}

// Run consumes until ctx is cancelled. It drains this consumer's pending
// entries before reading new ones and reclaims idle entries of other
// consumers once per claim idle period.
func (c *Consumer) Run(ctx context.Context) error {
	if err := c.EnsureGroup(ctx); err != nil {
		return err
	}
	pending := true
	var lastClaim time.Time
	for ctx.Err() == nil {
		if time.Since(lastClaim) >= c.idle {
			lastClaim = time.Now()
			claimed, err := c.Reclaim(ctx)
			if err != nil && ctx.Err() == nil {
				c.logger.Warn("presence stream claim failed", zap.Error(err))
			}
			if claimed > 0 {
				c.logger.Info("claimed idle presence entries", zap.Int("entries", claimed))
				pending = true
			}
		}
		start := ">"
		if pending {
			start = "0"
		}
		n, failed, err := c.Poll(ctx, start)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			c.logger.Warn("presence stream read failed", zap.Error(err))
			c.sleep(ctx)
			continue
		}
		if pending {
			c.metrics.setPending(n)
		}
		switch {
		case failed > 0:
			pending = true
			c.sleep(ctx)
		case pending && n == 0:
			pending = false
		}
	}
	return nil
}

// Poll reads one batch starting at start ("0" for pending, ">" for new) and
// applies it. It returns how many entries it read and how many failed.
func (c *Consumer) Poll(ctx context.Context, start string) (int, int, error) {
	args := &redis.XReadGroupArgs{
		Group:    c.group,
		Consumer: c.name,
		Streams:  []string{c.stream, start},
		Count:    c.batch,
	}
	if start == ">" {
		args.Block = c.block
	}
	streams, err := c.client.XReadGroup(ctx, args).Result()
	if errors.Is(err, redis.Nil) {
		return 0, 0, nil
	}
	if err != nil {
		return 0, 0, err
	}

	read, failed := 0, 0
	for _, stream := range streams {
		for _, msg := range stream.Messages {
			read++
			if err := c.handle(ctx, msg); err != nil {
				failed++
				c.logger.Warn("presence event not applied, will retry",
					zap.String("stream_id", msg.ID),
					zap.Error(err),
				)
				continue
			}
			if err := c.client.XAck(ctx, c.stream, c.group, msg.ID).Err(); err != nil {
				return read, failed, fmt.Errorf("ack %s: %w", msg.ID, err)
			}
		}
	}
	return read, failed, nil
}

// Reclaim moves entries idle for at least the claim idle time from any
// consumer of the group to this one. They are applied by the next read of
// the pending list.
func (c *Consumer) Reclaim(ctx context.Context) (int, error) {
	claimed := 0
	start := "0-0"
	for {
		msgs, next, err := c.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
			Stream:   c.stream,
			Group:    c.group,
			Consumer: c.name,
			MinIdle:  c.idle,
			Start:    start,
			Count:    c.batch,
		}).Result()
		if err != nil {
			return claimed, fmt.Errorf("claim idle entries: %w", err)
		}
		claimed += len(msgs)
		if next == "" || next == "0-0" {
			return claimed, nil
		}
		start = next
	}
}

func (c *Consumer) handle(ctx context.Context, msg redis.XMessage) error {
	ev, err := ParseEvent(msg)
	if err != nil {
		// Malformed entries can never succeed; acknowledge them.
		c.logger.Error("dropping malformed presence entry", zap.String("stream_id", msg.ID), zap.Error(err))
		return nil
	}
	return c.mirror.Apply(ctx, ev)
}

func (c *Consumer) sleep(ctx context.Context) {
	t := time.NewTimer(c.retry)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
