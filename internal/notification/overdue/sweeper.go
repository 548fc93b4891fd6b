// Package overdue finds assignments past their due date and announces each one
// once as a territory.overdue event.
package overdue

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"territorial/internal/events"
	"territorial/internal/territory/models"
	id "territorial/pkg/domain"
	"territorial/pkg/platform/tx"
)

type Store interface {
	ListOverdue(ctx context.Context, now time.Time, limit int) ([]*models.Territory, error)
	// MarkOverdueNotified flags the assignment that started at assignedAt and
	// reports whether this call set the flag.
	MarkOverdueNotified(ctx context.Context, territoryID id.TerritoryID, assignedAt time.Time) (bool, error)
}

type EventAppender interface {
	Append(ctx context.Context, env events.Envelope) error
}

type Sweeper struct {
	store    Store
	outbox   EventAppender
	tx       tx.Transactor
	interval time.Duration
	batch    int
	now      func() time.Time
	logger   *zap.Logger
}

type Option func(*Sweeper)

func WithBatchSize(n int) Option {
	return func(s *Sweeper) {
		if n > 0 {
			s.batch = n
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Sweeper) {
		s.now = now
	}
}

func New(store Store, outbox EventAppender, transactor tx.Transactor, interval time.Duration, logger *zap.Logger, opts ...Option) *Sweeper {
	s := &Sweeper{
		store:    store,
		outbox:   outbox,
		tx:       transactor,
		interval: interval,
		batch:    200,
		now:      time.Now,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := s.SweepOnce(ctx); err != nil {
				s.logger.Warn("overdue sweep failed", zap.Error(err))
			}
		}
	}
}

// SweepOnce flags one batch of overdue assignments and appends an event for
// each, both in the same transaction. It returns how many were announced.
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	now := s.now().UTC()
	overdue, err := s.store.ListOverdue(ctx, now, s.batch)
	if err != nil {
		return 0, fmt.Errorf("list overdue territories: %w", err)
	}

	announced := 0
	for _, t := range overdue {
		if t.Assignment == nil {
			continue
		}
		ok, err := s.announce(ctx, t, now)
		if err != nil {
			return announced, err
		}
		if ok {
			announced++
		}
	}
	if announced > 0 {
		s.logger.Info("overdue territories announced", zap.Int("count", announced))
	}
	return announced, nil
}

func (s *Sweeper) announce(ctx context.Context, t *models.Territory, now time.Time) (bool, error) {
	a := t.Assignment
	env, err := events.New(events.TypeTerritoryOverdue, t.ID.String(), now, events.TerritoryOverdue{
		TerritoryID:    t.ID,
		CongregationID: t.CongregationID,
		Number:         t.Number,
		Name:           t.Name,
		AssigneeID:     a.AssigneeID,
		AssignedAt:     a.AssignedAt,
		DueDate:        a.DueDate,
	})
	if err != nil {
		return false, err
	}

	flagged := false
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		ok, err := s.store.MarkOverdueNotified(ctx, t.ID, a.AssignedAt)
		if err != nil {
			return fmt.Errorf("flag overdue territory %s: %w", t.ID, err)
		}
		if !ok {
			return nil
		}
		flagged = true
		return s.outbox.Append(ctx, env)
	})
	if err != nil {
		return false, err
	}
	return flagged, nil
}
