// Package tx defines the transaction boundary services depend on. The Mongo
// implementation lives in internal/platform/mongodb; in-memory stores use Locked.
package tx

import (
	"context"
	"sync"
)

// Transactor runs fn atomically. Store calls made with the ctx handed to fn
// participate in the transaction.
type Transactor interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Locked serializes transactions with a mutex. It gives in-memory stores
// isolation but not rollback.
type Locked struct {
	mu sync.Mutex
}

func (l *Locked) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return fn(ctx)
}
