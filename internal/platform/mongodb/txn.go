package mongodb

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Transactor runs fn inside a multi-document transaction. Stores called with the
// ctx passed to fn join the transaction.
type Transactor struct {
	client *mongo.Client
	logger *zap.Logger
}

func NewTransactor(client *mongo.Client, logger *zap.Logger) *Transactor {
	return &Transactor{client: client, logger: logger}
}

// RunInTx commits when fn returns nil. Transient transaction errors are retried
// by the driver. Standalone servers without transaction support run fn directly.
func (t *Transactor) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	sess, err := t.client.StartSession()
	if err != nil {
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		return nil, fn(sc)
	})
	if err != nil && IsNotSupported(err) {
		t.logger.Warn("transactions not supported, running without transaction", zap.Error(err))
		return fn(ctx)
	}
	return err
}

// IsNotSupported reports whether err means the deployment cannot run
// transactions (standalone server, illegal operation in transaction).
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) {
		switch ce.Code {
		case 20, 51, 263:
			return true
		}
	}
	msg := strings.ToLower(err.Error())
	has := func(s string) bool { return strings.Contains(msg, s) }
	switch {
	case has("transaction") && has("replica set"):
		return true
	case has("session") && has("not supported"):
		return true
	case has("transaction") && has("session"):
		return true
	case has("illegal operation"):
		return true
	}
	return false
}

// IsDuplicateKey reports a unique index violation.
func IsDuplicateKey(err error) bool {
	return mongo.IsDuplicateKeyError(err)
}
