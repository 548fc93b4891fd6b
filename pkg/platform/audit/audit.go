// Package audit records who did what to accounts and congregations. Events are
// append-only and outlive the rows they describe.
package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	id "territorial/pkg/domain"
	"territorial/pkg/requestcontext"
)

type Action string

const (
	ActionAccountDeleted          Action = "account_deleted"
	ActionMemberRegistered        Action = "member_registered"
	ActionCongregationProvisioned Action = "congregation_provisioned"
)

type Event struct {
	ID             string
	Action         Action
	ActorID        id.UserID
	SubjectID      string
	CongregationID id.CongregationID
	RequestID      string
	At             time.Time
}

type Store interface {
	Append(ctx context.Context, ev Event) error
}

// Recorder stamps events with an ID, the request time and the request ID
// before storing them.
type Recorder struct {
	store  Store
	logger *zap.Logger
}

func NewRecorder(store Store, logger *zap.Logger) *Recorder {
	return &Recorder{store: store, logger: logger}
}

func (r *Recorder) Record(ctx context.Context, ev Event) error {
	if ev.Action == "" {
		return fmt.Errorf("audit event requires an action")
	}
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.At.IsZero() {
		ev.At = requestcontext.Now(ctx).UTC()
	}
	if ev.RequestID == "" {
		ev.RequestID = requestcontext.RequestID(ctx)
	}
	if err := r.store.Append(ctx, ev); err != nil {
		r.logger.Error("audit event not stored",
			zap.String("action", string(ev.Action)),
			zap.String("subject_id", ev.SubjectID),
			zap.Error(err),
		)
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}
