package audit_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	id "territorial/pkg/domain"
	"territorial/pkg/platform/audit"
	"territorial/pkg/platform/audit/store/memory"
	"territorial/pkg/requestcontext"
)

type failingStore struct{}

func (failingStore) Append(context.Context, audit.Event) error { return errors.New("disk full") }

func TestRecorderStampsEvents(t *testing.T) {
	now := time.Date(2026, 5, 2, 8, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithRequestID(requestcontext.WithTime(context.Background(), now), "req-1")
	store := memory.New()
	rec := audit.NewRecorder(store, zap.NewNop())

	actor := id.NewUserID()
	require.NoError(t, rec.Record(ctx, audit.Event{
		Action:    audit.ActionAccountDeleted,
		ActorID:   actor,
		SubjectID: "u-1",
	}))

	got := store.Events(audit.ActionAccountDeleted)
	require.Len(t, got, 1)
	assert.NotEmpty(t, got[0].ID)
	assert.Equal(t, now, got[0].At)
	assert.Equal(t, "req-1", got[0].RequestID)
	assert.Equal(t, actor, got[0].ActorID)
}

func TestRecorderRejectsMissingAction(t *testing.T) {
	rec := audit.NewRecorder(memory.New(), zap.NewNop())
	assert.Error(t, rec.Record(context.Background(), audit.Event{SubjectID: "u-1"}))
}

func TestRecorderSurfacesStoreFailure(t *testing.T) {
	rec := audit.NewRecorder(failingStore{}, zap.NewNop())
	err := rec.Record(context.Background(), audit.Event{Action: audit.ActionMemberRegistered})
	assert.ErrorContains(t, err, "disk full")
}
