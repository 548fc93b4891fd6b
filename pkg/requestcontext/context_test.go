package requestcontext

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	id "territorial/pkg/domain"
)

func TestAccessors(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, id.UserID(""), UserID(ctx))
	assert.Empty(t, RequestID(ctx))

	uid := id.NewUserID()
	fixed := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	ctx = WithUserID(ctx, uid)
	ctx = WithRequestID(ctx, "req-1")
	ctx = WithTime(ctx, fixed)
	ctx = WithClientMetadata(ctx, "10.0.0.1", "okhttp/4.9")

	assert.Equal(t, uid, UserID(ctx))
	assert.Equal(t, "req-1", RequestID(ctx))
	assert.Equal(t, fixed, Now(ctx))
	assert.Equal(t, "10.0.0.1", ClientIP(ctx))
	assert.Equal(t, "okhttp/4.9", UserAgent(ctx))
}
