package lockout_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"territorial/internal/account/lockout"
	"territorial/internal/account/lockout/store/memory"
	"territorial/internal/account/lockout/store/redis"
	dErrors "territorial/pkg/domain-errors"
	"territorial/pkg/requestcontext"
)

func TestLockAfterThreshold(t *testing.T) {
	mr := miniredis.RunT(t)
	stores := map[string]lockout.Store{
		"memory": memory.New(),
		"redis":  redis.New(goredis.NewClient(&goredis.Options{Addr: mr.Addr()})),
	}
	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := requestcontext.WithTime(context.Background(), time.Now())
			svc := lockout.New(store, lockout.WithConfig(lockout.Config{
				Threshold: 3, Window: time.Minute, LockFor: time.Minute,
			}))

			for i := 0; i < 2; i++ {
				locked, err := svc.RecordFailure(ctx, "ana@example.org", "10.0.0.1")
				require.NoError(t, err)
				assert.False(t, locked)
			}
			require.NoError(t, svc.Check(ctx, "ana@example.org", "10.0.0.1"))

			locked, err := svc.RecordFailure(ctx, "ANA@example.org ", "10.0.0.1")
			require.NoError(t, err)
			assert.True(t, locked)

			err = svc.Check(ctx, "ana@example.org", "10.0.0.1")
			assert.True(t, dErrors.HasCode(err, dErrors.CodeRateLimited))
			assert.NoError(t, svc.Check(ctx, "ana@example.org", "10.0.0.2"))

			later := requestcontext.WithTime(context.Background(), time.Now().Add(2*time.Minute))
			assert.NoError(t, svc.Check(later, "ana@example.org", "10.0.0.1"))

			require.NoError(t, svc.Clear(ctx, "ana@example.org", "10.0.0.1"))
			assert.NoError(t, svc.Check(ctx, "ana@example.org", "10.0.0.1"))
		})
	}
}

func TestRedisFailuresExpireWithWindow(t *testing.T) {
	mr := miniredis.RunT(t)
	store := redis.New(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}))
	ctx := context.Background()

	n, err := store.RecordFailure(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	mr.FastForward(2 * time.Minute)

	n, err = store.RecordFailure(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
