package limiter

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayush/todo-api/internal/common"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})
	return mr, rdb
}

func TestFixedWindow_BlocksAfterMax(t *testing.T) {
	_, rdb := newTestRedis(t)
	l := NewFixedWindow(rdb, "resend", 2, time.Minute)
	ctx := context.Background()

	require.NoError(t, l.Allow(ctx, "a@b.io"))
	require.NoError(t, l.Allow(ctx, "a@b.io"))
	assert.ErrorIs(t, l.Allow(ctx, "a@b.io"), common.ErrRateLimited)

	// other keys have their own budget
	assert.NoError(t, l.Allow(ctx, "c@d.io"))
}

func TestFixedWindow_ResetsAfterWindow(t *testing.T) {
	mr, rdb := newTestRedis(t)
	l := NewFixedWindow(rdb, "login", 1, time.Minute)
	ctx := context.Background()

	require.NoError(t, l.Allow(ctx, "alice"))
	require.ErrorIs(t, l.Allow(ctx, "alice"), common.ErrRateLimited)

	mr.FastForward(time.Minute + time.Second)

	assert.NoError(t, l.Allow(ctx, "alice"))
}

func TestFixedWindow_SetsTTLOnFirstHit(t *testing.T) {
	mr, rdb := newTestRedis(t)
	l := NewFixedWindow(rdb, "login", 5, 30*time.Second)

	require.NoError(t, l.Allow(context.Background(), "bob"))

	assert.Equal(t, 30*time.Second, mr.TTL("login:bob"))
}

func TestFixedWindow_BackendDown(t *testing.T) {
	mr, rdb := newTestRedis(t)
	l := NewFixedWindow(rdb, "login", 5, time.Minute)
	mr.Close()

	err := l.Allow(context.Background(), "bob")

	require.Error(t, err)
	assert.NotErrorIs(t, err, common.ErrRateLimited)
}
