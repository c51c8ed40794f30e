package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLimiterDeniesAfterLimit(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewMemoryLimiter(Rule{Limit: 3, Window: time.Minute})
	l.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		ok, _, err := l.Allow(context.Background(), "u1")
		require.NoError(t, err)
		assert.True(t, ok, "request %d", i)
	}

	ok, wait, err := l.Allow(context.Background(), "u1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Greater(t, wait, time.Duration(0))
	assert.LessOrEqual(t, wait, 20*time.Second)

	ok, _, _ = l.Allow(context.Background(), "u2")
	assert.True(t, ok, "keys are independent")

	now = now.Add(20 * time.Second)
	ok, _, _ = l.Allow(context.Background(), "u1")
	assert.True(t, ok, "token refilled")
}

func TestMemoryLimiterCleanup(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewMemoryLimiter(Rule{Limit: 1, Window: time.Minute})
	l.now = func() time.Time { return now }

	_, _, _ = l.Allow(context.Background(), "old")
	now = now.Add(2 * time.Hour)
	_, _, _ = l.Allow(context.Background(), "fresh")

	l.Cleanup(time.Hour)

	assert.NotContains(t, l.buckets, "old")
	assert.Contains(t, l.buckets, "fresh")
}

func TestRedisLimiterFixedWindow(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	l := NewRedisLimiter(client, "api", Rule{Limit: 2, Window: time.Minute})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, _, err := l.Allow(ctx, "u1")
		require.NoError(t, err)
		assert.True(t, ok)
	}

	ok, wait, err := l.Allow(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Greater(t, wait, time.Duration(0))
	assert.LessOrEqual(t, wait, time.Minute)

	mr.FastForward(time.Minute + time.Second)

	ok, _, err = l.Allow(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, ok, "new window")
}

func TestRedisLimiterPropagatesErrors(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()

	l := NewRedisLimiter(client, "api", Rule{Limit: 1, Window: time.Minute})
	mr.Close()

	_, _, err := l.Allow(context.Background(), "u1")
	assert.Error(t, err)
}
