package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter is a fixed-window counter shared by every instance.
type RedisLimiter struct {
	client *redis.Client
	rule   Rule
	prefix string
}

func NewRedisLimiter(client *redis.Client, prefix string, rule Rule) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		rule:   rule,
		prefix: prefix,
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	redisKey := "ratelimit:" + l.prefix + ":" + key

	count, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return false, 0, err
	}
	if count == 1 {
		if err := l.client.Expire(ctx, redisKey, l.rule.Window).Err(); err != nil {
			return false, 0, err
		}
	}
	if count <= int64(l.rule.Limit) {
		return true, 0, nil
	}

	ttl, err := l.client.PTTL(ctx, redisKey).Result()
	if err != nil {
		return false, 0, err
	}
	if ttl < 0 {
		// Lost the expiry (e.g. crash between INCR and EXPIRE); restart the window.
		if err := l.client.Expire(ctx, redisKey, l.rule.Window).Err(); err != nil {
			return false, 0, err
		}
		ttl = l.rule.Window
	}
	return false, ttl, nil
}
