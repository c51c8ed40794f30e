package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter is an increment-and-check counter keyed by caller and action.
// When denied, the returned duration is how long until the next slot opens.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, time.Duration, error)
}

// Rule allows Limit events per Window.
type Rule struct {
	Limit  int
	Window time.Duration
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// MemoryLimiter keeps one token bucket per key in process memory.
type MemoryLimiter struct {
	rule    Rule
	buckets map[string]*bucket
	mutex   sync.Mutex
	now     func() time.Time
}

func NewMemoryLimiter(rule Rule) *MemoryLimiter {
	return &MemoryLimiter{
		rule:    rule,
		buckets: make(map[string]*bucket),
		now:     time.Now,
	}
}

func (l *MemoryLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	now := l.now()

	l.mutex.Lock()
	b, exists := l.buckets[key]
	if !exists {
		every := rate.Every(l.rule.Window / time.Duration(l.rule.Limit))
		b = &bucket{limiter: rate.NewLimiter(every, l.rule.Limit)}
		l.buckets[key] = b
	}
	b.lastSeen = now
	l.mutex.Unlock()

	if b.limiter.AllowN(now, 1) {
		return true, 0, nil
	}

	r := b.limiter.ReserveN(now, 1)
	wait := r.DelayFrom(now)
	r.CancelAt(now)
	return false, wait, nil
}

// Cleanup drops buckets idle for longer than maxIdle.
func (l *MemoryLimiter) Cleanup(maxIdle time.Duration) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	cutoff := l.now().Add(-maxIdle)
	for key, b := range l.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(l.buckets, key)
		}
	}
}

// StartCleanupRoutine runs Cleanup until ctx is done.
func (l *MemoryLimiter) StartCleanupRoutine(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				l.Cleanup(time.Hour)
			}
		}
	}()
}
