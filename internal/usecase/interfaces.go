package usecase

import (
	"context"
	"time"
)

type TokenIssuer interface {
	Issue(userID, role string) (string, error)
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) bool
}

// Limiter matches ratelimit.Limiter.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, time.Duration, error)
}

// Notifier pushes realtime events. Delivery is best-effort.
type Notifier interface {
	EmitToUsers(ctx context.Context, userIDs []string, event string, data interface{}) error
	EmitToRoom(ctx context.Context, room, exceptUserID, event string, data interface{}) error
}

type noopNotifier struct{}

func (noopNotifier) EmitToUsers(ctx context.Context, userIDs []string, event string, data interface{}) error {
	return nil
}

func (noopNotifier) EmitToRoom(ctx context.Context, room, exceptUserID, event string, data interface{}) error {
	return nil
}

// offset converts a 1-based page into a query offset.
func offset(page, limit int) int {
	o := (page - 1) * limit
	if o < 0 {
		return 0
	}
	return o
}
