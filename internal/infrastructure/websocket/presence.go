package websocket

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Presence counts live connections per user.
type Presence interface {
	SetOnline(ctx context.Context, userID string) error
	SetOffline(ctx context.Context, userID string) error
	IsOnline(ctx context.Context, userID string) (bool, error)
}

type MemoryPresence struct {
	connections map[string]int
	mutex       sync.RWMutex
}

func NewMemoryPresence() *MemoryPresence {
	return &MemoryPresence{connections: make(map[string]int)}
}

func (p *MemoryPresence) SetOnline(ctx context.Context, userID string) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.connections[userID]++
	return nil
}

func (p *MemoryPresence) SetOffline(ctx context.Context, userID string) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if p.connections[userID] <= 1 {
		delete(p.connections, userID)
		return nil
	}
	p.connections[userID]--
	return nil
}

func (p *MemoryPresence) IsOnline(ctx context.Context, userID string) (bool, error) {
	p.mutex.RLock()
	defer p.mutex.RUnlock()
	return p.connections[userID] > 0, nil
}

const presenceHashKey = "ws:presence"

// RedisPresence keeps connection counts in a hash shared by all instances.
type RedisPresence struct {
	client *redis.Client
}

func NewRedisPresence(client *redis.Client) *RedisPresence {
	return &RedisPresence{client: client}
}

func (p *RedisPresence) SetOnline(ctx context.Context, userID string) error {
	return p.client.HIncrBy(ctx, presenceHashKey, userID, 1).Err()
}

func (p *RedisPresence) SetOffline(ctx context.Context, userID string) error {
	n, err := p.client.HIncrBy(ctx, presenceHashKey, userID, -1).Result()
	if err != nil {
		return err
	}
	if n <= 0 {
		return p.client.HDel(ctx, presenceHashKey, userID).Err()
	}
	return nil
}

func (p *RedisPresence) IsOnline(ctx context.Context, userID string) (bool, error) {
	n, err := p.client.HGet(ctx, presenceHashKey, userID).Int64()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
