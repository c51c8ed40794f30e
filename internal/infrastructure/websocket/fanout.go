package websocket

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"gigmarket/pkg/logger"
)

// Envelope addresses an event to users, to a room, or both.
type Envelope struct {
	UserIDs      []string  `json:"userIds,omitempty"`
	Room         string    `json:"room,omitempty"`
	ExceptUserID string    `json:"exceptUserId,omitempty"`
	Message      WSMessage `json:"message"`
}

// Fanout carries envelopes to every instance. Subscribe blocks until ctx is done.
type Fanout interface {
	Publish(ctx context.Context, env Envelope) error
	Subscribe(ctx context.Context, handler func(Envelope)) error
}

// LocalFanout delivers in-process only.
type LocalFanout struct {
	handler func(Envelope)
	ready   chan struct{}
}

func NewLocalFanout() *LocalFanout {
	return &LocalFanout{ready: make(chan struct{})}
}

func (f *LocalFanout) Publish(ctx context.Context, env Envelope) error {
	select {
	case <-f.ready:
		f.handler(env)
	default:
		// Nothing subscribed yet; realtime push is best-effort.
	}
	return nil
}

func (f *LocalFanout) Subscribe(ctx context.Context, handler func(Envelope)) error {
	f.handler = handler
	close(f.ready)
	<-ctx.Done()
	return nil
}

const fanoutChannel = "ws:events"

// RedisFanout broadcasts envelopes over Redis pub/sub.
type RedisFanout struct {
	client *redis.Client
}

func NewRedisFanout(client *redis.Client) *RedisFanout {
	return &RedisFanout{client: client}
}

func (f *RedisFanout) Publish(ctx context.Context, env Envelope) error {
	payload, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return f.client.Publish(ctx, fanoutChannel, payload).Err()
}

func (f *RedisFanout) Subscribe(ctx context.Context, handler func(Envelope)) error {
	sub := f.client.Subscribe(ctx, fanoutChannel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return err
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var env Envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				logger.Warn("WebSocket: dropping malformed fan-out payload: %v", err)
				continue
			}
			handler(env)
		}
	}
}
