package websocket

import (
	"context"
	"encoding/json"
	"fmt"

	"lobby-backend/internal/dto"

	"github.com/go-redis/redis/v8"
)

const DefaultEventsChannel = "lobby:events"

// RedisPublisher pushes room lifecycle events onto a pub/sub channel for
// out-of-process listeners.
type RedisPublisher struct {
	client  *redis.Client
	channel string
}

func NewRedisPublisher(client *redis.Client, channel string) *RedisPublisher {
	if channel == "" {
		channel = DefaultEventsChannel
	}
	return &RedisPublisher{client: client, channel: channel}
}

func encodeEvent(event dto.LifecycleEvent) (string, error) {
	if event.RoomID == "" {
		return "", fmt.Errorf("websocket publish: roomID required")
	}
	data, err := json.Marshal(event)
	if err != nil {
		return "", fmt.Errorf("websocket publish: marshal payload: %w", err)
	}
	return string(data), nil
}

func (p *RedisPublisher) Publish(ctx context.Context, event dto.LifecycleEvent) error {
	payload, err := encodeEvent(event)
	if err != nil {
		return err
	}
	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("websocket publish: redis publish: %w", err)
	}
	return nil
}
