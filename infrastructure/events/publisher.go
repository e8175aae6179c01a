package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hilthontt/burnchat/domain/repository"
	"github.com/hilthontt/burnchat/infrastructure/websocket"
	"github.com/redis/go-redis/v9"
)

func newEvent(channel, name string, payload any) (*Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", name, err)
	}

	return &Event{
		ID:        uuid.NewString(),
		Event:     name,
		RoomID:    channel,
		Data:      data,
		Timestamp: time.Now().UnixMilli(),
	}, nil
}

func (e *Event) toWS() *websocket.WSMessage {
	return &websocket.WSMessage{
		Event:     e.Event,
		RoomID:    e.RoomID,
		Data:      e.Data,
		Timestamp: e.Timestamp,
	}
}

// RedisPublisher publishes room events over redis pub/sub so every instance
// sharing the store can fan them out to its own listeners.
type RedisPublisher struct {
	client *redis.Client
}

var _ repository.Publisher = (*RedisPublisher)(nil)

func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

func (p *RedisPublisher) Publish(ctx context.Context, channel, event string, payload any) error {
	evt, err := newEvent(channel, event, payload)
	if err != nil {
		return err
	}

	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := p.client.Publish(ctx, Channel(channel), data).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// LocalPublisher hands events straight to this process's websocket core.
type LocalPublisher struct {
	core *websocket.Core
}

var _ repository.Publisher = (*LocalPublisher)(nil)

func NewLocalPublisher(core *websocket.Core) *LocalPublisher {
	return &LocalPublisher{core: core}
}

func (p *LocalPublisher) Publish(ctx context.Context, channel, event string, payload any) error {
	evt, err := newEvent(channel, event, payload)
	if err != nil {
		return err
	}
	return p.core.Broadcast(ctx, evt.toWS())
}
