package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hilthontt/burnchat/infrastructure/logger"
	"github.com/hilthontt/burnchat/infrastructure/websocket"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// EventHandler handles one decoded event.
type EventHandler func(ctx context.Context, event *Event) error

// EventConsumer relays events published on any room channel into the local
// websocket core.
type EventConsumer struct {
	client   *redis.Client
	core     *websocket.Core
	logger   *logger.Logger
	handlers map[string]EventHandler
	pubsub   *redis.PubSub
}

func NewEventConsumer(client *redis.Client, core *websocket.Core, logger *logger.Logger) *EventConsumer {
	return &EventConsumer{
		client:   client,
		core:     core,
		logger:   logger,
		handlers: make(map[string]EventHandler),
	}
}

// RegisterHandler adds a hook that runs before the event is relayed.
func (ec *EventConsumer) RegisterHandler(event string, handler EventHandler) {
	ec.handlers[event] = handler
}

// Start subscribes and blocks until ctx is done or the subscription closes.
func (ec *EventConsumer) Start(ctx context.Context) error {
	ec.pubsub = ec.client.PSubscribe(ctx, channelPrefix+"*")
	if _, err := ec.pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to room channels: %w", err)
	}

	ec.logger.Info("event consumer started", zap.String("pattern", channelPrefix+"*"))

	ch := ec.pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			ec.logger.Info("event consumer stopped")
			return ec.pubsub.Close()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			if err := ec.processMessage(ctx, msg); err != nil {
				ec.logger.Error("failed to process event", zap.String("channel", msg.Channel), zap.Error(err))
			}
		}
	}
}

func (ec *EventConsumer) Stop() error {
	if ec.pubsub == nil {
		return nil
	}
	return ec.pubsub.Close()
}

func (ec *EventConsumer) processMessage(ctx context.Context, msg *redis.Message) error {
	roomID, ok := roomFromChannel(msg.Channel)
	if !ok {
		return nil
	}

	var event Event
	if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
		return fmt.Errorf("failed to unmarshal event: %w", err)
	}
	event.RoomID = roomID

	if handler, exists := ec.handlers[event.Event]; exists {
		if err := handler(ctx, &event); err != nil {
			return fmt.Errorf("handler failed for event %s: %w", event.Event, err)
		}
	}

	return ec.core.Broadcast(ctx, event.toWS())
}
