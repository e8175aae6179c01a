package websocket

import (
	"context"
	"errors"
	"sync"

	"github.com/hilthontt/burnchat/infrastructure/logger"
	"github.com/hilthontt/burnchat/infrastructure/metrics"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var ErrCoreStopped = errors.New("websocket core stopped")

// Core serializes registration and fan-out for every connected listener.
type Core struct {
	roomMgr    *RoomManager
	register   chan *Client
	unregister chan *Client
	broadcast  chan *WSMessage

	logger  *logger.Logger
	metrics metrics.Manager

	shutdown chan struct{}
	once     sync.Once
}

func NewCore(roomMgr *RoomManager, logger *logger.Logger, metrics metrics.Manager) *Core {
	return &Core{
		roomMgr:    roomMgr,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *WSMessage, 256),
		logger:     logger,
		metrics:    metrics,
		shutdown:   make(chan struct{}),
	}
}

func (c *Core) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			c.logger.Info("websocket core shutting down")
			c.Shutdown()
			return

		case <-c.shutdown:
			return

		case cl := <-c.register:
			c.roomMgr.AddClient(cl)
			c.metrics.DeltaUpDownCounter(ctx, "active_websocket_connections", 1)
			c.logger.Debug("listener registered", zap.String("roomID", cl.RoomID), zap.String("clientID", cl.ID))

		case cl := <-c.unregister:
			if c.roomMgr.RemoveClient(cl) {
				c.metrics.DeltaUpDownCounter(ctx, "active_websocket_connections", -1)
			}
			cl.Close()

		case msg := <-c.broadcast:
			dropped, err := c.roomMgr.BroadcastToRoom(msg)
			if errors.Is(err, ErrRoomNotFound) {
				continue
			}
			c.metrics.IncrementCounter(ctx, "websocket_messages_sent", attribute.String("event", msg.Event))
			if dropped > 0 {
				c.logger.Warn("listener buffers full, events dropped",
					zap.String("roomID", msg.RoomID),
					zap.String("event", msg.Event),
					zap.Int("dropped", dropped),
				)
			}
		}
	}
}

func (c *Core) Register(ctx context.Context, cl *Client) error {
	select {
	case c.register <- cl:
		return nil
	case <-c.shutdown:
		return ErrCoreStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Core) unregisterClient(cl *Client) {
	select {
	case c.unregister <- cl:
	case <-c.shutdown:
	}
}

// Broadcast hands msg to the fan-out loop.
func (c *Core) Broadcast(ctx context.Context, msg *WSMessage) error {
	select {
	case c.broadcast <- msg:
		return nil
	case <-c.shutdown:
		return ErrCoreStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Core) RoomManager() *RoomManager {
	return c.roomMgr
}

func (c *Core) Shutdown() {
	c.once.Do(func() {
		close(c.shutdown)
		c.roomMgr.DisconnectAll()
	})
}
