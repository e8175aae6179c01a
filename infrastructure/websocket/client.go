package websocket

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/hilthontt/burnchat/infrastructure/logger"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 512
)

// Client is one listening connection. Listeners only receive; anything they
// send besides control frames is discarded.
type Client struct {
	conn    *websocket.Conn
	Message chan *WSMessage
	ID      string `json:"id"`
	RoomID  string `json:"roomId"`

	logger *logger.Logger

	closeOnce sync.Once
	closed    chan struct{}
	mu        sync.Mutex
}

func NewClient(conn *websocket.Conn, id, roomID string, logger *logger.Logger) *Client {
	return &Client{
		conn:    conn,
		Message: make(chan *WSMessage, 64),
		ID:      id,
		RoomID:  roomID,
		logger:  logger,
		closed:  make(chan struct{}),
	}
}

func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.closed)
		if c.conn == nil {
			return
		}
		c.mu.Lock()
		_ = c.conn.Close()
		c.mu.Unlock()
	})
}

func (c *Client) IsClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

// Send queues msg without blocking; it reports false when the buffer is full
// or the client is gone.
func (c *Client) Send(msg *WSMessage) bool {
	if c.IsClosed() {
		return false
	}

	select {
	case c.Message <- msg:
		return true
	default:
		return false
	}
}

// ReadMessage pumps control frames until the peer goes away.
func (c *Client) ReadMessage(core *Core) {
	defer func() {
		core.unregisterClient(c)
		c.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Debug("websocket read error", zap.String("clientID", c.ID), zap.Error(err))
			}
			return
		}
	}
}

func (c *Client) WriteMessage() {
	defer c.Close()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case msg := <-c.Message:
			c.mu.Lock()
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			err := c.conn.WriteJSON(msg)
			c.mu.Unlock()

			if err != nil {
				c.logger.Debug("websocket write error", zap.String("clientID", c.ID), zap.Error(err))
				return
			}

			if msg.IsTerminal() {
				c.mu.Lock()
				_ = c.conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, msg.Event),
					time.Now().Add(writeWait))
				c.mu.Unlock()
				return
			}

		case <-ticker.C:
			c.mu.Lock()
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			err := c.conn.WriteMessage(websocket.PingMessage, nil)
			c.mu.Unlock()

			if err != nil {
				return
			}

		case <-c.closed:
			return
		}
	}
}
