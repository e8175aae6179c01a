package websocket

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hilthontt/burnchat/infrastructure/logger"
	"github.com/hilthontt/burnchat/infrastructure/websocket"
	"github.com/hilthontt/burnchat/presentation/middlewares"
	"go.uber.org/zap"
)

type WebSocketController interface {
	HandleConnection(ctx *gin.Context)
}

type webSocketController struct {
	wsCore *websocket.Core
	logger *logger.Logger
}

func NewWebSocketController(wsCore *websocket.Core, logger *logger.Logger) WebSocketController {
	return &webSocketController{
		wsCore: wsCore,
		logger: logger,
	}
}

// HandleConnection upgrades an authorized request into a listener for its
// room's events.
func (c *webSocketController) HandleConnection(ctx *gin.Context) {
	auth, ok := middlewares.GetRoomAuth(ctx)
	if !ok {
		return
	}

	conn, err := c.wsCore.RoomManager().Upgrade(ctx.Writer, ctx.Request)
	if err != nil {
		c.logger.Warn("websocket upgrade failed", zap.Error(err), zap.String("roomID", auth.RoomID))
		return
	}

	client := websocket.NewClient(conn, uuid.NewString(), auth.RoomID, c.logger)
	if err := c.wsCore.Register(ctx.Request.Context(), client); err != nil {
		c.logger.Warn("failed to register listener", zap.Error(err), zap.String("roomID", auth.RoomID))
		client.Close()
		return
	}

	go client.WriteMessage()
	client.ReadMessage(c.wsCore)
}
