package dependency

import (
	"strings"

	"github.com/hilthontt/burnchat/infrastructure/websocket"
)

func (c *Container) initWebSocket() {
	c.WSRoomManager = websocket.NewRoomManager(strings.Split(c.Config.Cors.AllowOrigins, ",")...)
	c.WSCore = websocket.NewCore(c.WSRoomManager, c.Logger, c.MetricsManager)

	go c.WSCore.Run(c.ctx)

	c.Logger.Info("WebSocket components initialized successfully")
}
