package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/hilthontt/burnchat/presentation/controllers/websocket"
)

func WebsocketRoutes(router *gin.RouterGroup, controller websocket.WebSocketController, auth gin.HandlerFunc) {
	router.GET("/realtime", auth, controller.HandleConnection)
}
