package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/hilthontt/burnchat/presentation/controllers/room"
)

// RoomRoutes mounts the room endpoints. auth guards everything that needs a
// member token; strict throttles room creation and entry.
func RoomRoutes(router *gin.RouterGroup, controller room.RoomController, auth, strict gin.HandlerFunc) {
	rooms := router.Group("/room")
	{
		rooms.POST("/create", strict, controller.CreateRoom)
		rooms.POST("/restore", strict, controller.RestoreRoom)
		rooms.POST("/enter", strict, controller.EnterRoom)

		rooms.GET("/token", auth, controller.GetToken)
		rooms.POST("/invite", auth, controller.CreateInvite)
		rooms.GET("/ttl", auth, controller.GetTTL)
		rooms.DELETE("", auth, controller.DestroyRoom)
	}
}
