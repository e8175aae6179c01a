package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/hilthontt/burnchat/presentation/controllers/join"
)

func JoinRoutes(api *gin.RouterGroup, root gin.IRoutes, controller join.JoinController, strict gin.HandlerFunc) {
	api.POST("/join/:code", strict, controller.RedeemInvite)
	api.GET("/join/:code", strict, controller.InspectInvite)
	root.GET("/join/:code", strict, controller.FollowInvite)
}
