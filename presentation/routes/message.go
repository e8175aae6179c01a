package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/hilthontt/burnchat/presentation/controllers/message"
)

func MessageRoutes(router *gin.RouterGroup, controller message.MessageController, auth, sending gin.HandlerFunc) {
	messages := router.Group("/messages")
	{
		messages.POST("/delete", controller.DeleteOwnMessages)
		messages.POST("/system", sending, controller.PostSystemMessage)

		messages.POST("", auth, sending, controller.SendMessage)
		messages.GET("", auth, controller.GetMessages)
	}
}
