package message

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hilthontt/burnchat/application/usecases/message"
	"github.com/hilthontt/burnchat/domain/model"
	"github.com/hilthontt/burnchat/presentation/middlewares"
)

type MessageController interface {
	SendMessage(ctx *gin.Context)
	GetMessages(ctx *gin.Context)
	DeleteOwnMessages(ctx *gin.Context)
	PostSystemMessage(ctx *gin.Context)
}

type messageController struct {
	usecase message.MessageUseCase
}

func NewMessageController(usecase message.MessageUseCase) MessageController {
	return &messageController{
		usecase: usecase,
	}
}

func (c *messageController) SendMessage(ctx *gin.Context) {
	auth, _ := middlewares.GetRoomAuth(ctx)

	var req SendMessageRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middlewares.AbortWithBindingError(ctx, err)
		return
	}

	_, err := c.usecase.Send(ctx.Request.Context(), auth.RoomID, auth.Token, message.SendInput{
		Sender: req.Sender,
		Text:   req.Text,
		Type:   model.MessageType(req.Type),
	})
	if err != nil {
		middlewares.AbortWithError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, SuccessResponse{Success: true})
}

func (c *messageController) GetMessages(ctx *gin.Context) {
	auth, _ := middlewares.GetRoomAuth(ctx)

	messages, err := c.usecase.List(ctx.Request.Context(), auth.RoomID, auth.Token)
	if err != nil {
		middlewares.AbortWithError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, MessagesResponse{Messages: messages})
}

func (c *messageController) DeleteOwnMessages(ctx *gin.Context) {
	var req RoomTokenRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middlewares.AbortWithBindingError(ctx, err)
		return
	}

	deleted, err := c.usecase.DeleteOwn(ctx.Request.Context(), req.RoomID, req.Token)
	if err != nil {
		middlewares.AbortWithError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, DeleteResponse{Success: true, Deleted: deleted})
}

func (c *messageController) PostSystemMessage(ctx *gin.Context) {
	var req SystemMessageRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middlewares.AbortWithBindingError(ctx, err)
		return
	}

	if _, err := c.usecase.PostSystem(ctx.Request.Context(), req.RoomID, req.Token, req.Sender, req.Text); err != nil {
		middlewares.AbortWithError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, SuccessResponse{Success: true})
}
