package room

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hilthontt/burnchat/application/usecases/invite"
	"github.com/hilthontt/burnchat/application/usecases/room"
	"github.com/hilthontt/burnchat/infrastructure/security"
	"github.com/hilthontt/burnchat/presentation/middlewares"
)

type RoomController interface {
	CreateRoom(ctx *gin.Context)
	RestoreRoom(ctx *gin.Context)
	EnterRoom(ctx *gin.Context)
	GetToken(ctx *gin.Context)
	CreateInvite(ctx *gin.Context)
	GetTTL(ctx *gin.Context)
	DestroyRoom(ctx *gin.Context)
}

type roomController struct {
	roomUseCase   room.RoomUseCase
	inviteUseCase invite.InviteUseCase
	cookie        *security.TokenCookie
}

func NewRoomController(
	roomUseCase room.RoomUseCase,
	inviteUseCase invite.InviteUseCase,
	cookie *security.TokenCookie,
) RoomController {
	return &roomController{
		roomUseCase:   roomUseCase,
		inviteUseCase: inviteUseCase,
		cookie:        cookie,
	}
}

func (c *roomController) CreateRoom(ctx *gin.Context) {
	room, err := c.roomUseCase.Create(ctx.Request.Context())
	if err != nil {
		middlewares.AbortWithError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, CreateRoomResponse{RoomID: room.ID})
}

func (c *roomController) RestoreRoom(ctx *gin.Context) {
	var req RestoreRoomRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middlewares.AbortWithBindingError(ctx, err)
		return
	}

	if err := c.roomUseCase.Restore(ctx.Request.Context(), req.RoomID, req.Token); err != nil {
		middlewares.AbortWithError(ctx, err)
		return
	}

	c.cookie.Set(ctx.Writer, req.Token)
	ctx.JSON(http.StatusOK, SuccessResponse{Success: true})
}

// EnterRoom hands the first visitor of a room its token. Later visitors need
// an invite.
func (c *roomController) EnterRoom(ctx *gin.Context) {
	roomID := ctx.Query("roomId")
	if roomID == "" {
		roomID = ctx.Param("roomId")
	}
	if roomID == "" {
		ctx.AbortWithStatusJSON(http.StatusUnprocessableEntity, middlewares.ErrorResponse{
			Error:   http.StatusText(http.StatusUnprocessableEntity),
			Message: "roomId is required",
			Code:    middlewares.CodeValidation,
			Field:   "roomId",
		})
		return
	}

	token, err := c.roomUseCase.Enter(ctx.Request.Context(), roomID, c.cookie.Token(ctx.Request))
	if err != nil {
		middlewares.AbortWithError(ctx, err)
		return
	}

	c.cookie.Set(ctx.Writer, token)
	ctx.JSON(http.StatusOK, EnterRoomResponse{RoomID: roomID, Token: token})
}

func (c *roomController) GetToken(ctx *gin.Context) {
	auth, _ := middlewares.GetRoomAuth(ctx)
	ctx.JSON(http.StatusOK, TokenResponse{Token: auth.Token})
}

func (c *roomController) CreateInvite(ctx *gin.Context) {
	auth, _ := middlewares.GetRoomAuth(ctx)

	created, err := c.inviteUseCase.Create(ctx.Request.Context(), auth.RoomID, auth.Token)
	if err != nil {
		middlewares.AbortWithError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, InviteResponse{Code: created.Code})
}

func (c *roomController) GetTTL(ctx *gin.Context) {
	auth, _ := middlewares.GetRoomAuth(ctx)

	ttl, err := c.roomUseCase.GetTTL(ctx.Request.Context(), auth.RoomID)
	if err != nil {
		middlewares.AbortWithError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, TTLResponse{TTL: int64(ttl.Seconds())})
}

func (c *roomController) DestroyRoom(ctx *gin.Context) {
	auth, _ := middlewares.GetRoomAuth(ctx)

	if err := c.roomUseCase.Destroy(ctx.Request.Context(), auth.RoomID); err != nil {
		middlewares.AbortWithError(ctx, err)
		return
	}

	c.cookie.Clear(ctx.Writer)

	ctx.JSON(http.StatusOK, SuccessResponse{Success: true})
}
