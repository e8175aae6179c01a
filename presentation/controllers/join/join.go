package join

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/hilthontt/burnchat/application/usecases/invite"
	"github.com/hilthontt/burnchat/infrastructure/security"
	"github.com/hilthontt/burnchat/presentation/middlewares"
)

type JoinController interface {
	// RedeemInvite is the API form: it answers with JSON.
	RedeemInvite(ctx *gin.Context)
	// InspectInvite reports whether a code is redeemable without consuming it.
	InspectInvite(ctx *gin.Context)
	// FollowInvite is the link form: it redirects the browser to the join page
	// of a redeemable code, or back to the landing page with an error code.
	// It never consumes the invite.
	FollowInvite(ctx *gin.Context)
}

type joinController struct {
	inviteUseCase invite.InviteUseCase
	cookie        *security.TokenCookie
	frontEndURL   string
}

func NewJoinController(inviteUseCase invite.InviteUseCase, cookie *security.TokenCookie, frontEndURL string) JoinController {
	return &joinController{
		inviteUseCase: inviteUseCase,
		cookie:        cookie,
		frontEndURL:   strings.TrimSuffix(frontEndURL, "/"),
	}
}

func (c *joinController) RedeemInvite(ctx *gin.Context) {
	var req RedeemInviteRequest
	if err := ctx.ShouldBindUri(&req); err != nil {
		middlewares.AbortWithBindingError(ctx, err)
		return
	}

	admission, err := c.inviteUseCase.Redeem(ctx.Request.Context(), req.Code)
	if err != nil {
		middlewares.AbortWithError(ctx, err)
		return
	}

	c.cookie.Set(ctx.Writer, admission.Token)
	ctx.JSON(http.StatusOK, AdmissionResponse{RoomID: admission.RoomID, Token: admission.Token})
}

func (c *joinController) InspectInvite(ctx *gin.Context) {
	var req RedeemInviteRequest
	if err := ctx.ShouldBindUri(&req); err != nil {
		middlewares.AbortWithBindingError(ctx, err)
		return
	}

	preview, err := c.inviteUseCase.Inspect(ctx.Request.Context(), req.Code)
	if err != nil {
		middlewares.AbortWithError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, InvitePreviewResponse{
		Code:  preview.Code,
		Valid: preview.Valid,
		Full:  preview.Full,
		TTL:   int64(preview.TTL.Seconds()),
	})
}

func (c *joinController) FollowInvite(ctx *gin.Context) {
	preview, err := c.inviteUseCase.Inspect(ctx.Request.Context(), ctx.Param("code"))
	if err != nil {
		_, code := middlewares.StatusFor(err)
		if code == middlewares.CodeInternal {
			_ = ctx.Error(err)
		}
		c.redirectWithError(ctx, redirectCode(code))
		return
	}

	switch {
	case !preview.Valid:
		c.redirectWithError(ctx, middlewares.CodeRoomNotFound)
	case preview.Full:
		c.redirectWithError(ctx, middlewares.CodeRoomFull)
	default:
		ctx.Redirect(http.StatusSeeOther, c.frontEndURL+"/join/"+url.PathEscape(preview.Code))
	}
}

func (c *joinController) redirectWithError(ctx *gin.Context, code string) {
	ctx.Redirect(http.StatusSeeOther, c.frontEndURL+"/?error="+url.QueryEscape(code))
}

func redirectCode(code string) string {
	if code == middlewares.CodeValidation {
		// A malformed link cannot name a live room.
		return middlewares.CodeRoomNotFound
	}
	return code
}
