package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hilthontt/burnchat/application/usecases/room"
	"github.com/hilthontt/burnchat/infrastructure/security"
)

const RoomAuthContextKey = "roomAuth"

type RoomAuth struct {
	RoomID string
	Token  string
}

// RoomAuthMiddleware admits requests whose token belongs to the room named by
// the roomId query parameter or path segment.
func RoomAuthMiddleware(roomUC room.RoomUseCase, cookie *security.TokenCookie) gin.HandlerFunc {
	return func(c *gin.Context) {
		roomID := c.Query("roomId")
		if roomID == "" {
			roomID = c.Param("roomId")
		}
		if roomID == "" {
			c.AbortWithStatusJSON(http.StatusUnprocessableEntity, ErrorResponse{
				Error:   http.StatusText(http.StatusUnprocessableEntity),
				Message: "roomId is required",
				Code:    CodeValidation,
				Field:   "roomId",
			})
			return
		}

		token := cookie.Token(c.Request)

		if _, err := roomUC.Authorize(c.Request.Context(), roomID, token); err != nil {
			AbortWithError(c, err)
			return
		}

		c.Set(RoomAuthContextKey, RoomAuth{RoomID: roomID, Token: token})
		c.Next()
	}
}

func GetRoomAuth(c *gin.Context) (RoomAuth, bool) {
	value, exists := c.Get(RoomAuthContextKey)
	if !exists {
		return RoomAuth{}, false
	}

	auth, ok := value.(RoomAuth)
	return auth, ok
}
