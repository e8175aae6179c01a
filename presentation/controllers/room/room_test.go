package room

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	roomUseCase "github.com/hilthontt/burnchat/application/usecases/room"
	"github.com/hilthontt/burnchat/infrastructure/config"
	"github.com/hilthontt/burnchat/infrastructure/security"
	"github.com/hilthontt/burnchat/presentation/middlewares"
	"github.com/stretchr/testify/require"
)

type destroyStub struct {
	roomUseCase.RoomUseCase
	err error
}

func (s destroyStub) Destroy(context.Context, string) error {
	return s.err
}

func destroyRouter(uc roomUseCase.RoomUseCase) *gin.Engine {
	gin.SetMode(gin.TestMode)
	controller := NewRoomController(uc, nil, security.NewTokenCookie(config.Default()))

	router := gin.New()
	router.DELETE("/api/room", func(c *gin.Context) {
		c.Set(middlewares.RoomAuthContextKey, middlewares.RoomAuth{RoomID: "r1", Token: "t1"})
		c.Next()
	}, controller.DestroyRoom)
	return router
}

func Test_DestroyRoom_Clears_Cookie_Only_On_Success(t *testing.T) {
	req := require.New(t)

	rec := httptest.NewRecorder()
	destroyRouter(destroyStub{err: errors.New("store unavailable")}).
		ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/room", nil))
	req.Equal(http.StatusInternalServerError, rec.Code)
	req.Empty(rec.Result().Cookies(), "a failed destroy keeps the caller signed in")

	rec = httptest.NewRecorder()
	destroyRouter(destroyStub{}).
		ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/room", nil))
	req.Equal(http.StatusOK, rec.Code)

	cookies := rec.Result().Cookies()
	req.Len(cookies, 1)
	req.Equal(security.DefaultTokenCookie, cookies[0].Name)
	req.Negative(cookies[0].MaxAge)
}
