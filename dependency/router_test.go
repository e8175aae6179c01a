package dependency_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/hilthontt/burnchat/dependency"
	"github.com/hilthontt/burnchat/infrastructure/config"
	"github.com/hilthontt/burnchat/infrastructure/security"
	"github.com/stretchr/testify/require"
)

type api struct {
	t         *testing.T
	router    *gin.Engine
	container *dependency.Container
}

func newAPI(t *testing.T) *api {
	t.Helper()

	cfg := config.Default()
	cfg.Server.RunMode = "test"
	cfg.Server.FrontEndURL = "http://app.test"
	cfg.Store.Driver = config.StoreDriverMemory
	cfg.Logger.Level = "error"
	cfg.RateLimiter.Enabled = false

	c, err := dependency.NewContainer(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Shutdown() })

	return &api{t: t, router: c.SetupRouter(), container: c}
}

func (a *api) do(method, path, token string, body any) *httptest.ResponseRecorder {
	a.t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set(security.TokenHeader, token)
	}

	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Field   string `json:"field"`
}

// openRoom creates a room and claims it, returning the id and creator token.
func (a *api) openRoom() (string, string) {
	a.t.Helper()
	req := require.New(a.t)

	rec := a.do(http.MethodPost, "/api/room/create", "", nil)
	req.Equal(http.StatusOK, rec.Code, rec.Body.String())
	roomID := decode[map[string]string](a.t, rec)["roomId"]
	req.NotEmpty(roomID)

	rec = a.do(http.MethodPost, "/api/room/enter?roomId="+roomID, "", nil)
	req.Equal(http.StatusOK, rec.Code, rec.Body.String())
	token := decode[map[string]string](a.t, rec)["token"]
	req.NotEmpty(token)

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == security.DefaultTokenCookie {
			cookie = c
		}
	}
	req.NotNil(cookie)
	req.Equal(token, cookie.Value)
	req.True(cookie.HttpOnly)
	req.Equal(http.SameSiteStrictMode, cookie.SameSite)

	return roomID, token
}

func Test_Full_Conversation_Lifecycle(t *testing.T) {
	req := require.New(t)
	a := newAPI(t)

	roomID, creator := a.openRoom()

	rec := a.do(http.MethodGet, "/api/room/ttl?roomId="+roomID, creator, nil)
	req.Equal(http.StatusOK, rec.Code)
	ttl := decode[map[string]int64](t, rec)["ttl"]
	req.InDelta(600, ttl, 1)

	rec = a.do(http.MethodPost, "/api/room/invite?roomId="+roomID, creator, nil)
	req.Equal(http.StatusOK, rec.Code, rec.Body.String())
	code := decode[map[string]string](t, rec)["code"]
	req.Len(code, 8)

	rec = a.do(http.MethodPost, "/api/join/"+strings.ToLower(code), "", nil)
	req.Equal(http.StatusOK, rec.Code, rec.Body.String())
	admission := decode[map[string]string](t, rec)
	req.Equal(roomID, admission["roomId"])
	guest := admission["token"]
	req.NotEmpty(guest)

	rec = a.do(http.MethodPost, "/api/join/"+code, "", nil)
	req.Equal(http.StatusNotFound, rec.Code)
	req.Equal("room-not-found", decode[errorBody](t, rec).Code)

	rec = a.do(http.MethodPost, "/api/room/enter?roomId="+roomID, "", nil)
	req.Equal(http.StatusBadRequest, rec.Code)
	req.Equal("room-is-full", decode[errorBody](t, rec).Code)

	rec = a.do(http.MethodPost, "/api/messages?roomId="+roomID, creator, map[string]string{"sender": "alice", "text": "hello"})
	req.Equal(http.StatusOK, rec.Code, rec.Body.String())
	rec = a.do(http.MethodPost, "/api/messages?roomId="+roomID, guest, map[string]string{"sender": "bob", "text": "hi"})
	req.Equal(http.StatusOK, rec.Code, rec.Body.String())

	type listed struct {
		Messages []struct {
			ID     string `json:"id"`
			Sender string `json:"sender"`
			Text   string `json:"text"`
			Token  string `json:"token"`
			Type   string `json:"type"`
		} `json:"messages"`
	}

	rec = a.do(http.MethodGet, "/api/messages?roomId="+roomID, guest, nil)
	req.Equal(http.StatusOK, rec.Code)
	messages := decode[listed](t, rec).Messages
	req.Len(messages, 2)
	req.Equal("hello", messages[0].Text)
	req.Empty(messages[0].Token, "other participants' tokens are hidden")
	req.Equal(guest, messages[1].Token)

	rec = a.do(http.MethodPost, "/api/messages/delete", "", map[string]string{"roomId": roomID, "token": guest})
	req.Equal(http.StatusOK, rec.Code, rec.Body.String())
	req.EqualValues(1, decode[map[string]any](t, rec)["deleted"])

	rec = a.do(http.MethodGet, "/api/messages?roomId="+roomID, creator, nil)
	messages = decode[listed](t, rec).Messages
	req.Len(messages, 1)
	req.Equal(creator, messages[0].Token)

	rec = a.do(http.MethodDelete, "/api/room?roomId="+roomID, guest, nil)
	req.Equal(http.StatusOK, rec.Code, rec.Body.String())

	rec = a.do(http.MethodGet, "/api/room/ttl?roomId="+roomID, creator, nil)
	req.Equal(http.StatusNotFound, rec.Code)
	req.Equal("room-not-found", decode[errorBody](t, rec).Code)
}

func Test_Auth_Errors(t *testing.T) {
	req := require.New(t)
	a := newAPI(t)

	roomID, _ := a.openRoom()

	rec := a.do(http.MethodGet, "/api/room/ttl?roomId="+roomID, "forged", nil)
	req.Equal(http.StatusBadRequest, rec.Code)
	req.Equal("invalid-token", decode[errorBody](t, rec).Code)

	rec = a.do(http.MethodGet, "/api/room/ttl?roomId="+roomID, "", nil)
	req.Equal(http.StatusBadRequest, rec.Code)

	rec = a.do(http.MethodGet, "/api/room/ttl", "whatever", nil)
	req.Equal(http.StatusUnprocessableEntity, rec.Code)
	body := decode[errorBody](t, rec)
	req.Equal("validation-error", body.Code)
	req.Equal("roomId", body.Field)

	rec = a.do(http.MethodGet, "/api/room/ttl?roomId=nope", "whatever", nil)
	req.Equal(http.StatusNotFound, rec.Code)
}

func Test_Restore_Sets_Cookie_For_Member(t *testing.T) {
	req := require.New(t)
	a := newAPI(t)

	roomID, token := a.openRoom()

	rec := a.do(http.MethodPost, "/api/room/restore", "", map[string]string{"roomId": roomID, "token": token})
	req.Equal(http.StatusOK, rec.Code, rec.Body.String())
	req.NotEmpty(rec.Result().Cookies())

	rec = a.do(http.MethodPost, "/api/room/restore", "", map[string]string{"roomId": roomID, "token": "forged"})
	req.Equal(http.StatusBadRequest, rec.Code)
	req.Equal("invalid-token", decode[errorBody](t, rec).Code)

	rec = a.do(http.MethodPost, "/api/room/restore", "", map[string]string{"roomId": roomID})
	req.Equal(http.StatusUnprocessableEntity, rec.Code)
	req.Equal("token", decode[errorBody](t, rec).Field)
}

func Test_Message_Validation_Envelope(t *testing.T) {
	req := require.New(t)
	a := newAPI(t)

	roomID, token := a.openRoom()

	rec := a.do(http.MethodPost, "/api/messages?roomId="+roomID, token, map[string]string{"text": strings.Repeat("x", 51)})
	req.Equal(http.StatusUnprocessableEntity, rec.Code)
	body := decode[errorBody](t, rec)
	req.Equal("validation-error", body.Code)
	req.Equal("text", body.Field)

	rec = a.do(http.MethodPost, "/api/messages?roomId="+roomID, token, map[string]string{"text": "hi", "type": "shout"})
	req.Equal(http.StatusUnprocessableEntity, rec.Code)
	req.Equal("type", decode[errorBody](t, rec).Field)
}

type invitePreview struct {
	Code  string `json:"code"`
	Valid bool   `json:"valid"`
	Full  bool   `json:"full"`
	TTL   int64  `json:"ttl"`
}

func Test_Invite_Preview_Does_Not_Consume(t *testing.T) {
	req := require.New(t)
	a := newAPI(t)

	roomID, token := a.openRoom()

	rec := a.do(http.MethodPost, "/api/room/invite?roomId="+roomID, token, nil)
	code := decode[map[string]string](t, rec)["code"]

	for range 3 {
		rec = a.do(http.MethodGet, "/api/join/"+strings.ToLower(code), "", nil)
		req.Equal(http.StatusOK, rec.Code, rec.Body.String())
		preview := decode[invitePreview](t, rec)
		req.Equal(code, preview.Code)
		req.True(preview.Valid)
		req.False(preview.Full)
		req.InDelta(300, preview.TTL, 1)
		req.Empty(rec.Result().Cookies())
	}

	rec = a.do(http.MethodPost, "/api/join/"+code, "", nil)
	req.Equal(http.StatusOK, rec.Code, rec.Body.String())

	rec = a.do(http.MethodGet, "/api/join/"+code, "", nil)
	req.Equal(http.StatusOK, rec.Code)
	preview := decode[invitePreview](t, rec)
	req.False(preview.Valid)
	req.Zero(preview.TTL)

	// A fresh code for a room that already holds two participants.
	rec = a.do(http.MethodPost, "/api/room/invite?roomId="+roomID, token, nil)
	late := decode[map[string]string](t, rec)["code"]

	rec = a.do(http.MethodGet, "/api/join/"+late, "", nil)
	req.Equal(http.StatusOK, rec.Code)
	preview = decode[invitePreview](t, rec)
	req.True(preview.Valid)
	req.True(preview.Full)

	rec = a.do(http.MethodGet, "/api/join/not-a-code", "", nil)
	req.Equal(http.StatusUnprocessableEntity, rec.Code)
	req.Equal("code", decode[errorBody](t, rec).Field)
}

func Test_Invite_Link_Redirects_Without_Redeeming(t *testing.T) {
	req := require.New(t)
	a := newAPI(t)

	roomID, token := a.openRoom()

	rec := a.do(http.MethodPost, "/api/room/invite?roomId="+roomID, token, nil)
	code := decode[map[string]string](t, rec)["code"]

	// Link previews and prefetchers may follow the link any number of times.
	for range 2 {
		rec = a.do(http.MethodGet, "/join/"+strings.ToLower(code), "", nil)
		req.Equal(http.StatusSeeOther, rec.Code)
		req.Equal("http://app.test/join/"+code, rec.Header().Get("Location"))
		req.Empty(rec.Result().Cookies())
	}

	rec = a.do(http.MethodPost, "/api/join/"+code, "", nil)
	req.Equal(http.StatusOK, rec.Code, rec.Body.String())

	rec = a.do(http.MethodGet, "/join/"+code, "", nil)
	req.Equal(http.StatusSeeOther, rec.Code)
	req.Equal("http://app.test/?error=room-not-found", rec.Header().Get("Location"))

	rec = a.do(http.MethodPost, "/api/room/invite?roomId="+roomID, token, nil)
	late := decode[map[string]string](t, rec)["code"]

	rec = a.do(http.MethodGet, "/join/"+late, "", nil)
	req.Equal("http://app.test/?error=room-is-full", rec.Header().Get("Location"))

	rec = a.do(http.MethodGet, "/join/not-a-code", "", nil)
	req.Equal("http://app.test/?error=room-not-found", rec.Header().Get("Location"))
}

func Test_Unknown_Route_And_Health(t *testing.T) {
	req := require.New(t)
	a := newAPI(t)

	rec := a.do(http.MethodGet, "/api/nothing-here", "", nil)
	req.Equal(http.StatusNotFound, rec.Code)
	req.Equal("endpoint-not-found", decode[errorBody](t, rec).Code)

	rec = a.do(http.MethodGet, "/health", "", nil)
	req.Equal(http.StatusOK, rec.Code)
	req.Equal("ok", decode[map[string]string](t, rec)["status"])
}

func Test_Metrics_Are_Exposed(t *testing.T) {
	req := require.New(t)
	a := newAPI(t)

	a.openRoom()

	rec := a.do(http.MethodGet, "/observability/metrics", "", nil)
	req.Equal(http.StatusOK, rec.Code)
	req.Contains(rec.Body.String(), "rooms_created")
}
