package security

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hilthontt/burnchat/infrastructure/config"
	"github.com/stretchr/testify/require"
)

func Test_TokenCookie_Set_And_Clear(t *testing.T) {
	req := require.New(t)
	cfg := config.Default()
	cfg.Server.RunMode = "release"
	cookie := NewTokenCookie(cfg)

	rec := httptest.NewRecorder()
	cookie.Set(rec, "tok")

	cookies := rec.Result().Cookies()
	req.Len(cookies, 1)
	req.Equal(DefaultTokenCookie, cookies[0].Name)
	req.Equal("tok", cookies[0].Value)
	req.Equal("/", cookies[0].Path)
	req.True(cookies[0].HttpOnly)
	req.True(cookies[0].Secure)
	req.Equal(600, cookies[0].MaxAge)
	req.Equal(http.SameSiteStrictMode, cookies[0].SameSite)

	rec = httptest.NewRecorder()
	cookie.Clear(rec)
	cookies = rec.Result().Cookies()
	req.Len(cookies, 1)
	req.Empty(cookies[0].Value)
	req.Negative(cookies[0].MaxAge)
}

func Test_TokenCookie_Token_Lookup_Order(t *testing.T) {
	req := require.New(t)
	cfg := config.Default()
	cfg.Cookie.Name = "burn"
	cookie := NewTokenCookie(cfg)
	req.Equal("burn", cookie.Name())

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Empty(cookie.Token(r))

	r.Header.Set("Authorization", "Bearer from-bearer")
	req.Equal("from-bearer", cookie.Token(r))

	r.Header.Set(TokenHeader, "from-header")
	req.Equal("from-header", cookie.Token(r))

	r.AddCookie(&http.Cookie{Name: "burn", Value: "from-cookie"})
	req.Equal("from-cookie", cookie.Token(r))

	other := httptest.NewRequest(http.MethodGet, "/", nil)
	other.Header.Set("Authorization", "Basic abc")
	req.Empty(cookie.Token(other))
}
