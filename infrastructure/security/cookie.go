package security

import (
	"net/http"
	"strings"

	"github.com/hilthontt/burnchat/infrastructure/config"
)

const (
	DefaultTokenCookie = "x-auth-token"
	TokenHeader        = "X-Auth-Token"
)

// TokenCookie reads and writes the participant token cookie.
type TokenCookie struct {
	name   string
	domain string
	maxAge int
	secure bool
}

func NewTokenCookie(cfg *config.Config) *TokenCookie {
	name := cfg.Cookie.Name
	if name == "" {
		name = DefaultTokenCookie
	}

	return &TokenCookie{
		name:   name,
		domain: cfg.Cookie.Domain,
		maxAge: cfg.Cookie.MaxAge,
		secure: cfg.IsProduction(),
	}
}

func (tc *TokenCookie) Name() string {
	return tc.name
}

func (tc *TokenCookie) Set(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     tc.name,
		Value:    token,
		Path:     "/",
		Domain:   tc.domain,
		HttpOnly: true,
		MaxAge:   tc.maxAge,
		SameSite: http.SameSiteStrictMode,
		Secure:   tc.secure,
	})
}

func (tc *TokenCookie) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     tc.name,
		Value:    "",
		Path:     "/",
		Domain:   tc.domain,
		HttpOnly: true,
		MaxAge:   -1,
		SameSite: http.SameSiteStrictMode,
		Secure:   tc.secure,
	})
}

// Token returns the caller's token from the cookie, the X-Auth-Token header
// or a bearer Authorization header, in that order.
func (tc *TokenCookie) Token(r *http.Request) string {
	if cookie, err := r.Cookie(tc.name); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	if header := strings.TrimSpace(r.Header.Get(TokenHeader)); header != "" {
		return header
	}

	if auth := r.Header.Get("Authorization"); auth != "" {
		scheme, token, found := strings.Cut(auth, " ")
		if found && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}

	return ""
}
