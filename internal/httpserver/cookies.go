package httpserver

import (
	"net/http"
	"time"

	"github.com/Skotchmaster/auth_service/internal/middleware"
	"github.com/Skotchmaster/auth_service/internal/tokens"
)

type CookieConfig struct {
	Secure bool
}

func (cc CookieConfig) create(name, value string, maxAge time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(maxAge / time.Second),
		Expires:  time.Now().Add(maxAge),
		HttpOnly: true,
		Secure:   cc.Secure,
		SameSite: http.SameSiteStrictMode,
	}
}

func (cc CookieConfig) AccessCookie(token string) *http.Cookie {
	return cc.create(middleware.AccessCookie, token, tokens.AccessTTL)
}

func (cc CookieConfig) RefreshCookie(token string) *http.Cookie {
	return cc.create(middleware.RefreshCookie, token, tokens.RefreshTTL)
}

func (cc CookieConfig) DeleteCookie(name string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cc.Secure,
		SameSite: http.SameSiteStrictMode,
	}
}
