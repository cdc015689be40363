package handlers

import (
	"net/http"
	"time"

	"github.com/nhadat/listing-auth/internal/middleware"
	"github.com/nhadat/listing-auth/internal/session"
)

// CookieConfig controls the attributes of the session cookies.
type CookieConfig struct {
	Secure     bool
	SameSite   http.SameSite
	Domain     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// NewCookieConfig returns production or development cookie attributes.
func NewCookieConfig(production bool, domain string, accessTTL, refreshTTL time.Duration) CookieConfig {
	sameSite := http.SameSiteLaxMode
	if production {
		sameSite = http.SameSiteStrictMode
	}
	return CookieConfig{
		Secure:     production,
		SameSite:   sameSite,
		Domain:     domain,
		AccessTTL:  accessTTL,
		RefreshTTL: refreshTTL,
	}
}

// setTokens writes both session cookies with Max-Age matching each token's TTL.
func (c CookieConfig) setTokens(w http.ResponseWriter, pair session.TokenPair) {
	http.SetCookie(w, c.cookie(middleware.AccessTokenCookie, pair.Access.Value, int(c.AccessTTL.Seconds())))
	http.SetCookie(w, c.cookie(middleware.RefreshTokenCookie, pair.Refresh.Value, int(c.RefreshTTL.Seconds())))
}

// clearTokens expires both session cookies using the same attributes they were set with.
func (c CookieConfig) clearTokens(w http.ResponseWriter) {
	http.SetCookie(w, c.cookie(middleware.AccessTokenCookie, "", -1))
	http.SetCookie(w, c.cookie(middleware.RefreshTokenCookie, "", -1))
}

func (c CookieConfig) cookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   c.Domain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: c.SameSite,
	}
}
