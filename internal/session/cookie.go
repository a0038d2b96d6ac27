// File: internal/session/cookie.go
package session

import (
	"net/http"
	"time"
)

// CookieOptions defines how session cookies are issued. The token is never
// readable by client-side script; in production deployment the cookie is
// HTTPS-only and, because the SPA lives on a separate origin there,
// delivered cross-site with SameSite=None. Development keeps SameSite=Lax
// on plain HTTP.
type CookieOptions struct {
	Name     string
	Secure   bool
	SameSite http.SameSite
}

// CookieOptionsForMode returns the cookie policy for the given run mode.
func CookieOptionsForMode(name string, release bool) CookieOptions {
	opts := CookieOptions{
		Name:     name,
		Secure:   release,
		SameSite: http.SameSiteLaxMode,
	}
	if release {
		// Cross-origin delivery in production; CSRF exposure is narrowed by
		// the state-checked OAuth flow and JSON-only mutating endpoints.
		opts.SameSite = http.SameSiteNoneMode
	}
	return opts
}

// SetCookie issues the session cookie to the client.
func SetCookie(w http.ResponseWriter, token string, expiresAt time.Time, opts CookieOptions) {
	http.SetCookie(w, &http.Cookie{
		Name:     opts.Name,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: opts.SameSite,
	})
}

// ClearCookie removes the session cookie from the client.
func ClearCookie(w http.ResponseWriter, opts CookieOptions) {
	http.SetCookie(w, &http.Cookie{
		Name:     opts.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: opts.SameSite,
	})
}
