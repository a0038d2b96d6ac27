package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCookieOptionsForMode(t *testing.T) {
	dev := CookieOptionsForMode("vs_session", false)
	assert.False(t, dev.Secure)
	assert.Equal(t, http.SameSiteLaxMode, dev.SameSite)

	prod := CookieOptionsForMode("vs_session", true)
	assert.True(t, prod.Secure)
	assert.Equal(t, http.SameSiteNoneMode, prod.SameSite)
}

func TestSetCookie_IsHTTPOnly(t *testing.T) {
	rec := httptest.NewRecorder()
	opts := CookieOptionsForMode("vs_session", false)

	SetCookie(rec, "tok-1", time.Now().Add(time.Hour), opts)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	assert.Equal(t, "vs_session", c.Name)
	assert.Equal(t, "tok-1", c.Value)
	assert.True(t, c.HttpOnly, "session token must be invisible to script")
	assert.Equal(t, "/", c.Path)
}

func TestClearCookie_ExpiresImmediately(t *testing.T) {
	rec := httptest.NewRecorder()
	opts := CookieOptionsForMode("vs_session", false)

	ClearCookie(rec, opts)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Empty(t, cookies[0].Value)
	assert.Negative(t, cookies[0].MaxAge)
}
