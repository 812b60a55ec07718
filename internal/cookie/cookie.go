// Package cookie provides domain-aware cookie helpers for the storefront
// session cookie.
package cookie

import (
	"net/http"
	"time"
)

// Config holds cookie configuration for domain-aware cookie operations.
type Config struct {
	// BaseDomain scopes cookies to the storefront domain (e.g. "esans.com.tr").
	// Empty means host-only cookies.
	BaseDomain string

	// Secure determines whether cookies require HTTPS.
	// Should be true in production, false in development.
	Secure bool
}

// NewConfig creates a new cookie configuration.
//
// Example:
//
//	cfg := cookie.NewConfig("esans.com.tr", true) // production
//	cfg := cookie.NewConfig("", false)            // development, host-only
func NewConfig(baseDomain string, secure bool) *Config {
	return &Config{
		BaseDomain: baseDomain,
		Secure:     secure,
	}
}

// SetSession sets an HttpOnly, SameSite=Lax session cookie on path "/".
// maxAge is in seconds; zero makes a browser-session cookie.
func (c *Config) SetSession(w http.ResponseWriter, name, value string, maxAge int) {
	ck := c.base(name, value)
	ck.MaxAge = maxAge
	http.SetCookie(w, ck)
}

// ClearSession removes a session cookie by setting MaxAge to -1.
// The domain matches the one SetSession used.
func (c *Config) ClearSession(w http.ResponseWriter, name string) {
	ck := c.base(name, "")
	ck.MaxAge = -1
	http.SetCookie(w, ck)
}

// SetSessionWithExpiry sets a session cookie with an explicit expiration time.
// MaxAge is left unset because it would take precedence over Expires.
func (c *Config) SetSessionWithExpiry(w http.ResponseWriter, name, value string, expires time.Time) {
	ck := c.base(name, value)
	ck.Expires = expires.UTC()
	http.SetCookie(w, ck)
}

func (c *Config) base(name, value string) *http.Cookie {
	ck := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	if c.BaseDomain != "" {
		ck.Domain = c.BaseDomain
	}
	return ck
}

// Get retrieves a cookie value from the request.
// Returns empty string if cookie not found.
func Get(r *http.Request, name string) string {
	cookie, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// SessionCookieName is the default name of the browser session cookie.
const SessionCookieName = "esans_session"
