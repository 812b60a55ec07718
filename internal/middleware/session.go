package middleware

import (
	"net/http"
	"time"

	"github.com/dukerupert/esans/internal/cookie"
	"github.com/dukerupert/esans/internal/domain"
	"github.com/google/uuid"
)

// Session makes sure every request carries a browser session id. The id
// lives in the cookie called name; a missing or malformed cookie is
// replaced by a fresh UUID, set with the given lifetime. The id is stored
// with domain.NewContextWithSessionID.
func Session(cookies *cookie.Config, name string, maxAge time.Duration) func(http.Handler) http.Handler {
	if name == "" {
		name = cookie.SessionCookieName
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := cookie.Get(r, name)
			if _, err := uuid.Parse(sessionID); err != nil {
				sessionID = uuid.NewString()
				cookies.SetSession(w, name, sessionID, int(maxAge.Seconds()))
			}

			ctx := domain.NewContextWithSessionID(r.Context(), sessionID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
