package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/esans/internal/domain"
)

// SessionValidator resolves a bearer token to a shopper.
type SessionValidator interface {
	ValidateSession(ctx context.Context, token string) (*domain.Identity, error)
}

// Authenticate attaches the signed-in shopper to the context when the
// request carries a bearer token the store API accepts. Authentication is
// optional: requests without a token, or with one the API rejects, go on
// as guests. When the API cannot be asked, the request fails rather than
// silently signing the shopper out.
func Authenticate(v SessionValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			identity, err := v.ValidateSession(r.Context(), token)
			switch {
			case err == nil:
				ctx := domain.NewContextWithIdentity(r.Context(), identity)
				next.ServeHTTP(w, r.WithContext(ctx))
			case domain.IsCode(err, domain.EUNAUTHORIZED), domain.IsCode(err, domain.EFORBIDDEN):
				GetLogger(r.Context()).Debug("ignoring rejected bearer token", slog.String("error", err.Error()))
				next.ServeHTTP(w, r)
			default:
				respondWithError(w, r, err)
			}
		})
	}
}

// bearerToken extracts the token from "Authorization: Bearer <token>".
func bearerToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
