// Package storefront serves the JSON API the storefront pages talk to:
// the cart, discount codes, favorites and the checkout flow of the
// browser session.
package storefront

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/dukerupert/esans/internal/domain"
	"github.com/dukerupert/esans/internal/handler"
	"github.com/dukerupert/esans/internal/middleware"
	"github.com/dukerupert/esans/internal/session"
)

// Sessions resolves the state bundle of a browser session.
type Sessions interface {
	Get(ctx context.Context, sessionID string) (*session.Bundle, error)
}

// Catalog looks up the perfume snapshot stored on cart lines and favorites.
type Catalog interface {
	GetPerfume(ctx context.Context, id string) (*domain.Product, error)
}

// loadBundle returns the bundle of the request's session, synced with the
// identity the auth middleware attached. On failure the error response has
// been written and ok is false.
func loadBundle(sessions Sessions, w http.ResponseWriter, r *http.Request) (b *session.Bundle, ok bool) {
	ctx := r.Context()

	b, err := sessions.Get(ctx, domain.SessionIDFromContext(ctx))
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return nil, false
	}

	// A failed favorites sync is recorded in the favorites state; the
	// request itself goes on.
	if err := b.Authenticate(ctx, domain.IdentityFromContext(ctx)); err != nil {
		middleware.GetLogger(ctx).Warn("favorites sync failed", slog.String("error", err.Error()))
	}
	return b, true
}

// lookupProduct fetches the catalog snapshot for id.
func lookupProduct(ctx context.Context, catalog Catalog, op, id string) (domain.Product, error) {
	if id == "" {
		return domain.Product{}, domain.Invalid(op, "Product id is required")
	}
	product, err := catalog.GetPerfume(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}
	if product == nil || product.ID == "" {
		return domain.Product{}, domain.NotFound(op, "perfume", id)
	}
	return *product, nil
}

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
