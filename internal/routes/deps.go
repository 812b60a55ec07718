package routes

import (
	"net/http"

	"github.com/dukerupert/esans/internal/handler/storefront"
	"github.com/dukerupert/esans/internal/router"
)

// StorefrontDeps contains dependencies for the storefront API routes
type StorefrontDeps struct {
	CartHandler      *storefront.CartHandler
	FavoritesHandler *storefront.FavoritesHandler
	CheckoutHandler  *storefront.CheckoutHandler

	// StrictLimit wraps the routes that call the store API on every
	// request (discount validation, order placement). Nil means none.
	StrictLimit router.Middleware
}

// OpsDeps contains dependencies for health and metrics routes
type OpsDeps struct {
	Metrics http.Handler
}
