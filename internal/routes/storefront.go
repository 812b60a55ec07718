package routes

import (
	"github.com/dukerupert/esans/internal/router"
)

// RegisterStorefrontRoutes registers the JSON API the storefront pages use.
// Every route runs with the browser session resolved; bearer auth is
// optional and only required by the favorites mutations.
func RegisterStorefrontRoutes(r *router.Router, deps StorefrontDeps) {
	api := r.Route("/api")

	strict := api
	if deps.StrictLimit != nil {
		strict = api.Group(deps.StrictLimit)
	}

	// Cart
	api.Get("/cart", deps.CartHandler.View)
	api.Delete("/cart", deps.CartHandler.Clear)
	api.Post("/cart/items", deps.CartHandler.Add)
	api.Put("/cart/items/{lineID}", deps.CartHandler.Update)
	api.Delete("/cart/items/{lineID}", deps.CartHandler.Remove)

	// Discount codes
	strict.Post("/cart/discount", deps.CartHandler.ApplyDiscount)
	api.Delete("/cart/discount", deps.CartHandler.RemoveDiscount)

	// Favorites
	api.Get("/favorites", deps.FavoritesHandler.List)
	api.Post("/favorites", deps.FavoritesHandler.Add)
	api.Delete("/favorites/{productID}", deps.FavoritesHandler.Remove)
	api.Post("/favorites/{productID}/toggle", deps.FavoritesHandler.Toggle)

	// Checkout flow
	api.Get("/checkout", deps.CheckoutHandler.View)
	api.Put("/checkout/customer", deps.CheckoutHandler.SetCustomer)
	api.Put("/checkout/payment", deps.CheckoutHandler.SetPayment)
	api.Post("/checkout/next", deps.CheckoutHandler.Next)
	api.Post("/checkout/back", deps.CheckoutHandler.Back)
	strict.Post("/checkout/order", deps.CheckoutHandler.PlaceOrder)
}
