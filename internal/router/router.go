// Package router wraps http.ServeMux with method helpers, path prefixes
// and middleware chaining.
package router

import (
	"net/http"
	"slices"
	"strings"
)

// Router registers routes on a shared http.ServeMux. Sub-routers made with
// Route or Group share the mux and extend the prefix and middleware chain.
type Router struct {
	mux    *http.ServeMux
	prefix string
	chain  []Middleware
}

// Middleware is a function that wraps an http.Handler
type Middleware func(http.Handler) http.Handler

// New creates a new Router with optional global middleware
func New(middleware ...Middleware) *Router {
	return &Router{
		mux:   http.NewServeMux(),
		chain: middleware,
	}
}

// ServeHTTP implements http.Handler
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Get registers a GET route
func (r *Router) Get(pattern string, handler http.HandlerFunc, middleware ...Middleware) {
	r.Handle(http.MethodGet, pattern, handler, middleware...)
}

// Post registers a POST route
func (r *Router) Post(pattern string, handler http.HandlerFunc, middleware ...Middleware) {
	r.Handle(http.MethodPost, pattern, handler, middleware...)
}

// Put registers a PUT route
func (r *Router) Put(pattern string, handler http.HandlerFunc, middleware ...Middleware) {
	r.Handle(http.MethodPut, pattern, handler, middleware...)
}

// Delete registers a DELETE route
func (r *Router) Delete(pattern string, handler http.HandlerFunc, middleware ...Middleware) {
	r.Handle(http.MethodDelete, pattern, handler, middleware...)
}

// Handle registers handler for method and pattern below the router's prefix.
// An empty method matches every method.
func (r *Router) Handle(method, pattern string, handler http.Handler, middleware ...Middleware) {
	path := r.prefix + pattern
	if r.prefix != "" && pattern == "/" {
		// "/api" + "/" would match the whole subtree.
		path = r.prefix + "/{$}"
	}

	if method != "" {
		path = method + " " + path
	}
	r.mux.Handle(path, r.wrap(handler, middleware))
}

// Route returns a sub-router whose patterns are registered below prefix.
func (r *Router) Route(prefix string, middleware ...Middleware) *Router {
	return &Router{
		mux:    r.mux,
		prefix: r.prefix + "/" + strings.Trim(prefix, "/"),
		chain:  append(slices.Clone(r.chain), middleware...),
	}
}

// Group returns a sub-router with additional middleware and the same prefix.
func (r *Router) Group(middleware ...Middleware) *Router {
	return &Router{
		mux:    r.mux,
		prefix: r.prefix,
		chain:  append(slices.Clone(r.chain), middleware...),
	}
}

// wrap applies the router chain and then the route middleware, so the
// first middleware listed runs first.
func (r *Router) wrap(handler http.Handler, middleware []Middleware) http.Handler {
	combined := append(slices.Clone(r.chain), middleware...)

	result := handler
	for _, m := range slices.Backward(combined) {
		result = m(result)
	}
	return result
}
