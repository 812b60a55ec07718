// Package domain provides the core commerce types, error codes, and context
// helpers shared by the esans state stores and HTTP layer.
package domain

import "context"

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey int

const (
	// identityContextKey stores the authenticated shopper in context.
	identityContextKey contextKey = iota

	// sessionIDContextKey stores the browser session ID.
	sessionIDContextKey
)

// Identity is the authentication signal: present when a shopper is signed in.
// Token is the bearer credential forwarded to the remote API.
type Identity struct {
	UserID string `json:"id"`
	Email  string `json:"email"`
	Name   string `json:"name,omitempty"`
	Token  string `json:"-"`
}

// --- Identity Context Helpers ---

// NewContextWithIdentity returns a new context with the identity attached.
func NewContextWithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, id)
}

// IdentityFromContext retrieves the identity from context.
// Returns nil if no shopper is signed in.
func IdentityFromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityContextKey).(*Identity)
	return id
}

// IsAuthenticated returns true if there is an identity in context.
func IsAuthenticated(ctx context.Context) bool {
	return IdentityFromContext(ctx) != nil
}

// --- Session Context Helpers ---

// NewContextWithSessionID returns a new context with the browser session ID attached.
func NewContextWithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionIDContextKey, sessionID)
}

// SessionIDFromContext retrieves the browser session ID from context.
// Returns empty string if none is present.
func SessionIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(sessionIDContextKey).(string)
	return id
}
