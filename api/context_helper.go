package api

import (
	"context"
	"time"
)

// QueryTimeout is the default timeout for database queries
const QueryTimeout = 10 * time.Second

// WithQueryTimeout creates a context with query timeout
func WithQueryTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, QueryTimeout)
}

type contextKey string

const identityKey contextKey = "identity"

// Identity is the authenticated caller attached to the request context by the
// auth middleware
type Identity struct {
	UserID string
	Email  string
}

// WithIdentity returns a context carrying the authenticated identity
func WithIdentity(parent context.Context, id Identity) context.Context {
	return context.WithValue(parent, identityKey, id)
}

// IdentityFromContext returns the authenticated identity, if any
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}
