package middleware

import (
	"context"

	"github.com/praxishq/praxis/internal/domain"
)

type contextKey string

const identityContextKey contextKey = "identity"

// WithIdentity injects the authenticated identity into the context.
func WithIdentity(ctx context.Context, identity domain.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}

// IdentityFromContext returns the identity from the context. ok is false when
// no identity was set (unauthenticated request).
func IdentityFromContext(ctx context.Context) (domain.Identity, bool) {
	v := ctx.Value(identityContextKey)
	if v == nil {
		return domain.Identity{}, false
	}
	id, ok := v.(domain.Identity)
	return id, ok
}
