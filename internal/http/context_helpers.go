package httpx

import (
	"context"

	domainauth "github.com/budgetndiostory/bns-api/internal/domain/auth"
)

// identityKey is an unexported context key type to avoid collisions across packages.
// Centralized in this file so all handlers/middleware use the same key.
type identityKey struct{}

// Identity is the resolved principal a guarded handler renders with.
type Identity struct {
	User domainauth.User
	Role domainauth.Role
}

// SetIdentityInContext returns a child context that carries the given identity.
// If id is nil, the original ctx is returned unchanged.
func SetIdentityInContext(ctx context.Context, id *Identity) context.Context {
	if id == nil {
		return ctx
	}
	return context.WithValue(ctx, identityKey{}, id)
}

// GetIdentityFromContext returns the identity from context and a boolean indicating presence.
func GetIdentityFromContext(ctx context.Context) (*Identity, bool) {
	if id, ok := ctx.Value(identityKey{}).(*Identity); ok && id != nil {
		return id, true
	}
	return nil, false
}
