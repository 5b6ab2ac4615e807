package authz

import (
	"context"
	"net/http"
)

// Identity is the authenticated caller as established by the JWT
// middleware. The invitation subsystem trusts it as given.
type Identity struct {
	UserID string
	Email  string
}

type contextKey string

const identityKey contextKey = "identity"

// WithIdentity stores the authenticated identity on the context.
func WithIdentity(ctx context.Context, ident Identity) context.Context {
	return context.WithValue(ctx, identityKey, ident)
}

func IdentityFromRequest(r *http.Request) (Identity, bool) {
	ident, ok := r.Context().Value(identityKey).(Identity)
	if !ok || ident.UserID == "" {
		return Identity{}, false
	}
	return ident, true
}
