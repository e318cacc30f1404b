package auth

import "context"

// Identity is the authenticated caller of a single request.
type Identity struct {
	// Username is the subject of the validated bearer token.
	Username string
}

// identityKey is a private type for the identity context key.
type identityKey struct{}

// SetIdentity stores the authenticated identity in the context.
func SetIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext retrieves the authenticated identity.
// Returns nil if the request did not pass the auth gate.
func IdentityFromContext(ctx context.Context) *Identity {
	if v, ok := ctx.Value(identityKey{}).(*Identity); ok {
		return v
	}
	return nil
}

// RequireIdentity is a helper to get the identity or return an error.
func RequireIdentity(ctx context.Context) (*Identity, error) {
	id := IdentityFromContext(ctx)
	if id == nil || id.Username == "" {
		return nil, ErrUnauthenticated
	}
	return id, nil
}
