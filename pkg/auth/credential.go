// Package auth acquires and holds the credential sent to the company
// registry in the Authorization header.
//
// A credential is passed explicitly to every page fetch; there is no
// process-wide token. Source implements the acquire-once, reuse until
// invalidated lifecycle on top of an Authenticator and a Store.
package auth

import "context"

// Credential supplies the Authorization header value for one request.
type Credential interface {
	Authorization() string
}

// Invalidator is implemented by credentials that can be dropped after the
// upstream rejected them, so that the next acquisition fetches a new one.
type Invalidator interface {
	Invalidate(ctx context.Context)
}

// Provider hands out the credential for the next aggregation.
type Provider interface {
	Credential(ctx context.Context) (Credential, error)
}

// Token is a ready-to-send Authorization header value, either returned by
// the authenticate handshake or preconfigured as a secret.
type Token string

// Authorization implements Credential.
func (t Token) Authorization() string {
	return string(t)
}

// Credential implements Provider for a preconfigured secret.
func (t Token) Credential(context.Context) (Credential, error) {
	if t.IsZero() {
		return nil, &AuthError{Message: "no token configured", Err: ErrMissingToken}
	}
	return t, nil
}

// IsZero reports whether the token is empty.
func (t Token) IsZero() bool {
	return t == ""
}
