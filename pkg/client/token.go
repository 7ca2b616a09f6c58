package client

import (
	"context"
)

// TokenProvider supplies an authorization token for a management request.
// Token acquisition (SAS signing, AAD flows) happens behind this interface;
// the client only places the returned value on the Authorization header.
type TokenProvider interface {
	// Token returns an authorization token scoped to the given audience URL.
	Token(ctx context.Context, audience string) (string, error)
}

// StaticTokenProvider returns a fixed, pre-signed token for every request.
// Useful for short-lived tools and tests.
type StaticTokenProvider string

// Token implements TokenProvider.
func (p StaticTokenProvider) Token(_ context.Context, _ string) (string, error) {
	return string(p), nil
}
