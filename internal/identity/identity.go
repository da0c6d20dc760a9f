package identity

import (
	"context"

	"golang.org/x/oauth2"
)

// Identity is what a federated provider tells us about the signed-in user.
type Identity struct {
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}

// Provider runs the authorization-code flow with PKCE against an external
// identity provider. The same verifier must be passed to AuthURL and Exchange.
type Provider interface {
	AuthURL(state, verifier string) string
	Exchange(ctx context.Context, code, verifier string) (Identity, error)
}

// NewVerifier returns a fresh PKCE code verifier.
func NewVerifier() string {
	return oauth2.GenerateVerifier()
}
