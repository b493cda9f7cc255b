// Package auth provides the Authenticator collaborator the HTTP entry
// points consume to resolve a caller's identity. The hub itself never
// imports this package — spec §1 names authentication as an external
// collaborator out of scope for the hub's core, and this package exists
// precisely so internal/hub stays decoupled from any one identity scheme.
package auth

import (
	"context"

	"github.com/rjsadow/ssehub/internal/plugins"
)

// Re-exported for callers that only need the auth package.
type (
	User       = plugins.User
	AuthResult = plugins.AuthResult
)

// Authenticator validates a bearer token and returns the resolved
// identity, or Authenticated=false if the token is empty, invalid, or
// expired. An empty token is a legitimate call: anonymous callers are
// represented by AuthResult{Authenticated: false}, not an error.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*AuthResult, error)
}
