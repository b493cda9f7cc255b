package auth

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/rjsadow/ssehub/internal/plugins"
)

// OIDCProvider validates bearer tokens as ID tokens issued by an
// external OpenID Connect provider. Unlike the teacher's OIDC plugin,
// this one has no login/callback flow or CSRF state — it is a pure
// verifier: the token arrives already minted, the hub only needs to
// know whether it's genuine and who it names.
type OIDCProvider struct {
	mu       sync.RWMutex
	verifier *oidc.IDTokenVerifier
	rolesKey string
}

func init() {
	plugins.RegisterGlobal("oidc", func() plugins.Plugin { return &OIDCProvider{} })
}

func (p *OIDCProvider) Name() string            { return "oidc" }
func (p *OIDCProvider) Type() plugins.PluginType { return plugins.PluginTypeAuth }
func (p *OIDCProvider) Version() string         { return "1.0.0" }
func (p *OIDCProvider) Description() string     { return "OpenID Connect ID token authenticator" }

// Initialize performs OIDC discovery against config["issuer_url"] and
// builds a verifier scoped to config["client_id"]. config["roles_claim"]
// optionally names the claim holding role strings (defaults to "roles").
func (p *OIDCProvider) Initialize(ctx context.Context, config map[string]string) error {
	issuer := config["issuer_url"]
	clientID := config["client_id"]
	if issuer == "" || clientID == "" {
		return fmt.Errorf("auth/oidc: issuer_url and client_id are required")
	}

	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return fmt.Errorf("auth/oidc: discovery failed: %w", err)
	}

	rolesKey := config["roles_claim"]
	if rolesKey == "" {
		rolesKey = "roles"
	}

	p.mu.Lock()
	p.verifier = provider.Verifier(&oidc.Config{ClientID: clientID})
	p.rolesKey = rolesKey
	p.mu.Unlock()
	return nil
}

func (p *OIDCProvider) Healthy(ctx context.Context) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.verifier != nil
}

func (p *OIDCProvider) Close() error { return nil }

// Authenticate verifies tokenString as an ID token: signature, issuer,
// audience, and expiry are all checked by the underlying verifier.
func (p *OIDCProvider) Authenticate(ctx context.Context, tokenString string) (*plugins.AuthResult, error) {
	if tokenString == "" {
		return &plugins.AuthResult{Authenticated: false, Message: "no token provided"}, nil
	}

	p.mu.RLock()
	verifier := p.verifier
	rolesKey := p.rolesKey
	p.mu.RUnlock()
	if verifier == nil {
		return nil, fmt.Errorf("auth/oidc: provider not initialized")
	}

	idToken, err := verifier.Verify(ctx, tokenString)
	if err != nil {
		return &plugins.AuthResult{Authenticated: false, Message: "invalid token: " + err.Error()}, nil
	}

	var claims struct {
		Subject  string `json:"sub"`
		Email    string `json:"email"`
		Username string `json:"preferred_username"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return &plugins.AuthResult{Authenticated: false, Message: "malformed claims"}, nil
	}
	var allClaims map[string]any
	if err := idToken.Claims(&allClaims); err != nil {
		return &plugins.AuthResult{Authenticated: false, Message: "malformed claims"}, nil
	}

	expiresAt := idToken.Expiry
	return &plugins.AuthResult{
		Authenticated: true,
		User: &plugins.User{
			ID:       claims.Subject,
			Username: claims.Username,
			Email:    claims.Email,
			Roles:    parseRoles(allClaims[rolesKey], rolesKey),
		},
		ExpiresAt: &expiresAt,
	}, nil
}

// parseRoles accepts either a []interface{} or a space-delimited string,
// the two shapes OIDC providers commonly emit for a roles-like claim.
func parseRoles(raw any, _ string) []string {
	switch v := raw.(type) {
	case []any:
		roles := make([]string, 0, len(v))
		for _, r := range v {
			if s, ok := r.(string); ok {
				roles = append(roles, s)
			}
		}
		return roles
	case string:
		return strings.Fields(v)
	default:
		return nil
	}
}

var _ plugins.AuthProvider = (*OIDCProvider)(nil)
