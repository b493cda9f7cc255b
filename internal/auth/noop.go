package auth

import (
	"context"

	"github.com/rjsadow/ssehub/internal/plugins"
)

// NoopProvider treats every caller as anonymous and never rejects a
// connection. This is the default: the spec treats "no identity" as a
// first-class outcome, not an error (spec §3: "userId: optional... absent
// => anonymous").
type NoopProvider struct{}

func init() {
	plugins.RegisterGlobal("noop", func() plugins.Plugin { return &NoopProvider{} })
}

func (p *NoopProvider) Name() string        { return "noop" }
func (p *NoopProvider) Type() plugins.PluginType { return plugins.PluginTypeAuth }
func (p *NoopProvider) Version() string     { return "1.0.0" }
func (p *NoopProvider) Description() string { return "No-operation authenticator; every caller is anonymous" }

func (p *NoopProvider) Initialize(ctx context.Context, config map[string]string) error { return nil }
func (p *NoopProvider) Healthy(ctx context.Context) bool                               { return true }
func (p *NoopProvider) Close() error                                                   { return nil }

func (p *NoopProvider) Authenticate(ctx context.Context, token string) (*plugins.AuthResult, error) {
	return &plugins.AuthResult{Authenticated: false, Message: "no authentication configured"}, nil
}

var _ plugins.AuthProvider = (*NoopProvider)(nil)
