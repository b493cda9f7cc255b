// Package plugins provides a small plugin architecture for pluggable
// authenticators: the external identity collaborator named in spec §1
// ("authentication... supplies a user identity for a connection, or
// none") is never baked into the hub itself, only resolved through this
// registry at startup.
//
// Adding a new auth provider:
//  1. Implement AuthProvider.
//  2. Register it with RegisterGlobal from an init() func.
//  3. Add its name to the provider names config.Validate accepts.
//  4. Select it via the SSEHUB_AUTH_PROVIDER environment variable.
package plugins

import (
	"context"
	"errors"
	"time"
)

// Common errors returned by plugins.
var (
	ErrPluginNotFound   = errors.New("plugin not found")
	ErrInvalidConfig    = errors.New("invalid plugin configuration")
	ErrAuthRequired     = errors.New("authentication required")
)

// PluginType represents the category of a plugin. Only one category
// exists in this repository, but the type survives from the teacher's
// broader registry so a second provider kind can be added without
// reshaping the registry.
type PluginType string

// PluginTypeAuth is the only plugin category this repository registers.
const PluginTypeAuth PluginType = "auth"

// Plugin is the base interface all plugins must implement.
type Plugin interface {
	Name() string
	Type() PluginType
	Version() string
	Description() string
	Initialize(ctx context.Context, config map[string]string) error
	Healthy(ctx context.Context) bool
	Close() error
}

// PluginInfo contains metadata about a registered plugin.
type PluginInfo struct {
	Name        string     `json:"name"`
	Type        PluginType `json:"type"`
	Version     string     `json:"version"`
	Description string     `json:"description"`
}

// PluginFactory creates a new instance of a plugin.
type PluginFactory func() Plugin

// User represents an identity resolved from a caller's credentials.
type User struct {
	ID       string            `json:"id"`
	Username string            `json:"username"`
	Email    string            `json:"email,omitempty"`
	Roles    []string          `json:"roles,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// AuthResult is the result of resolving a caller's credentials.
type AuthResult struct {
	Authenticated bool       `json:"authenticated"`
	User          *User      `json:"user,omitempty"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	Message       string     `json:"message,omitempty"`
}

// AuthProvider resolves a bearer token (or empty string, for anonymous
// callers) to an identity. This is the pluggable shape of the external
// "authentication" collaborator named out of scope in spec §1 — the hub
// never talks to one directly, only through the smaller
// internal/auth.Authenticator interface.
type AuthProvider interface {
	Plugin
	Authenticate(ctx context.Context, token string) (*AuthResult, error)
}
