package plugins

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Registry manages registered auth-provider factories and the single
// active provider selected at startup.
type Registry struct {
	mu sync.RWMutex

	factories map[string]PluginFactory
	active    AuthProvider
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]PluginFactory)}
}

// Register adds a plugin factory. Call from an init() func in the
// plugin's package.
func (r *Registry) Register(name string, factory PluginFactory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("auth plugin already registered: %s", name)
	}
	r.factories[name] = factory
	slog.Info("registered auth plugin", "name", name)
	return nil
}

// Initialize selects and initializes the named provider.
func (r *Registry) Initialize(ctx context.Context, name string, cfg map[string]string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	factory, exists := r.factories[name]
	if !exists {
		return fmt.Errorf("auth plugin not found: %s", name)
	}

	plugin := factory()
	provider, ok := plugin.(AuthProvider)
	if !ok {
		return fmt.Errorf("plugin %s does not implement AuthProvider", name)
	}
	if err := provider.Initialize(ctx, cfg); err != nil {
		return fmt.Errorf("failed to initialize %s: %w", name, err)
	}

	r.active = provider
	slog.Info("initialized auth plugin", "name", name)
	return nil
}

// Auth returns the active auth provider, or nil if Initialize was never
// called.
func (r *Registry) Auth() AuthProvider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active
}

// ListPlugins returns metadata for every registered factory.
func (r *Registry) ListPlugins() []PluginInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]PluginInfo, 0, len(r.factories))
	for name, factory := range r.factories {
		p := factory()
		infos = append(infos, PluginInfo{
			Name:        name,
			Type:        PluginTypeAuth,
			Version:     p.Version(),
			Description: p.Description(),
		})
	}
	return infos
}

// Close releases the active provider's resources, if any.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active == nil {
		return nil
	}
	return r.active.Close()
}

var (
	globalRegistry     *Registry
	globalRegistryOnce sync.Once
)

// Global returns the process-wide plugin registry.
func Global() *Registry {
	globalRegistryOnce.Do(func() {
		globalRegistry = NewRegistry()
	})
	return globalRegistry
}

// RegisterGlobal registers a factory with the global registry. Intended
// for use from a plugin package's init() func.
func RegisterGlobal(name string, factory PluginFactory) {
	if err := Global().Register(name, factory); err != nil {
		slog.Warn("failed to register auth plugin", "name", name, "error", err)
	}
}
