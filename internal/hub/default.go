package hub

import "sync"

// Global singleton hub, lazily initialized on first use. Mirrors the
// sync.Once-guarded singleton the plugin registry uses elsewhere in this
// codebase (internal/plugins.Global).
var (
	defaultMu   sync.Mutex
	defaultOnce *sync.Once
	defaultHub  *Hub
)

func init() {
	defaultOnce = &sync.Once{}
}

// Default returns the process-wide hub, creating and starting it with
// DefaultConfig on first use.
func Default() *Hub {
	defaultMu.Lock()
	once := defaultOnce
	defaultMu.Unlock()

	once.Do(func() {
		defaultMu.Lock()
		defaultHub = New(DefaultConfig())
		defaultMu.Unlock()
		defaultHub.Start()
	})

	defaultMu.Lock()
	defer defaultMu.Unlock()
	return defaultHub
}

// SetDefault installs h as the process-wide hub. Intended for tests that
// need a hub with non-default configuration wired through package-level
// helpers (internal/eventsapi).
func SetDefault(h *Hub) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultHub = h
	defaultOnce = &sync.Once{}
	defaultOnce.Do(func() {}) // mark as already-initialized
}

// ResetDefault shuts down the current default hub (if any) and arms the
// singleton to recreate a fresh one on the next Default() call. For tests
// only.
func ResetDefault() {
	defaultMu.Lock()
	h := defaultHub
	defaultHub = nil
	defaultOnce = &sync.Once{}
	defaultMu.Unlock()

	if h != nil {
		h.Shutdown()
	}
}
