package hub

import "time"

// Config enumerates the hub's tunables (spec §4.3).
type Config struct {
	// HeartbeatInterval is the period between heartbeat ticks.
	HeartbeatInterval time.Duration
	// ConnectionTimeout is the staleness threshold: a connection whose
	// lastSeen predates now-ConnectionTimeout is eligible for reaping.
	ConnectionTimeout time.Duration
	// MaxConnections caps the number of simultaneously admitted
	// connections.
	MaxConnections int
	// EnableHeartbeat toggles the periodic tick and staleness reap. When
	// false, connections never expire on their own.
	EnableHeartbeat bool
}

// DefaultConfig returns the spec's enumerated defaults.
func DefaultConfig() Config {
	return Config{
		HeartbeatInterval: 30 * time.Second,
		ConnectionTimeout:  60 * time.Second,
		MaxConnections:     1000,
		EnableHeartbeat:    true,
	}
}
