// Package hub implements the event fan-out hub: connection lifecycle,
// selector-based routing, the heartbeat/reaper loop, and the
// write-or-evict backpressure policy described in spec §4.3.
package hub

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rjsadow/ssehub/internal/registry"
	"github.com/rjsadow/ssehub/internal/wire"
)

// Event is one message to deliver (spec §3).
type Event struct {
	Type  string
	Data  any
	ID    string
	Retry int
}

// Stats is the hub statistics snapshot (spec §3).
type Stats struct {
	TotalConnections int            `json:"totalConnections"`
	Authenticated    int            `json:"authenticated"`
	Anonymous        int            `json:"anonymous"`
	PerUser          map[string]int `json:"perUser"`
	PerSession       map[string]int `json:"perSession"`
	UptimeSeconds    float64        `json:"uptimeSeconds"`
	TotalEventsSent  int64          `json:"totalEventsSent"`
	HeartbeatsSent   int64          `json:"heartbeatsSent"`
}

// Hub owns connection lifecycle and routes events to connections.
type Hub struct {
	cfg Config
	reg *registry.Registry

	startedAt time.Time
	sent      atomic.Int64
	heartbeat atomic.Int64

	mu       sync.Mutex
	stopped  bool
	stopCh   chan struct{}
	started  bool

	onConnect    func(*registry.Connection)
	onDisconnect func(*registry.Connection)
}

// New creates a Hub with the given configuration. Call Start to begin the
// heartbeat loop (a no-op if Config.EnableHeartbeat is false).
func New(cfg Config) *Hub {
	return &Hub{
		cfg:       cfg,
		reg:       registry.New(),
		startedAt: time.Now(),
		stopCh:    make(chan struct{}),
	}
}

// OnConnect registers an observer invoked after a connection is admitted.
func (h *Hub) OnConnect(fn func(*registry.Connection)) { h.onConnect = fn }

// OnDisconnect registers an observer invoked after a connection is
// removed, but only for the call that actually performed the removal.
func (h *Hub) OnDisconnect(fn func(*registry.Connection)) { h.onDisconnect = fn }

// Start launches the heartbeat loop if enabled. Safe to call once; a
// second call is a no-op.
func (h *Hub) Start() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.started || !h.cfg.EnableHeartbeat {
		h.started = true
		return
	}
	h.started = true
	go h.heartbeatLoop()
}

// CreateConnection admits a new connection: allocates an id, registers it,
// writes the initial "connected" frame, and invokes the onConnect
// observer. Returns ErrCapacityExceeded if the registry is already at
// Config.MaxConnections, or ErrShuttingDown once Shutdown has begun.
func (h *Hub) CreateConnection(userID, sessionID string, metadata map[string]string, w registry.Writer) (*registry.Connection, error) {
	c := &registry.Connection{
		ID:        newConnectionID(),
		UserID:    userID,
		SessionID: sessionID,
		Metadata:  metadata,
		Writer:    w,
	}

	// The capacity check and the Add must happen under the same h.mu
	// hold: releasing the lock between them would let two concurrent
	// admissions both observe room under MaxConnections and both add,
	// pushing the registry past the cap (spec §4.3's admission cap is a
	// hard precondition, serialized per §5).
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return nil, ErrShuttingDown
	}
	if h.reg.Size() >= h.cfg.MaxConnections {
		h.mu.Unlock()
		return nil, ErrCapacityExceeded
	}
	// The registry keys connections by id; re-mint on a collision rather
	// than overwrite a live connection.
	for h.reg.Get(c.ID) != nil {
		c.ID = newConnectionID()
	}
	h.reg.Add(c)
	h.mu.Unlock()

	h.reg.Touch(c.ID, time.Now())

	frame, err := wire.Encode("connected", "", 0, map[string]any{
		"connectionId": c.ID,
		"timestamp":    time.Now().UnixMilli(),
	})
	if err != nil {
		h.RemoveConnection(c.ID)
		return nil, fmt.Errorf("hub: encode connected frame: %w", err)
	}
	if err := w.Write(frame); err != nil {
		h.RemoveConnection(c.ID)
		return nil, fmt.Errorf("hub: write connected frame: %w", err)
	}

	if h.onConnect != nil {
		h.onConnect(c)
	}
	slog.Info("sse connection admitted", "connection_id", c.ID, "user_id", userID, "session_id", sessionID)
	return c, nil
}

// RemoveConnection deregisters a connection and closes its writer.
// Idempotent: returns false if the connection was already gone. The
// onDisconnect observer fires only for the call that actually removes it.
func (h *Hub) RemoveConnection(id string) bool {
	c := h.reg.Get(id)
	if c == nil {
		return false
	}
	if !h.reg.Remove(id) {
		return false
	}
	if err := c.Writer.Close(); err != nil {
		slog.Warn("sse connection close failed, already closed", "connection_id", id, "error", err)
	}
	if h.onDisconnect != nil {
		h.onDisconnect(c)
	}
	return true
}

// Send encodes event once and writes it to every connection matching sel.
// Per-connection write failures are isolated: the failing connection is
// evicted, counted in failed, and iteration continues. There is no
// in-hub per-connection queue; a slow or dead writer is treated as failed
// as soon as its Write call errors, and is evicted rather than buffered.
func (h *Hub) Send(ev Event, sel registry.Selector) (sent, failed int) {
	conns := h.reg.List(sel)
	if len(conns) == 0 {
		return 0, 0
	}

	frame, err := wire.Encode(ev.Type, ev.ID, ev.Retry, ev.Data)
	if err != nil {
		slog.Error("hub: failed to encode event, dropping send", "event_type", ev.Type, "error", err)
		return 0, len(conns)
	}

	for _, c := range conns {
		if err := c.Writer.Write(frame); err != nil {
			failed++
			h.RemoveConnection(c.ID)
			continue
		}
		sent++
	}
	h.sent.Add(int64(sent))
	return sent, failed
}

// Broadcast sends ev to every connection.
func (h *Hub) Broadcast(ev Event) (sent, failed int) {
	return h.Send(ev, registry.Selector{})
}

// SendToUser sends ev to every connection for userID.
func (h *Hub) SendToUser(userID string, ev Event) (sent, failed int) {
	return h.Send(ev, registry.Selector{UserID: userID})
}

// SendToSession sends ev to every connection for sessionID.
func (h *Hub) SendToSession(sessionID string, ev Event) (sent, failed int) {
	return h.Send(ev, registry.Selector{SessionID: sessionID})
}

// SendToConnection sends ev to a single connection.
func (h *Hub) SendToConnection(connectionID string, ev Event) (sent, failed int) {
	return h.Send(ev, registry.Selector{ConnectionID: connectionID})
}

// ActiveConnections returns the connections matching sel, for reporting
// (spec §4.4's GET /api/sse/stats?showConnections=true).
func (h *Hub) ActiveConnections(sel registry.Selector) []*registry.Connection {
	return h.reg.List(sel)
}

// Stats returns a read-consistent occupancy and counter snapshot.
func (h *Hub) Stats() Stats {
	snap := h.reg.SnapshotStats()
	return Stats{
		TotalConnections: snap.TotalConnections,
		Authenticated:    snap.Authenticated,
		Anonymous:        snap.Anonymous,
		PerUser:          snap.PerUser,
		PerSession:       snap.PerSession,
		UptimeSeconds:    time.Since(h.startedAt).Seconds(),
		TotalEventsSent:  h.sent.Load(),
		HeartbeatsSent:   h.heartbeat.Load(),
	}
}

// Shutdown stops the heartbeat loop and removes every connection.
// Idempotent. No connection may be admitted after it begins.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return
	}
	h.stopped = true
	h.mu.Unlock()

	close(h.stopCh)

	for _, c := range h.reg.List(registry.Selector{}) {
		h.RemoveConnection(c.ID)
	}
	h.reg.Clear()
}

// heartbeatLoop broadcasts a heartbeat, refreshes lastSeen on every
// surviving connection, then reaps stale ones. Ordering matters: a
// connection that just failed the broadcast write is already removed
// before Touch runs, and a connection added moments ago is still safe
// through its first tick.
func (h *Hub) heartbeatLoop() {
	ticker := time.NewTicker(h.cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			h.tick()
		case <-h.stopCh:
			return
		}
	}
}

func (h *Hub) tick() {
	sent, _ := h.Broadcast(Event{
		Type: "heartbeat",
		Data: map[string]any{"timestamp": time.Now().UnixMilli()},
	})
	h.heartbeat.Add(1)
	_ = sent

	now := time.Now()
	for _, c := range h.reg.List(registry.Selector{}) {
		h.reg.Touch(c.ID, now)
	}

	stale := h.reg.ListStale(h.cfg.ConnectionTimeout, now)
	for _, c := range stale {
		h.RemoveConnection(c.ID)
	}
	if len(stale) > 0 {
		slog.Info("sse reaper evicted stale connections", "count", len(stale))
	}
}
