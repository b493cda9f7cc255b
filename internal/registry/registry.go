// Package registry owns the set of live connections the hub fans events
// out to: one primary map keyed by connection id plus two secondary
// indexes (by user id, by session id) kept in lockstep under a single
// mutex, mirroring the mutex-guarded map idiom the rest of this codebase
// uses for in-memory lifecycle state.
package registry

import (
	"sync"
	"time"
)

// Writer is the output sink a Connection pushes encoded frames through.
// The HTTP layer, or a test double, supplies an implementation.
type Writer interface {
	// Write pushes a fully-encoded frame. A non-nil error marks the
	// connection as failed.
	Write(frame []byte) error
	// Close releases the underlying stream. Must be idempotent.
	Close() error
}

// Connection is a single open stream to one client.
type Connection struct {
	ID        string
	UserID    string
	SessionID string
	Metadata  map[string]string
	Writer    Writer

	mu       sync.Mutex
	lastSeen int64 // unix millis, refreshed only by Touch
}

// LastSeen returns the last-heartbeat timestamp in unix millis.
func (c *Connection) LastSeen() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastSeen
}

func (c *Connection) touch(nowMillis int64) {
	c.mu.Lock()
	c.lastSeen = nowMillis
	c.mu.Unlock()
}

// Selector is the routing predicate described in spec §3.
type Selector struct {
	ConnectionID string
	UserID       string
	SessionID    string
	Metadata     map[string]string
}

// Stats is a read-consistent snapshot of registry occupancy.
type Stats struct {
	TotalConnections int
	Authenticated    int
	Anonymous        int
	PerUser          map[string]int
	PerSession       map[string]int
}

// Registry owns all live connections.
type Registry struct {
	mu sync.RWMutex

	byID      map[string]*Connection
	byUser    map[string]map[string]struct{}
	bySession map[string]map[string]struct{}
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		byID:      make(map[string]*Connection),
		byUser:    make(map[string]map[string]struct{}),
		bySession: make(map[string]map[string]struct{}),
	}
}

// Add inserts a connection, updating both secondary indexes atomically
// with the primary map.
func (r *Registry) Add(c *Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.byID[c.ID] = c
	if c.UserID != "" {
		set, ok := r.byUser[c.UserID]
		if !ok {
			set = make(map[string]struct{})
			r.byUser[c.UserID] = set
		}
		set[c.ID] = struct{}{}
	}
	if c.SessionID != "" {
		set, ok := r.bySession[c.SessionID]
		if !ok {
			set = make(map[string]struct{})
			r.bySession[c.SessionID] = set
		}
		set[c.ID] = struct{}{}
	}
}

// Remove deletes a connection from the primary map and every index it
// participates in. Returns false if the id was already absent.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.removeLocked(id)
}

func (r *Registry) removeLocked(id string) bool {
	c, ok := r.byID[id]
	if !ok {
		return false
	}
	delete(r.byID, id)

	if c.UserID != "" {
		if set, ok := r.byUser[c.UserID]; ok {
			delete(set, id)
			if len(set) == 0 {
				delete(r.byUser, c.UserID)
			}
		}
	}
	if c.SessionID != "" {
		if set, ok := r.bySession[c.SessionID]; ok {
			delete(set, id)
			if len(set) == 0 {
				delete(r.bySession, c.SessionID)
			}
		}
	}
	return true
}

// Get returns the connection for id, or nil if absent.
func (r *Registry) Get(id string) *Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byID[id]
}

// Touch refreshes a connection's lastSeen timestamp. No-op if the
// connection is no longer registered.
func (r *Registry) Touch(id string, now time.Time) {
	r.mu.RLock()
	c, ok := r.byID[id]
	r.mu.RUnlock()
	if ok {
		c.touch(now.UnixMilli())
	}
}

// List resolves a Selector against the registry per the algorithm in
// spec §4.2: connection-id short-circuit, then user/session index
// intersection, then a metadata post-filter.
func (r *Registry) List(sel Selector) []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if sel.ConnectionID != "" {
		if c, ok := r.byID[sel.ConnectionID]; ok {
			return filterMetadata([]*Connection{c}, sel.Metadata)
		}
		return nil
	}

	var idSet map[string]struct{}
	restricted := false

	if sel.UserID != "" {
		set, ok := r.byUser[sel.UserID]
		if !ok {
			return nil
		}
		idSet = cloneSet(set)
		restricted = true
	}

	if sel.SessionID != "" {
		sessSet, ok := r.bySession[sel.SessionID]
		if !ok {
			return nil
		}
		if restricted {
			idSet = intersect(idSet, sessSet)
		} else {
			idSet = cloneSet(sessSet)
			restricted = true
		}
	}

	var ids map[string]struct{}
	if !restricted {
		ids = make(map[string]struct{}, len(r.byID))
		for id := range r.byID {
			ids[id] = struct{}{}
		}
	} else {
		ids = idSet
	}

	conns := make([]*Connection, 0, len(ids))
	for id := range ids {
		if c, ok := r.byID[id]; ok {
			conns = append(conns, c)
		}
	}
	return filterMetadata(conns, sel.Metadata)
}

// ListStale returns every connection whose lastSeen predates
// now-timeout.
func (r *Registry) ListStale(timeout time.Duration, now time.Time) []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cutoff := now.Add(-timeout).UnixMilli()
	var stale []*Connection
	for _, c := range r.byID {
		if c.LastSeen() < cutoff {
			stale = append(stale, c)
		}
	}
	return stale
}

// SnapshotStats returns a read-consistent occupancy snapshot.
func (r *Registry) SnapshotStats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	st := Stats{
		TotalConnections: len(r.byID),
		PerUser:          make(map[string]int, len(r.byUser)),
		PerSession:       make(map[string]int, len(r.bySession)),
	}
	for uid, set := range r.byUser {
		st.PerUser[uid] = len(set)
	}
	for sid, set := range r.bySession {
		st.PerSession[sid] = len(set)
	}
	for _, c := range r.byID {
		if c.UserID != "" {
			st.Authenticated++
		} else {
			st.Anonymous++
		}
	}
	return st
}

// Clear removes every connection and index entry without closing any
// writer; the caller is responsible for closing writers first.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID = make(map[string]*Connection)
	r.byUser = make(map[string]map[string]struct{})
	r.bySession = make(map[string]map[string]struct{})
}

// Size returns the current connection count.
func (r *Registry) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

func cloneSet(s map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(s))
	for k := range s {
		out[k] = struct{}{}
	}
	return out
}

func intersect(a, b map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{})
	for k := range a {
		if _, ok := b[k]; ok {
			out[k] = struct{}{}
		}
	}
	return out
}

func filterMetadata(conns []*Connection, predicate map[string]string) []*Connection {
	if len(predicate) == 0 {
		return conns
	}
	out := make([]*Connection, 0, len(conns))
	for _, c := range conns {
		if matchesMetadata(c, predicate) {
			out = append(out, c)
		}
	}
	return out
}

func matchesMetadata(c *Connection, predicate map[string]string) bool {
	if len(c.Metadata) == 0 {
		return false
	}
	for k, v := range predicate {
		if c.Metadata[k] != v {
			return false
		}
	}
	return true
}
