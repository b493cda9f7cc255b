// Package eventsapi is the producer-facing library surface named in
// spec §6: thin wrappers over the process-wide hub singleton for
// in-process callers that want to push events without holding a
// *hub.Hub reference themselves.
package eventsapi

import (
	"github.com/rjsadow/ssehub/internal/hub"
	"github.com/rjsadow/ssehub/internal/registry"
)

// Options carries the optional per-event id/retry fields (spec §6).
type Options struct {
	ID    string
	Retry int
}

func toEvent(eventType string, data any, opts *Options) hub.Event {
	ev := hub.Event{Type: eventType, Data: data}
	if opts != nil {
		ev.ID = opts.ID
		ev.Retry = opts.Retry
	}
	return ev
}

// NotifyUser sends an event to every connection belonging to userID.
func NotifyUser(userID, eventType string, data any, opts *Options) (sent, failed int) {
	return hub.Default().SendToUser(userID, toEvent(eventType, data, opts))
}

// NotifySession sends an event to every connection belonging to sessionID.
func NotifySession(sessionID, eventType string, data any, opts *Options) (sent, failed int) {
	return hub.Default().SendToSession(sessionID, toEvent(eventType, data, opts))
}

// Broadcast sends an event to every connection.
func Broadcast(eventType string, data any, opts *Options) (sent, failed int) {
	return hub.Default().Broadcast(toEvent(eventType, data, opts))
}

// NotifyFiltered sends an event to every connection matching sel.
func NotifyFiltered(sel registry.Selector, eventType string, data any, opts *Options) (sent, failed int) {
	return hub.Default().Send(toEvent(eventType, data, opts), sel)
}

// GetStats returns the hub's current statistics snapshot.
func GetStats() hub.Stats {
	return hub.Default().Stats()
}

// GetActiveConnections returns the connections matching sel.
func GetActiveConnections(sel registry.Selector) []*registry.Connection {
	return hub.Default().ActiveConnections(sel)
}
