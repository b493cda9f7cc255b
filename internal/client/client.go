// Package client is a portable reference consumer for the event hub's
// SSE endpoint, driven by a streaming fetch with manual frame parsing
// rather than a browser event-source primitive (spec §4.5 and §9's
// "portable reference" note).
package client

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/rjsadow/ssehub/internal/wire"
)

// State is the client's connection lifecycle (spec §4.5).
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
)

// Reserved event types the client handles internally and never forwards
// to user handlers under their own name (spec §6).
const (
	eventConnected = "connected"
	eventHeartbeat = "heartbeat"
)

// Handler receives one dispatched event.
type Handler func(rec wire.Record)

// Config configures a Client.
type Config struct {
	// BaseURL is the full URL of the SSE endpoint, e.g.
	// "http://localhost:8080/api/sse".
	BaseURL string

	HTTPClient           *http.Client
	MaxReconnectAttempts int
	ReconnectDelay       time.Duration
}

// Client maintains one SSE stream at a time, dispatching decoded events
// to subscribed handlers and reconnecting on unexpected termination.
type Client struct {
	cfg Config

	mu                sync.Mutex
	state             State
	lastErr           string
	connectionID      string
	lastHeartbeat     time.Time
	reconnectAttempts int

	subs *subscriptions

	cancel  context.CancelFunc
	running sync.WaitGroup
}

// New creates a Client. Unset Config fields take the documented
// defaults: an http.Client with no timeout (streaming responses must
// not be cut off by a blanket deadline), 5 reconnect attempts, and a
// 2s delay between attempts.
func New(cfg Config) *Client {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}
	if cfg.MaxReconnectAttempts == 0 {
		cfg.MaxReconnectAttempts = 5
	}
	if cfg.ReconnectDelay == 0 {
		cfg.ReconnectDelay = 2 * time.Second
	}
	return &Client{
		cfg:   cfg,
		state: StateDisconnected,
		subs:  newSubscriptions(),
	}
}

// State returns the client's current lifecycle state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Err returns the terminal error message, if the client reached
// StateDisconnected abnormally.
func (c *Client) Err() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// ConnectionID returns the id assigned by the hub's "connected" event,
// or "" before the first successful connect.
func (c *Client) ConnectionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connectionID
}

// Subscribe registers h for events of the given type ("*" matches
// every non-reserved type) and returns an idempotent unsubscribe
// closure (spec §4.5).
func (c *Client) Subscribe(eventType string, h Handler) func() {
	return c.subs.add(eventType, h)
}

// Connect starts the stream. Only one stream request runs at a time: a
// call while already connecting or connected aborts the existing one
// first.
func (c *Client) Connect(ctx context.Context) {
	c.Disconnect()

	runCtx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.cancel = cancel
	c.reconnectAttempts = 0
	c.mu.Unlock()

	c.running.Add(1)
	go func() {
		defer c.running.Done()
		c.runWithReconnect(runCtx)
	}()
}

// Disconnect cancels any pending reconnect timer and aborts the active
// request. Safe to call when not connected.
func (c *Client) Disconnect() {
	c.mu.Lock()
	cancel := c.cancel
	c.cancel = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	c.running.Wait()

	c.mu.Lock()
	c.state = StateDisconnected
	c.mu.Unlock()
}

func (c *Client) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

func (c *Client) runWithReconnect(ctx context.Context) {
	for {
		err := c.runOnce(ctx)
		if ctx.Err() != nil {
			c.setState(StateDisconnected)
			return
		}
		if err == nil {
			// The server ended a long-lived stream: an unexpected end,
			// retried like any other stream error.
			err = fmt.Errorf("client: stream ended by server")
		}

		c.mu.Lock()
		c.reconnectAttempts++
		attempt := c.reconnectAttempts
		exceeded := attempt > c.cfg.MaxReconnectAttempts
		if exceeded {
			c.lastErr = fmt.Sprintf("reconnect attempts exceeded: %v", err)
		}
		c.mu.Unlock()

		if exceeded {
			c.setState(StateDisconnected)
			return
		}

		slog.Warn("sse client stream ended, reconnecting", "attempt", attempt, "error", err)
		select {
		case <-time.After(c.cfg.ReconnectDelay):
		case <-ctx.Done():
			c.setState(StateDisconnected)
			return
		}
	}
}
