package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/rjsadow/ssehub/internal/wire"
)

// runOnce issues one GET to the SSE endpoint and streams it until the
// body ends, the request is canceled, or a read error occurs. Returns
// nil only on a clean EOF and an error for any other outcome; the
// caller reconnects after either.
func (c *Client) runOnce(ctx context.Context) error {
	c.setState(StateConnecting)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL, nil)
	if err != nil {
		return fmt.Errorf("client: build request: %w", err)
	}

	resp, err := c.cfg.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("client: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("client: unexpected status %d", resp.StatusCode)
	}

	c.setState(StateConnected)

	var dec wire.Decoder
	buf := make([]byte, 4096)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			for _, rec := range dec.Feed(buf[:n]) {
				c.dispatch(rec)
			}
		}
		if readErr != nil {
			if readErr == io.EOF {
				return nil
			}
			return fmt.Errorf("client: stream read: %w", readErr)
		}
	}
}

// dispatch handles the two reserved event types internally, then fans
// the event out to type-specific handlers and wildcard handlers (spec
// §4.5). Handler panics are caught and logged; they never abort the
// stream.
func (c *Client) dispatch(rec wire.Record) {
	switch rec.Event {
	case eventConnected:
		var payload struct {
			ConnectionID string `json:"connectionId"`
		}
		if err := json.Unmarshal(rec.Data, &payload); err == nil {
			c.mu.Lock()
			c.connectionID = payload.ConnectionID
			c.reconnectAttempts = 0
			c.mu.Unlock()
		}
		return
	case eventHeartbeat:
		c.mu.Lock()
		c.lastHeartbeat = time.Now()
		c.mu.Unlock()
		return
	}

	for _, h := range c.subs.handlersFor(rec.Event) {
		c.invoke(h, rec)
	}
	for _, h := range c.subs.handlersFor("*") {
		c.invoke(h, rec)
	}
}

func (c *Client) invoke(h Handler, rec wire.Record) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("sse client handler panicked", "event_type", rec.Event, "panic", r)
		}
	}()
	h(rec)
}

// LastHeartbeat returns the time of the last received heartbeat event.
func (c *Client) LastHeartbeat() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastHeartbeat
}
