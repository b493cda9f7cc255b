package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/rjsadow/ssehub/internal/hub"
	"github.com/rjsadow/ssehub/internal/middleware"
)

type notifyTarget struct {
	UserID string `json:"userId"`
}

type notifyOptions struct {
	ID    string `json:"id"`
	Retry int    `json:"retry"`
}

type notifyRequest struct {
	EventType string         `json:"eventType"`
	Data      any            `json:"data"`
	Target    *notifyTarget  `json:"target"`
	Options   *notifyOptions `json:"options"`
}

type notifyResponse struct {
	Success   bool   `json:"success"`
	EventType string `json:"eventType"`
	Sent      int    `json:"sent"`
	Failed    int    `json:"failed"`
	Message   string `json:"message,omitempty"`
}

// handleNotifications implements POST /api/sse/notifications (spec §4.4).
func (a *App) handleNotifications(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if a.RateLimiter != nil && !a.RateLimiter.Allow(clientIP(r)) {
		writeJSONError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	if a.RequireAuthNotify && middleware.GetUserFromContext(r.Context()) == nil {
		writeJSONError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req notifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.EventType == "" || req.Data == nil {
		writeJSONError(w, http.StatusBadRequest, "eventType and data are required")
		return
	}

	ev := hub.Event{Type: req.EventType, Data: req.Data}
	if req.Options != nil {
		ev.ID = req.Options.ID
		ev.Retry = req.Options.Retry
	}

	var sent, failed int
	if req.Target != nil && req.Target.UserID != "" {
		sent, failed = a.Hub.SendToUser(req.Target.UserID, ev)
	} else {
		sent, failed = a.Hub.Broadcast(ev)
	}

	writeJSON(w, http.StatusOK, notifyResponse{
		Success:   true,
		EventType: req.EventType,
		Sent:      sent,
		Failed:    failed,
	})
}
