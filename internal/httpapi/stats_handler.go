package httpapi

import (
	"net/http"

	"github.com/rjsadow/ssehub/internal/registry"
)

type connectionSummary struct {
	ConnectionID string            `json:"connectionId"`
	UserID       string            `json:"userId,omitempty"`
	SessionID    string            `json:"sessionId,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	LastSeen     int64             `json:"lastSeen"`
}

type statsResponse struct {
	Stats       any                 `json:"stats"`
	Connections []connectionSummary `json:"connections,omitempty"`
	RequestInfo map[string]string   `json:"requestInfo"`
}

// handleStats implements GET /api/sse/stats (spec §4.4).
func (a *App) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	query := r.URL.Query()
	userID := query.Get("userId")
	sessionID := query.Get("sessionId")
	showConnections := query.Get("showConnections") == "true"

	resp := statsResponse{
		Stats: a.Hub.Stats(),
		RequestInfo: map[string]string{
			"ip":        clientIP(r),
			"userAgent": r.UserAgent(),
		},
	}

	if showConnections || userID != "" || sessionID != "" {
		conns := a.Hub.ActiveConnections(registry.Selector{UserID: userID, SessionID: sessionID})
		resp.Connections = make([]connectionSummary, 0, len(conns))
		for _, c := range conns {
			resp.Connections = append(resp.Connections, connectionSummary{
				ConnectionID: c.ID,
				UserID:       c.UserID,
				SessionID:    c.SessionID,
				Metadata:     c.Metadata,
				LastSeen:     c.LastSeen(),
			})
		}
	}

	writeJSON(w, http.StatusOK, resp)
}
