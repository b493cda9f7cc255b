package httpapi

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/rjsadow/ssehub/internal/middleware"
)

// handleSSE implements GET /api/sse (spec §4.4). Identity is resolved by
// the OptionalAuth middleware wrapping this route; this handler only
// decides whether the resolved identity satisfies RequireAuthStream.
func (a *App) handleSSE(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	authenticated := user != nil
	if a.RequireAuthStream && !authenticated {
		writeJSONError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var userID string
	if user != nil {
		userID = user.ID
	}

	query := r.URL.Query()
	sessionID := query.Get("sessionId")
	if sessionID == "" {
		if authenticated {
			sessionID = fmt.Sprintf("auth_%s_%d", userID, time.Now().UnixMilli())
		} else {
			sessionID = anonymousSessionID(r)
		}
	}

	metadata := map[string]string{
		"ip":              clientIP(r),
		"userAgent":       r.UserAgent(),
		"isAuthenticated": fmt.Sprintf("%t", authenticated),
		"connectionTime":  fmt.Sprintf("%d", time.Now().UnixMilli()),
	}
	for key, values := range query {
		if key == "sessionId" || len(values) == 0 {
			continue
		}
		metadata[key] = values[0]
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", "Cache-Control")

	writer := newSSEWriter(w)
	conn, err := a.Hub.CreateConnection(userID, sessionID, metadata, writer)
	if err != nil {
		writeJSONError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	select {
	case <-r.Context().Done():
	case <-writer.done:
	}
	a.Hub.RemoveConnection(conn.ID)
}

// anonymousSessionID derives anon_<base64(ip|ua|millis)[0:16]> per spec
// §4.4, with a random nonce appended to the raw string. The 16-character
// cut keeps only the first 12 bytes of that string, so the result is in
// practice set by the client IP and the start of the user agent: the
// timestamp and nonce after them do not reach the encoded prefix, and
// anonymous connections sharing an IP and user agent get the same id.
func anonymousSessionID(r *http.Request) string {
	var nonce [4]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		slog.Warn("anonymous session id: random nonce unavailable, falling back to zero nonce")
	}
	raw := fmt.Sprintf("%s|%s|%d|%x", clientIP(r), r.UserAgent(), time.Now().UnixMilli(), nonce)
	encoded := base64.RawURLEncoding.EncodeToString([]byte(raw))
	if len(encoded) > 16 {
		encoded = encoded[:16]
	}
	return "anon_" + encoded
}
