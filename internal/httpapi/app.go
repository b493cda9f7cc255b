// Package httpapi wires the hub's four HTTP entry points — the SSE
// upgrade, the producer notification endpoint, the stats endpoint, and
// CORS preflight — onto an http.ServeMux built by App.Handler.
package httpapi

import (
	"net/http"

	"github.com/rjsadow/ssehub/internal/auth"
	"github.com/rjsadow/ssehub/internal/hub"
	"github.com/rjsadow/ssehub/internal/middleware"
)

// App holds the dependencies the HTTP layer needs.
type App struct {
	Hub           *hub.Hub
	Authenticator auth.Authenticator

	// RequireAuthStream/RequireAuthNotify gate GET /api/sse and
	// POST /api/sse/notifications respectively (spec §9 Q3: a deployment
	// policy choice, not a fixed requirement).
	RequireAuthStream bool
	RequireAuthNotify bool

	RateLimiter *RateLimiter
}

// Handler builds the complete HTTP handler with all routes registered.
// Every route flows through middleware.RequestID; the two identity-aware
// routes additionally flow through middleware.OptionalAuth so their
// handlers read the resolved caller via middleware.GetUserFromContext
// instead of re-resolving the bearer token themselves.
func (a *App) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", a.handleHealthz)
	mux.HandleFunc("/readyz", a.handleReadyz)

	mux.Handle("/api/sse", a.withOptionalAuth(http.HandlerFunc(a.handleSSEOrOptions)))
	mux.Handle("/api/sse/notifications", a.withOptionalAuth(http.HandlerFunc(a.handleNotificationsOrOptions)))
	mux.HandleFunc("/api/sse/stats", a.handleStatsOrOptions)

	return middleware.RequestID(mux)
}

// withOptionalAuth resolves a bearer token into the request context when
// present and valid, but never rejects the request — the handlers decide
// whether authentication was required (spec §9 Q3).
func (a *App) withOptionalAuth(next http.Handler) http.Handler {
	if a.Authenticator == nil {
		return next
	}
	return middleware.OptionalAuth(a.Authenticator)(next)
}

func (a *App) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (a *App) handleReadyz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ready"))
}

// writePreflight answers an OPTIONS request per spec §4.4.
func writePreflight(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Cache-Control")
	w.WriteHeader(http.StatusOK)
}

func (a *App) handleSSEOrOptions(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		writePreflight(w)
		return
	}
	a.handleSSE(w, r)
}

func (a *App) handleNotificationsOrOptions(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		writePreflight(w)
		return
	}
	a.handleNotifications(w, r)
}

func (a *App) handleStatsOrOptions(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		writePreflight(w)
		return
	}
	a.handleStats(w, r)
}
