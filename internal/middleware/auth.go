package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/rjsadow/ssehub/internal/auth"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	// UserContextKey is the key used to store the authenticated user in the request context
	UserContextKey contextKey = "user"
)

// bearerToken extracts the token from a "Bearer <token>" Authorization
// header, returning "" if the header is absent or malformed.
func bearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

// RequireAuth creates middleware that rejects requests without a valid
// bearer token. Use on endpoints gated by a RequireAuth* config flag
// (spec §9 Q3).
func RequireAuth(authenticator auth.Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				http.Error(w, "Authorization header required", http.StatusUnauthorized)
				return
			}

			result, err := authenticator.Authenticate(r.Context(), token)
			if err != nil {
				http.Error(w, "Authentication failed", http.StatusUnauthorized)
				return
			}
			if !result.Authenticated {
				msg := "Unauthorized"
				if result.Message != "" {
					msg = result.Message
				}
				http.Error(w, msg, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), UserContextKey, result.User)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserFromContext retrieves the authenticated user from the request
// context, if one was resolved.
func GetUserFromContext(ctx context.Context) *auth.User {
	user, ok := ctx.Value(UserContextKey).(*auth.User)
	if !ok {
		return nil
	}
	return user
}

// OptionalAuth resolves a bearer token into the request context when
// present and valid, but never rejects a request for lacking one —
// anonymous callers are a first-class outcome (spec §3).
func OptionalAuth(authenticator auth.Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			result, err := authenticator.Authenticate(r.Context(), token)
			if err != nil || !result.Authenticated {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), UserContextKey, result.User)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
