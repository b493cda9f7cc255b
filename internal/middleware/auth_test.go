package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rjsadow/ssehub/internal/auth"
)

// mockAuthenticator implements auth.Authenticator for testing.
type mockAuthenticator struct {
	authenticateFunc func(ctx context.Context, token string) (*auth.AuthResult, error)
}

func (m *mockAuthenticator) Authenticate(ctx context.Context, token string) (*auth.AuthResult, error) {
	return m.authenticateFunc(ctx, token)
}

func newMockAuthenticator(user *auth.User) *mockAuthenticator {
	return &mockAuthenticator{
		authenticateFunc: func(_ context.Context, token string) (*auth.AuthResult, error) {
			if token == "valid-token" {
				expiresAt := time.Now().Add(15 * time.Minute)
				return &auth.AuthResult{
					Authenticated: true,
					User:          user,
					ExpiresAt:     &expiresAt,
				}, nil
			}
			return &auth.AuthResult{
				Authenticated: false,
				Message:       "Invalid token",
			}, nil
		},
	}
}

func TestRequireAuthRejectsMissingHeader(t *testing.T) {
	authenticator := newMockAuthenticator(&auth.User{ID: "u1"})
	handler := RequireAuth(authenticator)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be reached")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestRequireAuthRejectsMalformedHeader(t *testing.T) {
	authenticator := newMockAuthenticator(&auth.User{ID: "u1"})
	handler := RequireAuth(authenticator)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be reached")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Basic abc123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestRequireAuthRejectsInvalidToken(t *testing.T) {
	authenticator := newMockAuthenticator(&auth.User{ID: "u1"})
	handler := RequireAuth(authenticator)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be reached")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer bad-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestRequireAuthAllowsValidTokenAndSetsContext(t *testing.T) {
	want := &auth.User{ID: "u1", Username: "alice"}
	authenticator := newMockAuthenticator(want)

	var gotUser *auth.User
	handler := RequireAuth(authenticator)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = GetUserFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer valid-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotUser == nil || gotUser.ID != "u1" {
		t.Fatalf("expected user u1 in context, got %+v", gotUser)
	}
}

func TestOptionalAuthAllowsMissingToken(t *testing.T) {
	authenticator := newMockAuthenticator(&auth.User{ID: "u1"})

	called := false
	handler := OptionalAuth(authenticator)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		if GetUserFromContext(r.Context()) != nil {
			t.Error("expected no user in context for anonymous request")
		}
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if !called {
		t.Fatal("expected handler to be called for anonymous request")
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 default, got %d", rec.Code)
	}
}

func TestOptionalAuthAttachesUserWhenTokenValid(t *testing.T) {
	want := &auth.User{ID: "u1"}
	authenticator := newMockAuthenticator(want)

	var gotUser *auth.User
	handler := OptionalAuth(authenticator)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = GetUserFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer valid-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if gotUser == nil || gotUser.ID != "u1" {
		t.Fatalf("expected user u1 in context, got %+v", gotUser)
	}
}

func TestOptionalAuthIgnoresInvalidToken(t *testing.T) {
	authenticator := newMockAuthenticator(&auth.User{ID: "u1"})

	var gotUser *auth.User
	handler := OptionalAuth(authenticator)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = GetUserFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer bad-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if gotUser != nil {
		t.Fatalf("expected no user for invalid token, got %+v", gotUser)
	}
}
