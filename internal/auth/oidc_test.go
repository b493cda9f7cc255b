package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOIDCInitializeMissingIssuer(t *testing.T) {
	p := &OIDCProvider{}
	err := p.Initialize(context.Background(), map[string]string{"client_id": "test"})
	if err == nil {
		t.Fatal("expected error for missing issuer_url")
	}
}

func TestOIDCInitializeMissingClientID(t *testing.T) {
	p := &OIDCProvider{}
	err := p.Initialize(context.Background(), map[string]string{"issuer_url": "https://example.com"})
	if err == nil {
		t.Fatal("expected error for missing client_id")
	}
}

// newTestDiscoveryServer serves a minimal OIDC discovery document so
// Initialize's call to oidc.NewProvider succeeds without a real IdP.
func newTestDiscoveryServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"issuer":                 srv.URL,
			"authorization_endpoint": srv.URL + "/auth",
			"token_endpoint":         srv.URL + "/token",
			"jwks_uri":               srv.URL + "/jwks",
		})
	})
	mux.HandleFunc("/jwks", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"keys": []any{}})
	})
	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestOIDCInitializeDiscoverySucceeds(t *testing.T) {
	srv := newTestDiscoveryServer(t)
	p := &OIDCProvider{}
	err := p.Initialize(context.Background(), map[string]string{
		"issuer_url": srv.URL,
		"client_id":  "test-client",
	})
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if !p.Healthy(context.Background()) {
		t.Fatal("expected provider healthy after successful discovery")
	}
}

func TestOIDCAuthenticateEmptyTokenIsAnonymousNotError(t *testing.T) {
	srv := newTestDiscoveryServer(t)
	p := &OIDCProvider{}
	if err := p.Initialize(context.Background(), map[string]string{
		"issuer_url": srv.URL,
		"client_id":  "test-client",
	}); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	result, err := p.Authenticate(context.Background(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Authenticated {
		t.Fatal("expected Authenticated=false for empty token")
	}
}

func TestOIDCAuthenticateMalformedTokenRejected(t *testing.T) {
	srv := newTestDiscoveryServer(t)
	p := &OIDCProvider{}
	if err := p.Initialize(context.Background(), map[string]string{
		"issuer_url": srv.URL,
		"client_id":  "test-client",
	}); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	result, err := p.Authenticate(context.Background(), "not-a-jwt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Authenticated {
		t.Fatal("expected malformed token to fail authentication")
	}
}

func TestParseRolesFromStringSlice(t *testing.T) {
	roles := parseRoles([]any{"admin", "viewer"}, "roles")
	if len(roles) != 2 || roles[0] != "admin" || roles[1] != "viewer" {
		t.Errorf("unexpected roles: %v", roles)
	}
}

func TestParseRolesFromSpaceDelimitedString(t *testing.T) {
	roles := parseRoles("admin viewer", "roles")
	if len(roles) != 2 || roles[0] != "admin" || roles[1] != "viewer" {
		t.Errorf("unexpected roles: %v", roles)
	}
}

func TestParseRolesNilWhenAbsent(t *testing.T) {
	if roles := parseRoles(nil, "roles"); roles != nil {
		t.Errorf("expected nil roles, got %v", roles)
	}
}
