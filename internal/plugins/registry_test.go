package plugins

import (
	"context"
	"testing"
)

type stubProvider struct{ healthy bool }

func (s *stubProvider) Name() string                                            { return "stub" }
func (s *stubProvider) Type() PluginType                                        { return PluginTypeAuth }
func (s *stubProvider) Version() string                                         { return "0.0.1" }
func (s *stubProvider) Description() string                                     { return "test stub" }
func (s *stubProvider) Initialize(ctx context.Context, cfg map[string]string) error { s.healthy = true; return nil }
func (s *stubProvider) Healthy(ctx context.Context) bool                        { return s.healthy }
func (s *stubProvider) Close() error                                            { return nil }
func (s *stubProvider) Authenticate(ctx context.Context, token string) (*AuthResult, error) {
	return &AuthResult{Authenticated: token == "ok"}, nil
}

func TestRegisterAndInitialize(t *testing.T) {
	r := NewRegistry()
	if err := r.Register("stub", func() Plugin { return &stubProvider{} }); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := r.Initialize(context.Background(), "stub", nil); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if r.Auth() == nil {
		t.Fatal("expected active provider after Initialize")
	}
}

func TestRegisterDuplicateNameFails(t *testing.T) {
	r := NewRegistry()
	factory := func() Plugin { return &stubProvider{} }
	if err := r.Register("stub", factory); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	if err := r.Register("stub", factory); err == nil {
		t.Fatal("expected error registering duplicate name")
	}
}

func TestInitializeUnknownPluginFails(t *testing.T) {
	r := NewRegistry()
	if err := r.Initialize(context.Background(), "missing", nil); err == nil {
		t.Fatal("expected error for unknown plugin")
	}
}
