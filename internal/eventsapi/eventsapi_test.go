package eventsapi

import (
	"strings"
	"testing"
	"time"

	"github.com/rjsadow/ssehub/internal/hub"
	"github.com/rjsadow/ssehub/internal/registry"
)

type fakeWriter struct {
	frames [][]byte
}

func (f *fakeWriter) Write(frame []byte) error { f.frames = append(f.frames, frame); return nil }
func (f *fakeWriter) Close() error             { return nil }

func setupDefaultHub(t *testing.T) {
	t.Helper()
	hub.ResetDefault()
	t.Cleanup(hub.ResetDefault)

	h := hub.New(hub.Config{
		HeartbeatInterval: time.Minute,
		ConnectionTimeout: time.Hour,
		MaxConnections:    10,
		EnableHeartbeat:   false,
	})
	hub.SetDefault(h)
}

func TestBroadcastReachesAllConnections(t *testing.T) {
	setupDefaultHub(t)

	if _, err := hub.Default().CreateConnection("", "s1", nil, &fakeWriter{}); err != nil {
		t.Fatalf("CreateConnection: %v", err)
	}
	if _, err := hub.Default().CreateConnection("", "s2", nil, &fakeWriter{}); err != nil {
		t.Fatalf("CreateConnection: %v", err)
	}

	sent, failed := Broadcast("ping", map[string]string{"a": "b"}, nil)
	if sent != 2 || failed != 0 {
		t.Errorf("expected sent=2 failed=0, got sent=%d failed=%d", sent, failed)
	}
}

func TestNotifyUserOnlyReachesThatUser(t *testing.T) {
	setupDefaultHub(t)

	if _, err := hub.Default().CreateConnection("u1", "s1", nil, &fakeWriter{}); err != nil {
		t.Fatalf("CreateConnection: %v", err)
	}
	if _, err := hub.Default().CreateConnection("u2", "s2", nil, &fakeWriter{}); err != nil {
		t.Fatalf("CreateConnection: %v", err)
	}

	sent, failed := NotifyUser("u1", "ping", map[string]string{}, nil)
	if sent != 1 || failed != 0 {
		t.Errorf("expected sent=1 failed=0, got sent=%d failed=%d", sent, failed)
	}
}

func TestNotifyFilteredBySelector(t *testing.T) {
	setupDefaultHub(t)

	if _, err := hub.Default().CreateConnection("u1", "s1", nil, &fakeWriter{}); err != nil {
		t.Fatalf("CreateConnection: %v", err)
	}

	sent, _ := NotifyFiltered(registry.Selector{SessionID: "s1"}, "ping", map[string]string{}, nil)
	if sent != 1 {
		t.Errorf("expected sent=1, got %d", sent)
	}
}

func TestGetStatsReflectsConnections(t *testing.T) {
	setupDefaultHub(t)

	if _, err := hub.Default().CreateConnection("u1", "s1", nil, &fakeWriter{}); err != nil {
		t.Fatalf("CreateConnection: %v", err)
	}

	stats := GetStats()
	if stats.TotalConnections != 1 {
		t.Errorf("expected 1 connection, got %d", stats.TotalConnections)
	}
}

func TestBroadcastHonorsOptionsIDAndRetry(t *testing.T) {
	setupDefaultHub(t)
	w := &fakeWriter{}
	if _, err := hub.Default().CreateConnection("", "s1", nil, w); err != nil {
		t.Fatalf("CreateConnection: %v", err)
	}

	sent, _ := Broadcast("ping", map[string]string{}, &Options{ID: "evt-1", Retry: 5000})
	if sent != 1 {
		t.Fatalf("expected sent=1, got %d", sent)
	}
	// Two frames: the initial "connected" frame plus our broadcast.
	if len(w.frames) != 2 {
		t.Fatalf("expected 2 frames written, got %d", len(w.frames))
	}
	frame := string(w.frames[1])
	if !strings.Contains(frame, "id: evt-1\n") || !strings.Contains(frame, "retry: 5000\n") {
		t.Errorf("expected id and retry lines in broadcast frame, got %q", frame)
	}
}
