package httpapi

import (
	"fmt"
	"net/http"
	"sync"
	"time"
)

// writeTimeout bounds how long a single SSE frame write may block before
// the connection is treated as a failed, slow consumer (spec §9 Q1).
const writeTimeout = time.Second

// sseWriter adapts an http.ResponseWriter into a registry.Writer: each
// Write sets a short deadline via http.ResponseController, writes the
// frame, and flushes immediately so the client sees it without
// buffering. Writes are serialized with a mutex since the hub's fan-out
// loop and any concurrent eviction must not interleave bytes on the
// same connection.
type sseWriter struct {
	w    http.ResponseWriter
	rc   *http.ResponseController
	done chan struct{}

	mu     sync.Mutex
	closed bool
}

func newSSEWriter(w http.ResponseWriter) *sseWriter {
	return &sseWriter{
		w:    w,
		rc:   http.NewResponseController(w),
		done: make(chan struct{}),
	}
}

// Write implements registry.Writer.
func (s *sseWriter) Write(frame []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("httpapi: write to closed connection")
	}

	if err := s.rc.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		// Not every ResponseWriter supports deadlines (e.g. in tests using
		// httptest.ResponseRecorder); proceed without one rather than fail.
	}

	if _, err := s.w.Write(frame); err != nil {
		return fmt.Errorf("httpapi: write frame: %w", err)
	}

	if f, ok := s.w.(interface{ Flush() }); ok {
		f.Flush()
	}
	return nil
}

// Close implements registry.Writer. It never returns an error: by the
// time the hub calls Close the underlying connection may already be
// gone, and that is not itself a failure (spec §7 CloseRace).
func (s *sseWriter) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	close(s.done)
	return nil
}
