package hub

import (
	"crypto/rand"
	"fmt"
	"time"
)

const idAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// newConnectionID mints "sse_" + millis + "_" + a 9-character random
// suffix, per spec §4.3. Collisions are not handled here;
// Hub.CreateConnection re-mints an id that is already registered.
func newConnectionID() string {
	return fmt.Sprintf("sse_%d_%s", time.Now().UnixMilli(), randomSuffix(9))
}

func randomSuffix(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand.Read on the standard reader does not fail in
		// practice; fall back to a fixed-but-distinguishable suffix
		// rather than panicking a live hub.
		for i := range buf {
			buf[i] = idAlphabet[i%len(idAlphabet)]
		}
		return string(buf)
	}
	out := make([]byte, n)
	for i, b := range buf {
		out[i] = idAlphabet[int(b)%len(idAlphabet)]
	}
	return string(out)
}
