package hub

import "errors"

// ErrCapacityExceeded is returned by CreateConnection when the registry is
// already at Config.MaxConnections.
var ErrCapacityExceeded = errors.New("hub: connection capacity exceeded")

// ErrShuttingDown is returned by CreateConnection once Shutdown has begun;
// no new connection may be admitted after that point.
var ErrShuttingDown = errors.New("hub: hub is shutting down")
