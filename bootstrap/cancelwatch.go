//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: _examples/bassosimone-nop/cancelwatch.go ([context.AfterFunc]-
// based cancellation watcher).
//

package bootstrap

import (
	"context"
	"net"

	"github.com/rgnet/pipeline"
)

// NewCancelWatchFunc returns a new [*CancelWatchFunc].
func NewCancelWatchFunc() *CancelWatchFunc {
	return &CancelWatchFunc{}
}

// CancelWatchFunc arranges for the dialed connection to be closed when the
// context driving [ClientBootstrap.Connect] is done (cancelled or deadline
// exceeded), giving the in-flight connect path responsive cleanup on
// external cancellation rather than waiting out a per-operation timeout.
type CancelWatchFunc struct{}

var _ pipeline.Func[net.Conn, net.Conn] = &CancelWatchFunc{}

// Call registers a context watcher via [context.AfterFunc] that closes conn
// when ctx is done. The returned [net.Conn] wraps conn: closing it
// unregisters the watcher and closes the underlying connection.
func (op *CancelWatchFunc) Call(ctx context.Context, conn net.Conn) (net.Conn, error) {
	stop := context.AfterFunc(ctx, func() {
		conn.Close()
	})
	return &cancelWatchedConn{Conn: conn, stop: stop}, nil
}

// cancelWatchedConn wraps a [net.Conn] with a context cancellation watcher.
type cancelWatchedConn struct {
	net.Conn
	stop func() bool
}

// Close unregisters the context watcher and closes the underlying connection.
func (c *cancelWatchedConn) Close() error {
	c.stop()
	return c.Conn.Close()
}
