//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: _examples/original_source/wangle/channel/AsyncSocketHandler.h
// Adapted from: _examples/bassosimone-nop/connect.go (Dialer abstraction)
//

package pipeline

import (
	"context"
	"net"
)

// Dialer abstracts [*net.Dialer]'s DialContext behavior.
//
// By depending on an abstraction, [Config.Dialer] and the client bootstrap
// allow for unit testing and alternative dialers.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

func defaultDialer() Dialer {
	return &net.Dialer{}
}

// EventBase is the consumed reactor abstraction a [Transport] is bound to.
//
// The core never implements a reactor; it only requires one primitive:
// the ability to run a callback on the reactor's own goroutine, either
// immediately (if already running on it) or by scheduling it and waiting.
// A [Transport] created by [NewConnTransport] binds to a [*GoEventBase].
type EventBase interface {
	// RunImmediatelyOrRunAndWait runs fn on the event-base's own goroutine.
	// If the caller is already running on that goroutine, fn runs inline.
	// Otherwise, fn is scheduled and RunImmediatelyOrRunAndWait blocks until
	// it has completed.
	RunImmediatelyOrRunAndWait(fn func())

	// RunInLoop schedules fn to run once, after the current batch of ready
	// callbacks finishes — the "end of reactor turn" hook used by the
	// output-buffering handler to coalesce writes.
	RunInLoop(fn func())
}

// ReadCallback is implemented by whoever wants to observe read events on a [Transport].
//
// This mirrors wangle's AsyncTransportWrapper::ReadCallback contract (§6):
// the transport asks the callback for a buffer to read into, reports how
// much was read, and reports EOF/errors.
type ReadCallback interface {
	GetReadBuffer(minAvailable, allocationSize int) []byte
	ReadDataAvailable(n int)
	ReadEOF()
	ReadErr(err error)
}

// WriteCallback is notified when an asynchronous write completes.
type WriteCallback interface {
	WriteSuccess()
	WriteErr(bytesWritten int, err error)
}

// Transport is the consumed connected-bytes abstraction (§6) the socket
// handler drives. [NewConnTransport] adapts any [net.Conn] to this interface.
type Transport interface {
	SetReadCallback(cb ReadCallback)
	GetReadCallback() ReadCallback

	WriteChain(cb WriteCallback, buf []byte, flags WriteFlags)

	ShutdownWrite()
	CloseNow()
	CloseWithReset()

	Good() bool

	GetEventBase() EventBase
	AttachEventBase(base EventBase)
	DetachEventBase()

	LocalAddr() net.Addr
	RemoteAddr() net.Addr
}

// TransportInfo is a descriptive, read-only snapshot of a transport's
// identifying properties, used for logging and diagnostics (§3).
type TransportInfo struct {
	LocalAddr  net.Addr
	RemoteAddr net.Addr
	Network    string
}

// NewTransportInfo captures a [TransportInfo] snapshot from a [Transport].
func NewTransportInfo(t Transport) TransportInfo {
	info := TransportInfo{LocalAddr: t.LocalAddr(), RemoteAddr: t.RemoteAddr()}
	if info.LocalAddr != nil {
		info.Network = info.LocalAddr.Network()
	}
	return info
}
