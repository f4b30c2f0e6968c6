//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: _examples/bassosimone-nop/connect.go ([pipeline.Dialer]-backed
// connect func, structured connect-start/connect-done logging). safeconn's
// nil-safe address accessors are replaced by local helpers because the
// conn argument can genuinely be nil here (a failed dial never produces
// one), unlike the rest of this module where a [pipeline.Transport] is
// only ever installed once a connection already exists.
//

// Package bootstrap implements the client and server bootstrap: picking an
// event base, dialing (optionally through TLS), building a pipeline via a
// user-supplied factory, and firing it to life.
package bootstrap

import (
	"context"
	"net"
	"time"

	"github.com/rgnet/pipeline"
)

// NewConnectFunc returns a new [*ConnectFunc] wired from cfg.
//
// The network argument must be either "tcp" or "udp".
func NewConnectFunc(cfg *pipeline.Config, network string) *ConnectFunc {
	return &ConnectFunc{
		Dialer:        cfg.Dialer,
		ErrClassifier: cfg.ErrClassifier,
		Logger:        cfg.Logger,
		Network:       network,
		TimeNow:       cfg.TimeNow,
	}
}

// ConnectFunc dials a host:port address using a configured network.
//
// Unlike the netip.AddrPort-typed connect func it is adapted from, this
// version takes a plain address string so the dialer can resolve hostnames
// itself, matching [ClientBootstrap.Connect]'s address argument.
//
// Returns either a valid [net.Conn] or an error, never both.
//
// All fields are safe to modify after construction but before first use.
// Fields must not be mutated concurrently with calls to [Call].
type ConnectFunc struct {
	// Dialer is the [pipeline.Dialer] to use.
	Dialer pipeline.Dialer

	// ErrClassifier classifies errors for structured logging.
	ErrClassifier pipeline.ErrClassifier

	// Logger is the [pipeline.SLogger] to use.
	Logger pipeline.SLogger

	// Network is the network to use (either "tcp" or "udp").
	Network string

	// TimeNow is the function to get the current time (configurable for testing).
	TimeNow func() time.Time
}

var _ pipeline.Func[string, net.Conn] = &ConnectFunc{}

// Call invokes the [*ConnectFunc] to connect to the given address.
func (op *ConnectFunc) Call(ctx context.Context, address string) (net.Conn, error) {
	t0 := op.TimeNow()
	deadline, _ := ctx.Deadline()
	op.logConnectStart(op.Network, address, t0, deadline)
	conn, err := op.Dialer.DialContext(ctx, op.Network, address)
	op.logConnectDone(op.Network, address, t0, deadline, conn, err)
	return conn, err
}

func (op *ConnectFunc) logConnectStart(network, address string, t0 time.Time, deadline time.Time) {
	op.Logger.Info(
		"connectStart",
		"deadline", deadline,
		"protocol", network,
		"remoteAddr", address,
		"t", t0,
	)
}

func (op *ConnectFunc) logConnectDone(
	network, address string, t0 time.Time, deadline time.Time, conn net.Conn, err error) {
	op.Logger.Info(
		"connectDone",
		"deadline", deadline,
		"err", err,
		"errClass", op.ErrClassifier.Classify(err),
		"localAddr", connLocalAddr(conn),
		"protocol", network,
		"remoteAddr", address,
		"t0", t0,
		"t", op.TimeNow(),
	)
}

// connLocalAddr returns conn.LocalAddr().String(), or "" if conn or its
// local address is nil. A failed dial never produces a [net.Conn].
func connLocalAddr(conn net.Conn) string {
	if conn == nil {
		return ""
	}
	addr := conn.LocalAddr()
	if addr == nil {
		return ""
	}
	return addr.String()
}
