//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: _examples/bassosimone-nop/tls.go (TLSEngine abstraction,
// structured handshake-start/handshake-done logging, peer-certificate
// extraction from known x509 error types).
//

package bootstrap

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"net"
	"time"

	"github.com/bassosimone/runtimex"
	"github.com/rgnet/pipeline"
)

// TLSEngine is the engine used to create a new [TLSConn].
type TLSEngine interface {
	// Client builds a new client [TLSConn].
	Client(conn net.Conn, config *tls.Config) TLSConn

	// Name returns the engine name.
	Name() string

	// Parrot returns the configured parrot or an empty string.
	Parrot() string
}

// TLSEngineStdlib implements [TLSEngine] for the standard library.
//
// The zero value is ready to use.
type TLSEngineStdlib struct{}

var _ TLSEngine = TLSEngineStdlib{}

// Client implements [TLSEngine] using [tls.Client].
func (TLSEngineStdlib) Client(conn net.Conn, config *tls.Config) TLSConn {
	return tls.Client(conn, config)
}

// Name implements [TLSEngine]. Returns "stdlib".
func (TLSEngineStdlib) Name() string { return "stdlib" }

// Parrot implements [TLSEngine]. Returns "".
func (TLSEngineStdlib) Parrot() string { return "" }

// TLSConn abstracts over [*tls.Conn] so alternative TLS implementations
// (and TLS session resumption wrappers) can stand in for it.
type TLSConn interface {
	ConnectionState() tls.ConnectionState
	HandshakeContext(ctx context.Context) error
	net.Conn
}

// NewTLSHandshakeFunc returns a new [*TLSHandshakeFunc] using tlsConfig.
func NewTLSHandshakeFunc(cfg *pipeline.Config, tlsConfig *tls.Config) *TLSHandshakeFunc {
	runtimex.Assert(tlsConfig != nil)
	return &TLSHandshakeFunc{
		Config:        tlsConfig,
		Engine:        TLSEngineStdlib{},
		ErrClassifier: cfg.ErrClassifier,
		Logger:        cfg.Logger,
		TimeNow:       cfg.TimeNow,
	}
}

// TLSHandshakeFunc performs a TLS handshake over an existing [net.Conn].
//
// Returns either a valid [TLSConn] or an error, never both. On error the
// input conn is closed before returning, so composed connect pipelines
// don't leak the underlying socket.
type TLSHandshakeFunc struct {
	Config        *tls.Config
	Engine        TLSEngine
	ErrClassifier pipeline.ErrClassifier
	Logger        pipeline.SLogger
	TimeNow       func() time.Time
}

var _ pipeline.Func[net.Conn, TLSConn] = &TLSHandshakeFunc{}

// Call invokes the [*TLSHandshakeFunc] to create a [TLSConn] from a [net.Conn].
func (op *TLSHandshakeFunc) Call(ctx context.Context, conn net.Conn) (TLSConn, error) {
	config := op.tlsConfig()
	tconn := op.Engine.Client(conn, config)
	t0 := op.TimeNow()
	deadline, _ := ctx.Deadline()
	op.logHandshakeStart(op.Engine, conn, t0, deadline, config)
	err := tconn.HandshakeContext(ctx)
	state := tconn.ConnectionState()
	op.logHandshakeDone(op.Engine, conn, t0, deadline, config, err, state)
	return op.finish(tconn, err)
}

func (op *TLSHandshakeFunc) finish(conn TLSConn, err error) (TLSConn, error) {
	if err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

func (op *TLSHandshakeFunc) tlsConfig() *tls.Config {
	runtimex.Assert(op.Config != nil)
	config := op.Config.Clone()
	config.Time = op.TimeNow
	return config
}

func (op *TLSHandshakeFunc) logHandshakeStart(engine TLSEngine,
	conn net.Conn, t0 time.Time, deadline time.Time, config *tls.Config) {
	op.Logger.Info(
		"tlsHandshakeStart",
		"deadline", deadline,
		"localAddr", connLocalAddr(conn),
		"remoteAddr", connRemoteAddr(conn),
		"t", t0,
		"tlsEngineName", engine.Name(),
		"tlsParrot", engine.Parrot(),
		"tlsOfferedProtocols", config.NextProtos,
		"tlsServerName", config.ServerName,
		"tlsSkipVerify", config.InsecureSkipVerify,
	)
}

func (op *TLSHandshakeFunc) logHandshakeDone(engine TLSEngine,
	conn net.Conn, t0 time.Time, deadline time.Time, config *tls.Config, err error, state tls.ConnectionState) {
	op.Logger.Info(
		"tlsHandshakeDone",
		"deadline", deadline,
		"err", err,
		"errClass", op.ErrClassifier.Classify(err),
		"localAddr", connLocalAddr(conn),
		"remoteAddr", connRemoteAddr(conn),
		"t0", t0,
		"t", op.TimeNow(),
		"tlsCipherSuite", tls.CipherSuiteName(state.CipherSuite),
		"tlsEngineName", engine.Name(),
		"tlsParrot", engine.Parrot(),
		"tlsNegotiatedProtocol", state.NegotiatedProtocol,
		"tlsOfferedProtocols", config.NextProtos,
		"tlsPeerCerts", op.peerCerts(state, err),
		"tlsServerName", config.ServerName,
		"tlsSkipVerify", config.InsecureSkipVerify,
		"tlsVersion", tls.VersionName(state.Version),
	)
}

func (op *TLSHandshakeFunc) peerCerts(state tls.ConnectionState, err error) (out [][]byte) {
	out = [][]byte{}

	var x509HostnameError x509.HostnameError
	if errors.As(err, &x509HostnameError) {
		out = append(out, x509HostnameError.Certificate.Raw)
		return
	}

	var x509UnknownAuthorityError x509.UnknownAuthorityError
	if errors.As(err, &x509UnknownAuthorityError) {
		out = append(out, x509UnknownAuthorityError.Cert.Raw)
		return
	}

	var x509CertificateInvalidError x509.CertificateInvalidError
	if errors.As(err, &x509CertificateInvalidError) {
		out = append(out, x509CertificateInvalidError.Cert.Raw)
		return
	}

	for _, cert := range state.PeerCertificates {
		out = append(out, cert.Raw)
	}
	return
}

func connRemoteAddr(conn net.Conn) string {
	if conn == nil {
		return ""
	}
	addr := conn.RemoteAddr()
	if addr == nil {
		return ""
	}
	return addr.String()
}
