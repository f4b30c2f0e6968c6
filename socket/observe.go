//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: _examples/bassosimone-nop/observeconn.go (sync.Once-guarded
// close, structured I/O logging). safeconn's LocalAddr/Network/RemoteAddr
// nil-safety helpers are not needed here: conn is always a live net.Conn
// obtained from net.Dial/net.Listener.Accept, never nil.
//

package socket

import (
	"net"
	"sync"
	"time"

	"github.com/rgnet/pipeline"
)

// ObserveConn wraps conn so every I/O operation is logged through cfg's
// logger and error classifier. Use this to wrap the conn passed to
// [NewConnTransport] when I/O-level tracing is wanted.
func ObserveConn(conn net.Conn, cfg *pipeline.Config) net.Conn {
	return &observedConn{
		conn:     conn,
		cfg:      cfg,
		protocol: conn.LocalAddr().Network(),
		laddr:    conn.LocalAddr().String(),
		raddr:    conn.RemoteAddr().String(),
	}
}

type observedConn struct {
	closeonce sync.Once
	conn      net.Conn
	cfg       *pipeline.Config
	protocol  string
	laddr     string
	raddr     string
}

func (c *observedConn) Close() (err error) {
	err = net.ErrClosed
	c.closeonce.Do(func() {
		t0 := c.cfg.TimeNow()
		c.cfg.Logger.Info("closeStart",
			"localAddr", c.laddr, "protocol", c.protocol, "remoteAddr", c.raddr, "t", t0)

		err = c.conn.Close()

		c.cfg.Logger.Info("closeDone",
			"err", err, "errClass", c.cfg.ErrClassifier.Classify(err),
			"localAddr", c.laddr, "protocol", c.protocol, "remoteAddr", c.raddr,
			"t0", t0, "t", c.cfg.TimeNow())
	})
	return
}

func (c *observedConn) LocalAddr() net.Addr  { return c.conn.LocalAddr() }
func (c *observedConn) RemoteAddr() net.Addr { return c.conn.RemoteAddr() }

func (c *observedConn) Read(buf []byte) (int, error) {
	t0 := c.cfg.TimeNow()
	c.cfg.Logger.Debug("readStart", "ioBufferSize", len(buf),
		"localAddr", c.laddr, "protocol", c.protocol, "remoteAddr", c.raddr, "t", t0)

	n, err := c.conn.Read(buf)

	c.cfg.Logger.Debug("readDone", "ioBytesCount", n, "err", err,
		"errClass", c.cfg.ErrClassifier.Classify(err),
		"localAddr", c.laddr, "protocol", c.protocol, "remoteAddr", c.raddr,
		"t0", t0, "t", c.cfg.TimeNow())
	return n, err
}

func (c *observedConn) Write(buf []byte) (int, error) {
	t0 := c.cfg.TimeNow()
	c.cfg.Logger.Debug("writeStart", "ioBufferSize", len(buf),
		"localAddr", c.laddr, "protocol", c.protocol, "remoteAddr", c.raddr, "t", t0)

	n, err := c.conn.Write(buf)

	c.cfg.Logger.Debug("writeDone", "ioBytesCount", n, "err", err,
		"errClass", c.cfg.ErrClassifier.Classify(err),
		"localAddr", c.laddr, "protocol", c.protocol, "remoteAddr", c.raddr,
		"t0", t0, "t", c.cfg.TimeNow())
	return n, err
}

func (c *observedConn) SetDeadline(t time.Time) error {
	c.cfg.Logger.Debug("setDeadline", "deadline", t,
		"localAddr", c.laddr, "protocol", c.protocol, "remoteAddr", c.raddr, "t", c.cfg.TimeNow())
	return c.conn.SetDeadline(t)
}

func (c *observedConn) SetReadDeadline(t time.Time) error {
	c.cfg.Logger.Debug("setReadDeadline", "deadline", t,
		"localAddr", c.laddr, "protocol", c.protocol, "remoteAddr", c.raddr, "t", c.cfg.TimeNow())
	return c.conn.SetReadDeadline(t)
}

func (c *observedConn) SetWriteDeadline(t time.Time) error {
	c.cfg.Logger.Debug("setWriteDeadline", "deadline", t,
		"localAddr", c.laddr, "protocol", c.protocol, "remoteAddr", c.raddr, "t", c.cfg.TimeNow())
	return c.conn.SetWriteDeadline(t)
}

var _ net.Conn = &observedConn{}
