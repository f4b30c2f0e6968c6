//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Grounded on: _examples/original_source/wangle/channel/AsyncSocketHandler.h
// (the Transport/ReadCallback/WriteCallback contract §6), adapted to drive
// a plain net.Conn instead of folly's AsyncSocket.
//

package socket

import (
	"errors"
	"io"
	"net"
	"sync"
	"sync/atomic"

	"github.com/rgnet/pipeline"
)

// ConnTransport adapts a [net.Conn] to [pipeline.Transport], running its
// read loop and writes on a dedicated [*GoEventBase].
type ConnTransport struct {
	conn net.Conn
	base *GoEventBase

	mu  sync.Mutex
	cb  pipeline.ReadCallback
	eof atomic.Bool
	bad atomic.Bool

	closeOnce sync.Once
	stopRead  chan struct{}
}

// NewConnTransport wraps conn, starting a fresh [*GoEventBase] to own its
// read loop and writes.
func NewConnTransport(conn net.Conn) *ConnTransport {
	return &ConnTransport{conn: conn, base: NewGoEventBase(), stopRead: make(chan struct{})}
}

// SetReadCallback implements [pipeline.Transport]. Setting a non-nil
// callback starts the read loop; setting nil stops it before its next read.
func (t *ConnTransport) SetReadCallback(cb pipeline.ReadCallback) {
	t.mu.Lock()
	t.cb = cb
	t.mu.Unlock()
	if cb != nil {
		go t.readLoop(cb)
	}
}

// GetReadCallback implements [pipeline.Transport].
func (t *ConnTransport) GetReadCallback() pipeline.ReadCallback {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cb
}

func (t *ConnTransport) readLoop(cb pipeline.ReadCallback) {
	for {
		select {
		case <-t.stopRead:
			return
		default:
		}
		if t.GetReadCallback() == nil {
			return
		}
		buf := cb.GetReadBuffer(2048, 2048)
		n, err := t.conn.Read(buf)
		if n > 0 {
			cb.ReadDataAvailable(n)
		}
		if err != nil {
			t.bad.Store(true)
			if errors.Is(err, net.ErrClosed) {
				return
			}
			if errors.Is(err, io.EOF) {
				cb.ReadEOF()
			} else {
				cb.ReadErr(err)
			}
			return
		}
	}
}

// WriteChain implements [pipeline.Transport]: it queues the write on the
// transport's event base without waiting for it and reports completion via cb.
func (t *ConnTransport) WriteChain(cb pipeline.WriteCallback, buf []byte, flags pipeline.WriteFlags) {
	t.base.RunInLoop(func() {
		n, err := t.conn.Write(buf)
		if err != nil {
			t.bad.Store(true)
			cb.WriteErr(n, err)
			return
		}
		if flags.Has(pipeline.WriteFlagWriteShutdown) {
			t.ShutdownWrite()
		}
		cb.WriteSuccess()
	})
}

// ShutdownWrite implements [pipeline.Transport].
func (t *ConnTransport) ShutdownWrite() {
	if cw, ok := t.conn.(interface{ CloseWrite() error }); ok {
		cw.CloseWrite()
	}
}

// CloseNow implements [pipeline.Transport]. Safe to call more than once:
// only the first call closes stopRead, the conn, and the event base.
func (t *ConnTransport) CloseNow() {
	t.closeOnce.Do(func() {
		close(t.stopRead)
		t.bad.Store(true)
		t.conn.Close()
		t.base.Stop()
	})
}

// CloseWithReset implements [pipeline.Transport]. Plain net.Conn offers no
// portable way to force an RST; this falls back to an ordinary close.
func (t *ConnTransport) CloseWithReset() {
	t.CloseNow()
}

// Good implements [pipeline.Transport].
func (t *ConnTransport) Good() bool {
	return !t.bad.Load()
}

// GetEventBase implements [pipeline.Transport].
func (t *ConnTransport) GetEventBase() pipeline.EventBase {
	return t.base
}

// AttachEventBase implements [pipeline.Transport]. ConnTransport owns a
// dedicated event base and does not support migrating to another one.
func (t *ConnTransport) AttachEventBase(base pipeline.EventBase) {}

// DetachEventBase implements [pipeline.Transport].
func (t *ConnTransport) DetachEventBase() {}

// LocalAddr implements [pipeline.Transport].
func (t *ConnTransport) LocalAddr() net.Addr { return t.conn.LocalAddr() }

// RemoteAddr implements [pipeline.Transport].
func (t *ConnTransport) RemoteAddr() net.Addr { return t.conn.RemoteAddr() }
