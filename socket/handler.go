//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Grounded on: _examples/original_source/wangle/channel/AsyncSocketHandler.h
// (read/write/close/transportActive/transportInactive, the non-shareable
// invariant, refreshTimeout on every I/O event).
//

package socket

import (
	"sync/atomic"

	"github.com/rgnet/pipeline"
	"github.com/rgnet/pipeline/buffer"
	"github.com/rgnet/pipeline/future"
)

// Handler sits at the front of every byte-oriented pipeline. It is the
// transport's [pipeline.ReadCallback] and drives [pipeline.WriteCallback]
// for outbound writes; it is non-shareable (design doc §4.3) and must be
// installed in exactly one pipeline at a time.
type Handler struct {
	pipeline.Adapter[pipeline.Unit, *buffer.Queue, []byte, pipeline.Unit]

	firedInactive atomic.Bool
	closed        atomic.Bool
	q             buffer.Queue
}

// NewHandler returns a fresh, unattached [*Handler].
func NewHandler() *Handler {
	h := &Handler{}
	h.firedInactive.Store(true)
	return h
}

// Read is unused: the socket handler is the source of inbound data, not a
// consumer of it. It embeds [pipeline.Adapter] for the attach-count
// bookkeeping and the fire-through defaults of the events it does not
// override.
func (h *Handler) Read(ctx *pipeline.Context, msg any) {}

// TransportActive is called once the transport has a live connection.
// It installs itself as the read callback of the transport already set on
// the pipeline with SetTransport, clears the fired-inactive latch, and
// propagates inbound.
func (h *Handler) TransportActive(ctx *pipeline.Context) {
	base := ctx.Pipeline()
	t := base.Transport()
	if t != nil {
		t.SetReadCallback(h)
	}
	h.firedInactive.Store(false)
	ctx.FireTransportActive()
}

// TransportInactive fires at most once per activation.
func (h *Handler) TransportInactive(ctx *pipeline.Context) {
	if h.firedInactive.Swap(true) {
		return
	}
	ctx.FireTransportInactive()
}

// GetReadBuffer implements [pipeline.ReadCallback] using the pipeline's
// configured read-buffer settings; the transport's arguments are used only
// while the handler has no single pipeline context.
func (h *Handler) GetReadBuffer(minAvailable, allocationSize int) []byte {
	if ctx := h.GetContext(); ctx != nil {
		s := ctx.Pipeline().ReadBufferSettings()
		minAvailable, allocationSize = s.MinAvailable, s.AllocationSize
	}
	return h.q.Preallocate(minAvailable, allocationSize)
}

// ReadDataAvailable implements [pipeline.ReadCallback]: it commits the
// allocation, refreshes the idle timer, and fires the cumulative buffer
// queue inbound for decoders to consume destructively.
func (h *Handler) ReadDataAvailable(n int) {
	h.q.Postallocate(n)
	ctx := h.GetContext()
	if ctx == nil {
		return
	}
	base := ctx.Pipeline()
	if m := base.Manager(); m != nil {
		m.RefreshTimeout()
	}
	ctx.FireRead(&h.q)
}

// ReadEOF implements [pipeline.ReadCallback].
func (h *Handler) ReadEOF() {
	ctx := h.GetContext()
	if ctx == nil {
		return
	}
	ctx.FireReadEOF()
	h.TransportInactive(ctx)
}

// ReadErr implements [pipeline.ReadCallback].
func (h *Handler) ReadErr(err error) {
	ctx := h.GetContext()
	if ctx == nil {
		return
	}
	ctx.FireReadException(err)
	h.TransportInactive(ctx)
}

// Write implements [pipeline.OutboundEvents]. It refreshes the idle timer,
// short-circuits an empty write, fails fast if the transport isn't good,
// and otherwise issues an asynchronous write.
func (h *Handler) Write(ctx *pipeline.Context, msg any) *future.Future[pipeline.Unit] {
	base := ctx.Pipeline()
	if m := base.Manager(); m != nil {
		m.RefreshTimeout()
	}
	buf, _ := msg.([]byte)
	if len(buf) == 0 {
		return future.Completed(pipeline.Unit{})
	}
	t := base.Transport()
	if t == nil || !t.Good() {
		return future.Failed[pipeline.Unit](pipeline.ErrSocketClosed)
	}
	p := future.NewPromise[pipeline.Unit]()
	t.WriteChain(&writeCompletion{p: p}, buf, base.WriteFlags())
	return p.Future()
}

// WriteException implements [pipeline.OutboundEvents] by returning a
// future failed with err; it does not close the transport.
func (h *Handler) WriteException(ctx *pipeline.Context, err error) *future.Future[pipeline.Unit] {
	return future.Failed[pipeline.Unit](err)
}

// Close implements [pipeline.OutboundEvents]. A write-shutdown-only
// request half-closes; otherwise it tears down the read callback, closes
// the transport with CloseNow (it never uses CloseWithReset), and notifies
// the manager. A pipeline already
// closed resolves successfully without re-invoking the manager's
// DeletePipeline (design doc §8: closing twice must not panic or re-fire).
func (h *Handler) Close(ctx *pipeline.Context) *future.Future[pipeline.Unit] {
	base := ctx.Pipeline()
	t := base.Transport()
	if t == nil {
		return future.Completed(pipeline.Unit{})
	}
	if base.WriteFlags().Has(pipeline.WriteFlagWriteShutdown) {
		t.ShutdownWrite()
		return future.Completed(pipeline.Unit{})
	}
	if h.closed.Swap(true) {
		return future.Completed(pipeline.Unit{})
	}
	t.SetReadCallback(nil)
	t.CloseNow()
	if m := base.Manager(); m != nil {
		m.DeletePipeline(base)
	}
	return future.Completed(pipeline.Unit{})
}

// writeCompletion adapts a single asynchronous write's callback into a
// resolution of the future that [Handler.Write] returned.
type writeCompletion struct {
	p *future.Promise[pipeline.Unit]
}

func (w *writeCompletion) WriteSuccess() { w.p.SetValue(pipeline.Unit{}) }

func (w *writeCompletion) WriteErr(bytesWritten int, err error) { w.p.SetException(err) }
