//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Grounded on: _examples/original_source/wangle/channel/OutputBufferingHandler.h
// (coalesce writes within a reactor turn behind a shared promise; decision
// on close-while-empty recorded in design doc §9).
//

package socket

import (
	"fmt"
	"sync"

	"github.com/rgnet/pipeline"
	"github.com/rgnet/pipeline/future"
)

// OutputBufferingHandler batches writes issued within one reactor turn
// into a single downstream write, flushed at the end of the turn (design
// doc §4.5). All callers whose bytes were folded into the same flush share
// one future, backed by a [future.SharedPromise].
type OutputBufferingHandler struct {
	pipeline.OutboundAdapter[[]byte, []byte]

	mu        sync.Mutex
	pending   []byte
	scheduled bool
	closed    bool
	sp        *future.SharedPromise[pipeline.Unit]
}

// NewOutputBufferingHandler returns a fresh [*OutputBufferingHandler].
func NewOutputBufferingHandler() *OutputBufferingHandler {
	return &OutputBufferingHandler{sp: future.NewSharedPromise[pipeline.Unit]()}
}

// Write implements [pipeline.OutboundEvents].
func (h *OutputBufferingHandler) Write(ctx *pipeline.Context, msg any) *future.Future[pipeline.Unit] {
	buf, ok := msg.([]byte)
	if !ok {
		return ctx.FireWriteException(errUnexpectedWriteType(msg))
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return future.Failed[pipeline.Unit](pipeline.ErrCloseWhilePending)
	}
	h.pending = append(h.pending, buf...)
	f := h.sp.Future()
	alreadyScheduled := h.scheduled
	h.scheduled = true
	h.mu.Unlock()

	if !alreadyScheduled {
		h.scheduleFlush(ctx)
	}
	return f
}

func (h *OutputBufferingHandler) scheduleFlush(ctx *pipeline.Context) {
	base := ctx.Pipeline()
	t := base.Transport()
	if t == nil {
		h.flush(ctx)
		return
	}
	eb := t.GetEventBase()
	if eb == nil {
		h.flush(ctx)
		return
	}
	eb.RunInLoop(func() { h.flush(ctx) })
}

func (h *OutputBufferingHandler) flush(ctx *pipeline.Context) {
	h.mu.Lock()
	if !h.scheduled {
		h.mu.Unlock()
		return
	}
	buf := h.pending
	h.pending = nil
	h.scheduled = false
	sp := h.sp
	if len(buf) > 0 {
		h.sp = future.NewSharedPromise[pipeline.Unit]()
	}
	h.mu.Unlock()

	if len(buf) == 0 {
		return
	}
	ctx.FireWrite(buf).Then(func(_ pipeline.Unit, err error) {
		if err != nil {
			sp.SetException(err)
		} else {
			sp.SetValue(pipeline.Unit{})
		}
	})
}

// Close implements [pipeline.OutboundEvents]. It cancels any pending
// flush, fails the current shared promise even if nothing was pending,
// discards buffered bytes, resets the shared promise for reuse, and
// forwards close downstream.
func (h *OutputBufferingHandler) Close(ctx *pipeline.Context) *future.Future[pipeline.Unit] {
	h.mu.Lock()
	h.closed = true
	h.scheduled = false
	h.pending = nil
	h.sp.SetException(pipeline.ErrCloseWhilePending)
	h.sp.Reset()
	h.mu.Unlock()
	return ctx.FireClose()
}

func errUnexpectedWriteType(msg any) error {
	return fmt.Errorf("socket: output buffering handler expected []byte, got %T", msg)
}
