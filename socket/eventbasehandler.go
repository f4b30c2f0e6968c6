//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Grounded on: _examples/original_source/wangle/channel/EventBaseHandler.h
// (the thread-affinity bridge: inline if already on the event base,
// otherwise schedule-and-wait).
//

package socket

import (
	"github.com/rgnet/pipeline"
	"github.com/rgnet/pipeline/future"
)

// EventBaseHandler is a pure-outbound handler placed after the socket
// handler that redirects writes and closes onto the transport's owning
// event-base, so application code on any goroutine may write without
// racing the socket (design doc §4.4).
//
// Cross-event-base deadlock is a known, unaddressed hazard: if the calling
// goroutine already holds a lock the event-base's own goroutine needs to
// make progress, RunImmediatelyOrRunAndWait's blocking wait deadlocks.
type EventBaseHandler[W any] struct {
	pipeline.OutboundAdapter[W, W]
}

// Write implements [pipeline.OutboundEvents].
func (h *EventBaseHandler[W]) Write(ctx *pipeline.Context, msg any) *future.Future[pipeline.Unit] {
	t := ctx.Pipeline().Transport()
	if t == nil {
		return future.Failed[pipeline.Unit](pipeline.ErrSocketClosed)
	}
	eb := t.GetEventBase()
	if eb == nil {
		return ctx.FireWrite(msg)
	}
	var result *future.Future[pipeline.Unit]
	eb.RunImmediatelyOrRunAndWait(func() {
		result = ctx.FireWrite(msg)
	})
	return result
}

// Close implements [pipeline.OutboundEvents].
func (h *EventBaseHandler[W]) Close(ctx *pipeline.Context) *future.Future[pipeline.Unit] {
	t := ctx.Pipeline().Transport()
	if t == nil {
		return ctx.FireClose()
	}
	eb := t.GetEventBase()
	if eb == nil {
		return ctx.FireClose()
	}
	var result *future.Future[pipeline.Unit]
	eb.RunImmediatelyOrRunAndWait(func() {
		result = ctx.FireClose()
	})
	return result
}
