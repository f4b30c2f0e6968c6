//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: _examples/original_source/wangle/channel/HandlerContext-inl.h
// (ContextImplBase, the fire* propagation primitives, and the "reached the
// end of the chain" lifecycle logging).
//

package pipeline

import (
	"fmt"

	"github.com/rgnet/pipeline/future"
)

// Context is the single link in a [Pipeline]'s doubly-chained handler list.
// wangle instantiates three context template specializations (inbound-only,
// outbound-only, bidirectional); Go generics don't buy enough here to
// justify that, so there is one concrete Context type tagged with a
// [Direction] (design doc §9).
type Context struct {
	base    *PipelineBase
	handler Handler
	dir     Direction
	nextIn  *Context
	nextOut *Context
}

// Handler returns the handler this context wraps.
func (c *Context) Handler() Handler { return c.handler }

// Direction returns the direction this context participates in.
func (c *Context) Direction() Direction { return c.dir }

// Pipeline returns the pipeline this context belongs to.
func (c *Context) Pipeline() *PipelineBase { return c.base }

func (c *Context) alive() bool {
	return c.base != nil && c.base.alive()
}

// --- inbound link face: called by the previous context's Fire* method ---

func (c *Context) read(msg any) {
	if !c.alive() {
		return
	}
	h, ok := c.handler.(InboundEvents)
	if !ok {
		return
	}
	h.Read(c, msg)
}

func (c *Context) readEOF() {
	if !c.alive() {
		return
	}
	h, ok := c.handler.(InboundEvents)
	if !ok {
		return
	}
	h.ReadEOF(c)
}

func (c *Context) readException(err error) {
	if !c.alive() {
		return
	}
	h, ok := c.handler.(InboundEvents)
	if !ok {
		return
	}
	h.ReadException(c, err)
}

func (c *Context) transportActive() {
	if !c.alive() {
		return
	}
	h, ok := c.handler.(InboundEvents)
	if !ok {
		return
	}
	h.TransportActive(c)
}

func (c *Context) transportInactive() {
	if !c.alive() {
		return
	}
	h, ok := c.handler.(InboundEvents)
	if !ok {
		return
	}
	h.TransportInactive(c)
}

// --- outbound link face: called by the next context's Fire* method ---

func (c *Context) write(msg any) *future.Future[Unit] {
	if !c.alive() {
		return future.Completed(Unit{})
	}
	h, ok := c.handler.(OutboundEvents)
	if !ok {
		return future.Completed(Unit{})
	}
	return h.Write(c, msg)
}

func (c *Context) writeException(err error) *future.Future[Unit] {
	if !c.alive() {
		return future.Completed(Unit{})
	}
	h, ok := c.handler.(OutboundEvents)
	if !ok {
		return future.Completed(Unit{})
	}
	return h.WriteException(c, err)
}

func (c *Context) close() *future.Future[Unit] {
	if !c.alive() {
		return future.Completed(Unit{})
	}
	h, ok := c.handler.(OutboundEvents)
	if !ok {
		return future.Completed(Unit{})
	}
	return h.Close(c)
}

// --- fire* propagation, called by a handler to hand an event to its neighbor ---

// FireRead propagates a read event to the next inbound handler, if any.
func (c *Context) FireRead(msg any) {
	if !c.alive() {
		return
	}
	if c.nextIn != nil {
		c.nextIn.read(msg)
		return
	}
	c.base.warnChainEnd("Read", c.handler)
}

// FireReadEOF propagates a read-EOF event to the next inbound handler, if any.
func (c *Context) FireReadEOF() {
	if !c.alive() {
		return
	}
	if c.nextIn != nil {
		c.nextIn.readEOF()
		return
	}
	c.base.warnChainEnd("ReadEOF", c.handler)
}

// FireReadException propagates a read exception to the next inbound handler, if any.
func (c *Context) FireReadException(err error) {
	if !c.alive() {
		return
	}
	if c.nextIn != nil {
		c.nextIn.readException(err)
		return
	}
	c.base.warnChainEnd("ReadException", c.handler)
}

// FireTransportActive propagates a transport-active event to the next inbound handler, if any.
func (c *Context) FireTransportActive() {
	if !c.alive() {
		return
	}
	if c.nextIn != nil {
		c.nextIn.transportActive()
		return
	}
	c.base.warnChainEnd("TransportActive", c.handler)
}

// FireTransportInactive propagates a transport-inactive event to the next inbound handler, if any.
func (c *Context) FireTransportInactive() {
	if !c.alive() {
		return
	}
	if c.nextIn != nil {
		c.nextIn.transportInactive()
		return
	}
	c.base.warnChainEnd("TransportInactive", c.handler)
}

// FireWrite propagates a write event to the next outbound handler, if any.
// Reaching the end of the outbound chain is treated as success: there is
// nothing further downstream that could fail the write.
func (c *Context) FireWrite(msg any) *future.Future[Unit] {
	if !c.alive() {
		return future.Completed(Unit{})
	}
	if c.nextOut != nil {
		return c.nextOut.write(msg)
	}
	return future.Completed(Unit{})
}

// FireWriteException propagates a write-exception event to the next outbound handler, if any.
func (c *Context) FireWriteException(err error) *future.Future[Unit] {
	if !c.alive() {
		return future.Completed(Unit{})
	}
	if c.nextOut != nil {
		return c.nextOut.writeException(err)
	}
	return future.Completed(Unit{})
}

// FireClose propagates a close event to the next outbound handler, if any.
func (c *Context) FireClose() *future.Future[Unit] {
	if !c.alive() {
		return future.Completed(Unit{})
	}
	if c.nextOut != nil {
		return c.nextOut.close()
	}
	return future.Completed(Unit{})
}

func (b *PipelineBase) warnChainEnd(event string, h Handler) {
	b.logger().Warn("pipeline: event reached end of inbound chain with no consumer",
		"event", event, "handler", fmt.Sprintf("%T", h))
}
