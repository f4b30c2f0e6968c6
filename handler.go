//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: _examples/original_source/wangle/channel/Handler.h
//               (HandlerBase, InboundHandler, OutboundHandler, Handler,
//               HandlerAdapter)
//

package pipeline

import (
	"reflect"
	"sync"

	"github.com/rgnet/pipeline/future"
)

// Handler is implemented by everything that can be added to a [Pipeline].
// Direction tells [PipelineBase.AddFront]/[PipelineBase.AddBack] which link
// faces the handler participates in.
//
// A handler is inert until attached to a [Context] (design doc §2); embed
// [Base] to get the attach-count bookkeeping that makes this true.
type Handler interface {
	Direction() Direction
}

// InboundEvents is implemented by handlers with Direction() of
// [DirectionIn] or [DirectionBoth].
type InboundEvents interface {
	Handler
	Read(ctx *Context, msg any)
	ReadEOF(ctx *Context)
	ReadException(ctx *Context, err error)
	TransportActive(ctx *Context)
	TransportInactive(ctx *Context)
}

// OutboundEvents is implemented by handlers with Direction() of
// [DirectionOut] or [DirectionBoth].
type OutboundEvents interface {
	Handler
	Write(ctx *Context, msg any) *future.Future[Unit]
	WriteException(ctx *Context, err error) *future.Future[Unit]
	Close(ctx *Context) *future.Future[Unit]
}

// attachable is implemented by [Base]; every [Handler] must embed [Base]
// so the pipeline can maintain the attach-count invariant (design doc §3).
type attachable interface {
	attachPipeline(ctx *Context)
	detachPipeline(ctx *Context)
}

// TypeWitness lets a handler report its inbound/outbound element types so
// [PipelineBase.Finalize] can check adjacent-handler compatibility at
// runtime (design doc §9 "Typed next-pointers"). A nil return for any of
// the four means "not applicable" (the direction is disabled, or the
// handler opts out of the check); [Finalize] skips the check on that side
// rather than treating nil as a mismatch.
type TypeWitness interface {
	Types() (rin, rout, win, wout reflect.Type)
}

// Typed reports Rin/Rout/Win/Wout as a [TypeWitness] via reflection. Embed
// this (typically via [Adapter], [InboundAdapter], or [OutboundAdapter])
// to get Finalize-time type checking for free. A type parameter equal to
// [Unit] reports as nil, disabling the check on that side.
type Typed[Rin, Rout, Win, Wout any] struct{}

// Types implements [TypeWitness].
func (Typed[Rin, Rout, Win, Wout]) Types() (rin, rout, win, wout reflect.Type) {
	return typeOf[Rin](), typeOf[Rout](), typeOf[Win](), typeOf[Wout]()
}

var unitType = reflect.TypeOf(Unit{})

func typeOf[T any]() reflect.Type {
	var zero T
	t := reflect.TypeOf(&zero).Elem()
	if t == unitType {
		return nil
	}
	return t
}

// Base provides the attach-count bookkeeping required by the Handler
// invariant in design doc §3: GetContext returns nil unless the handler is
// attached to exactly one pipeline. Embed this in every concrete handler.
type Base struct {
	mu          sync.Mutex
	attachCount uint64
	ctx         *Context
}

func (b *Base) attachPipeline(ctx *Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.attachCount++
	b.ctx = ctx
}

func (b *Base) detachPipeline(ctx *Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.attachCount > 0 {
		b.attachCount--
	}
	if b.ctx == ctx {
		b.ctx = nil
	}
}

// AttachCount returns the number of pipelines this handler is currently
// attached to.
func (b *Base) AttachCount() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.attachCount
}

// GetContext returns the handler's context, or nil if the handler is not
// attached to exactly one pipeline (design doc §3 invariant).
func (b *Base) GetContext() *Context {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.attachCount != 1 {
		return nil
	}
	return b.ctx
}

var _ attachable = &Base{}

// Adapter implements fire-through defaults for every inbound and outbound
// event, the Go analogue of wangle's HandlerAdapter<R,W>. Embed this in a
// bidirectional handler and override only the events you care about.
type Adapter[Rin, Rout, Win, Wout any] struct {
	Base
	Typed[Rin, Rout, Win, Wout]
}

// Direction implements [Handler].
func (*Adapter[Rin, Rout, Win, Wout]) Direction() Direction { return DirectionBoth }

func (*Adapter[Rin, Rout, Win, Wout]) Read(ctx *Context, msg any) { ctx.FireRead(msg) }
func (*Adapter[Rin, Rout, Win, Wout]) ReadEOF(ctx *Context)       { ctx.FireReadEOF() }
func (*Adapter[Rin, Rout, Win, Wout]) ReadException(ctx *Context, err error) {
	ctx.FireReadException(err)
}
func (*Adapter[Rin, Rout, Win, Wout]) TransportActive(ctx *Context)   { ctx.FireTransportActive() }
func (*Adapter[Rin, Rout, Win, Wout]) TransportInactive(ctx *Context) { ctx.FireTransportInactive() }

func (*Adapter[Rin, Rout, Win, Wout]) Write(ctx *Context, msg any) *future.Future[Unit] {
	return ctx.FireWrite(msg)
}
func (*Adapter[Rin, Rout, Win, Wout]) WriteException(ctx *Context, err error) *future.Future[Unit] {
	return ctx.FireWriteException(err)
}
func (*Adapter[Rin, Rout, Win, Wout]) Close(ctx *Context) *future.Future[Unit] {
	return ctx.FireClose()
}

// InboundAdapter implements fire-through defaults for an inbound-only handler.
type InboundAdapter[Rin, Rout any] struct {
	Base
	Typed[Rin, Rout, Unit, Unit]
}

func (*InboundAdapter[Rin, Rout]) Direction() Direction          { return DirectionIn }
func (*InboundAdapter[Rin, Rout]) Read(ctx *Context, msg any)    { ctx.FireRead(msg) }
func (*InboundAdapter[Rin, Rout]) ReadEOF(ctx *Context)          { ctx.FireReadEOF() }
func (*InboundAdapter[Rin, Rout]) ReadException(ctx *Context, err error) {
	ctx.FireReadException(err)
}
func (*InboundAdapter[Rin, Rout]) TransportActive(ctx *Context)   { ctx.FireTransportActive() }
func (*InboundAdapter[Rin, Rout]) TransportInactive(ctx *Context) { ctx.FireTransportInactive() }

// OutboundAdapter implements fire-through defaults for an outbound-only handler.
type OutboundAdapter[Win, Wout any] struct {
	Base
	Typed[Unit, Unit, Win, Wout]
}

func (*OutboundAdapter[Win, Wout]) Direction() Direction { return DirectionOut }
func (*OutboundAdapter[Win, Wout]) Write(ctx *Context, msg any) *future.Future[Unit] {
	return ctx.FireWrite(msg)
}
func (*OutboundAdapter[Win, Wout]) WriteException(ctx *Context, err error) *future.Future[Unit] {
	return ctx.FireWriteException(err)
}
func (*OutboundAdapter[Win, Wout]) Close(ctx *Context) *future.Future[Unit] {
	return ctx.FireClose()
}
