//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: _examples/original_source/wangle/service/ServerDispatcher.h
// (SerialServerDispatcher, PipelinedServerDispatcher,
// MultiplexServerDispatcher).
//

package service

import (
	"context"
	"sync"

	"github.com/rgnet/pipeline"
)

// ServerDispatcherBase is the embeddable base for every server dispatcher:
// a bidirectional handler whose inbound side reads Req off the wire and
// whose outbound side writes Resp onto it.
type ServerDispatcherBase[Req, Resp any] struct {
	pipeline.Adapter[Req, pipeline.Unit, pipeline.Unit, Resp]
}

// SerialServerDispatcher serves one request at a time: it blocks the
// inbound chain on svc's future before the next queued frame is decoded.
// Concurrent requests queue up in the socket handler's read buffer rather
// than overlapping service calls.
type SerialServerDispatcher[Req, Resp any] struct {
	ServerDispatcherBase[Req, Resp]
	Service Service[Req, Resp]
}

// NewSerialServerDispatcher adds a fresh [*SerialServerDispatcher] bound to
// svc to the back of pl and finalizes the pipeline.
func NewSerialServerDispatcher[Req, Resp any](pl *pipeline.PipelineBase, svc Service[Req, Resp]) (*SerialServerDispatcher[Req, Resp], error) {
	d := &SerialServerDispatcher[Req, Resp]{Service: svc}
	if err := attachDispatcher(pl, d); err != nil {
		return nil, err
	}
	return d, nil
}

// Read implements [pipeline.InboundEvents]: it calls the service, blocks
// for the response, and writes it back before returning.
func (d *SerialServerDispatcher[Req, Resp]) Read(ctx *pipeline.Context, msg any) {
	req, ok := msg.(Req)
	if !ok {
		ctx.FireReadException(errUnexpectedType[Req](msg))
		return
	}
	resp, err := d.Service.Call(context.Background(), req).Get(context.Background())
	if err != nil {
		ctx.FireReadException(err)
		return
	}
	ctx.FireWrite(resp)
}

var _ pipeline.InboundEvents = (*SerialServerDispatcher[pipeline.Unit, pipeline.Unit])(nil)

// PipelinedServerDispatcher serves every request as it arrives without
// waiting for earlier ones to finish, but buffers out-of-order responses so
// they reach the wire strictly in the order requests were read.
type PipelinedServerDispatcher[Req, Resp any] struct {
	ServerDispatcherBase[Req, Resp]
	Service Service[Req, Resp]

	mu            sync.Mutex
	nextRequestID uint64
	responses     map[uint64]Resp
	lastWrittenID uint64
}

// NewPipelinedServerDispatcher adds a fresh [*PipelinedServerDispatcher]
// bound to svc to the back of pl and finalizes the pipeline.
func NewPipelinedServerDispatcher[Req, Resp any](pl *pipeline.PipelineBase, svc Service[Req, Resp]) (*PipelinedServerDispatcher[Req, Resp], error) {
	d := &PipelinedServerDispatcher[Req, Resp]{
		Service:       svc,
		nextRequestID: 1,
		responses:     make(map[uint64]Resp),
	}
	if err := attachDispatcher(pl, d); err != nil {
		return nil, err
	}
	return d, nil
}

// Read implements [pipeline.InboundEvents]: it allocates a monotonic
// request id, invokes the service, and flushes the response buffer once the
// call resolves.
func (d *PipelinedServerDispatcher[Req, Resp]) Read(ctx *pipeline.Context, msg any) {
	req, ok := msg.(Req)
	if !ok {
		ctx.FireReadException(errUnexpectedType[Req](msg))
		return
	}
	d.mu.Lock()
	id := d.nextRequestID
	d.nextRequestID++
	d.mu.Unlock()

	d.Service.Call(context.Background(), req).Then(func(resp Resp, err error) {
		if err != nil {
			ctx.FireReadException(err)
			return
		}
		d.mu.Lock()
		d.responses[id] = resp
		d.mu.Unlock()
		d.flush(ctx)
	})
}

// flush writes every response that has become the next one in order, in
// wire order, stopping at the first still-pending id.
func (d *PipelinedServerDispatcher[Req, Resp]) flush(ctx *pipeline.Context) {
	for {
		d.mu.Lock()
		resp, ok := d.responses[d.lastWrittenID+1]
		if ok {
			delete(d.responses, d.lastWrittenID+1)
			d.lastWrittenID++
		}
		d.mu.Unlock()
		if !ok {
			return
		}
		ctx.FireWrite(resp)
	}
}

var _ pipeline.InboundEvents = (*PipelinedServerDispatcher[pipeline.Unit, pipeline.Unit])(nil)

// MultiplexServerDispatcher invokes the service concurrently for every
// request and writes each response as soon as it resolves, with no attempt
// to restore request order. Protocols using this dispatcher must carry
// their own correlation id in the request/response payload so the client
// can match responses to calls (see [MultiplexClientDispatcher]).
type MultiplexServerDispatcher[Req, Resp any] struct {
	ServerDispatcherBase[Req, Resp]
	Service Service[Req, Resp]
}

// NewMultiplexServerDispatcher adds a fresh [*MultiplexServerDispatcher]
// bound to svc to the back of pl and finalizes the pipeline.
func NewMultiplexServerDispatcher[Req, Resp any](pl *pipeline.PipelineBase, svc Service[Req, Resp]) (*MultiplexServerDispatcher[Req, Resp], error) {
	d := &MultiplexServerDispatcher[Req, Resp]{Service: svc}
	if err := attachDispatcher(pl, d); err != nil {
		return nil, err
	}
	return d, nil
}

// Read implements [pipeline.InboundEvents]: it invokes the service and
// writes the response as soon as it resolves, without blocking on it.
func (d *MultiplexServerDispatcher[Req, Resp]) Read(ctx *pipeline.Context, msg any) {
	req, ok := msg.(Req)
	if !ok {
		ctx.FireReadException(errUnexpectedType[Req](msg))
		return
	}
	d.Service.Call(context.Background(), req).Then(func(resp Resp, err error) {
		if err != nil {
			ctx.FireReadException(err)
			return
		}
		ctx.FireWrite(resp)
	})
}

var _ pipeline.InboundEvents = (*MultiplexServerDispatcher[pipeline.Unit, pipeline.Unit])(nil)
