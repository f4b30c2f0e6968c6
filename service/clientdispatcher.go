//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: _examples/original_source/wangle/service/ClientDispatcher.h
// (ClientDispatcherBase, SerialClientDispatcher, PipelinedClientDispatcher).
// MultiplexClientDispatcher is supplemented (design doc §4.8): the original
// notes "a full out-of-order request/response client would require some
// sort of sequence id on the wire" and leaves it to protocol writers; this
// is that dispatcher.
//

package service

import (
	"context"
	"sync"

	"github.com/rgnet/pipeline"
	"github.com/rgnet/pipeline/future"
)

// ClientDispatcherBase is the embeddable base for every client dispatcher:
// a bidirectional handler whose inbound side reads Resp off the wire and
// whose outbound side writes Req onto it. Concrete dispatchers embed this
// for the attach-count bookkeeping and fire-through Write/Close defaults,
// and override Read to fulfil pending calls.
type ClientDispatcherBase[Req, Resp any] struct {
	pipeline.Adapter[Resp, pipeline.Unit, pipeline.Unit, Req]
}

func attachDispatcher(p *pipeline.PipelineBase, h pipeline.Handler) error {
	if _, err := p.AddBack(h); err != nil {
		return err
	}
	return p.Finalize()
}

// SerialClientDispatcher dispatches one request at a time: [Call] fails
// with [ErrCallInProgress] if a previous call has not yet resolved.
type SerialClientDispatcher[Req, Resp any] struct {
	ClientDispatcherBase[Req, Resp]

	mu sync.Mutex
	p  *future.Promise[Resp]
}

// NewSerialClientDispatcher adds a fresh [*SerialClientDispatcher] to the
// back of pl and finalizes the pipeline.
func NewSerialClientDispatcher[Req, Resp any](pl *pipeline.PipelineBase) (*SerialClientDispatcher[Req, Resp], error) {
	d := &SerialClientDispatcher[Req, Resp]{}
	if err := attachDispatcher(pl, d); err != nil {
		return nil, err
	}
	return d, nil
}

// Read implements [pipeline.InboundEvents] by fulfilling the pending call.
// A response with no pending call is dropped.
func (d *SerialClientDispatcher[Req, Resp]) Read(ctx *pipeline.Context, msg any) {
	resp, ok := msg.(Resp)
	if !ok {
		ctx.FireReadException(errUnexpectedType[Resp](msg))
		return
	}
	d.mu.Lock()
	p := d.p
	d.p = nil
	d.mu.Unlock()
	if p == nil {
		return
	}
	p.SetValue(resp)
}

// Call implements [Service]: it requires no call already be in progress,
// registers the pending promise, and writes req onto the wire.
func (d *SerialClientDispatcher[Req, Resp]) Call(ctx context.Context, req Req) *future.Future[Resp] {
	d.mu.Lock()
	if d.p != nil {
		d.mu.Unlock()
		return future.Failed[Resp](ErrCallInProgress)
	}
	p := future.NewPromise[Resp]()
	d.p = p
	d.mu.Unlock()

	c := d.GetContext()
	if c == nil {
		d.mu.Lock()
		d.p = nil
		d.mu.Unlock()
		return future.Failed[Resp](ErrDispatcherNotAttached)
	}
	c.FireWrite(req)
	return p.Future()
}

// Close implements [Service] by closing the underlying pipeline.
func (d *SerialClientDispatcher[Req, Resp]) Close() *future.Future[pipeline.Unit] {
	c := d.GetContext()
	if c == nil {
		return future.Completed(pipeline.Unit{})
	}
	return c.FireClose()
}

// IsAvailable implements [Service].
func (d *SerialClientDispatcher[Req, Resp]) IsAvailable() bool { return true }

var _ Service[pipeline.Unit, pipeline.Unit] = &SerialClientDispatcher[pipeline.Unit, pipeline.Unit]{}
var _ pipeline.InboundEvents = (*SerialClientDispatcher[pipeline.Unit, pipeline.Unit])(nil)

// PipelinedClientDispatcher dispatches requests without waiting for the
// previous one to resolve. Responses are matched to calls strictly in
// submission order via a FIFO queue of promises — the protocol must
// guarantee responses arrive in the order requests were written.
type PipelinedClientDispatcher[Req, Resp any] struct {
	ClientDispatcherBase[Req, Resp]

	mu    sync.Mutex
	queue []*future.Promise[Resp]
}

// NewPipelinedClientDispatcher adds a fresh [*PipelinedClientDispatcher] to
// the back of pl and finalizes the pipeline.
func NewPipelinedClientDispatcher[Req, Resp any](pl *pipeline.PipelineBase) (*PipelinedClientDispatcher[Req, Resp], error) {
	d := &PipelinedClientDispatcher[Req, Resp]{}
	if err := attachDispatcher(pl, d); err != nil {
		return nil, err
	}
	return d, nil
}

// Read implements [pipeline.InboundEvents] by fulfilling the oldest pending
// call. A response with no pending call is dropped.
func (d *PipelinedClientDispatcher[Req, Resp]) Read(ctx *pipeline.Context, msg any) {
	resp, ok := msg.(Resp)
	if !ok {
		ctx.FireReadException(errUnexpectedType[Resp](msg))
		return
	}
	d.mu.Lock()
	if len(d.queue) == 0 {
		d.mu.Unlock()
		return
	}
	p := d.queue[0]
	d.queue = d.queue[1:]
	d.mu.Unlock()
	p.SetValue(resp)
}

// Call implements [Service]: it enqueues a fresh promise and writes req
// onto the wire without waiting for earlier calls to resolve.
func (d *PipelinedClientDispatcher[Req, Resp]) Call(ctx context.Context, req Req) *future.Future[Resp] {
	c := d.GetContext()
	if c == nil {
		return future.Failed[Resp](ErrDispatcherNotAttached)
	}
	p := future.NewPromise[Resp]()
	d.mu.Lock()
	d.queue = append(d.queue, p)
	d.mu.Unlock()
	c.FireWrite(req)
	return p.Future()
}

// Close implements [Service] by closing the underlying pipeline.
func (d *PipelinedClientDispatcher[Req, Resp]) Close() *future.Future[pipeline.Unit] {
	c := d.GetContext()
	if c == nil {
		return future.Completed(pipeline.Unit{})
	}
	return c.FireClose()
}

// IsAvailable implements [Service].
func (d *PipelinedClientDispatcher[Req, Resp]) IsAvailable() bool { return true }

var _ Service[pipeline.Unit, pipeline.Unit] = &PipelinedClientDispatcher[pipeline.Unit, pipeline.Unit]{}

// MultiplexClientDispatcher dispatches requests without waiting for earlier
// ones to resolve and matches responses to calls out of order, using a
// caller-supplied correlation id extracted from the request and response.
// Unmatched responses are logged and dropped.
type MultiplexClientDispatcher[ID comparable, Req, Resp any] struct {
	ClientDispatcherBase[Req, Resp]

	// RequestID extracts the correlation id a call's request carries.
	RequestID func(Req) ID
	// ResponseID extracts the correlation id a response carries.
	ResponseID func(Resp) ID
	// Logger receives a warning for each response with no matching call.
	Logger pipeline.SLogger

	mu      sync.Mutex
	pending map[ID]*future.Promise[Resp]
}

// NewMultiplexClientDispatcher adds a fresh [*MultiplexClientDispatcher] to
// the back of pl and finalizes the pipeline.
func NewMultiplexClientDispatcher[ID comparable, Req, Resp any](
	pl *pipeline.PipelineBase, requestID func(Req) ID, responseID func(Resp) ID,
) (*MultiplexClientDispatcher[ID, Req, Resp], error) {
	d := &MultiplexClientDispatcher[ID, Req, Resp]{
		RequestID:  requestID,
		ResponseID: responseID,
		Logger:     pipeline.DefaultSLogger(),
		pending:    make(map[ID]*future.Promise[Resp]),
	}
	if err := attachDispatcher(pl, d); err != nil {
		return nil, err
	}
	return d, nil
}

// Read implements [pipeline.InboundEvents] by matching the response's
// correlation id to a pending call and fulfilling it.
func (d *MultiplexClientDispatcher[ID, Req, Resp]) Read(ctx *pipeline.Context, msg any) {
	resp, ok := msg.(Resp)
	if !ok {
		ctx.FireReadException(errUnexpectedType[Resp](msg))
		return
	}
	id := d.ResponseID(resp)
	d.mu.Lock()
	p, ok := d.pending[id]
	if ok {
		delete(d.pending, id)
	}
	d.mu.Unlock()
	if !ok {
		d.Logger.Warn("service: response with no matching pending call", "id", id)
		return
	}
	p.SetValue(resp)
}

// Call implements [Service]: it registers the pending promise under req's
// correlation id and writes req onto the wire.
func (d *MultiplexClientDispatcher[ID, Req, Resp]) Call(ctx context.Context, req Req) *future.Future[Resp] {
	c := d.GetContext()
	if c == nil {
		return future.Failed[Resp](ErrDispatcherNotAttached)
	}
	id := d.RequestID(req)
	p := future.NewPromise[Resp]()
	d.mu.Lock()
	d.pending[id] = p
	d.mu.Unlock()
	c.FireWrite(req)
	return p.Future()
}

// Close implements [Service] by closing the underlying pipeline.
func (d *MultiplexClientDispatcher[ID, Req, Resp]) Close() *future.Future[pipeline.Unit] {
	c := d.GetContext()
	if c == nil {
		return future.Completed(pipeline.Unit{})
	}
	return c.FireClose()
}

// IsAvailable implements [Service].
func (d *MultiplexClientDispatcher[ID, Req, Resp]) IsAvailable() bool { return true }

var _ Service[pipeline.Unit, pipeline.Unit] = &MultiplexClientDispatcher[int, pipeline.Unit, pipeline.Unit]{}
