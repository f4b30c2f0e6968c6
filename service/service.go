//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: _examples/original_source/wangle/service/Service.h
// (Service, ServiceFilter, ServiceFactory, ConstFactory,
// ServiceFactoryFilter, FactoryToService).
//

// Package service implements the request/response contract and dispatcher
// handlers consumed on top of a pipeline (design doc §4.8): [Service] is an
// asynchronous function from request to response, [Filter] composes
// services by decoration, and the client/server dispatchers in this package
// bridge that contract to a [pipeline.PipelineBase]'s Read and Write events,
// carrying typed request and response messages.
package service

import (
	"context"

	"github.com/rgnet/pipeline"
	"github.com/rgnet/pipeline/future"
)

// Service is an asynchronous function from Req to a [future.Future] of Resp.
// It is the basic unit of the RPC interface: a dispatcher installed in a
// client pipeline implements Service by writing requests and resolving
// responses off the wire, and a dispatcher installed in a server pipeline
// calls a Service to answer requests it reads off the wire.
type Service[Req, Resp any] interface {
	// Call dispatches req and returns a future resolved with the response,
	// or with an error if the call cannot be completed.
	Call(ctx context.Context, req Req) *future.Future[Resp]

	// Close releases any resources held by the service. It is safe to call
	// more than once.
	Close() *future.Future[pipeline.Unit]

	// IsAvailable reports whether the service is currently able to accept
	// new calls.
	IsAvailable() bool
}

// ServiceFunc adapts a plain function to a [Service] whose Close is a no-op
// and which reports itself always available.
type ServiceFunc[Req, Resp any] func(ctx context.Context, req Req) *future.Future[Resp]

// Call implements [Service].
func (f ServiceFunc[Req, Resp]) Call(ctx context.Context, req Req) *future.Future[Resp] {
	return f(ctx, req)
}

// Close implements [Service].
func (f ServiceFunc[Req, Resp]) Close() *future.Future[pipeline.Unit] {
	return future.Completed(pipeline.Unit{})
}

// IsAvailable implements [Service].
func (f ServiceFunc[Req, Resp]) IsAvailable() bool { return true }

// Filter is the embeddable base for a service decorator: it forwards Close
// and IsAvailable to the wrapped service, leaving Call for the concrete
// filter to implement with whatever request/response transformation it
// applies.
//
//	type upperCaseFilter struct {
//		service.Filter[string, string, string, string]
//	}
//
//	func (f *upperCaseFilter) Call(ctx context.Context, req string) *future.Future[string] {
//		p := future.NewPromise[string]()
//		f.Inner.Call(ctx, req).Then(func(resp string, err error) {
//			if err != nil {
//				p.SetException(err)
//				return
//			}
//			p.SetValue(strings.ToUpper(resp))
//		})
//		return p.Future()
//	}
type Filter[ReqA, RespA, ReqB, RespB any] struct {
	Inner Service[ReqB, RespB]
}

// Close implements [Service] by delegating to the wrapped service.
func (f *Filter[ReqA, RespA, ReqB, RespB]) Close() *future.Future[pipeline.Unit] {
	return f.Inner.Close()
}

// IsAvailable implements [Service] by delegating to the wrapped service.
func (f *Filter[ReqA, RespA, ReqB, RespB]) IsAvailable() bool {
	return f.Inner.IsAvailable()
}

// Factory creates a [Service] bound to client, letting callers make RPCs
// against a client's pipeline through the Service interface without holding
// the pipeline or dispatcher directly. Clients may be reused once the
// returned service is closed.
type Factory[Client, Req, Resp any] interface {
	Call(ctx context.Context, client Client) *future.Future[Service[Req, Resp]]
}

// FactoryFunc adapts a plain function to a [Factory].
type FactoryFunc[Client, Req, Resp any] func(ctx context.Context, client Client) *future.Future[Service[Req, Resp]]

// Call implements [Factory].
func (f FactoryFunc[Client, Req, Resp]) Call(ctx context.Context, client Client) *future.Future[Service[Req, Resp]] {
	return f(ctx, client)
}

// ConstFactory always hands back the same pre-built service, ignoring the
// client argument. Useful for tests and for services that do not need a
// fresh connection per call.
type ConstFactory[Client, Req, Resp any] struct {
	Service Service[Req, Resp]
}

// Call implements [Factory].
func (f *ConstFactory[Client, Req, Resp]) Call(ctx context.Context, client Client) *future.Future[Service[Req, Resp]] {
	return future.Completed[Service[Req, Resp]](f.Service)
}

// FactoryFilter is the embeddable base for a factory decorator, the
// factory-side analogue of [Filter].
type FactoryFilter[Client, ReqA, RespA, ReqB, RespB any] struct {
	Inner Factory[Client, ReqB, RespB]
}

// FactoryToService adapts a [Factory] into a one-shot [Service]: each Call
// asks the factory for a fresh service bound to Client, makes the call, and
// closes the service afterward.
type FactoryToService[Client, Req, Resp any] struct {
	Factory Factory[Client, Req, Resp]
	Client  Client
}

// Call implements [Service].
func (f *FactoryToService[Client, Req, Resp]) Call(ctx context.Context, req Req) *future.Future[Resp] {
	p := future.NewPromise[Resp]()
	f.Factory.Call(ctx, f.Client).Then(func(svc Service[Req, Resp], err error) {
		if err != nil {
			p.SetException(err)
			return
		}
		svc.Call(ctx, req).Then(func(resp Resp, err error) {
			svc.Close()
			if err != nil {
				p.SetException(err)
				return
			}
			p.SetValue(resp)
		})
	})
	return p.Future()
}

// Close implements [Service]. FactoryToService holds no service between
// calls, so there is nothing to release.
func (f *FactoryToService[Client, Req, Resp]) Close() *future.Future[pipeline.Unit] {
	return future.Completed(pipeline.Unit{})
}

// IsAvailable implements [Service].
func (f *FactoryToService[Client, Req, Resp]) IsAvailable() bool { return true }
