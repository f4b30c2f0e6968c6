// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"sync"
	"time"

	"github.com/rgnet/pipeline"
	"github.com/rgnet/pipeline/future"
)

// captureHandler sits in front of a dispatcher under test and records every
// message the dispatcher fires outbound, standing in for the wire when a
// test wants to control response delivery itself rather than round-trip
// through a peer pipeline.
type captureHandler[In, Out any] struct {
	pipeline.Adapter[In, In, Out, Out]

	mu     sync.Mutex
	writes []Out
}

func (c *captureHandler[In, Out]) Write(ctx *pipeline.Context, msg any) *future.Future[pipeline.Unit] {
	out, ok := msg.(Out)
	if !ok {
		return ctx.FireWriteException(errUnexpectedType[Out](msg))
	}
	c.mu.Lock()
	c.writes = append(c.writes, out)
	c.mu.Unlock()
	return future.Completed(pipeline.Unit{})
}

func (c *captureHandler[In, Out]) snapshot() []Out {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Out(nil), c.writes...)
}

// bridgeHandler sits in front of a dispatcher and forwards every outbound
// message to deliver, letting two pipelines round-trip through each other
// without an actual transport in between.
type bridgeHandler[In, Out any] struct {
	pipeline.Adapter[In, In, Out, Out]
	deliver func(Out)
}

func (b *bridgeHandler[In, Out]) Write(ctx *pipeline.Context, msg any) *future.Future[pipeline.Unit] {
	out, ok := msg.(Out)
	if !ok {
		return ctx.FireWriteException(errUnexpectedType[Out](msg))
	}
	b.deliver(out)
	return future.Completed(pipeline.Unit{})
}

// echoService answers every call with its own request, used to ground the
// client/server dispatcher round-trip tests.
type echoService struct{}

func (echoService) Call(ctx context.Context, req string) *future.Future[string] {
	return future.Completed(req)
}
func (echoService) Close() *future.Future[pipeline.Unit] { return future.Completed(pipeline.Unit{}) }
func (echoService) IsAvailable() bool                    { return true }

var _ Service[string, string] = echoService{}

// delayRequest/delayResponse/delayService simulate a server whose answers
// complete after a caller-chosen delay, so tests can assert dispatcher
// behavior under out-of-order completion (design doc §8 scenarios 3-4).
type delayRequest struct {
	ID    uint64
	Delay time.Duration
}

type delayResponse struct {
	ID uint64
}

// spanRequest/spanResponse mirror delayRequest/delayResponse but key on a
// string correlation id, the shape a wire protocol gets from
// [pipeline.NewSpanID] rather than a caller-assigned sequence number.
type spanRequest struct {
	ID string
}

type spanResponse struct {
	ID string
}

type delayService struct{}

func (delayService) Call(ctx context.Context, req delayRequest) *future.Future[delayResponse] {
	p := future.NewPromise[delayResponse]()
	go func() {
		time.Sleep(req.Delay)
		p.SetValue(delayResponse{ID: req.ID})
	}()
	return p.Future()
}
func (delayService) Close() *future.Future[pipeline.Unit] { return future.Completed(pipeline.Unit{}) }
func (delayService) IsAvailable() bool                    { return true }

var _ Service[delayRequest, delayResponse] = delayService{}
