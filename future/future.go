//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Grounded on: _examples/bassosimone-nop/observeconn.go and httpbody.go
// (sync.Once-guarded single-resolution idiom), generalized into a minimal
// value/error future as required by the consumed Future/Promise contract
// (design doc §6). No pack repo ships a ready-made future/promise
// combinator library; see DESIGN.md for why this stays stdlib-only.
//

// Package future provides a minimal value/error future and promise, plus a
// [SharedPromise] variant that resolves many awaiters from a single
// resolution and can be reset for reuse.
package future

import (
	"context"
	"sync"
)

type state[T any] struct {
	mu        sync.Mutex
	done      bool
	val       T
	err       error
	ch        chan struct{}
	callbacks []func(T, error)
}

func newState[T any]() *state[T] {
	return &state[T]{ch: make(chan struct{})}
}

func (s *state[T]) complete(val T, err error) {
	s.mu.Lock()
	if s.done {
		s.mu.Unlock()
		return
	}
	s.done = true
	s.val, s.err = val, err
	cbs := s.callbacks
	s.callbacks = nil
	close(s.ch)
	s.mu.Unlock()
	for _, cb := range cbs {
		cb(val, err)
	}
}

// Promise is the write side of a [Future]: exactly one of SetValue or
// SetException should be called exactly once. Subsequent calls are ignored.
type Promise[T any] struct {
	s *state[T]
}

// NewPromise returns a fresh, unresolved [*Promise].
func NewPromise[T any]() *Promise[T] {
	return &Promise[T]{s: newState[T]()}
}

// Future returns the [*Future] view of this promise. Safe to call more than once.
func (p *Promise[T]) Future() *Future[T] {
	return &Future[T]{s: p.s}
}

// SetValue resolves the promise successfully.
func (p *Promise[T]) SetValue(v T) {
	p.s.complete(v, nil)
}

// SetException resolves the promise with an error.
func (p *Promise[T]) SetException(err error) {
	var zero T
	p.s.complete(zero, err)
}

// Future is the read side of a [Promise].
type Future[T any] struct {
	s *state[T]
}

// Completed returns an already-resolved [*Future] holding v.
func Completed[T any](v T) *Future[T] {
	p := NewPromise[T]()
	p.SetValue(v)
	return p.Future()
}

// Failed returns an already-resolved [*Future] holding err.
func Failed[T any](err error) *Future[T] {
	p := NewPromise[T]()
	p.SetException(err)
	return p.Future()
}

// Get blocks until the future resolves or ctx is done, whichever comes first.
func (f *Future[T]) Get(ctx context.Context) (T, error) {
	select {
	case <-f.s.ch:
		f.s.mu.Lock()
		defer f.s.mu.Unlock()
		return f.s.val, f.s.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Then registers cb to run when the future resolves, on whichever goroutine
// resolves it (or inline, if it is already resolved).
func (f *Future[T]) Then(cb func(T, error)) {
	s := f.s
	s.mu.Lock()
	if s.done {
		val, err := s.val, s.err
		s.mu.Unlock()
		cb(val, err)
		return
	}
	s.callbacks = append(s.callbacks, cb)
	s.mu.Unlock()
}

// ThenValue registers cb to run only on success.
func (f *Future[T]) ThenValue(cb func(T)) {
	f.Then(func(v T, err error) {
		if err == nil {
			cb(v)
		}
	})
}

// SharedPromise is a one-resolver / many-awaiters broadcast: every call to
// [SharedPromise.Future] before the next [SharedPromise.Reset] returns a
// view onto the same resolution. This is the primitive the output-buffering
// handler uses to fan a single coalesced write out to every caller whose
// message was folded into it (design doc §4.5, §9).
type SharedPromise[T any] struct {
	mu  sync.Mutex
	cur *Promise[T]
}

// NewSharedPromise returns a fresh [*SharedPromise].
func NewSharedPromise[T any]() *SharedPromise[T] {
	return &SharedPromise[T]{cur: NewPromise[T]()}
}

// Future returns a [*Future] onto the current resolution.
func (s *SharedPromise[T]) Future() *Future[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur.Future()
}

// SetValue resolves the current promise successfully.
func (s *SharedPromise[T]) SetValue(v T) {
	s.mu.Lock()
	p := s.cur
	s.mu.Unlock()
	p.SetValue(v)
}

// SetException resolves the current promise with an error.
func (s *SharedPromise[T]) SetException(err error) {
	s.mu.Lock()
	p := s.cur
	s.mu.Unlock()
	p.SetException(err)
}

// Reset replaces the current promise with a fresh, unresolved one. Futures
// obtained before Reset keep observing the resolution they were promised;
// only subsequent calls to Future observe the new one.
func (s *SharedPromise[T]) Reset() {
	s.mu.Lock()
	s.cur = NewPromise[T]()
	s.mu.Unlock()
}
