//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Grounded on: _examples/original_source/wangle/channel/EventBaseHandler.h
// (EventBase::isInEventBaseThread / runInEventBaseThreadAndWait contract).
//

// Package socket implements the bytes-handling adapter that sits at the
// front of every byte-oriented pipeline: the socket handler itself, the
// thread-affinity bridge, the per-turn output-buffering handler, and a
// default net.Conn-backed [pipeline.Transport]/[pipeline.EventBase] pair
// (design doc §4.3-§4.5, §6).
package socket

import (
	"runtime"
	"strconv"
	"sync"
)

// GoEventBase is a goroutine-backed reactor: one dedicated goroutine drains
// a queue of callbacks, serially, for the lifetime of the event base. It
// implements [pipeline.EventBase].
type GoEventBase struct {
	mu       sync.Mutex
	queue    chan func()
	loopID   int64
	started  bool
	stopOnce sync.Once
	done     chan struct{}
}

// NewGoEventBase starts the reactor goroutine and returns the [*GoEventBase]
// bound to it.
func NewGoEventBase() *GoEventBase {
	b := &GoEventBase{
		queue: make(chan func(), 256),
		done:  make(chan struct{}),
	}
	ready := make(chan struct{})
	go b.loop(ready)
	<-ready
	return b
}

func (b *GoEventBase) loop(ready chan struct{}) {
	b.loopID = currentGoroutineID()
	close(ready)
	for {
		select {
		case fn := <-b.queue:
			fn()
		case <-b.done:
			return
		}
	}
}

// Stop drains no further callbacks and terminates the reactor goroutine.
func (b *GoEventBase) Stop() {
	b.stopOnce.Do(func() { close(b.done) })
}

// RunImmediatelyOrRunAndWait implements [pipeline.EventBase].
func (b *GoEventBase) RunImmediatelyOrRunAndWait(fn func()) {
	if currentGoroutineID() == b.loopID {
		fn()
		return
	}
	done := make(chan struct{})
	b.queue <- func() {
		fn()
		close(done)
	}
	<-done
}

// RunInLoop implements [pipeline.EventBase].
func (b *GoEventBase) RunInLoop(fn func()) {
	b.queue <- fn
}

// currentGoroutineID returns an identifier unique to the calling goroutine
// for its lifetime. The Go runtime has no public API for this; parsing it
// out of runtime.Stack's header line is the usual workaround for
// goroutine-affinity checks like this one.
func currentGoroutineID() int64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	fields := splitStackHeader(buf[:n])
	id, _ := strconv.ParseInt(fields, 10, 64)
	return id
}

func splitStackHeader(b []byte) string {
	const prefix = "goroutine "
	if len(b) < len(prefix) {
		return ""
	}
	b = b[len(prefix):]
	for i, c := range b {
		if c == ' ' {
			return string(b[:i])
		}
	}
	return ""
}
