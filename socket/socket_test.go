// SPDX-License-Identifier: GPL-3.0-or-later

package socket

import (
	"net"
	"testing"
	"time"

	"github.com/rgnet/pipeline"
	"github.com/rgnet/pipeline/buffer"
	"github.com/rgnet/pipeline/codec"
	"github.com/rgnet/pipeline/future"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureHandler is a terminal inbound handler that records every frame it
// receives onto a channel, for assertions from the test goroutine.
type captureHandler struct {
	pipeline.InboundAdapter[[]byte, pipeline.Unit]
	frames chan []byte
}

func newCaptureHandler() *captureHandler {
	return &captureHandler{frames: make(chan []byte, 16)}
}

func (c *captureHandler) Read(ctx *pipeline.Context, msg any) {
	c.frames <- msg.([]byte)
}

func buildPipeline(t *testing.T, conn net.Conn) (*pipeline.Pipeline[pipeline.Unit, []byte], *captureHandler) {
	t.Helper()
	p := pipeline.NewPipeline[pipeline.Unit, []byte](nil)
	sh := NewHandler()
	dec := codec.NewFrameDecoder(codec.NewFixedLengthFrameDecoder(3))
	capt := newCaptureHandler()

	_, err := p.AddBack(sh)
	require.NoError(t, err)
	_, err = p.AddBack(dec)
	require.NoError(t, err)
	_, err = p.AddBack(capt)
	require.NoError(t, err)
	require.NoError(t, p.Finalize())

	p.SetTransport(NewConnTransport(conn))
	p.TransportActive()
	return p, capt
}

func TestSocketHandlerReadPath(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	_, capt := buildPipeline(t, server)

	go client.Write([]byte("ABCDEF"))

	select {
	case frame := <-capt.frames:
		assert.Equal(t, []byte("ABC"), frame)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for first frame")
	}
	select {
	case frame := <-capt.frames:
		assert.Equal(t, []byte("DEF"), frame)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for second frame")
	}
}

func TestSocketHandlerWritePath(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	p, _ := buildPipeline(t, server)

	done := make(chan struct{})
	readBuf := make([]byte, 3)
	var n int
	var readErr error
	go func() {
		n, readErr = client.Read(readBuf)
		close(done)
	}()

	f := p.Write([]byte("XYZ"))
	_, err := f.Get(t.Context())
	require.NoError(t, err)

	<-done
	require.NoError(t, readErr)
	assert.Equal(t, 3, n)
	assert.Equal(t, []byte("XYZ"), readBuf)
}

func TestOutputBufferingHandlerCoalescesWithinTurn(t *testing.T) {
	p := pipeline.NewPipeline[pipeline.Unit, []byte](nil)
	sh := NewHandler()
	ob := NewOutputBufferingHandler()

	_, err := p.AddBack(sh)
	require.NoError(t, err)
	_, err = p.AddBack(ob)
	require.NoError(t, err)
	require.NoError(t, p.Finalize())

	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()
	p.SetTransport(NewConnTransport(server))
	p.TransportActive()

	readBuf := make([]byte, 6)
	done := make(chan struct{})
	var n int
	go func() {
		n, _ = client.Read(readBuf)
		close(done)
	}()

	f1 := p.Write([]byte("AB"))
	f2 := p.Write([]byte("CD"))
	_, err1 := f1.Get(t.Context())
	_, err2 := f2.Get(t.Context())
	require.NoError(t, err1)
	require.NoError(t, err2)

	<-done
	assert.Equal(t, []byte("ABCD"), readBuf[:n])
}

func TestOutputBufferingHandlerCloseFailsPending(t *testing.T) {
	p := pipeline.NewPipeline[pipeline.Unit, []byte](nil)
	ob := NewOutputBufferingHandler()
	_, err := p.AddBack(ob)
	require.NoError(t, err)
	require.NoError(t, p.Finalize())

	f := ob.sp.Future()
	_, err = p.Close().Get(t.Context())
	require.NoError(t, err)
	_, err = f.Get(t.Context())
	assert.ErrorIs(t, err, pipeline.ErrCloseWhilePending)
}

// probeHandler records the goroutine id its Write ran on before firing
// through, letting a test observe which goroutine a write actually reaches
// the transport on.
type probeHandler struct {
	pipeline.OutboundAdapter[[]byte, []byte]
	sawGoroutine int64
}

func (p *probeHandler) Write(ctx *pipeline.Context, msg any) *future.Future[pipeline.Unit] {
	p.sawGoroutine = currentGoroutineID()
	return ctx.FireWrite(msg)
}

// TestEventBaseHandlerRedirectsCrossThreadWrite grounds design doc §8
// scenario 5: a write issued from an arbitrary goroutine still runs on the
// transport's event-base goroutine once it reaches [EventBaseHandler].
func TestEventBaseHandlerRedirectsCrossThreadWrite(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	p := pipeline.NewPipeline[pipeline.Unit, []byte](nil)
	sh := NewHandler()
	probe := &probeHandler{}
	eh := &EventBaseHandler[[]byte]{}

	_, err := p.AddBack(sh)
	require.NoError(t, err)
	_, err = p.AddBack(probe)
	require.NoError(t, err)
	_, err = p.AddBack(eh)
	require.NoError(t, err)
	require.NoError(t, p.Finalize())

	transport := NewConnTransport(server)
	p.SetTransport(transport)
	p.TransportActive()

	readBuf := make([]byte, 3)
	done := make(chan struct{})
	go func() {
		client.Read(readBuf)
		close(done)
	}()

	callerGoroutine := int64(-1)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		callerGoroutine = currentGoroutineID()
		f := p.Write([]byte("XYZ"))
		_, writeErr := f.Get(t.Context())
		require.NoError(t, writeErr)
	}()
	<-writerDone
	<-done

	assert.NotEqual(t, callerGoroutine, probe.sawGoroutine)
	assert.Equal(t, transport.base.loopID, probe.sawGoroutine)
	assert.Equal(t, []byte("XYZ"), readBuf)
}

// countingManager counts DeletePipeline calls, for asserting a double
// Close doesn't re-invoke it.
type countingManager struct {
	deletes int
}

func (m *countingManager) RefreshTimeout()            {}
func (m *countingManager) DeletePipeline(*pipeline.PipelineBase) { m.deletes++ }

// TestHandlerCloseTwiceDoesNotPanic grounds design doc §8's requirement
// that closing an already-closed pipeline resolves successfully and does
// not re-invoke the manager's DeletePipeline.
func TestHandlerCloseTwiceDoesNotPanic(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()

	p, _ := buildPipeline(t, server)
	mgr := &countingManager{}
	p.SetManager(mgr)

	f1 := p.Close()
	_, err := f1.Get(t.Context())
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		f2 := p.Close()
		_, err := f2.Get(t.Context())
		require.NoError(t, err)
	})

	assert.Equal(t, 1, mgr.deletes)
}

func TestQueueSharedAcrossDecoderReads(t *testing.T) {
	var q buffer.Queue
	q.Write([]byte("AB"))
	d := codec.NewFixedLengthFrameDecoder(3)
	frame, err := d.Decode(&q)
	require.NoError(t, err)
	assert.Nil(t, frame)
	q.Write([]byte("C"))
	frame, err = d.Decode(&q)
	require.NoError(t, err)
	assert.Equal(t, []byte("ABC"), frame)
}
