// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"testing"
	"time"

	"github.com/rgnet/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// waitForWrites polls sink until it has captured at least n writes or the
// deadline expires.
func waitForWrites[In, Out any](t *testing.T, sink *captureHandler[In, Out], n int) []Out {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if got := sink.snapshot(); len(got) >= n {
			return got
		}
		time.Sleep(time.Millisecond)
	}
	require.FailNow(t, "timed out waiting for writes")
	return nil
}

// TestSerialServerDispatcherProcessesSequentially grounds the invariant that
// a serial server dispatcher never starts a second service call before the
// first one's response has been written: elapsed time must reflect the sum
// of the delays, not their max.
func TestSerialServerDispatcherProcessesSequentially(t *testing.T) {
	pl := pipeline.NewPipelineBase(nil)
	sink := &captureHandler[delayRequest, delayResponse]{}
	_, err := pl.AddBack(sink)
	require.NoError(t, err)
	_, err = NewSerialServerDispatcher[delayRequest, delayResponse](pl, delayService{})
	require.NoError(t, err)

	view := pipeline.Pipeline[delayRequest, delayResponse]{PipelineBase: pl}

	start := time.Now()
	view.Read(delayRequest{ID: 1, Delay: 20 * time.Millisecond})
	view.Read(delayRequest{ID: 2, Delay: 20 * time.Millisecond})
	view.Read(delayRequest{ID: 3, Delay: 20 * time.Millisecond})
	elapsed := time.Since(start)

	got := sink.snapshot()
	require.Len(t, got, 3)
	assert.Equal(t, []delayResponse{{ID: 1}, {ID: 2}, {ID: 3}}, got)
	assert.GreaterOrEqual(t, elapsed, 50*time.Millisecond)
}

// TestPipelinedServerDispatcherFlushesInWireOrder grounds design doc §8
// scenario 3: three requests with ids 1, 2, 3 whose services resolve out of
// order (2 finishes first, then 3, then 1) still reach the wire in wire
// order 1, 2, 3.
func TestPipelinedServerDispatcherFlushesInWireOrder(t *testing.T) {
	pl := pipeline.NewPipelineBase(nil)
	sink := &captureHandler[delayRequest, delayResponse]{}
	_, err := pl.AddBack(sink)
	require.NoError(t, err)
	_, err = NewPipelinedServerDispatcher[delayRequest, delayResponse](pl, delayService{})
	require.NoError(t, err)

	view := pipeline.Pipeline[delayRequest, delayResponse]{PipelineBase: pl}
	view.Read(delayRequest{ID: 1, Delay: 30 * time.Millisecond}) // allocated id 1
	view.Read(delayRequest{ID: 2, Delay: 10 * time.Millisecond}) // allocated id 2
	view.Read(delayRequest{ID: 3, Delay: 20 * time.Millisecond}) // allocated id 3

	got := waitForWrites(t, sink, 3)
	assert.Equal(t, []delayResponse{{ID: 1}, {ID: 2}, {ID: 3}}, got)
}

// TestMultiplexServerDispatcherWritesInCompletionOrder grounds design doc §8
// scenario 4: with the same three requests and delays, a multiplex server
// writes responses as soon as each one resolves, in completion order 2, 3, 1.
func TestMultiplexServerDispatcherWritesInCompletionOrder(t *testing.T) {
	pl := pipeline.NewPipelineBase(nil)
	sink := &captureHandler[delayRequest, delayResponse]{}
	_, err := pl.AddBack(sink)
	require.NoError(t, err)
	_, err = NewMultiplexServerDispatcher[delayRequest, delayResponse](pl, delayService{})
	require.NoError(t, err)

	view := pipeline.Pipeline[delayRequest, delayResponse]{PipelineBase: pl}
	view.Read(delayRequest{ID: 1, Delay: 30 * time.Millisecond})
	view.Read(delayRequest{ID: 2, Delay: 10 * time.Millisecond})
	view.Read(delayRequest{ID: 3, Delay: 20 * time.Millisecond})

	got := waitForWrites(t, sink, 3)
	assert.Equal(t, []delayResponse{{ID: 2}, {ID: 3}, {ID: 1}}, got)
}
