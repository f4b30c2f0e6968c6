// SPDX-License-Identifier: GPL-3.0-or-later

package future

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromiseFutureValue(t *testing.T) {
	p := NewPromise[int]()
	f := p.Future()
	p.SetValue(42)
	v, err := f.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestPromiseFutureException(t *testing.T) {
	p := NewPromise[int]()
	f := p.Future()
	wantErr := errors.New("boom")
	p.SetException(wantErr)
	_, err := f.Get(context.Background())
	assert.Equal(t, wantErr, err)
}

func TestPromiseSecondResolutionIgnored(t *testing.T) {
	p := NewPromise[int]()
	f := p.Future()
	p.SetValue(1)
	p.SetValue(2)
	v, err := f.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, v)
}

func TestFutureGetContextCancelled(t *testing.T) {
	p := NewPromise[int]()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.Future().Get(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFutureThenAfterResolution(t *testing.T) {
	p := NewPromise[int]()
	p.SetValue(7)
	var got int
	p.Future().Then(func(v int, err error) {
		got = v
	})
	assert.Equal(t, 7, got)
}

func TestFutureThenBeforeResolution(t *testing.T) {
	p := NewPromise[int]()
	f := p.Future()
	done := make(chan int, 1)
	f.Then(func(v int, err error) {
		done <- v
	})
	p.SetValue(9)
	select {
	case v := <-done:
		assert.Equal(t, 9, v)
	case <-time.After(time.Second):
		t.Fatal("callback never ran")
	}
}

func TestSharedPromiseBroadcast(t *testing.T) {
	sp := NewSharedPromise[int]()
	f1 := sp.Future()
	f2 := sp.Future()
	sp.SetValue(5)
	v1, err1 := f1.Get(context.Background())
	v2, err2 := f2.Get(context.Background())
	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, 5, v1)
	assert.Equal(t, 5, v2)
}

func TestSharedPromiseReset(t *testing.T) {
	sp := NewSharedPromise[int]()
	f1 := sp.Future()
	sp.SetValue(1)
	sp.Reset()
	f2 := sp.Future()
	sp.SetValue(2)

	v1, _ := f1.Get(context.Background())
	v2, _ := f2.Get(context.Background())
	assert.Equal(t, 1, v1)
	assert.Equal(t, 2, v2)
}

func TestSharedPromiseConcurrentFutureCalls(t *testing.T) {
	sp := NewSharedPromise[int]()
	var wg sync.WaitGroup
	futures := make([]*Future[int], 10)
	for i := range futures {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			futures[i] = sp.Future()
		}(i)
	}
	wg.Wait()
	sp.SetValue(3)
	for _, f := range futures {
		v, err := f.Get(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 3, v)
	}
}
