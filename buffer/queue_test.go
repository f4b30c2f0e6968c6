// SPDX-License-Identifier: GPL-3.0-or-later

package buffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueWriteAndSplit(t *testing.T) {
	var q Queue
	n, err := q.Write([]byte("hello world"))
	require.NoError(t, err)
	assert.Equal(t, 11, n)
	assert.Equal(t, 11, q.ChainLength())

	frame := q.Split(5)
	assert.Equal(t, []byte("hello"), frame)
	assert.Equal(t, 6, q.ChainLength())
	assert.Equal(t, []byte(" world"), q.Front())
}

func TestQueueTrimStart(t *testing.T) {
	var q Queue
	q.Write([]byte("abcdef"))
	q.TrimStart(2)
	assert.Equal(t, []byte("cdef"), q.Front())
	q.TrimStart(4)
	assert.Equal(t, 0, q.ChainLength())
}

func TestQueuePreallocateGrows(t *testing.T) {
	var q Queue
	buf := q.Preallocate(10, 10)
	assert.GreaterOrEqual(t, len(buf), 10)
	copy(buf, []byte("0123456789"))
	q.Postallocate(10)
	assert.Equal(t, 10, q.ChainLength())
}

func TestQueueFragmentedWrites(t *testing.T) {
	var q Queue
	for _, b := range []byte("ABCD") {
		q.Write([]byte{b})
	}
	assert.Equal(t, []byte("ABCD"), q.Split(4))
}

func TestQueueSplitThenReuseCapacity(t *testing.T) {
	var q Queue
	q.Write([]byte("0123456789"))
	q.Split(5)
	q.Write([]byte("XY"))
	assert.Equal(t, []byte("56789XY"), q.Front())
}
