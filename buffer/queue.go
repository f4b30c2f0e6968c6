//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Grounded on: _examples/original_source/wangle/channel/Pipeline.h (IOBufQueue
// usage: chainLength/preallocate/postallocate/trimStart/split) and the
// growable-buffer idiom in _examples/nanomsg-mangos-v1/conn.go. This module
// collapses wangle's chained-IOBuf accumulator into a single growable slice.
//

// Package buffer implements the chained-buffer accumulator consumed by the
// socket handler and the frame decoders (design doc §6).
package buffer

// Queue is a growable byte accumulator. Bytes are appended at the tail via
// [Queue.Preallocate]/[Queue.Postallocate] (or the [Queue.Write] shortcut)
// and consumed from the head via [Queue.TrimStart]/[Queue.Split].
type Queue struct {
	buf []byte
	off int
}

// ChainLength returns the number of unconsumed bytes currently queued.
func (q *Queue) ChainLength() int {
	return len(q.buf) - q.off
}

// Preallocate returns a slice of at least min bytes of free capacity at the
// tail of the queue, growing the backing array by at least alloc bytes if
// the current capacity doesn't already satisfy min. The caller fills some
// prefix of the returned slice and then calls [Queue.Postallocate] with how
// many bytes it actually wrote.
func (q *Queue) Preallocate(min, alloc int) []byte {
	if avail := cap(q.buf) - len(q.buf); avail >= min {
		return q.buf[len(q.buf):cap(q.buf)]
	}
	grow := alloc
	if grow < min {
		grow = min
	}
	unconsumed := len(q.buf) - q.off
	nb := make([]byte, unconsumed, unconsumed+grow)
	copy(nb, q.buf[q.off:])
	q.buf = nb
	q.off = 0
	return q.buf[len(q.buf):cap(q.buf)]
}

// Postallocate commits the first n bytes of the slice most recently
// returned by [Queue.Preallocate] as queued data.
func (q *Queue) Postallocate(n int) {
	q.buf = q.buf[:len(q.buf)+n]
}

// Write appends p to the queue, growing as needed. It always returns
// len(p), nil and exists so a [Queue] can be used as an io.Writer.
func (q *Queue) Write(p []byte) (int, error) {
	dst := q.Preallocate(len(p), len(p))
	n := copy(dst, p)
	q.Postallocate(n)
	return n, nil
}

// TrimStart discards the first n unconsumed bytes without returning them.
func (q *Queue) TrimStart(n int) {
	q.off += n
	if q.off >= len(q.buf) {
		q.buf = q.buf[:0]
		q.off = 0
	}
}

// Split removes and returns the first n unconsumed bytes as an owned,
// independent copy.
func (q *Queue) Split(n int) []byte {
	out := make([]byte, n)
	copy(out, q.buf[q.off:q.off+n])
	q.off += n
	if q.off >= len(q.buf) {
		q.buf = q.buf[:0]
		q.off = 0
	}
	return out
}

// Front returns a read-only view of the unconsumed bytes, without consuming
// them. Decoders use this to peek at header bytes before deciding whether
// enough data is available to split a frame.
func (q *Queue) Front() []byte {
	return q.buf[q.off:]
}
