//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Grounded on: _examples/original_source/wangle/codec/FixedLengthFrameDecoder.h
//

package codec

import "github.com/rgnet/pipeline/buffer"

// FixedLengthFrameDecoder splits incoming bytes into frames of a fixed
// length, regardless of how they were fragmented on the wire.
type FixedLengthFrameDecoder struct {
	length int
}

// NewFixedLengthFrameDecoder returns a [*FixedLengthFrameDecoder] that
// emits frames of exactly length bytes.
func NewFixedLengthFrameDecoder(length int) *FixedLengthFrameDecoder {
	return &FixedLengthFrameDecoder{length: length}
}

// Decode implements [Decoder].
func (d *FixedLengthFrameDecoder) Decode(buf *buffer.Queue) ([]byte, error) {
	if buf.ChainLength() < d.length {
		return nil, nil
	}
	return buf.Split(d.length), nil
}
