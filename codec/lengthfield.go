//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Grounded on: _examples/original_source/wangle/codec/LengthFieldBasedFrameDecoder.cpp
//

package codec

import (
	"encoding/binary"
	"fmt"

	"github.com/rgnet/pipeline"
	"github.com/rgnet/pipeline/buffer"
)

// LengthFieldBasedFrameDecoder decodes frames prefixed by a fixed-width
// length header, per the algorithm in design doc §4.6.
type LengthFieldBasedFrameDecoder struct {
	lengthFieldOffset    int
	lengthFieldLength    int
	lengthAdjustment     int
	initialBytesToStrip  int
	maxFrameLength       int
	networkByteOrder     bool
	lengthFieldEndOffset int
}

// NewLengthFieldBasedFrameDecoder validates its parameters and returns a
// [*LengthFieldBasedFrameDecoder]. lengthFieldLength must be one of 1, 2,
// 4, or 8.
func NewLengthFieldBasedFrameDecoder(
	lengthFieldOffset, lengthFieldLength, maxFrameLength, lengthAdjustment, initialBytesToStrip int,
	networkByteOrder bool,
) (*LengthFieldBasedFrameDecoder, error) {
	switch lengthFieldLength {
	case 1, 2, 4, 8:
	default:
		return nil, fmt.Errorf("codec: lengthFieldLength must be 1, 2, 4, or 8, got %d", lengthFieldLength)
	}
	if maxFrameLength <= 0 {
		return nil, fmt.Errorf("codec: maxFrameLength must be positive")
	}
	if lengthFieldOffset > maxFrameLength-lengthFieldLength {
		return nil, fmt.Errorf("codec: lengthFieldOffset exceeds maxFrameLength-lengthFieldLength")
	}
	return &LengthFieldBasedFrameDecoder{
		lengthFieldOffset:    lengthFieldOffset,
		lengthFieldLength:    lengthFieldLength,
		lengthAdjustment:     lengthAdjustment,
		initialBytesToStrip:  initialBytesToStrip,
		maxFrameLength:       maxFrameLength,
		networkByteOrder:     networkByteOrder,
		lengthFieldEndOffset: lengthFieldOffset + lengthFieldLength,
	}, nil
}

// Decode implements [Decoder].
func (d *LengthFieldBasedFrameDecoder) Decode(buf *buffer.Queue) ([]byte, error) {
	if buf.ChainLength() < d.lengthFieldEndOffset {
		return nil, nil
	}

	header := d.unadjustedFrameLength(buf.Front())
	frameLength := int(header) + d.lengthAdjustment + d.lengthFieldEndOffset

	if frameLength < d.lengthFieldEndOffset {
		buf.TrimStart(d.lengthFieldEndOffset)
		return nil, pipeline.ErrFrameTooSmall
	}
	if frameLength > d.maxFrameLength {
		buf.TrimStart(frameLength)
		return nil, pipeline.ErrFrameTooLarge
	}
	if buf.ChainLength() < frameLength {
		return nil, nil
	}
	if d.initialBytesToStrip > frameLength {
		buf.TrimStart(frameLength)
		return nil, pipeline.ErrStripLargerThanFrame
	}

	buf.TrimStart(d.initialBytesToStrip)
	return buf.Split(frameLength - d.initialBytesToStrip), nil
}

func (d *LengthFieldBasedFrameDecoder) unadjustedFrameLength(front []byte) uint64 {
	b := front[d.lengthFieldOffset:]
	order := binary.ByteOrder(binary.BigEndian)
	if !d.networkByteOrder {
		order = binary.LittleEndian
	}
	switch d.lengthFieldLength {
	case 1:
		return uint64(b[0])
	case 2:
		return uint64(order.Uint16(b))
	case 4:
		return uint64(order.Uint32(b))
	case 8:
		return order.Uint64(b)
	}
	panic("unreachable")
}
