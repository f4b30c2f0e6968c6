//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Grounded on: _examples/original_source/wangle/codec/LengthFieldPrepender.h
// (supplemented: original_source pairs every decoder with an encoder; see
// design doc §4.6.1).
//

package codec

import (
	"encoding/binary"
	"fmt"

	"github.com/rgnet/pipeline"
	"github.com/rgnet/pipeline/future"
)

// LengthFieldPrepender writes a fixed-width length header in front of each
// outbound payload, mirroring [LengthFieldBasedFrameDecoder]'s parameters.
type LengthFieldPrepender struct {
	pipeline.OutboundAdapter[[]byte, []byte]
	lengthFieldLength int
	lengthAdjustment  int
	networkByteOrder  bool
}

// NewLengthFieldPrepender returns a [*LengthFieldPrepender]. lengthFieldLength
// must be one of 1, 2, 4, or 8.
func NewLengthFieldPrepender(lengthFieldLength, lengthAdjustment int, networkByteOrder bool) (*LengthFieldPrepender, error) {
	switch lengthFieldLength {
	case 1, 2, 4, 8:
	default:
		return nil, fmt.Errorf("codec: lengthFieldLength must be 1, 2, 4, or 8, got %d", lengthFieldLength)
	}
	return &LengthFieldPrepender{
		lengthFieldLength: lengthFieldLength,
		lengthAdjustment:  lengthAdjustment,
		networkByteOrder:  networkByteOrder,
	}, nil
}

// Write implements [pipeline.OutboundEvents]: it prepends the length header
// and forwards the combined buffer outbound.
func (e *LengthFieldPrepender) Write(ctx *pipeline.Context, msg any) *future.Future[pipeline.Unit] {
	payload, ok := msg.([]byte)
	if !ok {
		return ctx.FireWriteException(errUnexpectedType(msg))
	}
	header := make([]byte, e.lengthFieldLength)
	length := uint64(len(payload) + e.lengthAdjustment)
	order := binary.ByteOrder(binary.BigEndian)
	if !e.networkByteOrder {
		order = binary.LittleEndian
	}
	switch e.lengthFieldLength {
	case 1:
		header[0] = byte(length)
	case 2:
		order.PutUint16(header, uint16(length))
	case 4:
		order.PutUint32(header, uint32(length))
	case 8:
		order.PutUint64(header, length)
	}
	framed := append(header, payload...)
	return ctx.FireWrite(framed)
}

// BytesEncoder is a pass-through outbound handler, provided for symmetry
// with decoders (such as [FixedLengthFrameDecoder]) that need no paired
// encoder of their own.
type BytesEncoder struct {
	pipeline.OutboundAdapter[[]byte, []byte]
}
