//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Grounded on: _examples/original_source/wangle/codec/ByteToMessageCodec.h
// (the decode-loop contract: examine the queue, report how many more bytes
// are needed, or split and return a frame).
//

// Package codec implements the byte-to-message frame decoders and
// message-to-byte frame encoders consumed by the socket handler (design
// doc §4.6).
package codec

import (
	"fmt"

	"github.com/rgnet/pipeline"
	"github.com/rgnet/pipeline/buffer"
)

func errUnexpectedType(msg any) error {
	return fmt.Errorf("codec: expected *buffer.Queue, got %T", msg)
}

// Decoder examines buf and either splits off and returns exactly one frame,
// or reports that more data is needed. A Decoder must never return a
// partial frame and must never buffer bytes outside of buf.
//
// Returning (nil, nil) means "not enough data yet"; the handler leaves
// buf untouched and waits for the next Read. Returning a non-nil err means
// the decoder already trimmed whatever bytes it consumes for the error
// case; the handler fires the exception inbound and continues decoding
// from what remains.
type Decoder interface {
	Decode(buf *buffer.Queue) (frame []byte, err error)
}

// FrameDecoder is an inbound handler adapting the socket handler's
// cumulative [*buffer.Queue] reads into framed message reads, driven by a
// [Decoder]. It holds no buffering of its own: the queue handed to it on
// each Read is the same one the socket handler keeps appending to, and the
// decoder consumes prefix bytes from it destructively.
type FrameDecoder struct {
	pipeline.InboundAdapter[*buffer.Queue, []byte]
	decoder Decoder
}

// NewFrameDecoder returns a [*FrameDecoder] driven by d.
func NewFrameDecoder(d Decoder) *FrameDecoder {
	return &FrameDecoder{decoder: d}
}

// Read implements the decode loop: drain as many complete frames as the
// queue's buffered bytes allow.
func (f *FrameDecoder) Read(ctx *pipeline.Context, msg any) {
	buf, ok := msg.(*buffer.Queue)
	if !ok {
		ctx.FireReadException(errUnexpectedType(msg))
		return
	}
	for {
		frame, err := f.decoder.Decode(buf)
		if err != nil {
			ctx.FireReadException(err)
			continue
		}
		if frame == nil {
			return
		}
		ctx.FireRead(frame)
	}
}
