//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: _examples/original_source/wangle/bootstrap/ServerBootstrap.h
// (PipelineFactory: a user strategy for turning a freshly accepted or
// dialed connection into a pipeline, plus the UDP secondary signature
// that defaults to "unsupported").
//

package bootstrap

import (
	"net"

	"github.com/rgnet/pipeline"
)

// PipelineFactory builds a pipeline bound to t, a connection that has just
// become active (accepted by a [ServerBootstrap] or dialed by a
// [ClientBootstrap]). The factory is responsible for adding every handler
// the caller wants, in order, and calling [pipeline.PipelineBase.Finalize];
// the bootstrap calls [pipeline.PipelineBase.SetTransport] and fires
// TransportActive afterwards.
type PipelineFactory interface {
	NewPipeline(t pipeline.Transport) *pipeline.PipelineBase
}

// UDPPipelineFactory is implemented by a [PipelineFactory] that also
// supports the UDP pipeline-per-client-address signature. A factory that
// doesn't implement this interface is treated as UDP-unsupported, matching
// the default null-returning implementation described for this secondary
// signature.
type UDPPipelineFactory interface {
	NewPipelineUDP(server net.PacketConn, clientAddr net.Addr) *pipeline.PipelineBase
}

// PipelineFactoryFunc adapts a function to the [PipelineFactory] interface.
type PipelineFactoryFunc func(t pipeline.Transport) *pipeline.PipelineBase

var _ PipelineFactory = PipelineFactoryFunc(nil)

// NewPipeline implements [PipelineFactory].
func (f PipelineFactoryFunc) NewPipeline(t pipeline.Transport) *pipeline.PipelineBase {
	return f(t)
}
