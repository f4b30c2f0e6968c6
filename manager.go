//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: _examples/original_source/wangle/channel/AsyncSocketHandler.h
// (PipelineManager: refreshTimeout, deletePipeline)
//

package pipeline

// PipelineManager is implemented by whatever owns a pipeline's lifecycle —
// typically a server's acceptor or a client bootstrap's connection table.
// The socket handler calls back through this interface instead of holding
// a direct reference to its owner.
type PipelineManager interface {
	// RefreshTimeout is called on every read/write to let the manager reset
	// an idle timer, if it keeps one.
	RefreshTimeout()

	// DeletePipeline is called once, when the socket handler's Close has
	// closed the pipeline's transport, and the manager should drop its
	// reference to it. A read EOF or read error fires ReadEOF or
	// ReadException and TransportInactive but does not call DeletePipeline.
	DeletePipeline(base *PipelineBase)
}
