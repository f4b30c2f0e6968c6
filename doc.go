// SPDX-License-Identifier: GPL-3.0-or-later

// Package pipeline provides a typed, bidirectional handler pipeline for
// building asynchronous network protocols, in the style of Netty and Wangle.
//
// # Core Abstraction
//
// A pipeline is a chain of [Handler] values threaded together by a
// [PipelineBase]. Handler methods receive a [*Context] and untyped
// messages; a handler that embeds [Adapter] (or [InboundAdapter] /
// [OutboundAdapter]) declares its inbound (read) and outbound (write)
// element types through a [TypeWitness], and [PipelineBase.Finalize]
// compares those types across adjacent handlers at run time, returning a
// [*CompositionError] on a mismatch. Only the [Pipeline] façade's own
// Read/Write entry points are checked by the compiler.
//
// Data flows inbound from the transport toward the application (Read) and
// outbound from the application toward the transport (Write). A handler
// that does not care about a direction can embed [Adapter], which supplies
// pass-through defaults for every method.
//
// # Composition Utilities
//
// Outside of the pipeline itself, the package also exposes small
// general-purpose composition primitives used to build the bootstrap
// subpackage's client dial chain:
//
//   - [Compose2] through [Compose8]: chain [Func] values into a single Func
//   - [FuncAdapter]: wrap a plain function as a [Func]
//   - [Apply]: bind a fixed input to a [Func]
//   - [ConstFunc]: lift a pure value into a [Func]
//
// # Observability
//
// Handlers and bootstrap code log through [SLogger], an interface matching
// the convenience methods of [*log/slog.Logger]. By default, logging is
// disabled via [DefaultSLogger]. Error classification is configurable via
// [ErrClassifier]; by default, [DefaultErrClassifier] is a no-op.
//
// Use [NewSpanID] to generate a unique, time-ordered identifier (UUIDv7) for
// a logical operation, then attach it to a logger so every event the
// operation produces can be correlated.
//
// # Threading Model
//
// Every transport is bound to one [EventBase]. Pipeline methods run their
// handlers on the calling goroutine: the socket subpackage's transport
// delivers reads from its own read goroutine and performs writes on its
// event base. Code that needs handler callbacks to run on the event base
// goes through it (see [EventBase.RunInLoop] and
// [EventBase.RunImmediatelyOrRunAndWait]), as the socket subpackage's
// EventBaseHandler does for outbound writes and closes.
//
// # Design Boundaries
//
// This package provides the pipeline core, transport and event-base
// abstractions, and the small Func composition helpers. Byte-oriented
// socket adapters live in the socket subpackage, frame codecs live in the
// codec subpackage, client/server bootstrapping lives in the bootstrap
// subpackage, and request/response dispatch lives in the service
// subpackage.
package pipeline
