//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: _examples/original_source/wangle/bootstrap/ServerBootstrap.h
// and Acceptor.h, supplemented per design doc §4.7.1: the server-side
// mirror of [ClientBootstrap], deliberately the thinnest possible acceptor
// (one goroutine per accepted connection, no backlog tuning, no broadcast
// pool).
//

package bootstrap

import (
	"context"
	"crypto/tls"
	"net"
	"sync"
	"time"

	"github.com/rgnet/pipeline"
	"github.com/rgnet/pipeline/socket"
	"golang.org/x/sync/errgroup"
)

// ServerBootstrap accepts connections on a listener and drives a pipeline
// into existence for each one via a [PipelineFactory].
//
// The zero value is not ready to use; construct with [NewServerBootstrap].
type ServerBootstrap struct {
	// Factory builds the pipeline for each accepted connection.
	Factory PipelineFactory

	// TLSConfig, if non-nil, wraps every accepted connection in a TLS
	// server handshake before handing it to Factory.
	TLSConfig *tls.Config

	cfg *pipeline.Config

	mu          sync.Mutex
	listener    net.Listener
	group       errgroup.Group
	gracePeriod time.Duration
}

// NewServerBootstrap returns a [*ServerBootstrap] using factory to build
// pipelines, configured from cfg. A nil cfg is equivalent to [pipeline.NewConfig]().
func NewServerBootstrap(cfg *pipeline.Config, factory PipelineFactory) *ServerBootstrap {
	if cfg == nil {
		cfg = pipeline.NewConfig()
	}
	return &ServerBootstrap{Factory: factory, cfg: cfg}
}

// Listen binds network/address and accepts connections until ctx is done
// or [ServerBootstrap.Stop] is called. Each accepted connection gets its
// own pipeline, built by Factory and driven to TransportActive on its own
// event base, in its own goroutine.
func (s *ServerBootstrap) Listen(ctx context.Context, network, address string) error {
	ln, err := net.Listen(network, address)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			return err
		}
		s.group.Go(func() error {
			return s.serve(ctx, conn)
		})
	}
}

// Addr returns the bound listener's address, or nil until Listen has bound
// its listener.
func (s *ServerBootstrap) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// serve drives one accepted connection to a pipeline and blocks until that
// pipeline's manager reports it torn down or ctx is cancelled. Its error
// return feeds [ServerBootstrap.Stop]'s [errgroup.Group], so a handshake
// failure on one connection is logged by Stop without cancelling any other
// in-flight connection (this group carries no context, so one goroutine's
// error never aborts its siblings).
func (s *ServerBootstrap) serve(ctx context.Context, conn net.Conn) error {
	if s.TLSConfig != nil {
		tconn := tls.Server(conn, s.TLSConfig)
		if err := tconn.HandshakeContext(context.Background()); err != nil {
			s.cfg.Logger.Warn("tlsHandshakeFailed", "err", err, "errClass", s.cfg.ErrClassifier.Classify(err))
			conn.Close()
			return err
		}
		conn = tconn
	}

	transport := socket.NewConnTransport(conn)
	eb := transport.GetEventBase()
	done := make(chan struct{})
	eb.RunImmediatelyOrRunAndWait(func() {
		base := s.Factory.NewPipeline(transport)
		base.SetManager(&connDoneManager{inner: base.Manager(), done: done})
		base.SetTransport(transport)
		base.TransportActive()
	})
	select {
	case <-done:
	case <-ctx.Done():
	}
	return nil
}

// connDoneManager wraps whatever [pipeline.PipelineManager] the factory
// installed (if any) so serve's goroutine can wait for DeletePipeline —
// fired when the socket handler's Close tears the transport down; a peer's
// EOF or a read error does not fire it — before returning, rather than
// exiting as soon as TransportActive completes.
type connDoneManager struct {
	inner pipeline.PipelineManager
	done  chan struct{}
	once  sync.Once
}

func (m *connDoneManager) RefreshTimeout() {
	if m.inner != nil {
		m.inner.RefreshTimeout()
	}
}

func (m *connDoneManager) DeletePipeline(base *pipeline.PipelineBase) {
	if m.inner != nil {
		m.inner.DeletePipeline(base)
	}
	m.once.Do(func() { close(m.done) })
}

// GracePeriod bounds how long [ServerBootstrap.Stop] waits for in-flight
// connection goroutines before returning regardless. Zero means wait
// indefinitely.
func (s *ServerBootstrap) GracePeriod() time.Duration { return s.gracePeriod }

// SetGracePeriod sets the duration [ServerBootstrap.Stop] waits for.
func (s *ServerBootstrap) SetGracePeriod(d time.Duration) { s.gracePeriod = d }

// Stop closes the listener, so Listen's Accept loop returns, and waits
// (bounded by [ServerBootstrap.GracePeriod], if set) for every in-flight
// connection goroutine spawned by serve to finish.
func (s *ServerBootstrap) Stop() {
	s.mu.Lock()
	ln := s.listener
	s.mu.Unlock()
	if ln != nil {
		ln.Close()
	}

	done := make(chan struct{})
	go func() {
		if err := s.group.Wait(); err != nil {
			s.cfg.Logger.Warn("serverBootstrapConnFailed", "err", err, "errClass", s.cfg.ErrClassifier.Classify(err))
		}
		close(done)
	}()

	if s.gracePeriod <= 0 {
		<-done
		return
	}
	select {
	case <-done:
	case <-time.After(s.gracePeriod):
	}
}
