// SPDX-License-Identifier: GPL-3.0-or-later

package socket

import (
	"net"
	"testing"

	"github.com/rgnet/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/nettest"
)

func TestObserveConnLogsIO(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()

	cfg := pipeline.NewConfig()
	observed := ObserveConn(server, cfg)

	writeDone := make(chan struct{})
	go func() {
		defer close(writeDone)
		_, err := observed.Write([]byte("abc"))
		require.NoError(t, err)
	}()

	buf := make([]byte, 3)
	n, err := client.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []byte("abc"), buf)
	<-writeDone

	require.NoError(t, observed.Close())
	err = observed.Close()
	assert.ErrorIs(t, err, net.ErrClosed, "second Close must report already-closed, not re-close")
}

// TestObservedConnSatisfiesNetConn runs the stock [nettest.TestConn] suite
// against a pair of [ObserveConn]-wrapped pipes, checking that the logging
// decorator doesn't change any net.Conn-visible behavior (deadlines,
// concurrent Read/Write/Close, close unblocking a pending I/O call).
func TestObservedConnSatisfiesNetConn(t *testing.T) {
	cfg := pipeline.NewConfig()
	nettest.TestConn(t, func() (c1, c2 net.Conn, stop func(), err error) {
		p1, p2 := net.Pipe()
		return ObserveConn(p1, cfg), ObserveConn(p2, cfg), func() {
			p1.Close()
			p2.Close()
		}, nil
	})
}
