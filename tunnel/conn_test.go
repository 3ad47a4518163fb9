package tunnel

import (
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tcpPair(t *testing.T) (*Conn, net.Conn) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	var accepted = make(chan net.Conn, 1)
	go func() {
		c, _ := ln.Accept()
		accepted <- c
	}()
	c, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	s := <-accepted
	require.NotNil(t, s)
	return NewConn(c), s
}

func TestConnShutdown(t *testing.T) {
	c, s := tcpPair(t)
	defer s.Close()
	c.SetId(false)
	assert.Contains(t, c.Identifier(), ":")
	c.SetSockOpt(1, 1)

	c.Shutdown()
	assert.True(t, c.isClosed())
	// idempotent
	c.Shutdown()
	assert.NoError(t, c.Close())

	s.SetReadDeadline(time.Now().Add(5 * time.Second))
	n, err := s.Read(make([]byte, 8))
	assert.Zero(t, n)
	assert.Equal(t, io.EOF, err)
}

func TestConnUnblocksReader(t *testing.T) {
	a, b := net.Pipe()
	defer b.Close()
	c := NewConn(a)
	var done = make(chan error, 1)
	go func() {
		_, err := c.Read(make([]byte, 8))
		done <- err
	}()
	time.Sleep(20 * time.Millisecond)
	c.Shutdown()
	select {
	case err := <-done:
		assert.True(t, IsClosedError(err), "%v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("reader still blocked")
	}
}

func TestIsValidHost(t *testing.T) {
	assert.NoError(t, IsValidHost("localhost"))
	assert.NoError(t, IsValidHost("10.1.1.1"))
	assert.Error(t, IsValidHost(""))
	assert.True(t, IsValidPort(1))
	assert.False(t, IsValidPort(0))
	assert.False(t, IsValidPort(65536))
}
