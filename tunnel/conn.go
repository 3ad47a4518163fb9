package tunnel

import (
	"fmt"
	"net"
	"sync/atomic"
	"time"
)

// Conn is the duplex byte stream shared by the send and receive loops.
// Read and Write may be called from different goroutines; shutdown is
// idempotent.
type Conn struct {
	net.Conn
	closed     int32
	identifier string
}

func NewConn(conn net.Conn) *Conn {
	return &Conn{Conn: conn}
}

func (c *Conn) SetId(isServ bool) {
	ra := c.RemoteAddr()
	if isServ {
		// fmt: peer@full_addr
		c.identifier = fmt.Sprintf("peer@%s", ra)
	} else {
		la := c.LocalAddr()
		c.identifier = fmt.Sprintf("%d:%d", port(la), port(ra))
	}
}

func (c *Conn) Identifier() string {
	if c.identifier == NULL {
		return fmt.Sprint(c.RemoteAddr())
	}
	return c.identifier
}

func (c *Conn) isClosed() bool {
	return atomic.LoadInt32(&c.closed) > 0
}

func (c *Conn) Close() error {
	if atomic.CompareAndSwapInt32(&c.closed, 0, 1) {
		return c.Conn.Close()
	}
	return nil
}

func (c *Conn) CloseRead() {
	closeR(c.Conn)
}

func (c *Conn) CloseWrite() {
	closeW(c.Conn)
}

// Shutdown closes both directions. A TCP peer sees FIN before the socket
// is released; blocked reads on either side return.
func (c *Conn) Shutdown() {
	if c.isClosed() {
		return
	}
	if _, y := c.Conn.(*net.TCPConn); y {
		c.CloseWrite()
		c.CloseRead()
	}
	c.Close()
}

// int8: minutes of KeepAlivePeriod, zero to disable, negative to keep
// int8: noDelay, negative to keep
func (c *Conn) SetSockOpt(keepAlive, noDelay int8) {
	if t, y := c.Conn.(*net.TCPConn); y {
		if keepAlive >= 0 {
			t.SetKeepAlive(keepAlive > 0)
			if keepAlive > 0 {
				t.SetKeepAlivePeriod(time.Minute * time.Duration(keepAlive))
			}
		}
		if noDelay >= 0 {
			t.SetNoDelay(noDelay > 0)
		}
	}
}
