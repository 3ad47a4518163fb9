package tunnel

import (
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
)

func SafeClose(conn io.Closer) {
	defer func() {
		_ = recover()
	}()
	if conn != nil {
		conn.Close()
	}
}

func closeR(conn net.Conn) {
	defer func() { _ = recover() }()
	if t, y := conn.(*net.TCPConn); y {
		t.CloseRead()
	} else {
		conn.Close()
	}
}

func closeW(conn net.Conn) {
	defer func() { _ = recover() }()
	if t, y := conn.(*net.TCPConn); y {
		t.CloseWrite()
	} else {
		conn.Close()
	}
}

func IsValidHost(addr string) (err error) {
	var h string
	h, _, err = net.SplitHostPort(addr + ":1")
	if err != nil {
		return
	}
	if h == NULL {
		err = errors.New("Invalid address " + addr)
	}
	return
}

func IsValidPort(p int) bool {
	return p > 0 && p < 1<<16
}

func IsClosedError(err error) bool {
	if err == nil {
		return false
	}
	if err == io.EOF || errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrClosedPipe) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "closed") || strings.Contains(msg, "reset")
}

func port(addr net.Addr) int {
	switch v := addr.(type) {
	case *net.TCPAddr:
		return v.Port
	case *net.UDPAddr:
		return v.Port
	default:
		return 0
	}
}

func isGlobal(addr net.Addr) bool {
	switch a := addr.(type) {
	case *net.TCPAddr:
		return a.IP.IsGlobalUnicast()
	case *net.UDPAddr:
		return a.IP.IsGlobalUnicast()
	case *net.IPAddr:
		return a.IP.IsGlobalUnicast()
	case *net.IPNet:
		return a.IP.IsGlobalUnicast()
	}
	return false
}

// the address a client on another host would most likely dial
func findFirstUnicastAddress() string {
	nic, e := net.InterfaceAddrs()
	if nic != nil && e == nil {
		for _, v := range nic {
			if i, _ := v.(*net.IPNet); i != nil && isGlobal(i) {
				var ipStr = i.IP.String()
				if i.IP.To4() == nil {
					return fmt.Sprint("[", ipStr, "]")
				}
				return ipStr
			}
		}
	}
	return NULL
}
