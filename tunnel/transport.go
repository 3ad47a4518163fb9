package tunnel

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	log "github.com/Lafeng/streamchat/glog"
	kcp "github.com/xtaci/kcp-go/v5"
)

const (
	DSCP_EF             = 46
	KCP_FEC_DATASHARD   = 10
	KCP_FEC_PARITYSHARD = 3
)

// Transport describes how the single chat connection is carried.
//
//	tcp://host:port
//	kcp://host:port/kcpMode?mtu=1&rwnd=2&rbuf=3
//	kcp://host:port/custom/1,2,3,4?mtu=1&rwnd=2&rbuf=3
type Transport struct {
	rawURL    string
	host      string
	port      int
	asServer  bool
	transType string
	kcpMode   string
	kcpParams []int
	mtu       int
	swnd      int
	rwnd      int
	sbuf      int
	rbuf      int
}

func NewTransport(uri string, asServer bool) (*Transport, error) {
	var t = &Transport{
		rawURL:   uri,
		asServer: asServer,
	}
	if err := t.parseTransport(uri); err != nil {
		return nil, err
	}
	return t, nil
}

// build url from parts
func TransportURL(transType, host string, port int, kcpMode string) string {
	var addr = net.JoinHostPort(host, strconv.Itoa(port))
	if transType == "kcp" {
		return fmt.Sprintf("kcp://%s/%s", addr, kcpMode)
	}
	return fmt.Sprintf("%s://%s", transType, addr)
}

func (t *Transport) parseTransport(str string) error {
	u, err := url.Parse(str)
	if err != nil {
		return CONF_ERROR.Apply(err)
	}

	t.host = u.Hostname()
	if t.host == NULL && !t.asServer {
		return CONF_MISS.Apply("host")
	}
	if t.port, err = strconv.Atoi(u.Port()); err != nil || !IsValidPort(t.port) {
		return CONF_ERROR.Apply("port " + u.Port())
	}

	switch u.Scheme {
	case "tcp":
		t.transType = "tcp"
		return nil

	case "kcp":
		t.transType = "kcp"
		goto kcp

	default:
		goto err
	}

kcp:
	{
		t.kcpMode = strings.TrimPrefix(u.Path, "/")
		// nodelay, interval, resend, nc
		switch t.kcpMode {
		case "normal":
			t.kcpParams = []int{0, 40, 7, 1}
		case "fast", NULL:
			t.kcpMode = "fast"
			t.kcpParams = []int{0, 20, 5, 1}
		case "turbo":
			t.kcpParams = []int{0, 10, 2, 1}
		default:
			if strings.HasPrefix(t.kcpMode, "custom/") {
				if t.kcpParams, err = toIntArray(t.kcpMode[7:], 4); err == nil {
					break
				}
			}
			goto err
		}

		var params = values(u.Query())
		if t.mtu, err = params.getInt("mtu", 1400); err != nil {
			goto err
		}
		if t.rwnd, err = params.getInt("rwnd", 256); err != nil {
			goto err
		}
		if t.rbuf, err = params.getInt("rbuf", 1<<22); err != nil {
			goto err
		}

		// a chat is symmetric, both ends get the same windows
		t.swnd = t.rwnd
		t.sbuf = t.rbuf
		return nil
	}

err:
	return CONF_ERROR.Apply(str)
}

func (t *Transport) TransType() string {
	return t.transType
}

func (t *Transport) String() string {
	return TransportURL(t.transType, t.host, t.port, t.kcpMode)
}

func (t *Transport) addr() string {
	return net.JoinHostPort(t.host, strconv.Itoa(t.port))
}

func (t *Transport) Dial() (net.Conn, error) {
	switch t.transType {
	case "tcp":
		return net.Dial("tcp", t.addr())
	case "kcp":
		return t.dialKcpConnection()
	}
	return nil, ILLEGAL_STATE.Apply(t.transType)
}

func (t *Transport) dialKcpConnection() (net.Conn, error) {
	var kcpconn, err = kcp.DialWithOptions(t.addr(), nil, KCP_FEC_DATASHARD, KCP_FEC_PARITYSHARD)
	if err != nil {
		return nil, err
	}
	if err = t.setupKcpConnection(kcpconn); err != nil {
		kcpconn.Close()
		return nil, err
	}
	return kcpconn, nil
}

func (t *Transport) setupKcpConnection(kcpconn *kcp.UDPSession) (err error) {
	var p = t.kcpParams
	kcpconn.SetNoDelay(p[0], p[1], p[2], p[3])
	kcpconn.SetWindowSize(t.swnd, t.rwnd)
	kcpconn.SetMtu(t.mtu)
	kcpconn.SetACKNoDelay(true)
	// byte stream semantics, same as tcp
	kcpconn.SetStreamMode(true)
	kcpconn.SetWriteDelay(false)

	if !t.asServer {
		if err = kcpconn.SetDSCP(DSCP_EF); err != nil {
			log.Warningf("SetDSCP %d: %v\n", DSCP_EF, err)
		}
		if err = kcpconn.SetReadBuffer(t.rbuf); err != nil {
			log.Errorln("SetReadBuffer:", err)
			goto returnErr
		}
		if err = kcpconn.SetWriteBuffer(t.sbuf); err != nil {
			log.Errorln("SetWriteBuffer:", err)
			goto returnErr
		}
	}
	return nil

returnErr:
	return err
}

func (t *Transport) setupKcpListener(listener *kcp.Listener) (err error) {
	if err = listener.SetDSCP(DSCP_EF); err != nil {
		log.Warningf("SetDSCP %d: %v\n", DSCP_EF, err)
	}
	if err = listener.SetReadBuffer(t.rbuf); err != nil {
		log.Errorln("SetReadBuffer:", err)
		goto returnErr
	}
	if err = listener.SetWriteBuffer(t.sbuf); err != nil {
		log.Errorln("SetWriteBuffer:", err)
		goto returnErr
	}
	return nil

returnErr:
	return err
}

func (t *Transport) SetupConnection(conn net.Conn) {
	if kcpconn, ok := conn.(*kcp.UDPSession); ok {
		t.setupKcpConnection(kcpconn)
	}
}

func (t *Transport) Listen() (net.Listener, error) {
	switch t.transType {
	case "tcp":
		return net.Listen("tcp", t.addr())
	case "kcp":
		ln, err := kcp.ListenWithOptions(t.addr(), nil, KCP_FEC_DATASHARD, KCP_FEC_PARITYSHARD)
		if err != nil {
			return nil, err
		}
		if err = t.setupKcpListener(ln); err != nil {
			ln.Close()
			return nil, err
		}
		return ln, nil
	}
	return nil, ILLEGAL_STATE.Apply(t.transType)
}

type values url.Values

func (v values) getOne(k string) string {
	var arr = v[k]
	if len(arr) == 0 {
		return ""
	} else {
		return arr[0]
	}
}

func (v values) getInt(k string, defaultValue int) (int, error) {
	var value = v.getOne(k)
	if value == NULL {
		return defaultValue, nil
	} else {
		return strconv.Atoi(value)
	}
}
