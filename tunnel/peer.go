package tunnel

import (
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"

	"github.com/Lafeng/streamchat/exception"
	log "github.com/Lafeng/streamchat/glog"
)

// Peer drives one end of a chat through its whole life:
// connecting, key exchange, chatting, closed.
type Peer struct {
	transport *Transport
	role      Role
	console   *Console
	state     int32
	lock      sync.Mutex
	listener  net.Listener
	conn      *Conn
	session   *ChatSession
}

// The listening side is the initiator of the key exchange.
func NewPeer(t *Transport, console *Console) *Peer {
	var role = ROLE_RESPONDER
	if t.asServer {
		role = ROLE_INITIATOR
	}
	return &Peer{
		transport: t,
		role:      role,
		console:   console,
		state:     int32(ST_CONNECTING),
	}
}

func (p *Peer) Role() Role {
	return p.role
}

func (p *Peer) State() State {
	return State(atomic.LoadInt32(&p.state))
}

// transit moves from one state to the next unless Close got there first.
func (p *Peer) transit(from, to State) bool {
	if !atomic.CompareAndSwapInt32(&p.state, int32(from), int32(to)) {
		return false
	}
	if log.V(log.LV_STATE) {
		log.Infof("%s enters %s\n", p.role.Label(), to)
	}
	return true
}

// Start runs the whole lifecycle. err reports a failed connection or key
// exchange; reason is how an established chat ended (see ChatSession.Run).
func (p *Peer) Start(input io.Reader) (reason error, err error) {
	if err = p.Connect(); err != nil {
		return
	}
	if err = p.Exchange(); err != nil {
		return
	}
	reason = p.Chat(input)
	return
}

// Connect accepts exactly one inbound connection (server) or dials out (client).
func (p *Peer) Connect() (err error) {
	if p.State() != ST_CONNECTING {
		return ILLEGAL_STATE.Apply(p.State())
	}
	var conn net.Conn
	if p.transport.asServer {
		conn, err = p.accept()
	} else {
		p.console.Printf("Connecting to %s ...\n", p.transport.addr())
		conn, err = p.transport.Dial()
		if err != nil {
			err = PEER_UNREACHABLE.Apply(err)
		}
	}
	if err != nil {
		p.close()
		return
	}

	p.lock.Lock()
	p.conn = NewConn(conn)
	p.conn.SetId(p.transport.asServer)
	p.conn.SetSockOpt(1, 1)
	p.lock.Unlock()

	p.console.Printf("Connected %s <-> %s\n", conn.LocalAddr(), conn.RemoteAddr())
	if log.V(log.LV_CONNECT) {
		log.Infof("%s connection %s established over %s\n", p.role.Label(), p.conn.Identifier(), p.transport.transType)
	}
	if !p.transit(ST_CONNECTING, ST_EXCHANGING) {
		p.close()
		return SESSION_ABORTED
	}
	return nil
}

func (p *Peer) accept() (net.Conn, error) {
	ln, err := p.transport.Listen()
	if err != nil {
		return nil, LOCAL_BIND_ERROR.Apply(err)
	}
	p.lock.Lock()
	if p.State() == ST_CLOSED {
		p.lock.Unlock()
		SafeClose(ln)
		return nil, SESSION_ABORTED
	}
	p.listener = ln
	p.lock.Unlock()

	p.console.Printf("Listening on %s (%s), waiting for a peer ...\n", ln.Addr(), p.transport.transType)
	conn, err := ln.Accept()
	if err != nil {
		return nil, exception.Spawn(&err, "Accept on %s", ln.Addr())
	}
	p.transport.SetupConnection(conn)
	// kcp sessions share the listener's socket, keep it until the end
	if p.transport.transType == "tcp" {
		p.lock.Lock()
		p.listener = nil
		p.lock.Unlock()
		SafeClose(ln)
	}
	return conn, nil
}

func (p *Peer) Exchange() error {
	if p.State() != ST_EXCHANGING {
		return ILLEGAL_STATE.Apply(p.State())
	}
	secret, err := KeyExchange(p.conn, p.role, p.console)
	if err != nil {
		p.close()
		return err
	}
	p.console.traceKeystream(secret)

	p.lock.Lock()
	p.session = NewChatSession(p.conn, p.role, secret, p.console)
	p.lock.Unlock()
	if !p.transit(ST_EXCHANGING, ST_CHATTING) {
		p.close()
		return SESSION_ABORTED
	}
	return nil
}

func (p *Peer) Chat(input io.Reader) error {
	if p.State() != ST_CHATTING {
		return ILLEGAL_STATE.Apply(p.State())
	}
	reason := p.session.Run(input)
	p.close()
	return reason
}

func (p *Peer) close() {
	p.lock.Lock()
	defer p.lock.Unlock()
	if p.conn != nil {
		p.conn.Shutdown()
	}
	if p.listener != nil {
		SafeClose(p.listener)
		p.listener = nil
	}
	atomic.StoreInt32(&p.state, int32(ST_CLOSED))
}

// Close aborts whatever stage the peer is in.
func (p *Peer) Close() {
	p.lock.Lock()
	var session = p.session
	p.lock.Unlock()
	if session != nil {
		session.Close()
	}
	p.close()
}

func (p *Peer) Stats() string {
	p.lock.Lock()
	var session = p.session
	p.lock.Unlock()
	if session != nil {
		return session.Stats()
	}
	return fmt.Sprintf("%s %s\n", p.role.Label(), p.State())
}
