package tunnel

import (
	"bufio"
	"io"
	"net"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/Lafeng/streamchat/exception"
	log "github.com/Lafeng/streamchat/glog"
	"golang.org/x/sync/errgroup"
)

type State int32

const (
	ST_CONNECTING State = iota
	ST_EXCHANGING
	ST_CHATTING
	ST_CLOSED
)

func (s State) String() string {
	switch s {
	case ST_CONNECTING:
		return "CONNECTING"
	case ST_EXCHANGING:
		return "EXCHANGING"
	case ST_CHATTING:
		return "CHATTING"
	case ST_CLOSED:
		return "CLOSED"
	}
	return "UNKNOWN"
}

// ChatSession runs the duplex chat over an established connection.
// The send loop runs on the caller of Run, the receive loop on its own
// goroutine. Whichever stops first shuts the connection down and the other
// one follows.
type ChatSession struct {
	role     Role
	conn     *Conn
	cipher   *XORCipherKit
	console  *Console
	stats    *Stats
	state    int32
	done     chan struct{}
	once     sync.Once
	cause    error
	inputErr error // set by readConsole before its channel closes
}

func NewChatSession(conn net.Conn, role Role, secret uint64, console *Console) *ChatSession {
	c, y := conn.(*Conn)
	if !y {
		c = NewConn(conn)
	}
	return &ChatSession{
		role:    role,
		conn:    c,
		cipher:  NewXORCipherKit(secret),
		console: console,
		stats:   newStats(),
		state:   int32(ST_CHATTING),
		done:    make(chan struct{}),
	}
}

func (s *ChatSession) State() State {
	return State(atomic.LoadInt32(&s.state))
}

// Run reads operator lines from input until `quit`, end of input or the
// connection ends. It returns only after the receive loop has exited.
// The result is nil for a local quit, PEER_CLOSED when the peer went away
// in order, otherwise the I/O error that ended the session.
func (s *ChatSession) Run(input io.Reader) error {
	var eg errgroup.Group
	eg.Go(s.receiveLoop)
	s.sendLoop(input)
	eg.Wait()
	atomic.StoreInt32(&s.state, int32(ST_CLOSED))
	if log.V(log.LV_SESSION) {
		log.Infof("Chat with %s closed, cause=%v\n", s.conn.Identifier(), s.cause)
	}
	return s.cause
}

// Close aborts a running session from outside, eg. on signal.
func (s *ChatSession) Close() {
	s.shutdown(SESSION_ABORTED)
}

func (s *ChatSession) Stats() string {
	return s.stats.render(s.role, s.State(), s.conn.Identifier())
}

func (s *ChatSession) shutdown(cause error) {
	s.once.Do(func() {
		s.cause = cause
		close(s.done)
		s.conn.Shutdown()
		if log.V(log.LV_STATE) {
			log.Infof("Chat %s shutting down, cause=%v\n", s.conn.Identifier(), cause)
		}
	})
}

func (s *ChatSession) sendLoop(input io.Reader) {
	var lines = make(chan string)
	go s.readConsole(input, lines)

	for {
		s.console.Prompt()
		select {
		case line, ok := <-lines:
			if !ok { // end of input, or the failure that ended it
				s.shutdown(s.inputErr)
				return
			}
			msg := strings.TrimSpace(line)
			if msg == NULL {
				continue
			}
			if msg == CMD_QUIT {
				s.shutdown(nil)
				return
			}
			if err := s.send([]byte(msg)); err != nil {
				log.Warningln("Failed to send message:", err)
				s.shutdown(err)
				return
			}
		case <-s.done:
			return
		}
	}
}

// readConsole can't be interrupted while blocked on input; it leaves as soon
// as the session is done and a line arrives, or input ends. Lines have no
// length limit. A read failure other than EOF is kept in inputErr before
// lines is closed.
func (s *ChatSession) readConsole(input io.Reader, lines chan<- string) {
	defer close(lines)
	reader := bufio.NewReader(input)
	for {
		line, err := reader.ReadString('\n')
		if len(line) > 0 {
			select {
			case lines <- line:
			case <-s.done:
				return
			}
		}
		if err != nil {
			if err != io.EOF {
				log.Warningln("Console input:", err)
				s.inputErr = err
			}
			return
		}
	}
}

func (s *ChatSession) send(plain []byte) error {
	var pos = s.cipher.enc.Position()
	ciphertext, key := s.cipher.encrypt(plain)
	s.console.traceEncrypt(plain, key, ciphertext, pos)
	if DEBUG {
		dumpHex("send", ciphertext)
	}
	if _, err := s.conn.Write(ciphertext); err != nil {
		return err
	}
	s.stats.sent(len(ciphertext))
	if log.V(log.LV_CHAT_FRM) {
		log.Infof("%s sent %d bytes, keystream at %d\n", s.conn.Identifier(), len(ciphertext), s.cipher.enc.Position())
	}
	return nil
}

func (s *ChatSession) receiveLoop() error {
	defer func() {
		var re error
		if exception.Catch(recover(), &re) {
			log.Errorf("Receive loop of %s crashed: %v\n", s.conn.Identifier(), re)
			s.shutdown(re)
		}
	}()
	var buf = make([]byte, BUFFER_SIZE)
	for {
		n, err := s.conn.Read(buf)
		if n > 0 {
			s.deliver(buf[:n])
		}
		switch {
		case err == io.EOF, err == nil && n == 0:
			s.shutdown(PEER_CLOSED)
			return nil
		case err != nil:
			// after a local shutdown the cause is already recorded
			if !s.conn.isClosed() && !IsClosedError(err) {
				log.Warningln("Failed to receive message:", err)
			} else if log.V(log.LV_SESSION) {
				log.Infoln("Receive loop of", s.conn.Identifier(), "ends:", err)
			}
			s.shutdown(err)
			return nil
		}
	}
}

func (s *ChatSession) deliver(ciphertext []byte) {
	var pos = s.cipher.dec.Position()
	plain, key := s.cipher.decrypt(ciphertext)
	s.stats.received(len(ciphertext))
	if DEBUG {
		dumpHex("recv", ciphertext)
	}
	if log.V(log.LV_CHAT_FRM) {
		log.Infof("%s received %d bytes, keystream at %d\n", s.conn.Identifier(), len(ciphertext), s.cipher.dec.Position())
	}
	s.console.traceDecrypt(ciphertext, key, plain, pos)
	text := strings.ToValidUTF8(string(plain), "\uFFFD")
	s.console.Message(s.role.Peer().Label(), strings.TrimSpace(text))
	s.console.Prompt()
}
