package tunnel

import (
	"syscall"

	"github.com/Lafeng/streamchat/exception"
)

const (
	NULL        = ""
	BUFFER_SIZE = 1024
	PREVIEW_LEN = 10
	CMD_QUIT    = "quit"
	Bye         = syscall.Signal(0xfffb8e)
)

var (
	// for main package injection
	VER_STRING string
	DEBUG      bool
)

var (
	PEER_UNREACHABLE = exception.New(1, "Peer is unreachable")
	LOCAL_BIND_ERROR = exception.New(1, "Local bind error")
	HANDSHAKE_FAILED = exception.New(2, "Handshake failed")
	ILLEGAL_STATE    = exception.New(3, "Illegal state")
	PEER_CLOSED      = exception.NewW("Peer disconnected")
	SESSION_ABORTED  = exception.NewW("Session aborted")
)
