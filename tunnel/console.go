package tunnel

import (
	"fmt"
	"io"
	"sync"

	"github.com/Lafeng/streamchat/crypto"
)

const PROMPT = "> "

// Console is the operator-facing output: prompt, chat messages and the
// optional protocol traces. Each call writes whole lines under a lock so the
// two chat loops never interleave within a line.
// A nil *Console discards everything.
type Console struct {
	out   io.Writer
	trace bool
	lock  sync.Mutex
}

func NewConsole(out io.Writer, trace bool) *Console {
	return &Console{out: out, trace: trace}
}

func (c *Console) Println(args ...interface{}) {
	if c == nil {
		return
	}
	c.lock.Lock()
	defer c.lock.Unlock()
	fmt.Fprintln(c.out, args...)
}

func (c *Console) Printf(format string, args ...interface{}) {
	if c == nil {
		return
	}
	c.lock.Lock()
	defer c.lock.Unlock()
	fmt.Fprintf(c.out, format, args...)
}

func (c *Console) Tracing() bool {
	return c != nil && c.trace
}

func (c *Console) Traceln(args ...interface{}) {
	if c.Tracing() {
		c.Println(args...)
	}
}

func (c *Console) Tracef(format string, args ...interface{}) {
	if c.Tracing() {
		c.Printf(format, args...)
	}
}

func (c *Console) Prompt() {
	c.Printf(PROMPT)
}

// Message surfaces a received message, labelled with the sender's role.
func (c *Console) Message(label string, text string) {
	c.Printf("\n[%s] %s\n", label, text)
}

func (c *Console) traceKeystream(secret uint64) {
	if !c.Tracing() {
		return
	}
	preview := crypto.Preview(secret, PREVIEW_LEN)
	c.lock.Lock()
	defer c.lock.Unlock()
	fmt.Fprintln(c.out, "[STREAM] Creating keystream generator...")
	fmt.Fprintf(c.out, "LCG: state' = (%d * state + %d) mod 2^32\n", crypto.LCG_A, crypto.LCG_C)
	fmt.Fprintf(c.out, "seed = %X\n", secret)
	fmt.Fprintf(c.out, "keystream[0..%d] = %s\n", PREVIEW_LEN, hexOf(preview))
	fmt.Fprintln(c.out, "[SECURE] Session established, type `quit` to leave.")
}

func (c *Console) traceEncrypt(plain, key, ciphertext []byte, pos uint64) {
	if !c.Tracing() {
		return
	}
	c.lock.Lock()
	defer c.lock.Unlock()
	fmt.Fprintln(c.out, "[ENCRYPT]")
	fmt.Fprintf(c.out, "Plain:  %s (%q)\n", hexOf(plain), plain)
	fmt.Fprintf(c.out, "Key:    %s (keystream position %d)\n", hexOf(key), pos)
	fmt.Fprintf(c.out, "Cipher: %s\n", hexOf(ciphertext))
}

func (c *Console) traceDecrypt(ciphertext, key, plain []byte, pos uint64) {
	if !c.Tracing() {
		return
	}
	c.lock.Lock()
	defer c.lock.Unlock()
	fmt.Fprintf(c.out, "\n[NETWORK] Received encrypted message (%d bytes)\n", len(ciphertext))
	fmt.Fprintln(c.out, "[DECRYPT]")
	fmt.Fprintf(c.out, "Cipher: %s\n", hexOf(ciphertext))
	fmt.Fprintf(c.out, "Key:    %s (keystream position %d)\n", hexOf(key), pos)
	fmt.Fprintf(c.out, "Plain:  %s -> %s\n", hexOf(plain), printableOf(plain))
}
