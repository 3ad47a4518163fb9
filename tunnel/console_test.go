package tunnel

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNilConsole(t *testing.T) {
	var c *Console
	assert.False(t, c.Tracing())
	c.Prompt()
	c.Println("x")
	c.Tracef("%d", 1)
	c.Message("SERVER", "x")
	c.traceKeystream(1)
	c.traceEncrypt(nil, nil, nil, 0)
	c.traceDecrypt(nil, nil, nil, 0)
}

func TestConsoleTraceOff(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, false)
	c.Traceln("[DH] hidden")
	c.traceKeystream(1)
	c.traceEncrypt([]byte("a"), []byte{1}, []byte{2}, 0)
	assert.Empty(t, buf.String())

	c.Message("CLIENT", "hi")
	assert.Equal(t, "\n[CLIENT] hi\n", buf.String())
}

func TestConsoleTraceDecrypt(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, true)
	c.traceDecrypt([]byte{0x1b, 0x00}, []byte{0x5a, 0x00}, []byte{0x41, 0x07}, 5)
	out := buf.String()
	assert.Contains(t, out, "[DECRYPT]")
	assert.Contains(t, out, "1B 00")
	assert.Contains(t, out, "position 5")
	assert.Contains(t, out, "-> A.")
}

func TestConsoleKeystreamPreview(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, true)
	c.traceKeystream(0)
	// seed 0 starts 39 7E DF 2C F5
	assert.Contains(t, buf.String(), "39 7E DF 2C F5")
}

func TestPrintableOf(t *testing.T) {
	assert.Equal(t, "Hi.~.", printableOf([]byte{'H', 'i', 0x1f, '~', 0x7f}))
	assert.Equal(t, "", printableOf(nil))
}
