package tunnel

import (
	"bytes"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/Lafeng/streamchat/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type exchangeResult struct {
	secret uint64
	err    error
}

func goExchange(kx *keyExchange, rw io.ReadWriter) <-chan exchangeResult {
	var ch = make(chan exchangeResult, 1)
	go func() {
		secret, err := kx.exchange(rw)
		ch <- exchangeResult{secret, err}
	}()
	return ch
}

func waitExchange(t *testing.T, ch <-chan exchangeResult) exchangeResult {
	select {
	case r := <-ch:
		return r
	case <-time.After(5 * time.Second):
		t.Fatal("key exchange blocked")
	}
	return exchangeResult{}
}

func TestKeyExchangeTextbook(t *testing.T) {
	var g = &crypto.Group{P: 97, G: 2}
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()

	server := goExchange(&keyExchange{role: ROLE_INITIATOR, dhKey: g.KeyOf(6)}, a)
	client := goExchange(&keyExchange{role: ROLE_RESPONDER, dhKey: g.KeyOf(15)}, b)

	rs, rc := waitExchange(t, server), waitExchange(t, client)
	require.NoError(t, rs.err)
	require.NoError(t, rc.err)
	assert.EqualValues(t, 47, rs.secret)
	assert.EqualValues(t, 47, rc.secret)
}

func TestKeyExchangeTracesOwnGroup(t *testing.T) {
	var g = &crypto.Group{P: 97, G: 5}
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()

	var out bytes.Buffer
	server := goExchange(&keyExchange{role: ROLE_INITIATOR, dhKey: g.KeyOf(6), console: NewConsole(&out, true)}, a)
	client := goExchange(&keyExchange{role: ROLE_RESPONDER, dhKey: g.KeyOf(15)}, b)
	require.NoError(t, waitExchange(t, client).err)
	require.NoError(t, waitExchange(t, server).err)

	assert.Contains(t, out.String(), "p = 61 (modulus - public)")
	assert.Contains(t, out.String(), "g = 5 (generator - public)")
	assert.NotContains(t, out.String(), "D87FAE3E291B4C7F")
}

func TestKeyExchangeRandom(t *testing.T) {
	for i := 0; i < 16; i++ {
		a, b := net.Pipe()
		var ch = make(chan exchangeResult, 1)
		go func() {
			secret, err := KeyExchange(a, ROLE_INITIATOR, nil)
			ch <- exchangeResult{secret, err}
		}()
		secret, err := KeyExchange(b, ROLE_RESPONDER, nil)
		require.NoError(t, err)
		r := waitExchange(t, ch)
		require.NoError(t, r.err)
		assert.Equal(t, r.secret, secret)
		a.Close()
		b.Close()
	}
}

// the initiator must write before it reads
func TestInitiatorWritesFirst(t *testing.T) {
	var key = crypto.DefaultGroup.KeyOf(0x0123456789abcdef)
	var peer = crypto.DefaultGroup.KeyOf(0xfedcba9876543210)
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()

	res := goExchange(&keyExchange{role: ROLE_INITIATOR, dhKey: key}, a)

	b.SetReadDeadline(time.Now().Add(5 * time.Second))
	var buf = make([]byte, crypto.DH_PUB_LEN)
	_, err := io.ReadFull(b, buf)
	require.NoError(t, err)
	assert.Equal(t, key.ExportPubKey(), buf)

	_, err = b.Write(peer.ExportPubKey())
	require.NoError(t, err)

	r := waitExchange(t, res)
	require.NoError(t, r.err)
	assert.Equal(t, peer.SharedSecret(key.Public()), r.secret)
}

// the responder must read before it writes
func TestResponderReadsFirst(t *testing.T) {
	var key = crypto.DefaultGroup.KeyOf(42)
	var peer = crypto.DefaultGroup.KeyOf(4242)
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()

	res := goExchange(&keyExchange{role: ROLE_RESPONDER, dhKey: key}, a)

	// net.Pipe is unbuffered, this write completes only if the responder reads
	b.SetWriteDeadline(time.Now().Add(5 * time.Second))
	_, err := b.Write(peer.ExportPubKey())
	require.NoError(t, err)

	var buf = make([]byte, crypto.DH_PUB_LEN)
	_, err = io.ReadFull(b, buf)
	require.NoError(t, err)
	assert.Equal(t, key.ExportPubKey(), buf)

	r := waitExchange(t, res)
	require.NoError(t, r.err)
	assert.Equal(t, key.SharedSecret(peer.Public()), r.secret)
}

func TestKeyExchangeTruncated(t *testing.T) {
	a, b := net.Pipe()
	defer a.Close()

	res := goExchange(&keyExchange{role: ROLE_RESPONDER, dhKey: crypto.DefaultGroup.KeyOf(7)}, a)
	_, err := b.Write([]byte{1, 2, 3})
	require.NoError(t, err)
	b.Close()

	r := waitExchange(t, res)
	require.Error(t, r.err)
	assert.True(t, errors.Is(r.err, HANDSHAKE_FAILED), "%v", r.err)
	assert.True(t, errors.Is(r.err, io.ErrUnexpectedEOF), "%v", r.err)
}

func TestKeyExchangeIllegalRole(t *testing.T) {
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()
	kx := &keyExchange{role: Role(0), dhKey: crypto.DefaultGroup.KeyOf(7)}
	_, err := kx.exchange(a)
	assert.True(t, errors.Is(err, ILLEGAL_STATE))
}

func TestRole(t *testing.T) {
	assert.Equal(t, ROLE_RESPONDER, ROLE_INITIATOR.Peer())
	assert.Equal(t, ROLE_INITIATOR, ROLE_RESPONDER.Peer())
	assert.Equal(t, "SERVER", ROLE_INITIATOR.Label())
	assert.Equal(t, "CLIENT", ROLE_RESPONDER.Label())
	assert.Equal(t, "initiator", ROLE_INITIATOR.String())
}
