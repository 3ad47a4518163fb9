package tunnel

import (
	"testing"

	"github.com/Lafeng/streamchat/crypto"
	"github.com/stretchr/testify/assert"
)

func TestCipherSessionXor(t *testing.T) {
	// the first key byte of seed 5 is 0x5A
	var s = NewCipherSession(5)
	out, key := s.Encrypt([]byte{0x41})
	assert.Equal(t, []byte{0x5A}, key)
	assert.Equal(t, []byte{0x1B}, out)
	assert.EqualValues(t, 1, s.Position())
}

func TestCipherSessionPosition(t *testing.T) {
	const secret = 0x1122334455667788
	var s = NewCipherSession(secret)
	var m1, m2 = []byte("hello"), []byte("streamchat world")
	var expected = crypto.Preview(secret, len(m1)+len(m2))

	_, k1 := s.Encrypt(m1)
	assert.EqualValues(t, len(m1), s.Position())
	_, k2 := s.Encrypt(m2)
	assert.EqualValues(t, len(m1)+len(m2), s.Position())

	// [0, L1) then [L1, L1+L2), nothing reused
	assert.Equal(t, expected[:len(m1)], k1)
	assert.Equal(t, expected[len(m1):], k2)
}

func TestCipherSessionEmpty(t *testing.T) {
	var s = NewCipherSession(1)
	out, key := s.Encrypt(nil)
	assert.Empty(t, out)
	assert.Empty(t, key)
	assert.Zero(t, s.Position())
}

func TestCipherKitRoundTrip(t *testing.T) {
	const secret = 0xD87FAE3E291B4C7F
	var alice, bob = NewXORCipherKit(secret), NewXORCipherKit(secret)
	var msgs = []string{"hi", "how are you", "", "bye"}
	for _, m := range msgs {
		c, _ := alice.encrypt([]byte(m))
		p, _ := bob.decrypt(c)
		assert.Equal(t, m, string(p))
	}
	// the other direction starts from position zero, independent of the first
	c, key := bob.encrypt([]byte("back"))
	assert.Equal(t, crypto.Preview(secret, 4), key)
	p, _ := alice.decrypt(c)
	assert.Equal(t, "back", string(p))
	assert.EqualValues(t, 4, bob.enc.Position())
	assert.EqualValues(t, 16, bob.dec.Position())
}
