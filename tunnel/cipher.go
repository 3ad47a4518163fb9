package tunnel

import (
	"crypto/cipher"

	"github.com/Lafeng/streamchat/crypto"
	log "github.com/Lafeng/streamchat/glog"
)

// CipherSession is one direction of the chat: a keystream and the number of
// bytes consumed from it. A session is owned by a single loop, so it is not
// locked; keystream positions are never reused.
type CipherSession struct {
	stream   cipher.Stream
	position uint64
}

func NewCipherSession(secret uint64) *CipherSession {
	return &CipherSession{stream: crypto.NewKeystream(secret)}
}

// bytes consumed so far, which is also the position of the next key byte
func (s *CipherSession) Position() uint64 {
	return s.position
}

// Apply XORs src with the next len(src) keystream bytes and returns the
// result along with the key bytes used.
func (s *CipherSession) Apply(src []byte) (out, key []byte) {
	// keystream over zeros is the key itself
	key = make([]byte, len(src))
	s.stream.XORKeyStream(key, key)
	out = make([]byte, len(src))
	for i, b := range src {
		out[i] = b ^ key[i]
	}
	s.position += uint64(len(src))
	if log.V(log.LV_KEY_BYTE) {
		log.Infof("keystream [% x] now at %d\n", key, s.position)
	}
	return
}

func (s *CipherSession) Encrypt(plain []byte) (ciphertext, key []byte) {
	return s.Apply(plain)
}

func (s *CipherSession) Decrypt(ciphertext []byte) (plain, key []byte) {
	return s.Apply(ciphertext)
}

// XORCipherKit pairs the send and receive sessions of a chat.
// Both start from the same secret and advance independently.
type XORCipherKit struct {
	enc *CipherSession
	dec *CipherSession
}

func NewXORCipherKit(secret uint64) *XORCipherKit {
	return &XORCipherKit{
		enc: NewCipherSession(secret),
		dec: NewCipherSession(secret),
	}
}

func (c *XORCipherKit) encrypt(src []byte) (out, key []byte) {
	return c.enc.Encrypt(src)
}

func (c *XORCipherKit) decrypt(src []byte) (out, key []byte) {
	return c.dec.Decrypt(src)
}
