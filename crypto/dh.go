package crypto

import (
	"crypto/rand"
	"encoding/binary"
	"io"

	"github.com/Lafeng/streamchat/exception"
)

const (
	DH_P uint64 = 0xD87FAE3E291B4C7F // 64-bit modulus
	DH_G uint64 = 2
	// length of an exported public value
	DH_PUB_LEN = 8
)

var (
	INVALID_PUBKEY = exception.New(0, "Invalid DH public value")
	DefaultGroup   = &Group{P: DH_P, G: DH_G}
)

// Group holds the public parameters of the exchange.
type Group struct {
	P, G uint64
}

// private value uniformly over the full 64-bit range
func (g *Group) GenerateKey(r io.Reader) (*DHKey, error) {
	if r == nil {
		r = rand.Reader
	}
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return nil, err
	}
	return g.KeyOf(binary.BigEndian.Uint64(buf[:])), nil
}

func (g *Group) KeyOf(priv uint64) *DHKey {
	return &DHKey{
		group: g,
		priv:  priv,
		pub:   ModPow(g.G, priv, g.P),
	}
}

// classical Diffie–Hellman–Merkle over 64-bit integers
type DHKey struct {
	group *Group
	priv  uint64
	pub   uint64
}

func (k *DHKey) Group() *Group {
	return k.group
}

func (k *DHKey) Private() uint64 {
	return k.priv
}

func (k *DHKey) Public() uint64 {
	return k.pub
}

// 8 bytes big-endian
func (k *DHKey) ExportPubKey() []byte {
	buf := make([]byte, DH_PUB_LEN)
	binary.BigEndian.PutUint64(buf, k.pub)
	return buf
}

func (k *DHKey) ComputeKey(bobPub []byte) (uint64, error) {
	if len(bobPub) != DH_PUB_LEN {
		return 0, INVALID_PUBKEY.Apply(len(bobPub))
	}
	return k.SharedSecret(binary.BigEndian.Uint64(bobPub)), nil
}

// peerPub^priv mod p
func (k *DHKey) SharedSecret(peerPub uint64) uint64 {
	return ModPow(peerPub, k.priv, k.group.P)
}
