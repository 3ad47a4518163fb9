package tunnel

import (
	"io"

	"github.com/Lafeng/streamchat/crypto"
	log "github.com/Lafeng/streamchat/glog"
)

// Role decides who speaks first in the key exchange.
type Role uint32

const (
	ROLE_INITIATOR Role = 1 // server side, writes first
	ROLE_RESPONDER Role = 2 // client side, reads first
)

func (r Role) String() string {
	switch r {
	case ROLE_INITIATOR:
		return "initiator"
	case ROLE_RESPONDER:
		return "responder"
	}
	return "unknown"
}

func (r Role) Peer() Role {
	if r == ROLE_INITIATOR {
		return ROLE_RESPONDER
	}
	return ROLE_INITIATOR
}

// operator-facing name
func (r Role) Label() string {
	if r == ROLE_INITIATOR {
		return "SERVER"
	}
	return "CLIENT"
}

type keyExchange struct {
	role    Role
	dhKey   *crypto.DHKey
	console *Console
}

// KeyExchange agrees on a shared secret with the peer on the other end of rw.
// The initiator sends its public value and then reads the peer's, the
// responder does the opposite; both sides doing the same would deadlock.
func KeyExchange(rw io.ReadWriter, role Role, console *Console) (uint64, error) {
	dhKey, err := crypto.DefaultGroup.GenerateKey(nil)
	if err != nil {
		return 0, HANDSHAKE_FAILED.Apply(err)
	}
	kx := &keyExchange{
		role:    role,
		dhKey:   dhKey,
		console: console,
	}
	return kx.exchange(rw)
}

func (kx *keyExchange) exchange(rw io.ReadWriter) (secret uint64, err error) {
	var (
		c       = kx.console
		group   = kx.dhKey.Group()
		peerPub []byte
	)
	c.Traceln("[DH] Starting key exchange...")
	c.Tracef("p = %X (modulus - public)\n", group.P)
	c.Tracef("g = %d (generator - public)\n", group.G)
	c.Tracef("private_key = %X (random 64-bit)\n", kx.dhKey.Private())
	c.Tracef("public_key = %d^private_key mod p = %X\n", group.G, kx.dhKey.Public())

	switch kx.role {
	case ROLE_INITIATOR:
		if err = kx.sendPub(rw); err == nil {
			peerPub, err = kx.recvPub(rw)
		}
	case ROLE_RESPONDER:
		if peerPub, err = kx.recvPub(rw); err == nil {
			err = kx.sendPub(rw)
		}
	default:
		return 0, ILLEGAL_STATE.Apply(kx.role)
	}
	if err != nil {
		return 0, HANDSHAKE_FAILED.Apply(err)
	}

	secret, err = kx.dhKey.ComputeKey(peerPub)
	if err != nil {
		return 0, HANDSHAKE_FAILED.Apply(err)
	}
	c.Traceln("[DH] Computing shared secret...")
	c.Tracef("secret = (their_public)^(our_private) mod p = %X\n", secret)
	c.Tracef("[VERIFY] Fingerprint %s, compare it with your peer\n", crypto.Fingerprint(secret))
	if log.V(log.LV_HANDSHAKE) {
		log.Infof("Key exchange done as %s, fingerprint=%s\n", kx.role, crypto.Fingerprint(secret))
	}
	return secret, nil
}

func (kx *keyExchange) sendPub(w io.Writer) error {
	kx.console.Tracef("[NETWORK] Sending public key (%d bytes): %X\n", crypto.DH_PUB_LEN, kx.dhKey.Public())
	_, err := w.Write(kx.dhKey.ExportPubKey())
	return err
}

func (kx *keyExchange) recvPub(r io.Reader) ([]byte, error) {
	buf := make([]byte, crypto.DH_PUB_LEN)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	kx.console.Tracef("[NETWORK] Received public key (%d bytes): % X\n", len(buf), buf)
	return buf, nil
}
