package crypto

import (
	"encoding/binary"
	"fmt"

	"github.com/dchest/siphash"
)

const (
	fp_k0 uint64 = 0x73747265616d6368 // "streamch"
	fp_k1 uint64 = 0x61742d7365637265 // "at-secre"
)

// Fingerprint renders a short digest of the shared secret that both operators
// may compare out of band. It is not part of the wire protocol.
func Fingerprint(secret uint64) string {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], secret)
	h := siphash.Hash(fp_k0, fp_k1, buf[:])
	return fmt.Sprintf("%04x-%04x-%04x-%04x", h>>48, (h>>32)&0xffff, (h>>16)&0xffff, h&0xffff)
}
