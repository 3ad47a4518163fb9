package crypto

const (
	LCG_A uint64 = 1103515245
	LCG_C uint64 = 12345
	LCG_M uint64 = 1 << 32
)

// Keystream is an infinite, forward-only byte sequence derived from a seed
//   state' = (A * state + C) mod 2^32
//   byte   = state' & 0xff
// To reproduce a prefix, build a new Keystream from the same seed.
type Keystream struct {
	state uint64
}

func NewKeystream(seed uint64) *Keystream {
	return &Keystream{state: seed}
}

func (k *Keystream) Next() byte {
	k.state = (LCG_A*k.state + LCG_C) & (LCG_M - 1)
	return byte(k.state)
}

// discard the next n outputs
func (k *Keystream) Skip(n int) {
	for ; n > 0; n-- {
		k.Next()
	}
}

// XORKeyStream implements cipher.Stream.
func (k *Keystream) XORKeyStream(dst, src []byte) {
	if len(dst) < len(src) {
		panic("crypto/lcg: output smaller than input")
	}
	for i, b := range src {
		dst[i] = b ^ k.Next()
	}
}

// first n bytes of the keystream of seed
func Preview(seed uint64, n int) []byte {
	return PreviewAt(seed, 0, n)
}

// n bytes of the keystream of seed starting at position offset
func PreviewAt(seed uint64, offset, n int) []byte {
	k := NewKeystream(seed)
	k.Skip(offset)
	buf := make([]byte, n)
	k.XORKeyStream(buf, buf)
	return buf
}
