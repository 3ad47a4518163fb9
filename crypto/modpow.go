package crypto

import (
	"math/bits"
)

// ModPow computes base^exponent mod modulus by square-and-multiply over the
// bits of exponent, low bit first. Products are kept in 128 bits.
// A zero modulus yields 0. A zero exponent yields 1 without reduction.
func ModPow(base, exponent, modulus uint64) uint64 {
	if modulus == 0 {
		return 0
	}
	var result uint64 = 1
	base %= modulus
	for exponent > 0 {
		if exponent&1 == 1 {
			result = mulMod(result, base, modulus)
		}
		base = mulMod(base, base, modulus)
		exponent >>= 1
	}
	return result
}

// (a * b) mod m with a double-width product
func mulMod(a, b, m uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	return bits.Rem64(hi, lo, m)
}
