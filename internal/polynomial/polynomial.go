// Package polynomial evaluates the fixed polynomial
//
//	Q(n) = n^47 − (n−1)^47
//
// over the integers (arbitrary precision) and modulo a prime. Q has degree 46
// and leading coefficient 47; it is not configurable.
package polynomial

import (
	"math/big"
	"math/bits"
)

const (
	// Exponent is the power in n^47 − (n−1)^47.
	Exponent = 47
	// Degree is deg(Q); the n^47 terms cancel.
	Degree = Exponent - 1
	// LeadingCoefficient is the coefficient of n^46.
	LeadingCoefficient = Exponent
	// ShieldingThreshold is the smallest prime p ≡ 1 (mod 47). Every prime
	// below it has no root of Q.
	ShieldingThreshold = 283
)

var bigExponent = big.NewInt(Exponent)

// Value returns Q(n) as an arbitrary-precision integer.
func Value(n int64) *big.Int {
	return ValueInto(new(big.Int), n)
}

// ValueInto stores Q(n) in z and returns z.
func ValueInto(z *big.Int, n int64) *big.Int {
	a := new(big.Int).Exp(big.NewInt(n), bigExponent, nil)
	b := new(big.Int).Exp(big.NewInt(n-1), bigExponent, nil)
	return z.Sub(a, b)
}

// Mod returns Q(r) mod p for p ≥ 2, as a value in [0, p).
func Mod(r, p int64) int64 {
	m := uint64(p)
	a := PowMod(reduce(r, p), Exponent, m)
	b := PowMod(reduce(r-1, p), Exponent, m)
	return int64((a + m - b) % m)
}

// Residues returns Q(r) mod p for every r in [0, p). Each r^47 is computed
// once and reused for the (r+1) term.
func Residues(p int64) []int64 {
	m := uint64(p)
	out := make([]int64, p)
	prev := PowMod(uint64(p-1), Exponent, m) // (0 − 1)^47 mod p
	for r := int64(0); r < p; r++ {
		cur := PowMod(uint64(r), Exponent, m)
		out[r] = int64((cur + m - prev) % m)
		prev = cur
	}
	return out
}

// PowMod computes b^e mod m without overflow for any 64-bit modulus.
func PowMod(b, e, m uint64) uint64 {
	if m == 1 {
		return 0
	}
	result := uint64(1)
	b %= m
	for e > 0 {
		if e&1 == 1 {
			result = mulMod(result, b, m)
		}
		b = mulMod(b, b, m)
		e >>= 1
	}
	return result
}

func mulMod(a, b, m uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	return bits.Rem64(hi, lo, m)
}

func reduce(r, p int64) uint64 {
	r %= p
	if r < 0 {
		r += p
	}
	return uint64(r)
}
