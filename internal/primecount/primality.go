package primecount

import (
	"math/big"
)

// smallPrimes doubles as the trial-division table and the Miller–Rabin
// witness set {2, …, 37}.
var smallPrimes = []int64{2, 3, 5, 7, 11, 13, 17, 19, 23, 29, 31, 37}

var (
	bigOne = big.NewInt(1)
	bigTwo = big.NewInt(2)
)

// IsPrime reports whether v is prime. The test chains trial division by
// smallPrimes, Miller–Rabin with the fixed witnesses 2..37 and finally
// Baillie–PSW (big.Int.ProbablyPrime(0)); v is prime only if every stage
// agrees. The result is deterministic for a given v.
func IsPrime(v *big.Int) bool {
	if v.Cmp(bigTwo) < 0 {
		return false
	}

	var rem big.Int
	for _, p := range smallPrimes {
		bp := big.NewInt(p)
		if v.Cmp(bp) == 0 {
			return true
		}
		if rem.Rem(v, bp).Sign() == 0 {
			return false
		}
	}

	if !millerRabin(v) {
		return false
	}
	return v.ProbablyPrime(0)
}

// millerRabin runs strong-probable-prime tests for every witness in
// smallPrimes. v must be odd and larger than 37.
func millerRabin(v *big.Int) bool {
	d := new(big.Int).Sub(v, bigOne)
	nm1 := new(big.Int).Set(d)
	s := 0
	for d.Bit(0) == 0 {
		d.Rsh(d, 1)
		s++
	}

	x := new(big.Int)
	for _, a := range smallPrimes {
		x.Exp(big.NewInt(a), d, v)
		if x.Cmp(bigOne) == 0 || x.Cmp(nm1) == 0 {
			continue
		}
		composite := true
		for r := 1; r < s; r++ {
			x.Mul(x, x).Mod(x, v)
			if x.Cmp(nm1) == 0 {
				composite = false
				break
			}
		}
		if composite {
			return false
		}
	}
	return true
}
