// Package localfactor computes ω_Q(p), the number of roots of Q modulo p, and
// the Euler factor
//
//	f(p) = (p − ω_Q(p)) / (p − 1)
//
// for the fixed polynomial Q(n) = n^47 − (n−1)^47.
//
// ω_Q(p) is obtained by an explicit regime split:
//
//	shielded  p < 283                      ω = 0   (closed form)
//	splitting p ≥ 283, p ≡ 1 (mod 47)       ω = 46  (closed form)
//	general   every other p ≥ 283           ω = gcd(47, p−1) − 1
//
// Roots r ≠ 0 correspond to x = (r−1)/r with x^47 = 1 and x ≠ 1, so ω is the
// number of non-trivial 47th roots of unity in F_p. Up to the configured scan
// limit every closed form is cross-checked against an exhaustive residue scan.
package localfactor

import (
	"math/big"

	"github.com/rewired-gh/batemanhorn/internal/models"
	"github.com/rewired-gh/batemanhorn/internal/polynomial"
	"github.com/rewired-gh/batemanhorn/internal/sieve"
)

// Engine computes local factors. It is safe for concurrent use.
type Engine struct {
	scanLimit int64
	primes    *sieve.Sieve
	scan      func(p int64) int
}

// New creates an Engine that cross-checks ω by exhaustive scan for every
// p ≤ scanLimit. A scanLimit below 2 disables the cross-check.
func New(scanLimit int64) *Engine {
	return &Engine{scanLimit: scanLimit, scan: countRoots}
}

// WithSieve lets the engine validate primality by sieve lookup for primes the
// sieve covers; larger inputs still go through a deterministic test.
func (e *Engine) WithSieve(s *sieve.Sieve) *Engine {
	e.primes = s
	return e
}

// ScanLimit returns the largest prime that is cross-checked by scanning.
func (e *Engine) ScanLimit() int64 {
	return e.scanLimit
}

// Classify returns the regime of p. p is assumed prime.
func Classify(p int64) models.Regime {
	switch {
	case p < polynomial.ShieldingThreshold:
		return models.RegimeShielded
	case (p-1)%polynomial.Exponent == 0:
		return models.RegimeSplitting
	default:
		return models.RegimeGeneral
	}
}

// Omega returns ω_Q(p).
func (e *Engine) Omega(p int64) (int, error) {
	if err := e.validate(p); err != nil {
		return 0, err
	}
	return e.omega(p)
}

// Factor returns the local factor of p.
func (e *Engine) Factor(p int64) (models.LocalFactor, error) {
	omega, err := e.Omega(p)
	if err != nil {
		return models.LocalFactor{}, err
	}
	return models.LocalFactor{
		Prime:  p,
		Omega:  omega,
		Value:  models.FactorValue(p, omega),
		Regime: Classify(p),
	}, nil
}

func (e *Engine) omega(p int64) (int, error) {
	var omega int
	regime := Classify(p)
	switch regime {
	case models.RegimeShielded:
		omega = 0
	case models.RegimeSplitting:
		omega = polynomial.Degree
	case models.RegimeGeneral:
		omega = rootsOfUnity(p) - 1
	}

	if omega < 0 || omega > polynomial.Degree {
		return 0, models.DegeneratePrime(models.StageLocalFactor, p, omega,
			"omega outside [0, %d] in %s", polynomial.Degree, regime)
	}

	if p <= e.scanLimit {
		scanned := e.scan(p)
		if scanned != omega {
			return 0, models.DegeneratePrime(models.StageLocalFactor, p, scanned,
				"residue scan disagrees with %s closed form %d", regime, omega)
		}
	}
	return omega, nil
}

// Scan counts the roots of Q mod p by evaluating every residue. It is O(p).
func Scan(p int64) (int, error) {
	if err := validatePrime(p, nil); err != nil {
		return 0, err
	}
	omega := countRoots(p)
	if omega > polynomial.Degree {
		return 0, models.DegeneratePrime(models.StageLocalFactor, p, omega,
			"scan found more roots than deg Q = %d", polynomial.Degree)
	}
	return omega, nil
}

func countRoots(p int64) int {
	n := 0
	for _, v := range polynomial.Residues(p) {
		if v == 0 {
			n++
		}
	}
	return n
}

// rootsOfUnity returns the number of x in F_p with x^47 = 1, gcd(47, p − 1).
func rootsOfUnity(p int64) int {
	if (p-1)%polynomial.Exponent == 0 {
		return polynomial.Exponent
	}
	return 1
}

func (e *Engine) validate(p int64) error {
	return validatePrime(p, e.primes)
}

func validatePrime(p int64, s *sieve.Sieve) error {
	if p < 2 {
		return models.InvalidInput(models.StageLocalFactor, "p", p, "prime must be at least 2")
	}
	var prime bool
	if s != nil && s.Covers(p) {
		prime = s.IsPrime(p)
	} else {
		// Baillie–PSW is exact below 2^64.
		prime = big.NewInt(p).ProbablyPrime(0)
	}
	if !prime {
		return models.InvalidInput(models.StageLocalFactor, "p", p, "input is not prime")
	}
	return nil
}
