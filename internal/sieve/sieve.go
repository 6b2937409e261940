// Package sieve generates primes with the sieve of Eratosthenes over a
// packed bit vector (one bit per integer, set = composite).
package sieve

import (
	"fmt"
	"math"
)

// Sieve holds primality for every integer in [0, limit].
type Sieve struct {
	composite []uint64
	limit     int64
}

// New sieves [0, limit]. limit must be non-negative.
func New(limit int64) (*Sieve, error) {
	if limit < 0 {
		return nil, fmt.Errorf("invalid sieve limit %d: must be non-negative", limit)
	}

	s := &Sieve{
		composite: make([]uint64, (limit+64)/64),
		limit:     limit,
	}
	s.set(0)
	if limit >= 1 {
		s.set(1)
	}
	for i := int64(2); i*i <= limit; i++ {
		if s.get(i) {
			continue
		}
		for j := i * i; j <= limit; j += i {
			s.set(j)
		}
	}
	return s, nil
}

// Limit returns the largest integer covered.
func (s *Sieve) Limit() int64 {
	return s.limit
}

// Covers reports whether n is within the sieved range.
func (s *Sieve) Covers(n int64) bool {
	return n >= 0 && n <= s.limit
}

// IsPrime reports whether n is prime. n must be covered by the sieve.
func (s *Sieve) IsPrime(n int64) bool {
	if !s.Covers(n) {
		panic(fmt.Sprintf("sieve.IsPrime: %d outside [0, %d]", n, s.limit))
	}
	return !s.get(n)
}

// Primes returns every prime ≤ limit in ascending order.
func (s *Sieve) Primes() []int64 {
	primes := make([]int64, 0, estimateCount(s.limit))
	for n := int64(2); n <= s.limit; n++ {
		if !s.get(n) {
			primes = append(primes, n)
		}
	}
	return primes
}

// Primes is a convenience wrapper returning every prime ≤ limit. It returns
// nil for limits below 2 and an error for negative ones.
func Primes(limit int64) ([]int64, error) {
	s, err := New(limit)
	if err != nil {
		return nil, err
	}
	if limit < 2 {
		return nil, nil
	}
	return s.Primes(), nil
}

func (s *Sieve) set(n int64) {
	s.composite[n/64] |= 1 << uint(n%64)
}

func (s *Sieve) get(n int64) bool {
	return s.composite[n/64]&(1<<uint(n%64)) != 0
}

// estimateCount over-approximates π(n) to size the output slice.
func estimateCount(n int64) int {
	if n < 17 {
		return 7
	}
	// π(n) < 1.26 n / ln n for n > 1
	return int(1.26*float64(n)/math.Log(float64(n))) + 1
}
