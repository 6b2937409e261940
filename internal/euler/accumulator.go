// Package euler accumulates the truncated Euler product
//
//	C_Q(X) = ∏_{p ≤ X} (p − ω_Q(p)) / (p − 1)
//
// over local factors supplied in strictly increasing prime order, recording the
// running value at a list of truncation checkpoints.
//
// The product is conditionally convergent: below 283 every prime boosts it by
// p/(p−1); above 283 roughly one prime in 46 splits completely and contributes
// (p−46)/(p−1), which on average cancels the boost of the other 45. The
// relative change between consecutive checkpoints is the convergence metric.
package euler

import (
	"fmt"
	"math"
	"sort"

	"github.com/rewired-gh/batemanhorn/internal/models"
	"github.com/rewired-gh/batemanhorn/internal/polynomial"
)

// eulerGamma is the Euler–Mascheroni constant.
const eulerGamma = 0.57721566490153286061

// DefaultCeiling bounds |C| before the product is declared divergent.
const DefaultCeiling = 1e6

// Settings configures an Accumulator.
type Settings struct {
	// Checkpoints are truncation limits, strictly increasing.
	Checkpoints []int64
	// Tolerance is the largest relative delta allowed at the last checkpoint.
	// Zero disables the check.
	Tolerance float64
	// Ceiling is the divergence bound on |C|; zero means DefaultCeiling.
	Ceiling float64
}

// Accumulator is the running product state for one run. It is not safe for
// concurrent use.
type Accumulator struct {
	checkpoints []int64
	tolerance   float64
	ceiling     float64

	product   float64
	small     float64 // p < 283
	large     float64 // p ≥ 283
	splitting float64 // ω = 46 only

	lastPrime      int64
	count          int
	splittingCount int

	next  int
	table []models.Checkpoint
}

// Result is the finalized product of a run.
type Result struct {
	Constant        float64
	Truncation      int64
	Primes          int
	SplittingPrimes int
	Checkpoints     []models.Checkpoint

	// Small is ∏_{p<283} f(p), Large is ∏_{p≥283} f(p); Small·Large = Constant.
	Small float64
	Large float64
	// SplittingOnly is the product over splitting primes alone.
	SplittingOnly float64
}

// PerDegree returns C_Q / deg Q, the coefficient of Li(x) in the prediction.
func (r *Result) PerDegree() float64 {
	return r.Constant / polynomial.Degree
}

// Final returns the last recorded checkpoint, if any.
func (r *Result) Final() (models.Checkpoint, bool) {
	if len(r.Checkpoints) == 0 {
		return models.Checkpoint{}, false
	}
	return r.Checkpoints[len(r.Checkpoints)-1], true
}

// MertensApproximation returns e^γ · ln 283, Mertens' estimate of the product
// of p/(p−1) over p < 283.
func MertensApproximation() float64 {
	return math.Exp(eulerGamma) * math.Log(polynomial.ShieldingThreshold)
}

// NewAccumulator returns an accumulator seeded at 1.0.
func NewAccumulator(s Settings) (*Accumulator, error) {
	if !sort.SliceIsSorted(s.Checkpoints, func(i, j int) bool { return s.Checkpoints[i] < s.Checkpoints[j] }) {
		return nil, fmt.Errorf("checkpoints must be strictly increasing: %v", s.Checkpoints)
	}
	for i, cp := range s.Checkpoints {
		if cp < 2 {
			return nil, fmt.Errorf("checkpoint %d must be at least 2", cp)
		}
		if i > 0 && cp == s.Checkpoints[i-1] {
			return nil, fmt.Errorf("duplicate checkpoint %d", cp)
		}
	}
	if s.Tolerance < 0 {
		return nil, fmt.Errorf("tolerance must not be negative")
	}
	ceiling := s.Ceiling
	if ceiling <= 0 {
		ceiling = DefaultCeiling
	}

	return &Accumulator{
		checkpoints: append([]int64(nil), s.Checkpoints...),
		tolerance:   s.Tolerance,
		ceiling:     ceiling,
		product:     1.0,
		small:       1.0,
		large:       1.0,
		splitting:   1.0,
		table:       make([]models.Checkpoint, 0, len(s.Checkpoints)),
	}, nil
}

// Product returns the running value.
func (a *Accumulator) Product() float64 {
	return a.product
}

// LastPrime returns the largest prime consumed so far (0 before the first).
func (a *Accumulator) LastPrime() int64 {
	return a.lastPrime
}

// Count returns the number of primes consumed.
func (a *Accumulator) Count() int {
	return a.count
}

// Add multiplies one local factor into the product.
func (a *Accumulator) Add(f models.LocalFactor) error {
	if f.Prime <= a.lastPrime {
		return models.InvalidInput(models.StageEuler, "p", f.Prime,
			"primes must arrive in strictly increasing order (previous %d)", a.lastPrime)
	}
	if !(f.Value > 0) || math.IsInf(f.Value, 0) {
		return models.Convergence(models.StageEuler, "p", f.Prime, f.Value,
			"local factor must be positive")
	}
	if f.Omega < 0 || f.Omega > polynomial.Degree {
		return models.DegeneratePrime(models.StageEuler, f.Prime, f.Omega,
			"omega outside [0, %d]", polynomial.Degree)
	}

	// Every prime ≤ a pending checkpoint has been seen once a larger one arrives.
	for a.next < len(a.checkpoints) && a.checkpoints[a.next] < f.Prime {
		if err := a.record(a.checkpoints[a.next]); err != nil {
			return err
		}
		a.next++
	}

	a.product *= f.Value
	if f.Prime < polynomial.ShieldingThreshold {
		a.small *= f.Value
	} else {
		a.large *= f.Value
	}
	if f.Omega == polynomial.Degree {
		a.splitting *= f.Value
		a.splittingCount++
	}
	a.lastPrime = f.Prime
	a.count++

	if math.IsNaN(a.product) || math.Abs(a.product) > a.ceiling {
		return models.Convergence(models.StageEuler, "p", f.Prime, a.product,
			"product diverged beyond %g", a.ceiling)
	}
	return nil
}

// Finalize records every remaining checkpoint ≤ bound and returns the result.
// bound is the truncation limit: every prime ≤ bound must have been added.
func (a *Accumulator) Finalize(bound int64) (*Result, error) {
	if bound < a.lastPrime {
		return nil, models.InvalidInput(models.StageEuler, "p", a.lastPrime,
			"truncation bound %d is below the last prime consumed", bound)
	}
	for ; a.next < len(a.checkpoints); a.next++ {
		cp := a.checkpoints[a.next]
		if cp > bound {
			return nil, models.InvalidInput(models.StageEuler, "p", cp,
				"checkpoint beyond truncation bound %d", bound)
		}
		if err := a.record(cp); err != nil {
			return nil, err
		}
	}

	res := &Result{
		Constant:        a.product,
		Truncation:      bound,
		Primes:          a.count,
		SplittingPrimes: a.splittingCount,
		Checkpoints:     append([]models.Checkpoint(nil), a.table...),
		Small:           a.small,
		Large:           a.large,
		SplittingOnly:   a.splitting,
	}

	if last, ok := res.Final(); ok && last.HasPrevious && a.tolerance > 0 && last.RelativeDelta >= a.tolerance {
		return res, models.Convergence(models.StageEuler, "X", last.Truncation, last.RelativeDelta,
			"relative delta did not fall below tolerance %g", a.tolerance)
	}
	return res, nil
}

func (a *Accumulator) record(truncation int64) error {
	cp := models.Checkpoint{
		Truncation:      truncation,
		Value:           a.product,
		Primes:          a.count,
		SplittingPrimes: a.splittingCount,
	}
	if n := len(a.table); n > 0 {
		prev := a.table[n-1]
		cp.HasPrevious = true
		cp.RelativeDelta = math.Abs(cp.Value-prev.Value) / math.Abs(prev.Value)
	}
	if err := cp.Validate(); err != nil {
		return models.Convergence(models.StageEuler, "X", truncation, cp.Value, "invalid checkpoint: %v", err)
	}
	a.table = append(a.table, cp)
	return nil
}

// Replay recomputes the product from previously computed local factors,
// without recomputing ω. Factors must be in strictly increasing prime order.
func Replay(factors []models.LocalFactor) (float64, error) {
	if len(factors) == 0 {
		return 0, models.InvalidInput(models.StageReplay, "p", 0, "no local factors to replay")
	}
	acc, err := NewAccumulator(Settings{})
	if err != nil {
		return 0, err
	}
	for _, f := range factors {
		if err := acc.Add(f); err != nil {
			return 0, err
		}
	}
	res, err := acc.Finalize(acc.LastPrime())
	if err != nil {
		return 0, err
	}
	return res.Constant, nil
}
