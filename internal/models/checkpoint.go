package models

import (
	"errors"
	"math"
)

// Checkpoint is the running Euler product at a truncation limit X, recorded
// once every prime ≤ X has been consumed.
type Checkpoint struct {
	Truncation      int64   `json:"truncation"`
	Value           float64 `json:"value"`
	RelativeDelta   float64 `json:"relative_delta"` // |C(X) − C(X_prev)| / |C(X_prev)|
	HasPrevious     bool    `json:"has_previous"`   // false for the first checkpoint
	Primes          int     `json:"primes"`
	SplittingPrimes int     `json:"splitting_primes"`
}

// Validate checks that all checkpoint fields are valid
func (c *Checkpoint) Validate() error {
	if c.Truncation < 2 {
		return errors.New("truncation must be at least 2")
	}
	if !(c.Value > 0) || math.IsInf(c.Value, 0) {
		return errors.New("value must be positive and finite")
	}
	if c.RelativeDelta < 0 || math.IsNaN(c.RelativeDelta) {
		return errors.New("relative delta must not be negative")
	}
	if !c.HasPrevious && c.RelativeDelta != 0 {
		return errors.New("first checkpoint must not carry a delta")
	}
	if c.SplittingPrimes < 0 || c.SplittingPrimes > c.Primes {
		return errors.New("splitting primes must be between 0 and primes")
	}
	return nil
}
