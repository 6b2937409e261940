// Package models defines the data entities shared by the verification stages.
// These models represent local Euler factors, convergence checkpoints of the
// truncated product, and observed-vs-predicted prime counts.
// All models include built-in validation to ensure data integrity throughout the application.
//
// Terminology:
//   - Shielded prime: ω(p) = 0, the factor p/(p−1) boosts the product.
//   - Splitting prime: ω(p) = deg Q = 46, the factor (p−46)/(p−1) suppresses it.
package models

import (
	"errors"
	"math"

	"github.com/rewired-gh/batemanhorn/internal/polynomial"
)

// Regime tags how ω(p) is obtained for a prime.
type Regime int

const (
	// RegimeShielded covers p below the shielding threshold: ω = 0 in closed form.
	RegimeShielded Regime = iota
	// RegimeSplitting covers p ≥ 283 with p ≡ 1 (mod 47): ω = 46 in closed form.
	RegimeSplitting
	// RegimeGeneral covers every other p ≥ 283.
	RegimeGeneral
)

func (r Regime) String() string {
	switch r {
	case RegimeShielded:
		return "shielded-range"
	case RegimeSplitting:
		return "splitting-range"
	case RegimeGeneral:
		return "general-range"
	default:
		return "unknown"
	}
}

// LocalFactor is the Euler-product term of a single prime.
type LocalFactor struct {
	Prime  int64   `json:"prime"`
	Omega  int     `json:"omega"`
	Value  float64 `json:"factor"` // (p − ω)/(p − 1)
	Regime Regime  `json:"regime"`
}

// FactorValue returns (p − ω)/(p − 1).
func FactorValue(p int64, omega int) float64 {
	return float64(p-int64(omega)) / float64(p-1)
}

// Type is the CSV label of the factor.
func (f *LocalFactor) Type() string {
	switch {
	case f.Omega == polynomial.Degree:
		return "splitting"
	case f.Omega == 0 && f.Prime < polynomial.ShieldingThreshold:
		return "shielded"
	case f.Omega == 0:
		return "inert"
	default:
		return "partial"
	}
}

// Validate checks that all factor fields are valid
func (f *LocalFactor) Validate() error {
	if f.Prime < 2 {
		return errors.New("prime must be at least 2")
	}
	if f.Omega < 0 || f.Omega > polynomial.Degree {
		return errors.New("omega must be between 0 and deg Q")
	}
	if !(f.Value > 0) || math.IsInf(f.Value, 0) {
		return errors.New("factor must be positive and finite")
	}
	return nil
}
