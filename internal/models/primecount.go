package models

import (
	"errors"
	"math"
)

// PrimeCountRecord compares π_Q(x) = #{n ≤ x : Q(n) prime} with the
// Bateman–Horn prediction (C_Q/46)·Li(x). Read-only after creation.
type PrimeCountRecord struct {
	X             int64   `json:"x"`
	Observed      int     `json:"observed"`
	Predicted     float64 `json:"predicted"`
	Li            float64 `json:"li"`
	AbsoluteError float64 `json:"absolute_error"` // predicted − observed
	RelativeError float64 `json:"relative_error"` // (predicted − observed)/observed, 0 when observed = 0
}

// NewPrimeCountRecord derives the prediction and its absolute and relative
// error.
func NewPrimeCountRecord(x int64, observed int, coefficient, li float64) PrimeCountRecord {
	pred := coefficient * li
	relErr := 0.0
	if observed > 0 {
		relErr = (pred - float64(observed)) / float64(observed)
	}
	return PrimeCountRecord{
		X:             x,
		Observed:      observed,
		Predicted:     pred,
		Li:            li,
		AbsoluteError: pred - float64(observed),
		RelativeError: relErr,
	}
}

// Validate checks that all record fields are valid
func (r *PrimeCountRecord) Validate() error {
	if r.X < 1 {
		return errors.New("x must be at least 1")
	}
	if r.Observed < 0 || int64(r.Observed) > r.X {
		return errors.New("observed count must be between 0 and x")
	}
	if r.Predicted < 0 || math.IsNaN(r.Predicted) || math.IsInf(r.Predicted, 0) {
		return errors.New("predicted count must be finite and non-negative")
	}
	if r.Li < 0 || math.IsNaN(r.Li) {
		return errors.New("Li(x) must not be negative")
	}
	return nil
}
