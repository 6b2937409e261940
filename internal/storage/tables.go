package storage

import (
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/rewired-gh/batemanhorn/internal/localfactor"
	"github.com/rewired-gh/batemanhorn/internal/models"
	"github.com/rewired-gh/batemanhorn/internal/polynomial"
)

// Mode selects which local factors are written.
type Mode string

const (
	// ModeFull writes every prime up to the truncation bound.
	ModeFull Mode = "full"
	// ModeSummary writes the shielded primes and the first splitting primes.
	ModeSummary Mode = "summary"
)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeFull, ModeSummary:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("unknown local factor mode %q (want %q or %q)", s, ModeFull, ModeSummary)
	}
}

var (
	localFactorsHeader = []string{"Prime_p", "omega_Q", "Factor", "Type"}
	convergenceHeader  = []string{"Truncation_X", "C_Q", "Relative_delta", "Num_splitting_primes"}
	primeCountsHeader  = []string{"x", "Observed_piQ", "Predicted", "Li_x", "Absolute_Error", "Relative_Error_pct"}
)

// formatFloat renders f as the shortest plain decimal that parses back to
// the same float64.
func formatFloat(f float64) string {
	return decimal.NewFromFloat(f).String()
}

// SelectLocalFactors returns the rows written under mode. In summary mode it
// keeps primes below 283 and the first splittingRows splitting primes.
func SelectLocalFactors(factors []models.LocalFactor, mode Mode, splittingRows int) []models.LocalFactor {
	if mode != ModeSummary {
		return factors
	}
	out := make([]models.LocalFactor, 0, polynomial.ShieldingThreshold/4+splittingRows)
	splitting := 0
	for _, f := range factors {
		switch {
		case f.Prime < polynomial.ShieldingThreshold:
			out = append(out, f)
		case f.Omega == polynomial.Degree && splitting < splittingRows:
			out = append(out, f)
			splitting++
		}
	}
	return out
}

// WriteLocalFactors writes local_factors.csv, ascending by prime.
func (s *Store) WriteLocalFactors(comment string, factors []models.LocalFactor) error {
	return s.save(LocalFactorsFile, comment, localFactorsHeader, func(w *csv.Writer) error {
		rec := make([]string, len(localFactorsHeader))
		for i := range factors {
			f := &factors[i]
			rec[0] = strconv.FormatInt(f.Prime, 10)
			rec[1] = strconv.Itoa(f.Omega)
			rec[2] = formatFloat(f.Value)
			rec[3] = f.Type()
			if err := w.Write(rec); err != nil {
				return fmt.Errorf("failed to write p=%d: %w", f.Prime, err)
			}
		}
		return nil
	})
}

// ReadLocalFactors reads local_factors.csv back. Rows must be in strictly
// increasing prime order and pass validation.
func (s *Store) ReadLocalFactors() ([]models.LocalFactor, error) {
	var out []models.LocalFactor
	err := s.load(LocalFactorsFile, localFactorsHeader, func(_ int, rec []string) error {
		p, err := strconv.ParseInt(rec[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid prime %q: %w", rec[0], err)
		}
		omega, err := strconv.Atoi(rec[1])
		if err != nil {
			return fmt.Errorf("invalid omega %q: %w", rec[1], err)
		}
		value, err := strconv.ParseFloat(rec[2], 64)
		if err != nil {
			return fmt.Errorf("invalid factor %q: %w", rec[2], err)
		}
		f := models.LocalFactor{Prime: p, Omega: omega, Value: value, Regime: localfactor.Classify(p)}
		if err := f.Validate(); err != nil {
			return models.InvalidInput(models.StageReplay, "p", p, "%v", err)
		}
		if n := len(out); n > 0 && p <= out[n-1].Prime {
			return models.InvalidInput(models.StageReplay, "p", p,
				"rows must be in increasing prime order (previous %d)", out[n-1].Prime)
		}
		out = append(out, f)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// WriteConvergence writes convergence.csv. The first checkpoint has an
// empty delta.
func (s *Store) WriteConvergence(comment string, checkpoints []models.Checkpoint) error {
	return s.save(ConvergenceFile, comment, convergenceHeader, func(w *csv.Writer) error {
		for _, cp := range checkpoints {
			delta := ""
			if cp.HasPrevious {
				delta = formatFloat(cp.RelativeDelta)
			}
			rec := []string{
				strconv.FormatInt(cp.Truncation, 10),
				formatFloat(cp.Value),
				delta,
				strconv.Itoa(cp.SplittingPrimes),
			}
			if err := w.Write(rec); err != nil {
				return fmt.Errorf("failed to write X=%d: %w", cp.Truncation, err)
			}
		}
		return nil
	})
}

// ReadConvergence reads convergence.csv back. Prime counts are not stored
// and come back as zero.
func (s *Store) ReadConvergence() ([]models.Checkpoint, error) {
	var out []models.Checkpoint
	err := s.load(ConvergenceFile, convergenceHeader, func(_ int, rec []string) error {
		x, err := strconv.ParseInt(rec[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid truncation %q: %w", rec[0], err)
		}
		value, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			return fmt.Errorf("invalid C_Q %q: %w", rec[1], err)
		}
		cp := models.Checkpoint{Truncation: x, Value: value}
		if rec[2] != "" {
			cp.HasPrevious = true
			if cp.RelativeDelta, err = strconv.ParseFloat(rec[2], 64); err != nil {
				return fmt.Errorf("invalid delta %q: %w", rec[2], err)
			}
		}
		if cp.SplittingPrimes, err = strconv.Atoi(rec[3]); err != nil {
			return fmt.Errorf("invalid splitting count %q: %w", rec[3], err)
		}
		out = append(out, cp)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// WritePrimeCounts writes prime_counts.csv. Predicted, Li and the absolute
// error are rounded to four places; the relative error is a percentage
// rounded to four places.
func (s *Store) WritePrimeCounts(comment string, records []models.PrimeCountRecord) error {
	return s.save(PrimeCountsFile, comment, primeCountsHeader, func(w *csv.Writer) error {
		for _, r := range records {
			pct := decimal.NewFromFloat(r.RelativeError).Shift(2).Round(4)
			rec := []string{
				strconv.FormatInt(r.X, 10),
				strconv.Itoa(r.Observed),
				decimal.NewFromFloat(r.Predicted).Round(4).String(),
				decimal.NewFromFloat(r.Li).Round(4).String(),
				decimal.NewFromFloat(r.AbsoluteError).Round(4).String(),
				pct.String(),
			}
			if err := w.Write(rec); err != nil {
				return fmt.Errorf("failed to write x=%d: %w", r.X, err)
			}
		}
		return nil
	})
}
