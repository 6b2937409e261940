// Package shielding proves, by exhaustive residue scans, that Q has no root
// modulo any prime below 283 and that every prime p ≡ 1 (mod 47) up to a bound
// splits completely (ω = 46).
//
// Two mechanisms keep the small primes root-free. When (p−1) | 46, Fermat's
// little theorem gives n^47 ≡ n for every n, so Q(n) ≡ 1: the prime is rigid.
// Otherwise x ↦ x^47 is a bijection of F_p (p ≢ 1 mod 47) and the only
// solution of x^47 = 1 is x = 1, which no root can reach: the prime is inert.
package shielding

import (
	"context"
	"fmt"

	"github.com/rewired-gh/batemanhorn/internal/localfactor"
	"github.com/rewired-gh/batemanhorn/internal/models"
	"github.com/rewired-gh/batemanhorn/internal/polynomial"
	"github.com/rewired-gh/batemanhorn/internal/sieve"
)

// DefaultSplittingBound is the default upper limit for the splitting scan.
const DefaultSplittingBound = 6300

// Mechanism explains why a shielded prime has no root.
type Mechanism string

const (
	MechanismFermat Mechanism = "fermat-rigid"
	MechanismInert  Mechanism = "inert"
)

// PrimeResult is the scan outcome for one prime.
type PrimeResult struct {
	Prime     int64
	Omega     int
	Rigid     bool // Q(n) ≡ 1 for every residue n
	Mechanism Mechanism
}

// Report is the outcome of a shielding verification.
type Report struct {
	Shielded []PrimeResult

	Rigid        []int64
	FermatRigid  []int64
	Inert        int
	Unexplained  []int64 // rigid without (p−1) | 46, or Fermat-rigid but not rigid
	RootsFoundAt []int64 // shielded primes with ω ≠ 0

	FirstSplitting      int64
	FirstSplittingOmega int

	SplittingBound    int64
	SplittingScanned  int
	SplittingFailures []int64 // p ≡ 1 (mod 47) with ω ≠ 46
}

// Passed reports whether every check held.
func (r *Report) Passed() bool {
	return r.Err() == nil
}

// Err returns a DegeneratePrime error naming the first failing prime, or nil.
func (r *Report) Err() error {
	if len(r.RootsFoundAt) > 0 {
		p := r.RootsFoundAt[0]
		return models.DegeneratePrime(models.StageShielding, p, r.omegaOf(p),
			"Q has a root modulo a prime below %d", polynomial.ShieldingThreshold)
	}
	if len(r.Unexplained) > 0 {
		return models.DegeneratePrime(models.StageShielding, r.Unexplained[0], 0,
			"rigidity does not match (p-1) | %d", polynomial.Degree)
	}
	if r.FirstSplitting != polynomial.ShieldingThreshold || r.FirstSplittingOmega != polynomial.Degree {
		return models.DegeneratePrime(models.StageShielding, r.FirstSplitting, r.FirstSplittingOmega,
			"first prime ≡ 1 (mod %d) should be %d with omega %d",
			polynomial.Exponent, polynomial.ShieldingThreshold, polynomial.Degree)
	}
	if len(r.SplittingFailures) > 0 {
		p := r.SplittingFailures[0]
		omega, _ := localfactor.Scan(p)
		return models.DegeneratePrime(models.StageShielding, p, omega,
			"prime ≡ 1 (mod %d) does not split completely", polynomial.Exponent)
	}
	return nil
}

func (r *Report) omegaOf(p int64) int {
	for _, s := range r.Shielded {
		if s.Prime == p {
			return s.Omega
		}
	}
	return -1
}

// Verify scans every prime below 283 and every prime p ≡ 1 (mod 47) up to
// splittingBound. The returned error is non-nil only for invalid arguments or
// cancellation; check failures are reported through Report.Err.
func Verify(ctx context.Context, splittingBound int64) (*Report, error) {
	if splittingBound < polynomial.ShieldingThreshold {
		return nil, models.InvalidInput(models.StageShielding, "p", splittingBound,
			"splitting bound must be at least %d", polynomial.ShieldingThreshold)
	}
	primes, err := sieve.New(splittingBound)
	if err != nil {
		return nil, fmt.Errorf("sieving to %d: %w", splittingBound, err)
	}

	r := &Report{SplittingBound: splittingBound}
	for _, p := range primes.Primes() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if p < polynomial.ShieldingThreshold {
			r.addShielded(scanShielded(p))
			continue
		}
		if localfactor.Classify(p) != models.RegimeSplitting {
			continue
		}
		omega, err := localfactor.Scan(p)
		if err != nil {
			return nil, err
		}
		if r.FirstSplitting == 0 {
			r.FirstSplitting = p
			r.FirstSplittingOmega = omega
		}
		r.SplittingScanned++
		if omega != polynomial.Degree {
			r.SplittingFailures = append(r.SplittingFailures, p)
		}
	}
	return r, nil
}

func scanShielded(p int64) PrimeResult {
	res := PrimeResult{Prime: p, Rigid: true}
	for _, v := range polynomial.Residues(p) {
		if v == 0 {
			res.Omega++
		}
		if v != 1 {
			res.Rigid = false
		}
	}
	if polynomial.Degree%(p-1) == 0 {
		res.Mechanism = MechanismFermat
	} else {
		res.Mechanism = MechanismInert
	}
	return res
}

func (r *Report) addShielded(res PrimeResult) {
	r.Shielded = append(r.Shielded, res)
	if res.Omega != 0 {
		r.RootsFoundAt = append(r.RootsFoundAt, res.Prime)
	}
	if res.Rigid {
		r.Rigid = append(r.Rigid, res.Prime)
	}
	switch res.Mechanism {
	case MechanismFermat:
		r.FermatRigid = append(r.FermatRigid, res.Prime)
		if !res.Rigid {
			r.Unexplained = append(r.Unexplained, res.Prime)
		}
	case MechanismInert:
		r.Inert++
		if res.Rigid {
			r.Unexplained = append(r.Unexplained, res.Prime)
		}
	}
}
