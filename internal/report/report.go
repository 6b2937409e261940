// Package report renders stage results as console tables.
package report

import (
	"fmt"
	"io"
	"math"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/rewired-gh/batemanhorn/internal/euler"
	"github.com/rewired-gh/batemanhorn/internal/models"
	"github.com/rewired-gh/batemanhorn/internal/polynomial"
	"github.com/rewired-gh/batemanhorn/internal/shielding"
)

const ruleWidth = 72

func heading(w io.Writer, title string) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("=", ruleWidth))
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, strings.Repeat("=", ruleWidth))
}

func verdict(ok bool) string {
	if ok {
		return "PASS"
	}
	return "FAIL"
}

func joinPrimes(ps []int64) string {
	parts := make([]string, len(ps))
	for i, p := range ps {
		parts[i] = humanize.Comma(p)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Shielding prints the residue-scan verification.
func Shielding(w io.Writer, r *shielding.Report) {
	heading(w, fmt.Sprintf("SHIELDING: no roots of Q modulo p < %d", polynomial.ShieldingThreshold))

	fmt.Fprintf(w, "  Primes scanned below %d: %d\n", polynomial.ShieldingThreshold, len(r.Shielded))
	fmt.Fprintf(w, "  Primes with a root:       %s\n", joinPrimes(r.RootsFoundAt))
	fmt.Fprintf(w, "  Rigid (Q ≡ 1 identically): %s\n", joinPrimes(r.Rigid))
	fmt.Fprintf(w, "  Fermat-rigid ((p-1) | %d):  %s\n", polynomial.Degree, joinPrimes(r.FermatRigid))
	fmt.Fprintf(w, "  Inert (x ↦ x^%d bijective): %d primes\n", polynomial.Exponent, r.Inert)
	fmt.Fprintf(w, "  First p ≡ 1 (mod %d):       %d with ω = %d\n",
		polynomial.Exponent, r.FirstSplitting, r.FirstSplittingOmega)
	fmt.Fprintf(w, "  Splitting primes ≤ %s scanned: %d, incomplete: %s\n",
		humanize.Comma(r.SplittingBound), r.SplittingScanned, joinPrimes(r.SplittingFailures))
	fmt.Fprintf(w, "\n  Result: %s\n", verdict(r.Passed()))
}

// Constant prints the convergence table and the product breakdown.
func Constant(w io.Writer, res *euler.Result) {
	heading(w, fmt.Sprintf("EULER PRODUCT: C_Q over primes ≤ %s", humanize.Comma(res.Truncation)))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "X\tC_Q(X)\tRel. delta\tSplitting\tPrimes\t")
	for _, cp := range res.Checkpoints {
		delta := "-"
		if cp.HasPrevious {
			delta = fmt.Sprintf("%.3e", cp.RelativeDelta)
		}
		fmt.Fprintf(tw, "%s\t%.10f\t%s\t%s\t%s\t\n",
			humanize.Comma(cp.Truncation), cp.Value, delta,
			humanize.Comma(int64(cp.SplittingPrimes)), humanize.Comma(int64(cp.Primes)))
	}
	_ = tw.Flush()

	mertens := euler.MertensApproximation()
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  C_Q                    = %.10f\n", res.Constant)
	fmt.Fprintf(w, "  C_Q / %d               = %.10f\n", polynomial.Degree, res.PerDegree())
	fmt.Fprintf(w, "  P_small (p < %d)      = %.6f  (Mertens e^γ·ln %d ≈ %.6f)\n",
		polynomial.ShieldingThreshold, res.Small, polynomial.ShieldingThreshold, mertens)
	fmt.Fprintf(w, "  P_large (p ≥ %d)      = %.6f\n", polynomial.ShieldingThreshold, res.Large)
	fmt.Fprintf(w, "  P_splitting (ω = %d)   = %.6f over %s primes\n",
		polynomial.Degree, res.SplittingOnly, humanize.Comma(int64(res.SplittingPrimes)))
	fmt.Fprintf(w, "  P_small × P_large      = %.10f\n", res.Small*res.Large)
}

// Prediction prints observed and predicted prime counts. maxRelativeError is
// the bound applied to the last row; zero disables the verdict.
func Prediction(w io.Writer, records []models.PrimeCountRecord, coefficient, maxRelativeError float64) {
	heading(w, fmt.Sprintf("PRIME COUNTS: π_Q(x) vs (C_Q/%d)·Li(x), C_Q/%d = %.6f",
		polynomial.Degree, polynomial.Degree, coefficient))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "x\tObserved\tPredicted\tLi(x)\tAbs. error\tRel. error\t")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%.2f\t%.2f\t%+.2f\t%+.2f%%\t\n",
			humanize.Comma(r.X), humanize.Comma(int64(r.Observed)), r.Predicted, r.Li,
			r.AbsoluteError, r.RelativeError*100)
	}
	_ = tw.Flush()

	if maxRelativeError > 0 && len(records) > 0 {
		last := records[len(records)-1]
		ok := math.Abs(last.RelativeError) < maxRelativeError
		fmt.Fprintf(w, "\n  |error| at x = %s below %.1f%%: %s\n",
			humanize.Comma(last.X), maxRelativeError*100, verdict(ok))
	}
}
