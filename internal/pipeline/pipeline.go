// Package pipeline runs the verification stages (shielding, Euler product,
// prime counting and replay) against a configuration, printing console
// reports and persisting CSV tables.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rewired-gh/batemanhorn/internal/config"
	"github.com/rewired-gh/batemanhorn/internal/euler"
	"github.com/rewired-gh/batemanhorn/internal/localfactor"
	"github.com/rewired-gh/batemanhorn/internal/logger"
	"github.com/rewired-gh/batemanhorn/internal/models"
	"github.com/rewired-gh/batemanhorn/internal/polynomial"
	"github.com/rewired-gh/batemanhorn/internal/primecount"
	"github.com/rewired-gh/batemanhorn/internal/report"
	"github.com/rewired-gh/batemanhorn/internal/shielding"
	"github.com/rewired-gh/batemanhorn/internal/sieve"
	"github.com/rewired-gh/batemanhorn/internal/storage"
)

// ReplayTolerance is the largest relative difference allowed between a
// replayed constant and the recorded one.
const ReplayTolerance = 1e-6

// cancelCheckEvery is how many primes are consumed between context checks.
const cancelCheckEvery = 1 << 16

// Pipeline holds the state of one invocation.
type Pipeline struct {
	cfg   *config.Config
	store *storage.Store
	out   io.Writer
	runID string
	log   *zap.SugaredLogger
}

// New creates a Pipeline writing console reports to out.
func New(cfg *config.Config, out io.Writer) *Pipeline {
	runID := uuid.New().String()
	return &Pipeline{
		cfg:   cfg,
		store: storage.New(cfg.Output.DataDir, 0, 0),
		out:   out,
		runID: runID,
		log:   logger.With("run", runID),
	}
}

// RunID returns the identifier stamped on this run's logs and files.
func (p *Pipeline) RunID() string {
	return p.runID
}

// Store returns the CSV store.
func (p *Pipeline) Store() *storage.Store {
	return p.store
}

func (p *Pipeline) comment(what string) string {
	return fmt.Sprintf("Q(n)=n^%d-(n-1)^%d %s; run %s; %s",
		polynomial.Exponent, polynomial.Exponent, what, p.runID, time.Now().UTC().Format(time.RFC3339))
}

// Run executes shielding, the constant and the prediction in order. The
// prediction uses the freshly computed constant.
func (p *Pipeline) Run(ctx context.Context) error {
	if _, err := p.VerifyShielding(ctx); err != nil {
		return err
	}
	res, err := p.ComputeConstant(ctx)
	if err != nil {
		return err
	}
	_, err = p.VerifyPrediction(ctx, res.Constant)
	return err
}

// VerifyShielding runs the residue scans and fails with a DegeneratePrime
// error if any check does not hold.
func (p *Pipeline) VerifyShielding(ctx context.Context) (*shielding.Report, error) {
	log := p.log.With("stage", models.StageShielding)
	log.Infow("scanning residues", "splitting_bound", p.cfg.Shielding.ScanBound)

	r, err := shielding.Verify(ctx, p.cfg.Shielding.ScanBound)
	if err != nil {
		return nil, err
	}
	report.Shielding(p.out, r)

	if err := r.Err(); err != nil {
		return r, err
	}
	log.Infow("shielding verified",
		"rigid", r.Rigid, "inert", r.Inert, "splitting_scanned", r.SplittingScanned)
	return r, nil
}

// ComputeConstant sieves to the configured prime limit, computes every local
// factor and accumulates the Euler product. When the final relative delta
// misses the tolerance the tables are still printed and written, and the
// Convergence error is returned with the result.
func (p *Pipeline) ComputeConstant(ctx context.Context) (*euler.Result, error) {
	cc := p.cfg.Constant
	log := p.log.With("stage", models.StageEuler)

	start := time.Now()
	primes, err := sieve.New(cc.PrimeLimit)
	if err != nil {
		return nil, fmt.Errorf("sieving to %d: %w", cc.PrimeLimit, err)
	}
	list := primes.Primes()
	log.Infow("sieved primes", "limit", cc.PrimeLimit, "count", len(list),
		"elapsed", time.Since(start).Round(time.Millisecond).String())

	acc, err := euler.NewAccumulator(euler.Settings{
		Checkpoints: cc.Checkpoints,
		Tolerance:   cc.Tolerance,
		Ceiling:     cc.Ceiling,
	})
	if err != nil {
		return nil, models.InvalidInput(models.StageEuler, "X", 0, "%v", err)
	}
	engine := localfactor.New(cc.ScanLimit).WithSieve(primes)

	var factors []models.LocalFactor
	if p.cfg.Output.Write {
		factors = make([]models.LocalFactor, 0, len(list))
	}

	prog := newProgress(log, "accumulating local factors", int64(len(list)))
	for i, q := range list {
		if i%cancelCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		f, err := engine.Factor(q)
		if err != nil {
			return nil, err
		}
		if err := acc.Add(f); err != nil {
			return nil, err
		}
		if factors != nil {
			factors = append(factors, f)
		}
		prog.update(int64(i + 1))
	}

	res, convErr := acc.Finalize(cc.PrimeLimit)
	if res == nil {
		return nil, convErr
	}
	report.Constant(p.out, res)

	if p.cfg.Output.Write {
		mode, err := storage.ParseMode(p.cfg.Output.LocalFactors)
		if err != nil {
			return nil, err
		}
		rows := storage.SelectLocalFactors(factors, mode, p.cfg.Output.SplittingRows)
		if err := p.store.WriteLocalFactors(p.comment(fmt.Sprintf("local factors (%s) for p <= %d", mode, cc.PrimeLimit)), rows); err != nil {
			return nil, outputError(err)
		}
		if err := p.store.WriteConvergence(p.comment("Euler product convergence"), res.Checkpoints); err != nil {
			return nil, outputError(err)
		}
		log.Infow("wrote tables", "dir", p.store.Dir(), "local_factor_rows", len(rows))
	}

	if convErr != nil {
		return res, convErr
	}
	log.Infow("constant computed", "C_Q", res.Constant, "C_Q_per_degree", res.PerDegree(),
		"primes", res.Primes, "splitting", res.SplittingPrimes)
	return res, nil
}

// VerifyPrediction counts primes among Q(1..limit) and compares them with
// (constant/46)·Li(x). A non-positive constant selects the configured one.
// Exceeding max_relative_error is logged, not returned: the prediction is
// asymptotic.
func (p *Pipeline) VerifyPrediction(ctx context.Context, constant float64) ([]models.PrimeCountRecord, error) {
	pc := p.cfg.Prediction
	log := p.log.With("stage", models.StagePrimeCount)

	source := "computed"
	if !(constant > 0) {
		constant = pc.Constant
		source = "configured"
	}
	coefficient := constant / polynomial.Degree

	prog := newProgress(log, "testing Q(n) for primality", pc.Limit)
	counter := primecount.NewCounter(primecount.Settings{
		Workers:       pc.Workers,
		ProgressEvery: pc.ProgressEvery,
		Progress:      func(done, _ int64) { prog.update(done) },
	})
	log.Infow("counting primes", "limit", pc.Limit, "workers", counter.Workers(),
		"C_Q", constant, "source", source)

	tally, err := counter.Tally(ctx, pc.Limit)
	if err != nil {
		return nil, err
	}
	records, err := primecount.Predict(tally, coefficient, pc.Checkpoints, pc.LiSteps)
	if err != nil {
		return nil, err
	}
	report.Prediction(p.out, records, coefficient, pc.MaxRelativeError)

	if p.cfg.Output.Write {
		if err := p.store.WritePrimeCounts(p.comment(fmt.Sprintf("prime counts, C_Q=%g (%s)", constant, source)), records); err != nil {
			return nil, outputError(err)
		}
	}

	if n := len(records); n > 0 && pc.MaxRelativeError > 0 {
		last := records[n-1]
		if math.Abs(last.RelativeError) >= pc.MaxRelativeError {
			log.Warnw("prediction error above bound",
				"x", last.X, "relative_error", last.RelativeError, "bound", pc.MaxRelativeError)
		}
	}
	return records, nil
}

// Replay recomputes C_Q from local_factors.csv. When the rows up to the
// last checkpoint of convergence.csv cover every prime below it, their
// product is checked against the recorded value. The returned constant is
// the product over the whole table.
func (p *Pipeline) Replay(ctx context.Context) (float64, error) {
	log := p.log.With("stage", models.StageReplay)

	factors, err := p.store.ReadLocalFactors()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, models.InvalidInput(models.StageReplay, "p", 0,
				"no %s in %s; run the constant stage first", storage.LocalFactorsFile, p.store.Dir())
		}
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	constant, err := euler.Replay(factors)
	if err != nil {
		return 0, err
	}
	last := factors[len(factors)-1].Prime
	fmt.Fprintf(p.out, "\nReplayed C_Q over %d primes ≤ %d: %.10f (C_Q/%d = %.10f)\n",
		len(factors), last, constant, polynomial.Degree, constant/polynomial.Degree)

	checkpoints, err := p.store.ReadConvergence()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Warnw("no convergence table to compare against", "dir", p.store.Dir())
			return constant, nil
		}
		return 0, err
	}
	if len(checkpoints) == 0 {
		return constant, nil
	}
	final := checkpoints[len(checkpoints)-1]

	n := sort.Search(len(factors), func(i int) bool { return factors[i].Prime > final.Truncation })
	prefix := factors[:n]
	want, err := sieve.Primes(final.Truncation)
	if err != nil {
		return 0, models.InvalidInput(models.StageReplay, "X", final.Truncation, "%v", err)
	}
	if !coversPrimes(prefix, want) {
		log.Warnw("local factor table does not cover the last checkpoint; skipping comparison",
			"rows", len(factors), "checkpoint", final.Truncation)
		return constant, nil
	}
	replayed := constant
	if n < len(factors) {
		if replayed, err = euler.Replay(prefix); err != nil {
			return 0, err
		}
	}

	diff := math.Abs(replayed-final.Value) / math.Abs(final.Value)
	if diff > ReplayTolerance {
		return constant, models.Convergence(models.StageReplay, "X", final.Truncation, diff,
			"replayed constant %.12f differs from recorded %.12f", replayed, final.Value)
	}
	fmt.Fprintf(p.out, "Matches convergence.csv at X = %d (relative difference %.2e)\n", final.Truncation, diff)
	log.Infow("replay verified", "C_Q", replayed, "checkpoint", final.Truncation, "relative_difference", diff)
	return constant, nil
}

// coversPrimes reports whether factors holds exactly one row for each of
// primes, in order.
func coversPrimes(factors []models.LocalFactor, primes []int64) bool {
	if len(primes) == 0 || len(factors) != len(primes) {
		return false
	}
	for i, f := range factors {
		if f.Prime != primes[i] {
			return false
		}
	}
	return true
}

func outputError(err error) error {
	return fmt.Errorf("%s: failed to write table: %w", models.StageOutput, err)
}
