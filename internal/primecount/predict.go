package primecount

import (
	"fmt"
	"math"

	"github.com/rewired-gh/batemanhorn/internal/models"
)

// DefaultLiSteps is the midpoint-rule resolution used by Li.
const DefaultLiSteps = 200000

// Li returns the offset logarithmic integral ∫₂ˣ dt / ln t, evaluated with the
// midpoint rule over steps subintervals. Li(x) = 0 for x ≤ 2.
func Li(x float64, steps int) float64 {
	if x <= 2 {
		return 0
	}
	if steps <= 0 {
		steps = DefaultLiSteps
	}
	h := (x - 2) / float64(steps)
	sum := 0.0
	for i := 0; i < steps; i++ {
		sum += 1 / math.Log(2+(float64(i)+0.5)*h)
	}
	return sum * h
}

// Predict builds a PrimeCountRecord for each checkpoint x, comparing
// π_Q(x) from the tally with coefficient·Li(x). coefficient is C_Q/46.
func Predict(t *Tally, coefficient float64, checkpoints []int64, liSteps int) ([]models.PrimeCountRecord, error) {
	if !(coefficient > 0) || math.IsInf(coefficient, 0) {
		return nil, fmt.Errorf("prediction coefficient must be positive, got %g", coefficient)
	}
	records := make([]models.PrimeCountRecord, 0, len(checkpoints))
	for i, x := range checkpoints {
		if x < 1 || x > t.Limit() {
			return nil, models.InvalidInput(models.StagePrimeCount, "n", x,
				"prediction checkpoint outside counted range [1, %d]", t.Limit())
		}
		if i > 0 && x <= checkpoints[i-1] {
			return nil, models.InvalidInput(models.StagePrimeCount, "n", x,
				"prediction checkpoints must be strictly increasing")
		}
		r := models.NewPrimeCountRecord(x, t.CountUpTo(x), coefficient, Li(float64(x), liSteps))
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("record at x=%d: %w", x, err)
		}
		records = append(records, r)
	}
	return records, nil
}
