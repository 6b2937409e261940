// Package primecount counts π_Q(x) = #{1 ≤ n ≤ x : Q(n) is prime} by brute
// force and compares it with the Bateman–Horn prediction (C_Q/46)·Li(x).
//
// Primality decisions for different n are independent, so they may be taken
// by a pool of workers. Each worker writes only its own slots of a shared
// []bool; counts are aggregated after every decision is known, so the result
// is the same for any worker count.
package primecount

import (
	"context"
	"math/big"
	"runtime"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/rewired-gh/batemanhorn/internal/models"
	"github.com/rewired-gh/batemanhorn/internal/polynomial"
)

// chunkSize is the number of consecutive n handed to a worker at once.
const chunkSize = 64

// ProgressFunc receives the number of n decided so far and the total.
type ProgressFunc func(done, total int64)

// Settings configures a Counter.
type Settings struct {
	// Workers is the number of concurrent primality tests; 0 means GOMAXPROCS.
	Workers int
	// ProgressEvery is the reporting interval in values of n; 0 disables it.
	ProgressEvery int64
	// Progress is called at most once per ProgressEvery decisions, never
	// concurrently.
	Progress ProgressFunc
}

// Counter evaluates Q(n) and tests it for primality.
type Counter struct {
	workers       int
	progressEvery int64
	progress      ProgressFunc
}

// NewCounter creates a Counter.
func NewCounter(s Settings) *Counter {
	workers := s.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Counter{
		workers:       workers,
		progressEvery: s.ProgressEvery,
		progress:      s.Progress,
	}
}

// Workers returns the effective worker count.
func (c *Counter) Workers() int {
	return c.workers
}

// Tally holds the primality decision for every n in [1, N].
type Tally struct {
	prime  []bool  // prime[n-1] reports whether Q(n) is prime
	prefix []int32 // prefix[n] = π_Q(n)
}

// Limit returns N.
func (t *Tally) Limit() int64 {
	return int64(len(t.prime))
}

// IsPrime reports whether Q(n) is prime, for 1 ≤ n ≤ N.
func (t *Tally) IsPrime(n int64) bool {
	return t.prime[n-1]
}

// CountUpTo returns π_Q(x). x is clamped to [0, N].
func (t *Tally) CountUpTo(x int64) int {
	if x <= 0 {
		return 0
	}
	if x > t.Limit() {
		x = t.Limit()
	}
	return int(t.prefix[x])
}

// Total returns π_Q(N).
func (t *Tally) Total() int {
	return t.CountUpTo(t.Limit())
}

// Tally decides primality of Q(n) for every n in [1, limit].
func (c *Counter) Tally(ctx context.Context, limit int64) (*Tally, error) {
	if limit < 1 {
		return nil, models.InvalidInput(models.StagePrimeCount, "n", limit, "count limit must be at least 1")
	}

	prime := make([]bool, limit)
	var (
		done int64
		mu   sync.Mutex
		next int64 // next reporting threshold, guarded by mu
	)
	next = c.progressEvery

	report := func(d int64) {
		if c.progress == nil || c.progressEvery <= 0 {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		if d >= next || d == limit {
			c.progress(d, limit)
			for next <= d {
				next += c.progressEvery
			}
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)

	for start := int64(1); start <= limit; start += chunkSize {
		if err := gctx.Err(); err != nil {
			break
		}
		lo, hi := start, start+chunkSize-1
		if hi > limit {
			hi = limit
		}
		g.Go(func() error {
			v := new(big.Int)
			for n := lo; n <= hi; n++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				ok, err := decide(v, n)
				if err != nil {
					return err
				}
				prime[n-1] = ok
			}
			report(atomic.AddInt64(&done, hi-lo+1))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prefix := make([]int32, limit+1)
	for n := int64(1); n <= limit; n++ {
		prefix[n] = prefix[n-1]
		if prime[n-1] {
			prefix[n]++
		}
	}
	return &Tally{prime: prime, prefix: prefix}, nil
}

// Count returns π_Q(limit).
func (c *Counter) Count(ctx context.Context, limit int64) (int, error) {
	t, err := c.Tally(ctx, limit)
	if err != nil {
		return 0, err
	}
	return t.Total(), nil
}

// decide evaluates Q(n) into v and tests it.
func decide(v *big.Int, n int64) (bool, error) {
	if n < 1 {
		return false, models.InvalidInput(models.StagePrimeCount, "n", n, "n must be at least 1")
	}
	polynomial.ValueInto(v, n)
	if v.Sign() <= 0 {
		return false, models.Domain(models.StagePrimeCount, n, v, "Q(n) must be positive")
	}
	return IsPrime(v), nil
}
