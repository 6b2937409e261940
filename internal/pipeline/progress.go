package pipeline

import (
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
)

// progress logs a running count in fixed percentage steps.
type progress struct {
	log   *zap.SugaredLogger
	what  string
	total int64
	step  int64
	next  int64
	start time.Time
}

func newProgress(log *zap.SugaredLogger, what string, total int64) *progress {
	step := (total + 9) / 10 // 10% steps
	if step == 0 {
		step = 1
	}
	return &progress{log: log, what: what, total: total, step: step, next: step, start: time.Now()}
}

// update reports done if it crossed the next step.
func (p *progress) update(done int64) {
	if done < p.next && done != p.total {
		return
	}
	for p.next <= done {
		p.next += p.step
	}
	pct := 100.0
	if p.total > 0 {
		pct = float64(done) / float64(p.total) * 100
	}
	p.log.Infow(p.what,
		"done", humanize.Comma(done),
		"total", humanize.Comma(p.total),
		"percent", int(pct),
		"elapsed", time.Since(p.start).Round(time.Millisecond).String(),
	)
}
