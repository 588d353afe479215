package pipeline

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/dbcls/humandbs-sub002/internal/domain"
)

const defaultConcurrency = 5

// WorkItem is one independent unit of stage work (per spec.md §5: one
// humVersionId for fetch, parse and normalize, one humId for the later
// stages); Key identifies it for the StageReport and manifest.
type WorkItem struct {
	Key string
	Fn  func(ctx context.Context) error
}

// Runner executes a stage's work items over a bounded-concurrency pool
// (spec.md §5: "bounded work queue with a bounded-concurrency pool, default
// 5, capped at a configured MAX"). Work items are independent, so one
// item's failure never aborts the others — failures accumulate in the
// returned StageReport instead of propagating.
type Runner struct {
	concurrency int
	log         *logrus.Logger
}

// NewRunner builds a Runner. concurrency <= 0 falls back to 5; max, if
// positive, caps whatever concurrency is requested.
func NewRunner(concurrency, max int, log *logrus.Logger) *Runner {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	if max > 0 && concurrency > max {
		concurrency = max
	}
	return &Runner{concurrency: concurrency, log: log}
}

// Run executes every item, bounded by r.concurrency, and returns the
// aggregate StageReport. It never returns an error itself: per-item
// failures are recorded in the report, not surfaced as a Go error, so one
// bad record can't sink an entire stage run.
func (r *Runner) Run(ctx context.Context, items []WorkItem) *domain.StageReport {
	report := &domain.StageReport{Total: len(items)}
	var mu sync.Mutex

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(r.concurrency)

	for _, item := range items {
		item := item
		eg.Go(func() error {
			err := item.Fn(egCtx)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if r.log != nil {
					r.log.WithError(err).WithField("key", item.Key).Warn("pipeline stage item failed")
				}
				report.AddFailure(item.Key, err)
			} else {
				report.AddSuccess()
			}
			return nil
		})
	}
	_ = eg.Wait()

	return report
}
