package pipeline

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunnerExecutesAllItemsAndAggregatesFailures(t *testing.T) {
	var concurrent int32
	var maxConcurrent int32

	items := make([]WorkItem, 0, 10)
	for i := 0; i < 10; i++ {
		i := i
		items = append(items, WorkItem{
			Key: "item", // duplicate keys allowed; report doesn't dedupe
			Fn: func(ctx context.Context) error {
				n := atomic.AddInt32(&concurrent, 1)
				for {
					old := atomic.LoadInt32(&maxConcurrent)
					if n <= old || atomic.CompareAndSwapInt32(&maxConcurrent, old, n) {
						break
					}
				}
				atomic.AddInt32(&concurrent, -1)
				if i%3 == 0 {
					return errors.New("boom")
				}
				return nil
			},
		})
	}

	r := NewRunner(2, 0, nil)
	report := r.Run(context.Background(), items)

	assert.Equal(t, 10, report.Total)
	assert.Equal(t, 6, report.Succeeded)
	assert.Equal(t, 4, report.FailedCount())
	assert.LessOrEqual(t, atomic.LoadInt32(&maxConcurrent), int32(2), "expected concurrency capped at 2")
}

func TestNewRunnerCapsConcurrencyAtMax(t *testing.T) {
	r := NewRunner(10, 3, nil)
	assert.Equal(t, 3, r.concurrency, "expected concurrency capped to 3")
}

func TestNewRunnerDefaultsWhenNonPositive(t *testing.T) {
	r := NewRunner(0, 0, nil)
	assert.Equal(t, defaultConcurrency, r.concurrency)
}
