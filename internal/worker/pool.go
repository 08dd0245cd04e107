// Package worker provides a generic ordered fan-out/fan-in pool. The VCS
// inspector uses it to run the staged and unstaged diff queries side by side.
package worker

import (
	"context"
	"runtime"
	"sync"
)

// Result pairs a processed value with its original index to preserve ordering.
type Result[T any] struct {
	Index int
	Value T
	Err   error
}

// Pool fans out work items of type I to a fixed number of goroutines and
// collects results of type O in input order.
type Pool[I, O any] struct {
	concurrency int
}

// NewPool creates a worker pool with the given concurrency.
// If concurrency <= 0, defaults to runtime.NumCPU().
func NewPool[I, O any](concurrency int) *Pool[I, O] {
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}
	return &Pool[I, O]{concurrency: concurrency}
}

// Process applies fn to every item and returns one Result per item, in input
// order. Per-item errors are recorded rather than aborting the batch. Items
// not yet started when ctx is cancelled are skipped with ctx.Err().
func (p *Pool[I, O]) Process(ctx context.Context, items []I, fn func(context.Context, I) (O, error)) []Result[O] {
	if len(items) == 0 {
		return nil
	}

	workers := min(p.concurrency, len(items))

	type job struct {
		index int
		item  I
	}

	jobs := make(chan job, len(items))
	results := make([]Result[O], len(items))
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				if err := ctx.Err(); err != nil {
					results[j.index] = Result[O]{Index: j.index, Err: err}
					continue
				}
				val, err := fn(ctx, j.item)
				results[j.index] = Result[O]{Index: j.index, Value: val, Err: err}
			}
		}()
	}

	for i, item := range items {
		jobs <- job{index: i, item: item}
	}
	close(jobs)

	wg.Wait()
	return results
}
