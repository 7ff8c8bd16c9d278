// Package parallel provides the cancellable racing primitives the core
// uses whenever two independent attempts at the same question are worth
// running side by side: the bounded and unbounded lemma checkers racing
// to settle a candidate invariant, or a SyGuS/SMT call racing its own
// timeout. The core itself is single-threaded and cooperative; these
// helpers are the only place it spawns goroutines.
package parallel

import (
	"context"
	"sync"
)

// Task is a unit of work that produces a result or an error. It must
// honor ctx cancellation promptly: once RaceFirst picks a winner, every
// losing task's ctx is cancelled and its result is discarded.
type Task[T any] func(ctx context.Context) (T, error)

// outcome pairs a task's index with its result, so RaceFirst can report
// which task won without requiring comparable result types.
type outcome[T any] struct {
	idx int
	val T
	err error
}

// RaceFirst runs every task concurrently under ctx and returns the first
// one to complete, successfully or not. Every other task's context is
// cancelled immediately; RaceFirst waits for them to unwind before
// returning so no goroutine outlives the call. This is the "select-first"
// combinator spec'd for the bounded-vs-unbounded lemma race (see
// pkg/lemma) and, at the outer multi-configuration layer, for racing
// independent core instances against each other.
//
// len(tasks) must be >= 1. If ctx is already done, RaceFirst returns the
// zero value and ctx.Err() without starting any task.
func RaceFirst[T any](ctx context.Context, tasks ...Task[T]) (T, int, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, -1, err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan outcome[T], len(tasks))
	var wg sync.WaitGroup
	wg.Add(len(tasks))
	for i, t := range tasks {
		go func(i int, t Task[T]) {
			defer wg.Done()
			v, err := t(runCtx)
			select {
			case results <- outcome[T]{idx: i, val: v, err: err}:
			case <-runCtx.Done():
				// Winner already decided and context torn down; still
				// report so the caller's channel read below never blocks
				// on a task that raced past cancellation.
				select {
				case results <- outcome[T]{idx: i, val: v, err: err}:
				default:
				}
			}
		}(i, t)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	first, ok := <-results
	cancel() // tell every other task to stop
	for range results {
		// drain until every other task has unwound and results is closed
	}
	if !ok {
		return zero, -1, ctx.Err()
	}
	return first.val, first.idx, first.err
}

// All runs every task concurrently under ctx and waits for all of them,
// short-circuiting (and cancelling the rest) on the first error. This is
// the barrier counterpart to RaceFirst, used when a step genuinely needs
// every sub-result before proceeding (e.g. cross-validating deduction
// guesses from multiple equations in pkg/deduce).
func All[T any](ctx context.Context, tasks ...Task[T]) ([]T, error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	out := make([]T, len(tasks))
	errs := make([]error, len(tasks))
	var wg sync.WaitGroup
	wg.Add(len(tasks))
	for i, t := range tasks {
		go func(i int, t Task[T]) {
			defer wg.Done()
			v, err := t(runCtx)
			out[i] = v
			errs[i] = err
			if err != nil {
				cancel()
			}
		}(i, t)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return out, err
		}
	}
	return out, nil
}
