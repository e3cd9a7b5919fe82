package testutil

import (
	"context"
	"sync"
	"sync/atomic"

	dErrors "zkkyc/pkg/domain-errors"
)

// ConcurrentResult tracks outcomes of concurrent test operations, categorized
// by the protocol error taxonomy.
type ConcurrentResult struct {
	Successes int32
	Errors    int32
	Replays   int32
	Invalid   int32
	NotFounds int32
}

// Total returns the total number of operations executed.
func (r *ConcurrentResult) Total() int32 {
	return r.Successes + r.Errors + r.Replays + r.Invalid + r.NotFounds
}

// RunConcurrent executes fn in parallel goroutines and collects results.
// Errors are categorized into success, replay, credential-invalid, not_found,
// or generic error. This helper replaces the common pattern of WaitGroup +
// atomic counters in tests exercising the at-most-once property.
func RunConcurrent(goroutines int, fn func(idx int) error) *ConcurrentResult {
	var wg sync.WaitGroup
	var successes, errs, replays, invalid, notFounds atomic.Int32

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			err := fn(idx)
			switch {
			case err == nil:
				successes.Add(1)
			case dErrors.HasCode(err, dErrors.CodeProofReplay) || dErrors.HasCode(err, dErrors.CodeConflict):
				replays.Add(1)
			case dErrors.HasCode(err, dErrors.CodeCredentialInvalid) || dErrors.HasCode(err, dErrors.CodeInvalidProof):
				invalid.Add(1)
			case dErrors.HasCode(err, dErrors.CodeNotFound):
				notFounds.Add(1)
			default:
				errs.Add(1)
			}
		}(i)
	}

	wg.Wait()

	return &ConcurrentResult{
		Successes: successes.Load(),
		Errors:    errs.Load(),
		Replays:   replays.Load(),
		Invalid:   invalid.Load(),
		NotFounds: notFounds.Load(),
	}
}

// RunConcurrentCtx executes fn in parallel goroutines with context support.
func RunConcurrentCtx(ctx context.Context, goroutines int, fn func(ctx context.Context, idx int) error) *ConcurrentResult {
	return RunConcurrent(goroutines, func(idx int) error {
		return fn(ctx, idx)
	})
}
