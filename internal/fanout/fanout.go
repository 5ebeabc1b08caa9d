// Package fanout issues independent downstream calls concurrently and joins
// their outcomes without letting one branch fail the others.
package fanout

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Result is the outcome of one branch: a value or the error that dropped it.
type Result[K comparable, T any] struct {
	Key   K
	Value T
	Err   error
}

// OK reports whether the branch succeeded.
func (r Result[K, T]) OK() bool { return r.Err == nil }

// Limiter bounds in-flight branches beyond a single call to Run.
type Limiter interface {
	Acquire(context.Context) error
	Release()
}

// Options tune Run. The zero value runs every branch at once.
type Options struct {
	// Limit caps the branches of one Run in flight at the same time.
	Limit int
	// Limiter, when set, must be acquired by every branch before it calls out.
	Limiter Limiter
}

// Run calls fn once per key and waits for every branch to settle.
// The returned slice has one Result per key, in key order. Branch errors
// and panics are recorded in their Result; Run itself never fails.
func Run[K comparable, T any](ctx context.Context, keys []K, opts Options, fn func(context.Context, K) (T, error)) []Result[K, T] {
	results := make([]Result[K, T], len(keys))

	var g errgroup.Group
	if opts.Limit > 0 {
		g.SetLimit(opts.Limit)
	}
	for i, key := range keys {
		g.Go(func() error {
			results[i] = branch(ctx, key, opts.Limiter, fn)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func branch[K comparable, T any](ctx context.Context, key K, lim Limiter, fn func(context.Context, K) (T, error)) (res Result[K, T]) {
	res.Key = key
	defer func() {
		if p := recover(); p != nil {
			res.Err = fmt.Errorf("branch %v panicked: %v", key, p)
		}
	}()

	if lim != nil {
		if err := lim.Acquire(ctx); err != nil {
			res.Err = err
			return res
		}
		defer lim.Release()
	}

	res.Value, res.Err = fn(ctx, key)
	return res
}

// Split separates successful branches from failed ones, keeping order.
func Split[K comparable, T any](results []Result[K, T]) (ok, failed []Result[K, T]) {
	for _, r := range results {
		if r.OK() {
			ok = append(ok, r)
		} else {
			failed = append(failed, r)
		}
	}
	return ok, failed
}
