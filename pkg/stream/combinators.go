package stream

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Map transforms each value with f. Termination passes through unchanged.
func Map[T, U any](s Stream[T], f func(T) U) Stream[U] {
	return New(func(ctx context.Context, emit func(U) error) error {
		return s.each(ctx, func(v T) error {
			return emit(f(v))
		})
	})
}

// Filter forwards only the values for which keep returns true.
func Filter[T any](s Stream[T], keep func(T) bool) Stream[T] {
	return New(func(ctx context.Context, emit func(T) error) error {
		return s.each(ctx, func(v T) error {
			if !keep(v) {
				return nil
			}
			return emit(v)
		})
	})
}

// Concat subscribes to each stream in turn; a stream is started only after
// the previous one completed. The first failure terminates the whole
// concatenation.
func Concat[T any](streams ...Stream[T]) Stream[T] {
	return New(func(ctx context.Context, emit func(T) error) error {
		for _, s := range streams {
			if err := s.each(ctx, emit); err != nil {
				return err
			}
		}
		return nil
	})
}

// Merge subscribes to all streams concurrently and interleaves their values
// as they arrive; no ordering is guaranteed across streams. The merged
// stream completes when every input completed, and fails with the first
// failure after cancelling the remaining subscriptions.
func Merge[T any](streams ...Stream[T]) Stream[T] {
	return New(func(ctx context.Context, emit func(T) error) error {
		g, ctx := errgroup.WithContext(ctx)
		var mu sync.Mutex
		for _, s := range streams {
			s := s
			g.Go(func() error {
				return s.each(ctx, func(v T) error {
					mu.Lock()
					defer mu.Unlock()
					return emit(v)
				})
			})
		}
		return g.Wait()
	})
}

// CatchError substitutes a fallback stream when s fails: values emitted
// before the failure are kept, then the stream returned by f takes over.
// Completion and cancellation pass through untouched.
func CatchError[T any](s Stream[T], f func(error) Stream[T]) Stream[T] {
	return New(func(ctx context.Context, emit func(T) error) error {
		err := s.each(ctx, emit)
		if err == nil || ctx.Err() != nil {
			return err
		}
		return f(err).each(ctx, emit)
	})
}

// Reduce folds every value into an accumulator and emits the final
// accumulator as the stream's single value once the source completes.
func Reduce[T, A any](s Stream[T], seed A, f func(A, T) A) Stream[A] {
	return New(func(ctx context.Context, emit func(A) error) error {
		acc := seed
		if err := s.each(ctx, func(v T) error {
			acc = f(acc, v)
			return nil
		}); err != nil {
			return err
		}
		return emit(acc)
	})
}

// Then discards s's values and, once s completes, forwards next. A failure
// of s short-circuits without subscribing to next.
func Then[T, U any](s Stream[T], next Stream[U]) Stream[U] {
	return New(func(ctx context.Context, emit func(U) error) error {
		if err := s.each(ctx, func(T) error { return nil }); err != nil {
			return err
		}
		return next.each(ctx, emit)
	})
}
