// Package stream provides cold, re-entrant asynchronous producers.
//
// A Stream[T] is a description of work, not the work itself: constructing one
// performs no side effects, and every subscription re-runs the producing
// computation from scratch. Subscriptions are independent; cancelling one
// (via its context or Subscription.Dispose) never affects another
// subscription of the same stream value.
//
// A subscription observes zero or more values followed by exactly one
// terminal state: completion (nil error) or failure. After termination no
// further values are delivered.
//
// Producers that scan external resources must honor the error returned by
// emit: it becomes non-nil once the subscription is cancelled, and the
// producer is expected to stop promptly rather than run to completion.
package stream

import "context"

// Stream is a cold producer of values of type T.
type Stream[T any] struct {
	producer func(ctx context.Context, emit func(T) error) error
}

// New creates a stream from a producer function. The producer is invoked
// once per subscription. It should forward the error returned by emit and
// return nil for completion or an error for failure.
func New[T any](producer func(ctx context.Context, emit func(T) error) error) Stream[T] {
	return Stream[T]{producer: producer}
}

// FromValues returns a stream that emits the given values synchronously and
// completes.
func FromValues[T any](values ...T) Stream[T] {
	return New(func(ctx context.Context, emit func(T) error) error {
		for _, v := range values {
			if err := emit(v); err != nil {
				return err
			}
		}
		return nil
	})
}

// Empty returns a stream that completes without emitting.
func Empty[T any]() Stream[T] {
	return New(func(context.Context, func(T) error) error { return nil })
}

// Fail returns a stream that fails immediately with err.
func Fail[T any](err error) Stream[T] {
	return New(func(context.Context, func(T) error) error { return err })
}

// Lazy defers constructing a stream until subscription time. f runs once per
// subscription, so side effects inside f are repeated for each subscriber.
func Lazy[T any](f func() Stream[T]) Stream[T] {
	return New(func(ctx context.Context, emit func(T) error) error {
		return f().each(ctx, emit)
	})
}

// each runs the producer for one subscription, delivering values to emit.
// Cancellation is checked before every delivery so producers that ignore
// emit's error still stop between values.
func (s Stream[T]) each(ctx context.Context, emit func(T) error) error {
	return s.producer(ctx, func(v T) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return emit(v)
	})
}

// Each subscribes synchronously: fn observes every value on the caller's
// goroutine, and Each returns the subscription's terminal state. A non-nil
// error from fn cancels the subscription and is returned as the failure.
func (s Stream[T]) Each(ctx context.Context, fn func(T) error) error {
	return s.each(ctx, fn)
}

// Subscription is a handle to one asynchronous subscription.
type Subscription struct {
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

// Subscribe runs the stream on a new goroutine, invoking next for every
// value. The returned handle exposes disposal and the terminal state.
func (s Stream[T]) Subscribe(ctx context.Context, next func(T)) *Subscription {
	ctx, cancel := context.WithCancel(ctx)
	sub := &Subscription{cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(sub.done)
		defer cancel()
		sub.err = s.each(ctx, func(v T) error {
			next(v)
			return nil
		})
	}()
	return sub
}

// Dispose cancels the subscription and waits for the producer to stop.
// Disposing an already-terminated subscription is a no-op.
func (s *Subscription) Dispose() {
	s.cancel()
	<-s.done
}

// Wait blocks until the subscription terminates and returns its error.
// The error is ctx.Err() if the subscription was cancelled or disposed.
func (s *Subscription) Wait() error {
	<-s.done
	return s.err
}

// Collect subscribes and gathers every value into a slice, returning it once
// the stream completes. On failure the values seen so far are discarded.
func Collect[T any](ctx context.Context, s Stream[T]) ([]T, error) {
	var out []T
	if err := s.Each(ctx, func(v T) error {
		out = append(out, v)
		return nil
	}); err != nil {
		return nil, err
	}
	return out, nil
}
