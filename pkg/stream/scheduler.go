package stream

import "context"

// Scheduler is a named serial execution context: a single goroutine that
// runs submitted tasks one at a time, in submission order. Routing every
// access to a shared mutable structure through one scheduler serializes
// those accesses without exposing a lock.
type Scheduler struct {
	name  string
	tasks chan func()
	quit  chan struct{}
}

// NewScheduler starts a scheduler. The name appears in debugging output
// only. Callers own the scheduler and must Close it when done.
func NewScheduler(name string) *Scheduler {
	s := &Scheduler{
		name:  name,
		tasks: make(chan func()),
		quit:  make(chan struct{}),
	}
	go s.loop()
	return s
}

func (s *Scheduler) loop() {
	for {
		select {
		case task := <-s.tasks:
			task()
		case <-s.quit:
			return
		}
	}
}

// Name returns the scheduler's name.
func (s *Scheduler) Name() string { return s.name }

// Do runs fn on the scheduler and waits for it to finish. It returns
// ctx.Err() if the context is cancelled before fn was scheduled; once fn
// has started it always runs to completion.
func (s *Scheduler) Do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	task := func() {
		defer close(done)
		fn()
	}
	select {
	case s.tasks <- task:
		<-done
		return nil
	case <-s.quit:
		return context.Canceled
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the scheduler. Tasks submitted after Close fail with
// context.Canceled. Close does not wait for a task that is mid-run.
func (s *Scheduler) Close() {
	close(s.quit)
}

// SubscribeOn returns a stream whose producing computation runs on the given
// scheduler. The producer occupies the scheduler for the subscription's full
// duration, so this is intended for cheap, synchronous producers such as
// cache lookups.
func SubscribeOn[T any](s Stream[T], on *Scheduler) Stream[T] {
	return New(func(ctx context.Context, emit func(T) error) error {
		var err error
		if doErr := on.Do(ctx, func() {
			err = s.each(ctx, emit)
		}); doErr != nil {
			return doErr
		}
		return err
	})
}

// DeliverOn returns a stream whose emissions are observed on the given
// scheduler: each downstream delivery is a separate task, so producers on
// other goroutines interleave safely with everything else the scheduler
// serializes.
func DeliverOn[T any](s Stream[T], on *Scheduler) Stream[T] {
	return New(func(ctx context.Context, emit func(T) error) error {
		return s.each(ctx, func(v T) error {
			var err error
			if doErr := on.Do(ctx, func() {
				err = emit(v)
			}); doErr != nil {
				return doErr
			}
			return err
		})
	})
}
