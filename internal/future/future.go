package future

import (
	"context"
	"fmt"
	"time"
)

// Resolver completes a Future with its final value.
type Resolver[V any] func(value V)

// A Future is a single-assignment cell holding a value that becomes available
// asynchronously. Resolution is delivered through context cancellation: the
// value travels as the cancellation cause, so waiting goroutines unblock
// without any additional signaling.
type Future[V any] struct {
	ctx context.Context
}

// New creates a pending Future along with the resolver that completes it.
// The resolver is idempotent: only the first call assigns the value.
func New[V any]() (*Future[V], Resolver[V]) {
	ctx, cancel := context.WithCancelCause(context.Background())

	future := &Future[V]{
		ctx: ctx,
	}

	return future, func(value V) {
		cancel(&resolution[V]{
			value: value,
		})
	}
}

// Resolved creates a Future that already holds the given value.
func Resolved[V any](value V) *Future[V] {
	future, resolve := New[V]()
	resolve(value)
	return future
}

// Done returns a channel that is closed once the value is available.
func (f *Future[V]) Done() <-chan struct{} {
	return f.ctx.Done()
}

// Wait blocks until the value is available and returns it.
func (f *Future[V]) Wait() V {
	<-f.ctx.Done()
	return f.value()
}

// WaitFor blocks until the value is available or the timeout elapses.
// The boolean reports whether the future resolved in time.
func (f *Future[V]) WaitFor(timeout time.Duration) (V, bool) {
	// Prioritize values that are already available
	select {
	case <-f.ctx.Done():
		return f.value(), true
	default:
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-f.ctx.Done():
		return f.value(), true
	case <-timer.C:
		var zero V
		return zero, false
	}
}

// TryGet returns the value without blocking.
// The boolean reports whether the future has resolved.
func (f *Future[V]) TryGet() (V, bool) {
	select {
	case <-f.ctx.Done():
		return f.value(), true
	default:
		var zero V
		return zero, false
	}
}

func (f *Future[V]) value() V {
	// The backing context has no parent and is only ever canceled by the
	// resolver, so the cause is always a resolution.
	if res, ok := context.Cause(f.ctx).(*resolution[V]); ok {
		return res.value
	}
	var zero V
	return zero
}

type resolution[V any] struct {
	value V
}

func (r *resolution[V]) Error() string {
	return fmt.Sprintf("future resolved: %v", r.value)
}
