package lazytask

import (
	"errors"
	"time"

	"github.com/almada/lazytask/internal/future"
)

var (
	// ErrNilTask reports use of a task that was never built: a zero Task
	// value, or a callback that produced a nil task at run time.
	ErrNilTask = errors.New("task is nil")

	// ErrNotExecuted reports an attempt to read the final value of a task
	// whose pending actions have not been run.
	ErrNotExecuted = errors.New("task has not been executed")
)

const (
	// serial tasks run their action queue one step at a time in a single
	// goroutine.
	serial = iota
	// parallel tasks hold a collection of branch tasks as their resolved
	// value; running one launches every branch concurrently.
	parallel
)

// state is the untyped core shared by every Task instantiation: the engine
// operates on states and leaves the type parameter to the public surface.
type state struct {
	mode     int
	cell     *future.Future[Result[any]]
	actions  []action
	recovery func(error) (any, error)
	exec     Executor
}

// An action is one queued transformation step. Its result may itself be a
// task, which the interpreter runs and flattens before continuing.
type action func(value any) (any, error)

// node lets the interpreter recognize task values regardless of their type
// parameter.
type node interface {
	taskState() state
}

// unit is the placeholder held by the handle of a task that has not produced
// a value yet.
type unit struct{}

// A Task is a lazy computation: an asynchronous handle holding the most
// recently produced result plus an ordered queue of transformations to apply
// to it. Nothing runs until Run or RunAsync is called.
//
// Tasks are immutable. Every combinator returns a new Task sharing the
// receiver's handle, so a task can be composed onto and run any number of
// times; each run re-executes only the actions still pending on that task.
// All methods are safe for concurrent use.
//
// Tasks come from this package's constructors and combinators. The zero
// Task holds no computation and resolves to a failure carrying ErrNilTask.
type Task[T any] struct {
	state
}

func (t *Task[T]) taskState() state {
	if t == nil {
		return state{cell: future.Resolved(Failure[any](ErrNilTask))}
	}
	return t.state
}

func (s state) executor() Executor {
	if s.exec != nil {
		return s.exec
	}
	return defaultExecutor
}

// handle returns the task's cell. The zero Task has none and reads as a
// resolved ErrNilTask failure.
func (s state) handle() *future.Future[Result[any]] {
	if s.cell == nil {
		return future.Resolved(Failure[any](ErrNilTask))
	}
	return s.cell
}

// newTask builds a lazy serial task whose queue holds a single action and
// whose handle is pre-resolved to the unit placeholder.
func newTask[T any](first action) *Task[T] {
	return &Task[T]{state{
		cell:    future.Resolved(Success[any](unit{})),
		actions: []action{first},
	}}
}

// New returns a lazy task that will invoke fn when run. A nil fn panics.
func New[T any](fn func() T) *Task[T] {
	if fn == nil {
		panic("fn cannot be nil")
	}
	return newTask[T](func(any) (any, error) {
		return fn(), nil
	})
}

// NewErr is New for functions that can fail.
func NewErr[T any](fn func() (T, error)) *Task[T] {
	if fn == nil {
		panic("fn cannot be nil")
	}
	return newTask[T](func(any) (any, error) {
		return fn()
	})
}

// Defer returns a lazy task that delegates to the task produced by fn.
// fn itself runs only at execution time, so the inner task is built as late
// as possible. Returning a nil task resolves to ErrNilTask.
func Defer[T any](fn func() *Task[T]) *Task[T] {
	if fn == nil {
		panic("fn cannot be nil")
	}
	return newTask[T](func(any) (any, error) {
		sub := fn()
		if sub == nil {
			return nil, ErrNilTask
		}
		return sub, nil
	})
}

// Completed returns a spent task already holding the given value.
func Completed[T any](value T) *Task[T] {
	return &Task[T]{state{
		cell: future.Resolved(Success[any](value)),
	}}
}

// Failed returns a spent task already holding the given error. A nil error
// panics.
func Failed[T any](err error) *Task[T] {
	if err == nil {
		panic("error cannot be nil")
	}
	return &Task[T]{state{
		cell: future.Resolved(Failure[any](err)),
	}}
}

// WithExecutor returns a copy of the task that launches its concurrent work
// through e. Tasks derived from the copy inherit e, and fan-out branches
// that carry no executor of their own launch through it as well. A nil
// executor panics.
func (t *Task[T]) WithExecutor(e Executor) *Task[T] {
	if e == nil {
		panic("executor cannot be nil")
	}
	clone := t.state
	clone.exec = e
	return &Task[T]{clone}
}

// Run executes the pending actions in the calling goroutine and returns a
// spent task holding the final result. The receiver is untouched: running it
// again repeats its pending actions from the same starting handle.
func (t *Task[T]) Run() *Task[T] {
	return &Task[T]{state{
		cell: future.Resolved(execute(t.state)),
		exec: t.exec,
	}}
}

// RunAsync starts the execution as a single unit of concurrent work and
// returns immediately. The returned task's handle resolves when the
// execution finishes; Wait or Get observe it.
func (t *Task[T]) RunAsync() *Task[T] {
	cell, resolve := future.New[Result[any]]()
	s := t.state
	t.executor().Go(func() {
		resolve(execute(s))
	})
	return &Task[T]{state{
		cell: cell,
		exec: t.exec,
	}}
}

// Wait blocks until the task's handle resolves, then returns the task.
// It never runs pending actions; use Run for that.
func (t *Task[T]) Wait() *Task[T] {
	t.handle().Wait()
	return t
}

// WaitFor is Wait with a timeout. The boolean reports whether the handle
// resolved in time; on timeout the task is returned unchanged and the
// underlying execution keeps going.
func (t *Task[T]) WaitFor(timeout time.Duration) (*Task[T], bool) {
	_, ok := t.handle().WaitFor(timeout)
	return t, ok
}

// WaitForOr is WaitFor with a fallback: when the timeout elapses it returns
// a spent task holding def, so the default survives further runs intact.
// The abandoned execution is not stopped, only no longer observed.
func (t *Task[T]) WaitForOr(timeout time.Duration, def Result[T]) *Task[T] {
	if _, ok := t.handle().WaitFor(timeout); ok {
		return t
	}
	return &Task[T]{state{
		cell: future.Resolved(anyResult(def)),
		exec: t.exec,
	}}
}

// Get waits for the handle and unpacks it into the final value or the error
// carried by a failure. Reading a task whose actions were never run reports
// ErrNotExecuted.
func (t *Task[T]) Get() (T, error) {
	res, err := typedResult[T](t.handle().Wait())
	if err != nil {
		var zero T
		return zero, err
	}
	return res.Get()
}

// GetOr waits for the handle and returns the final value, or def when the
// task failed or was never run.
func (t *Task[T]) GetOr(def T) T {
	value, err := t.Get()
	if err != nil {
		return def
	}
	return value
}

// Peek returns the handle's current result without blocking. It reports
// false while the handle is pending or does not hold a produced T yet.
func (t *Task[T]) Peek() (Result[T], bool) {
	res, ok := t.handle().TryGet()
	if !ok {
		return Result[T]{}, false
	}
	typed, err := typedResult[T](res)
	if err != nil {
		return Result[T]{}, false
	}
	return typed, true
}

// Done reports whether the task's handle has resolved. Handles start out
// resolved; only RunAsync produces pending ones.
func (t *Task[T]) Done() bool {
	_, ok := t.handle().TryGet()
	return ok
}

// Executed reports whether the task is spent: a resolved handle and no
// pending actions. Running a spent task is a no-op that reproduces its
// result.
func (t *Task[T]) Executed() bool {
	return len(t.actions) == 0 && t.Done()
}

// Fulfilled reports whether the handle resolved to a success.
func (t *Task[T]) Fulfilled() bool {
	res, ok := t.handle().TryGet()
	return ok && res.IsSuccess()
}

// Broken reports whether the handle resolved to a failure.
func (t *Task[T]) Broken() bool {
	res, ok := t.handle().TryGet()
	return ok && res.IsFailure()
}

// anyResult erases a Result's type parameter for storage in a handle.
func anyResult[T any](r Result[T]) Result[any] {
	if r.err != nil {
		return Failure[any](r.err)
	}
	return Success[any](r.value)
}

// typedResult restores a handle result to its public type. Engine-internal
// values (the unit placeholder, an unlaunched branch group) and intermediate
// values of the wrong type report ErrNotExecuted; the explicit cases are
// needed because a bare assertion accepts them when T is any.
func typedResult[T any](r Result[any]) (Result[T], error) {
	if r.err != nil {
		return Failure[T](r.err), nil
	}
	switch r.value.(type) {
	case unit, group:
		return Result[T]{}, ErrNotExecuted
	}
	if r.value == nil {
		var zero T
		return Success(zero), nil
	}
	value, ok := r.value.(T)
	if !ok {
		return Result[T]{}, ErrNotExecuted
	}
	return Success(value), nil
}
