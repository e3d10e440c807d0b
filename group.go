package lazytask

import "github.com/almada/lazytask/internal/future"

// group is the resolved value of an unexecuted fan-out task: the ordered
// collection of branch tasks awaiting launch.
type group []node

// Gather builds a fan-out task from a set of branch tasks and a gather
// function applied to their values in declaration order. Nothing launches
// until the gathered task runs; each run then launches every branch
// concurrently, waits for all of them and applies fn to the collected
// values.
//
// Slots in the slice passed to fn match the declaration order of the tasks
// regardless of completion order. If any branch fails, fn is skipped and the
// task fails with the first broken branch's error, again in declaration
// order; a Recover on the gathered task sees that error.
func Gather[A, B any](fn func([]A) (B, error), tasks ...*Task[A]) *Task[B] {
	if fn == nil {
		panic("fn cannot be nil")
	}

	branches := make(group, len(tasks))
	for i, t := range tasks {
		requireTask(t)
		branches[i] = t
	}

	gather := func(value any) (any, error) {
		collected := value.([]any)
		typed := make([]A, len(collected))
		for i, v := range collected {
			typed[i] = argAs[A](v)
		}
		return fn(typed)
	}

	return &Task[B]{state{
		mode:    parallel,
		cell:    future.Resolved(Success[any](branches)),
		actions: []action{gather},
	}}
}

// Zip gathers the given tasks into a slice of their values, in declaration
// order.
func Zip[A any](tasks ...*Task[A]) *Task[[]A] {
	return Gather(func(values []A) ([]A, error) {
		return values, nil
	}, tasks...)
}

// Sequence is Zip over a slice: every element runs concurrently and the
// collected values keep the input order.
func Sequence[A any](tasks []*Task[A]) *Task[[]A] {
	return Zip(tasks...)
}

// SequenceSerial collects the tasks' values like Sequence but runs the
// elements strictly one after another in the calling goroutine: element n+1
// starts only once element n has finished. Built from serial composition
// alone, it launches no concurrent work at all.
func SequenceSerial[A any](tasks []*Task[A]) *Task[[]A] {
	out := Completed[[]A](nil)
	for _, t := range tasks {
		requireTask(t)
		elem := t
		out = Bind(out, func(acc []A) *Task[[]A] {
			return Then(elem, func(value A) []A {
				// Fresh backing array: reruns of the sequence must not
				// write into slices handed out by earlier runs.
				next := make([]A, len(acc)+1)
				copy(next, acc)
				next[len(acc)] = value
				return next
			})
		})
	}
	return out
}
