package lazytask

import "github.com/almada/lazytask/internal/future"

// execute runs a task snapshot to completion in the calling goroutine and
// returns its final result. Handles are only ever read here; each execution
// resolves cells it created itself, which is what keeps tasks rerunnable.
func execute(s state) Result[any] {
	if s.mode == parallel {
		return runParallel(s)
	}
	return run(s.handle().Wait(), s.actions, s.recovery)
}

// run is the serial interpreter: a flat loop over (result, pending actions)
// with three reduction rules, checked in order.
//
//  1. A failure consults the recovery function. Recovery replaces the whole
//     remaining computation with a fresh evaluation of the replacement
//     value; the pending actions are discarded and the replacement runs
//     without recovery of its own.
//  2. A value that is itself a task is executed and its final result takes
//     the value's place. This is how Defer, Bind and RecoverWith flatten.
//  3. Otherwise the next action is popped and applied inside the
//     panic-capturing boundary.
//
// The loop ends when the result is a plain value and no actions remain, or
// when a failure finds no recovery.
func run(res Result[any], actions []action, recovery func(error) (any, error)) Result[any] {
	for {
		if res.IsFailure() {
			if recovery == nil {
				return res
			}
			rec := recovery
			err := res.Err()
			recovery = nil
			actions = nil
			res = Attempt(func() (any, error) {
				return rec(err)
			})
			continue
		}

		if sub, ok := res.value.(node); ok {
			res = execute(sub.taskState())
			continue
		}

		if len(actions) == 0 {
			return res
		}

		next := actions[0]
		actions = actions[1:]
		value := res.value
		res = Attempt(func() (any, error) {
			return next(value)
		})
	}
}

// runParallel executes a fan-out task in two phases: launch every branch as
// its own unit of concurrent work, then collect the branch results in
// declaration order and hand them to the serial interpreter, whose first
// pending action is the gather step.
//
// All branches are waited for even after one fails; the task then fails with
// the first broken branch's error, in declaration order rather than
// completion order. Branch recovery stays local to each branch, while the
// fan-out task's own recovery sees the aggregated failure.
func runParallel(s state) Result[any] {
	base := s.handle().Wait()

	branches, ok := base.value.(group)
	if !ok {
		// The collection was already consumed, or the handle short-circuited
		// to a failure. Either way there is nothing to launch.
		return run(base, s.actions, s.recovery)
	}

	exec := s.executor()
	cells := make([]*future.Future[Result[any]], len(branches))
	for i, branch := range branches {
		b := branch.taskState()
		launch := exec
		if b.exec != nil {
			launch = b.exec
		}
		cell, resolve := future.New[Result[any]]()
		cells[i] = cell
		launch.Go(func() {
			resolve(execute(b))
		})
	}

	values := make([]any, len(cells))
	failed := false
	var failure Result[any]
	for i, cell := range cells {
		res := cell.Wait()
		if res.IsFailure() && !failed {
			failed = true
			failure = res
		}
		values[i] = res.value
	}

	if failed {
		return run(failure, s.actions, s.recovery)
	}
	return run(Success[any](values), s.actions, s.recovery)
}
