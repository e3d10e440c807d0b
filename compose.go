package lazytask

// Then appends a transformation to the task's queue and returns the new
// task. The receiver keeps its own, shorter queue; neither task affects the
// other and nothing runs until one of them is run.
//
// Type-changing steps are free functions because methods cannot introduce
// type parameters; value-preserving steps live on the Task methods below.
func Then[T, U any](t *Task[T], fn func(T) U) *Task[U] {
	requireTask(t)
	if fn == nil {
		panic("fn cannot be nil")
	}
	return derive[U](t.state, func(value any) (any, error) {
		return fn(argAs[T](value)), nil
	})
}

// ThenErr is Then for steps that can fail. A returned error breaks the chain
// exactly like a panic, but without the ErrPanic wrapping.
func ThenErr[T, U any](t *Task[T], fn func(T) (U, error)) *Task[U] {
	requireTask(t)
	if fn == nil {
		panic("fn cannot be nil")
	}
	return derive[U](t.state, func(value any) (any, error) {
		return fn(argAs[T](value))
	})
}

// Bind appends a step that produces a whole task; the interpreter runs the
// produced task in place and continues with its final value. Returning a nil
// task breaks the chain with ErrNilTask.
func Bind[T, U any](t *Task[T], fn func(T) *Task[U]) *Task[U] {
	requireTask(t)
	if fn == nil {
		panic("fn cannot be nil")
	}
	return derive[U](t.state, func(value any) (any, error) {
		sub := fn(argAs[T](value))
		if sub == nil {
			return nil, ErrNilTask
		}
		return sub, nil
	})
}

// ThenDo queues a side effect. The current value passes through unchanged;
// an error or panic inside fn breaks the chain like any other step.
func (t *Task[T]) ThenDo(fn func()) *Task[T] {
	if fn == nil {
		panic("fn cannot be nil")
	}
	return derive[T](t.state, func(value any) (any, error) {
		fn()
		return value, nil
	})
}

// ThenDoErr is ThenDo for side effects that can fail.
func (t *Task[T]) ThenDoErr(fn func() error) *Task[T] {
	if fn == nil {
		panic("fn cannot be nil")
	}
	return derive[T](t.state, func(value any) (any, error) {
		if err := fn(); err != nil {
			return value, err
		}
		return value, nil
	})
}

// Recover attaches a failure handler to the task. If executing the task
// fails at any step, the failure is replaced by a fresh computation of
// fn(err) and the remaining steps are discarded. Successes never invoke fn.
//
// The handler is local to the returned task: tasks derived before the
// Recover call, and branches inside a fan-out, are unaffected.
func (t *Task[T]) Recover(fn func(error) T) *Task[T] {
	if fn == nil {
		panic("fn cannot be nil")
	}
	return t.withRecovery(func(err error) (any, error) {
		return fn(err), nil
	})
}

// RecoverErr is Recover for handlers that can themselves fail. A second
// failure propagates as the task's final result.
func (t *Task[T]) RecoverErr(fn func(error) (T, error)) *Task[T] {
	if fn == nil {
		panic("fn cannot be nil")
	}
	return t.withRecovery(func(err error) (any, error) {
		return fn(err)
	})
}

// RecoverWith recovers with a whole replacement task, which is executed in
// place of the failed computation. Returning a nil task resolves to
// ErrNilTask.
func (t *Task[T]) RecoverWith(fn func(error) *Task[T]) *Task[T] {
	if fn == nil {
		panic("fn cannot be nil")
	}
	return t.withRecovery(func(err error) (any, error) {
		sub := fn(err)
		if sub == nil {
			return nil, ErrNilTask
		}
		return sub, nil
	})
}

func (t *Task[T]) withRecovery(fn func(error) (any, error)) *Task[T] {
	clone := t.state
	clone.recovery = fn
	return &Task[T]{clone}
}

// Chain applies uniform-type steps left to right, the flat spelling of
// nested ThenErr calls. Combined with a trailing Recover it reads like a
// pipeline with a catch block at the end.
func Chain[T any](t *Task[T], steps ...func(T) (T, error)) *Task[T] {
	requireTask(t)
	out := t
	for _, step := range steps {
		if step == nil {
			panic("step cannot be nil")
		}
		out = ThenErr(out, step)
	}
	return out
}

// derive builds the copy-on-write successor of s with one action appended.
// The action slice is copied into a fresh backing array so that sibling
// derivations of the same task never observe each other's steps.
//
// A handle already resolved to a failure short-circuits: the appended action
// could never run, so the derived task carries the failure and an empty
// queue.
func derive[U any](s state, act action) *Task[U] {
	cell := s.handle()
	if res, ok := cell.TryGet(); ok && res.IsFailure() {
		return &Task[U]{state{
			mode:     s.mode,
			cell:     cell,
			recovery: s.recovery,
			exec:     s.exec,
		}}
	}

	actions := make([]action, len(s.actions)+1)
	copy(actions, s.actions)
	actions[len(s.actions)] = act

	return &Task[U]{state{
		mode:     s.mode,
		cell:     cell,
		actions:  actions,
		recovery: s.recovery,
		exec:     s.exec,
	}}
}

// argAs converts an interpreter value to a step's input type. A nil value
// stands for the zero value, which is what a nil-valued any must produce for
// interface and pointer types.
func argAs[T any](value any) T {
	if value == nil {
		var zero T
		return zero
	}
	// A mismatch can only come from composing onto a foreign handle; the
	// resulting panic is captured by the step boundary.
	return value.(T)
}

func requireTask[T any](t *Task[T]) {
	if t == nil {
		panic("task cannot be nil")
	}
}
