package lazytask

// An Executor launches the units of concurrent work the engine creates:
// branch executions inside a fan-out and whole executions started with
// RunAsync. Implementations must run every submitted function exactly once.
// Go may block to apply backpressure; branches are launched in declaration
// order, so a blocked Go delays the branches after it.
//
// The default executor starts one goroutine per unit. Anything that can run
// a func() can be plugged in through ExecutorFunc, including bounded worker
// pools.
type Executor interface {
	Go(fn func())
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(fn func())

func (e ExecutorFunc) Go(fn func()) {
	e(fn)
}

type goroutineExecutor struct{}

func (goroutineExecutor) Go(fn func()) {
	go fn()
}

var defaultExecutor Executor = goroutineExecutor{}
