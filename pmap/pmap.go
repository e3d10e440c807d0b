// Package pmap maps a function over a slice by fanning the work out to
// concurrently executed partitions. It is a client of the lazytask public
// API: partitions become serial tasks and the fan-in is a Gather, so the
// returned task composes, reruns and recovers like any other.
package pmap

import (
	"runtime"

	"github.com/almada/lazytask"
)

type config struct {
	chunks int
	exec   lazytask.Executor
}

type Option func(*config)

// Chunks sets the number of partitions the input is split into, and with it
// the maximum concurrency of the map. It defaults to the number of CPUs, or
// the input length when that is smaller. Values below 1 panic.
func Chunks(n int) Option {
	if n < 1 {
		panic("chunks must be greater than 0")
	}
	return func(c *config) {
		c.chunks = n
	}
}

// WithExecutor makes every partition launch through e instead of the engine
// default.
func WithExecutor(e lazytask.Executor) Option {
	if e == nil {
		panic("executor cannot be nil")
	}
	return func(c *config) {
		c.exec = e
	}
}

// Map returns a lazy task that applies fn to every element of items.
// Running the task executes the partitions concurrently; the collected
// output keeps the input order.
func Map[A, B any](items []A, fn func(A) B, opts ...Option) *lazytask.Task[[]B] {
	if fn == nil {
		panic("fn cannot be nil")
	}
	return MapErr(items, func(item A) (B, error) {
		return fn(item), nil
	}, opts...)
}

// MapErr is Map for functions that can fail. An error stops the partition it
// occurred in; the other partitions still run to completion and the task
// fails with the error of the first broken partition, in input order.
func MapErr[A, B any](items []A, fn func(A) (B, error), opts ...Option) *lazytask.Task[[]B] {
	if fn == nil {
		panic("fn cannot be nil")
	}

	conf := config{chunks: defaultChunks(len(items))}
	for _, opt := range opts {
		opt(&conf)
	}
	if conf.chunks > len(items) && len(items) > 0 {
		conf.chunks = len(items)
	}

	parts := make([]*lazytask.Task[[]B], conf.chunks)
	for i := 0; i < conf.chunks; i++ {
		part := items[i*len(items)/conf.chunks : (i+1)*len(items)/conf.chunks]
		task := lazytask.NewErr(func() ([]B, error) {
			out := make([]B, len(part))
			for j, item := range part {
				value, err := fn(item)
				if err != nil {
					return nil, err
				}
				out[j] = value
			}
			return out, nil
		})
		if conf.exec != nil {
			task = task.WithExecutor(conf.exec)
		}
		parts[i] = task
	}

	gathered := lazytask.Gather(func(chunks [][]B) ([]B, error) {
		out := make([]B, 0, len(items))
		for _, chunk := range chunks {
			out = append(out, chunk...)
		}
		return out, nil
	}, parts...)
	if conf.exec != nil {
		gathered = gathered.WithExecutor(conf.exec)
	}
	return gathered
}

func defaultChunks(n int) int {
	chunks := runtime.NumCPU()
	if n < chunks {
		chunks = n
	}
	if chunks < 1 {
		chunks = 1
	}
	return chunks
}
