package lazytask_test

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/almada/lazytask"
)

func assertEqual(t *testing.T, expected interface{}, actual interface{}) {
	if expected != actual {
		t.Helper()
		t.Errorf("Expected %T(%v) but was %T(%v)", expected, expected, actual, actual)
	}
}

func TestChainedIncrementDecrement(t *testing.T) {
	task := lazytask.Then(lazytask.Then(lazytask.New(func() int {
		return 1 + 1
	}), func(n int) int {
		return n + 1
	}), func(n int) int {
		return n - 1
	})

	value, err := task.Run().Get()

	assertEqual(t, nil, err)
	assertEqual(t, 2, value)
}

func TestThrownErrorIsRecoverable(t *testing.T) {
	task := lazytask.Then(lazytask.New(func() int {
		return 1
	}), func(int) string {
		panic("HA")
	}).Recover(func(err error) string {
		return strings.TrimPrefix(err.Error(), lazytask.ErrPanic.Error()+": ")
	})

	value, err := task.Run().Get()

	assertEqual(t, nil, err)
	assertEqual(t, "HA", value)
}

func TestAssociativity(t *testing.T) {
	double := func(n int) (int, error) { return n * 2, nil }
	describe := func(n int) (string, error) { return fmt.Sprintf("n=%d", n), nil }

	base := lazytask.New(func() int { return 21 })

	left := lazytask.ThenErr(lazytask.ThenErr(base, double), describe)
	right := lazytask.Bind(base, func(n int) *lazytask.Task[string] {
		return lazytask.ThenErr(lazytask.NewErr(func() (int, error) {
			return double(n)
		}), describe)
	})

	assertEqual(t, left.Run().GetOr(""), right.Run().GetOr(""))
}

func TestRightIdentity(t *testing.T) {
	base := lazytask.New(func() int { return 42 })
	wrapped := lazytask.Bind(base, lazytask.Completed[int])

	assertEqual(t, base.Run().GetOr(0), wrapped.Run().GetOr(0))
}

func TestLeftIdentity(t *testing.T) {
	describe := func(n int) *lazytask.Task[string] {
		return lazytask.New(func() string { return fmt.Sprintf("n=%d", n) })
	}

	bound := lazytask.Bind(lazytask.Completed(7), describe)

	assertEqual(t, describe(7).Run().GetOr(""), bound.Run().GetOr(""))
}

func TestComposingAfterAsyncRunLeavesItUntouched(t *testing.T) {
	var prefix atomic.Int32
	release := make(chan struct{})

	base := lazytask.New(func() int {
		prefix.Add(1)
		<-release
		return 21
	})

	running := base.RunAsync()
	derived := lazytask.Then(running, func(n int) int {
		return n * 2
	})
	close(release)

	// The in-flight execution resolves to the base value.
	value, err := running.Get()
	assertEqual(t, nil, err)
	assertEqual(t, 21, value)

	// The derived task reuses the resolved handle and runs only its suffix.
	assertEqual(t, 42, derived.Run().GetOr(0))
	assertEqual(t, int32(1), prefix.Load())
}

func TestFailureRecoversIntoReplacementPipeline(t *testing.T) {
	fetch := lazytask.NewErr(func() (string, error) {
		return "", errors.New("connection refused")
	})

	task := lazytask.Then(fetch, strings.ToUpper).RecoverWith(func(err error) *lazytask.Task[string] {
		return lazytask.New(func() string {
			return "cached: " + err.Error()
		})
	})

	assertEqual(t, "cached: connection refused", task.Run().GetOr(""))
}

func TestPipelineWithSideEffects(t *testing.T) {
	var audit []string

	task := lazytask.Chain(lazytask.Completed("order"),
		func(s string) (string, error) { return s + ":validated", nil },
		func(s string) (string, error) { return s + ":priced", nil },
	).ThenDo(func() {
		audit = append(audit, "persisted")
	})

	value, err := task.Run().Get()

	assertEqual(t, nil, err)
	assertEqual(t, "order:validated:priced", value)
	assertEqual(t, 1, len(audit))
}

func TestFanOutFanInPipeline(t *testing.T) {
	prices := lazytask.Gather(func(quotes []float64) (float64, error) {
		if len(quotes) == 0 {
			return 0, errors.New("no quotes")
		}
		best := quotes[0]
		for _, q := range quotes[1:] {
			if q < best {
				best = q
			}
		}
		return best, nil
	},
		lazytask.New(func() float64 { return 102.5 }),
		lazytask.New(func() float64 { return 99.9 }),
		lazytask.New(func() float64 { return 101.0 }),
	)

	value, err := prices.RunAsync().Get()

	assertEqual(t, nil, err)
	assertEqual(t, 99.9, value)
}
