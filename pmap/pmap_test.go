package pmap_test

import (
	"errors"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/almada/lazytask"
	"github.com/almada/lazytask/pmap"
)

type countingExecutor struct {
	launches atomic.Int32
}

func (e *countingExecutor) Go(fn func()) {
	e.launches.Add(1)
	go fn()
}

func TestMapKeepsInputOrder(t *testing.T) {
	items := make([]int, 100)
	for i := range items {
		items[i] = i
	}

	values, err := pmap.Map(items, func(n int) int {
		return n * 2
	}).Run().Get()

	require.NoError(t, err)
	require.Len(t, values, 100)
	for i, v := range values {
		assert.Equal(t, i*2, v)
	}
}

func TestMapChangesType(t *testing.T) {
	values, err := pmap.Map([]int{1, 2, 3}, strconv.Itoa).Run().Get()

	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3"}, values)
}

func TestMapIsLazy(t *testing.T) {
	var calls atomic.Int32

	task := pmap.Map([]int{1, 2, 3}, func(n int) int {
		calls.Add(1)
		return n
	})

	assert.Equal(t, int32(0), calls.Load())
	task.Run()
	assert.Equal(t, int32(3), calls.Load())
}

func TestMapOfNothing(t *testing.T) {
	values, err := pmap.Map(nil, func(n int) int { return n }).Run().Get()

	require.NoError(t, err)
	assert.Empty(t, values)
}

func TestMapErrFailsWithFirstPartitionError(t *testing.T) {
	firstErr := errors.New("first error")
	secondErr := errors.New("second error")

	_, err := pmap.MapErr([]int{0, 1, 2}, func(n int) (int, error) {
		switch n {
		case 1:
			return 0, firstErr
		case 2:
			return 0, secondErr
		default:
			return n, nil
		}
	}, pmap.Chunks(3)).Run().Get()

	assert.Equal(t, firstErr, err)
}

func TestMapErrStopsItsPartition(t *testing.T) {
	var calls atomic.Int32

	_, err := pmap.MapErr([]int{0, 1, 2, 3, 4}, func(n int) (int, error) {
		calls.Add(1)
		if n == 2 {
			return 0, errors.New("sample error")
		}
		return n, nil
	}, pmap.Chunks(1)).Run().Get()

	require.Error(t, err)
	assert.Equal(t, int32(3), calls.Load(), "elements after the failure must not be visited")
}

func TestChunksBoundsConcurrency(t *testing.T) {
	exec := &countingExecutor{}
	items := make([]int, 64)

	task := pmap.Map(items, func(n int) int { return n },
		pmap.Chunks(4), pmap.WithExecutor(exec))

	_, err := task.Run().Get()

	require.NoError(t, err)
	assert.Equal(t, int32(4), exec.launches.Load())
}

func TestChunksClampedToInputLength(t *testing.T) {
	exec := &countingExecutor{}

	task := pmap.Map([]int{1, 2, 3}, func(n int) int { return n },
		pmap.Chunks(10), pmap.WithExecutor(exec))

	values, err := task.Run().Get()

	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, values)
	assert.Equal(t, int32(3), exec.launches.Load())
}

func TestMapComposesWithTheEngine(t *testing.T) {
	task := lazytask.Then(pmap.Map([]int{1, 2, 3}, func(n int) int {
		return n * n
	}), func(values []int) int {
		total := 0
		for _, v := range values {
			total += v
		}
		return total
	})

	assert.Equal(t, 14, task.Run().GetOr(0))
}

func TestMapRecovers(t *testing.T) {
	task := pmap.MapErr([]int{1, 2, 3}, func(n int) (int, error) {
		return 0, errors.New("sample error")
	}).Recover(func(error) []int {
		return nil
	})

	values, err := task.Run().Get()

	require.NoError(t, err)
	assert.Empty(t, values)
}

func TestInvalidOptionsPanic(t *testing.T) {
	assert.PanicsWithValue(t, "chunks must be greater than 0", func() {
		pmap.Chunks(0)
	})
	assert.PanicsWithValue(t, "executor cannot be nil", func() {
		pmap.WithExecutor(nil)
	})
	assert.PanicsWithValue(t, "fn cannot be nil", func() {
		pmap.Map[int, int]([]int{1}, nil)
	})
}
