package fanout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunEmptyInput(t *testing.T) {
	invocations := int32(0)

	results, err := Run(context.Background(), []string{}, 4,
		func(ctx context.Context, item string, index int) (int, error) {
			atomic.AddInt32(&invocations, 1)
			return 0, nil
		})

	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
	assert.Equal(t, int32(0), atomic.LoadInt32(&invocations), "operation must not be invoked for empty input")
}

func TestRunInvalidLimit(t *testing.T) {
	for _, limit := range []int{0, -1, -100} {
		_, err := Run(context.Background(), []string{"a"}, limit,
			func(ctx context.Context, item string, index int) (string, error) {
				return item, nil
			})
		require.Error(t, err)
		assert.True(t, IsLimitError(err))
	}
}

func TestRunResultLengthMatchesInput(t *testing.T) {
	items := []int{10, 20, 30, 40, 50, 60, 70}

	results, err := Run(context.Background(), items, 3,
		func(ctx context.Context, item int, index int) (int, error) {
			return item * 2, nil
		})

	require.NoError(t, err)
	require.Len(t, results, len(items))
	for i, r := range results {
		assert.Equal(t, i, r.Index)
		assert.Equal(t, items[i]*2, r.Value)
	}
}

// TestRunOutputOrderIndependentOfCompletionOrder 让后面的任务先完成，
// 验证输出仍然按输入顺序对齐。
func TestRunOutputOrderIndependentOfCompletionOrder(t *testing.T) {
	items := []string{"alpha", "beta", "gamma", "delta", "epsilon"}

	results, err := Run(context.Background(), items, len(items),
		func(ctx context.Context, item string, index int) (string, error) {
			// 索引越大延迟越短，完成顺序与提交顺序相反
			delay := time.Duration(len(items)-index) * 20 * time.Millisecond
			time.Sleep(delay)
			return strings.ToUpper(item), nil
		})

	require.NoError(t, err)
	require.Len(t, results, len(items))
	for i, r := range results {
		assert.Equal(t, i, r.Index)
		assert.Equal(t, strings.ToUpper(items[i]), r.Value)
	}
}

func TestRunConcurrencyNeverExceedsLimit(t *testing.T) {
	const limit = 2
	items := []string{"a", "b", "c", "d", "e"}

	var inFlight, peak int32
	results, err := Run(context.Background(), items, limit,
		func(ctx context.Context, item string, index int) (int, error) {
			cur := atomic.AddInt32(&inFlight, 1)
			for {
				old := atomic.LoadInt32(&peak)
				if cur <= old || atomic.CompareAndSwapInt32(&peak, old, cur) {
					break
				}
			}
			// 索引越大延迟越短，最后一个任务最先完成
			time.Sleep(time.Duration(len(items)-index) * 10 * time.Millisecond)
			atomic.AddInt32(&inFlight, -1)
			return len(item), nil
		})

	require.NoError(t, err)
	require.Len(t, results, len(items))
	for i, r := range results {
		require.True(t, r.OK())
		assert.Equal(t, i, r.Index)
		assert.Equal(t, 1, r.Value)
	}
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(limit),
		"in-flight operations must never exceed the concurrency limit")
	assert.Greater(t, atomic.LoadInt32(&peak), int32(0))
}

func TestRunFailureDoesNotAffectSiblings(t *testing.T) {
	items := []int{0, 1, 2, 3, 4, 5}
	failAt := 2
	wantErr := errors.New("boom")

	results, err := Run(context.Background(), items, 2,
		func(ctx context.Context, item int, index int) (string, error) {
			if index == failAt {
				return "", wantErr
			}
			return fmt.Sprintf("ok-%d", item), nil
		})

	require.NoError(t, err)
	require.Len(t, results, len(items))
	for i, r := range results {
		if i == failAt {
			require.False(t, r.OK())
			assert.ErrorIs(t, r.Err, wantErr)
			continue
		}
		require.True(t, r.OK(), "sibling at index %d must still resolve", i)
		assert.Equal(t, fmt.Sprintf("ok-%d", items[i]), r.Value)
	}
}

func TestRunPanicCapturedAsFailure(t *testing.T) {
	items := []int{0, 1, 2}

	results, err := Run(context.Background(), items, 3,
		func(ctx context.Context, item int, index int) (int, error) {
			if index == 1 {
				panic("unexpected state")
			}
			return item, nil
		})

	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.True(t, results[0].OK())
	require.False(t, results[1].OK())
	assert.Contains(t, results[1].Err.Error(), "panicked")
	assert.True(t, results[2].OK())
}

// TestRunLimitOneMatchesSequential 并发数为 1 时结果应与顺序执行一致。
func TestRunLimitOneMatchesSequential(t *testing.T) {
	items := []string{"w", "x", "y", "z"}
	op := func(ctx context.Context, item string, index int) (string, error) {
		if index == 3 {
			return "", errors.New("last one fails")
		}
		return item + item, nil
	}

	sequential := make([]Result[string], len(items))
	for i, item := range items {
		v, err := op(context.Background(), item, i)
		sequential[i] = Result[string]{Index: i, Value: v, Err: err}
	}

	results, err := Run(context.Background(), items, 1, op)
	require.NoError(t, err)
	require.Len(t, results, len(sequential))
	for i := range results {
		assert.Equal(t, sequential[i].Index, results[i].Index)
		assert.Equal(t, sequential[i].Value, results[i].Value)
		assert.Equal(t, sequential[i].Err == nil, results[i].Err == nil)
	}
}

func TestRunContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	items := make([]int, 20)
	started := make(chan struct{}, len(items))

	var cancelOnce atomic.Bool
	results, err := Run(ctx, items, 1,
		func(ctx context.Context, item int, index int) (int, error) {
			started <- struct{}{}
			if cancelOnce.CompareAndSwap(false, true) {
				cancel()
			}
			time.Sleep(5 * time.Millisecond)
			return index, nil
		})

	require.NoError(t, err)
	require.Len(t, results, len(items))

	// 每个位置都必须有已决结果：要么正常完成，要么是 ctx.Err()
	cancelled := 0
	for _, r := range results {
		if !r.OK() {
			assert.ErrorIs(t, r.Err, context.Canceled)
			cancelled++
		}
	}
	assert.Greater(t, cancelled, 0, "cancellation should prevent some admissions")
	assert.Less(t, len(started), len(items))
}

func TestRunBatchReport(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	results, batch, err := RunBatch(context.Background(), items, 2,
		func(ctx context.Context, item int, index int) (int, error) {
			if item%2 == 0 {
				return 0, errors.New("even item")
			}
			return item, nil
		})

	require.NoError(t, err)
	require.Len(t, results, 5)
	require.NotNil(t, batch)
	assert.NotEmpty(t, batch.ID)
	assert.Equal(t, 5, batch.Submitted)
	assert.Equal(t, 3, batch.Succeeded)
	assert.Equal(t, 2, batch.Failed)
	assert.Equal(t, 2, batch.Limit)
	assert.Greater(t, batch.Duration, time.Duration(0))
}

func TestRunBatchInvalidLimit(t *testing.T) {
	_, batch, err := RunBatch(context.Background(), []int{1}, 0,
		func(ctx context.Context, item int, index int) (int, error) {
			return item, nil
		})
	require.Error(t, err)
	assert.Nil(t, batch)
	assert.True(t, IsLimitError(err))
}
