// Package fanout 提供有界并发的批量执行原语：
// 一批相互独立的任务以受限并发数执行，结果按提交顺序对齐返回。
package fanout

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultMaxConcurrent 默认最大并发数
const DefaultMaxConcurrent = 10

// Result 是单个任务的执行结果，Index 对应任务在输入中的位置。
// Err 为 nil 表示成功；失败只影响自身，不影响同批次的其他任务。
type Result[R any] struct {
	Index int
	Value R
	Err   error
}

// OK 报告该任务是否成功完成。
func (r Result[R]) OK() bool {
	return r.Err == nil
}

// Operation 是针对单个任务的用户操作。index 即任务在批次中的位置，
// 超时控制由操作自身负责，执行器不额外施加。
type Operation[I, R any] func(ctx context.Context, item I, index int) (R, error)

// Run 以最多 limit 个并发执行 op，每个输入恰好执行一次。
//
// 所有任务一次性提交，由信号量（而非分组）决定实际并发：
// 任何任务完成后立即释放槽位给排队中的下一个任务。
// 返回的切片与 items 等长且按输入顺序对齐，与完成顺序无关。
// ctx 取消后未获准入的任务以 ctx.Err() 作为失败结果，
// 已在执行中的任务不会被打断。
func Run[I, R any](ctx context.Context, items []I, limit int, op Operation[I, R]) ([]Result[R], error) {
	if limit < 1 {
		return nil, newLimitError(limit)
	}

	results := make([]Result[R], len(items))
	if len(items) == 0 {
		return results, nil
	}

	// 信号量控制并发
	sem := make(chan struct{}, limit)

	var wg sync.WaitGroup
	for i := range items {
		i := i
		item := items[i]

		wg.Add(1)
		go func() {
			defer wg.Done()

			// 获取信号量
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				results[i] = Result[R]{Index: i, Err: ctx.Err()}
				return
			}

			results[i] = invoke(ctx, item, i, op)
		}()
	}

	wg.Wait()
	return results, nil
}

// invoke 执行单个任务并把 panic 转换为失败结果。
func invoke[I, R any](ctx context.Context, item I, index int, op Operation[I, R]) (res Result[R]) {
	res.Index = index
	defer func() {
		if r := recover(); r != nil {
			res.Err = fmt.Errorf("operation panicked: %v", r)
		}
	}()

	value, err := op(ctx, item, index)
	if err != nil {
		res.Err = err
		return res
	}
	res.Value = value
	return res
}

// Batch 汇总一次批量执行的统计信息。批次没有持久身份，
// ID 仅用于日志关联。
type Batch struct {
	ID        string        `json:"id"`
	Submitted int           `json:"submitted"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Limit     int           `json:"limit"`
	Duration  time.Duration `json:"duration"`
}

// RunBatch 在 Run 的基础上附带批次统计。
func RunBatch[I, R any](ctx context.Context, items []I, limit int, op Operation[I, R]) ([]Result[R], *Batch, error) {
	batch := &Batch{
		ID:        uuid.NewString(),
		Submitted: len(items),
		Limit:     limit,
	}

	start := time.Now()
	results, err := Run(ctx, items, limit, op)
	if err != nil {
		return nil, nil, err
	}
	batch.Duration = time.Since(start)

	for _, r := range results {
		if r.OK() {
			batch.Succeeded++
		} else {
			batch.Failed++
		}
	}
	return results, batch, nil
}
