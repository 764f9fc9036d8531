// Package metrics 收集批量执行的延迟与成败指标。
package metrics

import (
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// 直方图记录微秒级延迟，范围 1µs ~ 5min，3 位有效数字。
const (
	histMin     = 1
	histMax     = int64(5 * time.Minute / time.Microsecond)
	histSigFigs = 3
)

// Collector 按操作名聚合延迟直方图和成败计数，可被并发记录。
type Collector struct {
	mu    sync.RWMutex
	ops   map[string]*opData
	start time.Time
}

type opData struct {
	hist    *hdrhistogram.Histogram
	success int64
	failure int64
}

// NewCollector 创建一个新的指标收集器。
func NewCollector() *Collector {
	return &Collector{
		ops:   make(map[string]*opData),
		start: time.Now(),
	}
}

// Record 记录一次操作的耗时与结果。
func (c *Collector) Record(op string, d time.Duration, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, exists := c.ops[op]
	if !exists {
		data = &opData{hist: hdrhistogram.New(histMin, histMax, histSigFigs)}
		c.ops[op] = data
	}

	// 超出直方图范围的值被钳制到边界
	us := d.Microseconds()
	if us < histMin {
		us = histMin
	} else if us > histMax {
		us = histMax
	}
	_ = data.hist.RecordValue(us)

	if ok {
		data.success++
	} else {
		data.failure++
	}
}

// OpSnapshot 是单个操作的聚合指标。
type OpSnapshot struct {
	Count   int64         `json:"count"`
	Success int64         `json:"success"`
	Failure int64         `json:"failure"`
	Min     time.Duration `json:"min"`
	Mean    time.Duration `json:"mean"`
	P50     time.Duration `json:"p50"`
	P95     time.Duration `json:"p95"`
	P99     time.Duration `json:"p99"`
	Max     time.Duration `json:"max"`
}

// Snapshot 是收集器在某一时刻的完整视图。
type Snapshot struct {
	Uptime time.Duration         `json:"uptime"`
	Ops    map[string]OpSnapshot `json:"ops"`
}

// Snapshot 返回当前聚合指标的副本。
func (c *Collector) Snapshot() *Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snap := &Snapshot{
		Uptime: time.Since(c.start),
		Ops:    make(map[string]OpSnapshot, len(c.ops)),
	}

	for name, data := range c.ops {
		h := data.hist
		snap.Ops[name] = OpSnapshot{
			Count:   data.success + data.failure,
			Success: data.success,
			Failure: data.failure,
			Min:     time.Duration(h.Min()) * time.Microsecond,
			Mean:    time.Duration(h.Mean()) * time.Microsecond,
			P50:     time.Duration(h.ValueAtQuantile(50)) * time.Microsecond,
			P95:     time.Duration(h.ValueAtQuantile(95)) * time.Microsecond,
			P99:     time.Duration(h.ValueAtQuantile(99)) * time.Microsecond,
			Max:     time.Duration(h.Max()) * time.Microsecond,
		}
	}
	return snap
}

// Reset 清空全部已记录指标。
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ops = make(map[string]*opData)
	c.start = time.Now()
}
