// Package contextualizer 为文档片段批量生成检索上下文。
// 它是有界并发执行器的主要调用方：整个文档作为共享前缀，
// 每个片段一次模型调用，失败策略由调用方配置决定。
package contextualizer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"

	"yqhp/agent-batch/internal/config"
	"yqhp/agent-batch/internal/llm"
	"yqhp/agent-batch/internal/metrics"
	"yqhp/agent-batch/pkg/fanout"
	"yqhp/agent-batch/pkg/logger"
	"yqhp/agent-batch/pkg/types"
)

// metricsOp 是上下文生成在指标收集器中的操作名。
const metricsOp = "contextualize"

// Contextualizer 驱动一批片段的上下文生成。
type Contextualizer struct {
	model     llm.ChatModel
	cfg       config.ContextualizerConfig
	collector *metrics.Collector
}

// Report 汇总一次批量上下文生成的执行情况。
type Report struct {
	Batch     *fanout.Batch    `json:"batch"`
	Usage     types.TokenUsage `json:"usage"`
	Fallbacks int              `json:"fallbacks"`
}

// New 创建 Contextualizer。collector 可以为 nil，表示不记录指标。
func New(model llm.ChatModel, cfg config.ContextualizerConfig, collector *metrics.Collector) *Contextualizer {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = fanout.DefaultMaxConcurrent
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 200
	}
	if cfg.OnError == "" {
		cfg.OnError = config.OnErrorFallback
	}
	return &Contextualizer{
		model:     model,
		cfg:       cfg,
		collector: collector,
	}
}

// FallbackContext 返回失败片段的占位上下文（index 从 0 开始）。
func FallbackContext(index int) string {
	return fmt.Sprintf("This is chunk %d from the document.", index+1)
}

type chunkOutput struct {
	context string
	usage   types.TokenUsage
}

// AddContext 并发地为所有片段生成上下文，结果按片段索引对齐。
//
// 失败策略：
//   - fallback: 失败片段替换为 FallbackContext 占位文本并标记 Fallback
//   - fail:     任一失败导致整体返回错误
func (c *Contextualizer) AddContext(ctx context.Context, document string, chunks []types.Chunk) ([]types.ContextualizedChunk, *Report, error) {
	logger.Info("开始批量生成上下文: %d 个片段, 并发上限 %d", len(chunks), c.cfg.MaxConcurrent)

	results, batch, err := fanout.RunBatch(ctx, chunks, c.cfg.MaxConcurrent,
		func(ctx context.Context, chunk types.Chunk, index int) (chunkOutput, error) {
			start := time.Now()
			system, user := llm.ContextualizeMessages(document, chunk.Text)
			// 上下文只需要一小段文字，限制生成长度
			content, usage, genErr := llm.Generate(ctx, c.model, system, user,
				model.WithMaxTokens(c.cfg.MaxTokens))
			c.record(time.Since(start), genErr == nil)

			if genErr != nil {
				return chunkOutput{}, genErr
			}
			return chunkOutput{context: strings.TrimSpace(content), usage: usage}, nil
		})
	if err != nil {
		return nil, nil, err
	}

	report := &Report{Batch: batch}
	out := make([]types.ContextualizedChunk, len(results))
	for i, r := range results {
		if r.OK() {
			report.Usage.Add(r.Value.usage)
			out[i] = types.ContextualizedChunk{Chunk: chunks[i], Context: r.Value.context}
			continue
		}

		if c.cfg.OnError == config.OnErrorFail {
			return nil, nil, fmt.Errorf("为片段 %d 生成上下文失败: %w", i, r.Err)
		}
		logger.Warn("片段 %d 上下文生成失败，使用占位文本: %v", i, r.Err)
		report.Fallbacks++
		out[i] = types.ContextualizedChunk{
			Chunk:    chunks[i],
			Context:  FallbackContext(i),
			Fallback: true,
		}
	}

	logger.Info("批量上下文生成完成: 成功 %d, 失败 %d, 耗时 %s",
		batch.Succeeded, batch.Failed, batch.Duration.Round(time.Millisecond))
	return out, report, nil
}

func (c *Contextualizer) record(d time.Duration, ok bool) {
	if c.collector != nil {
		c.collector.Record(metricsOp, d, ok)
	}
}
