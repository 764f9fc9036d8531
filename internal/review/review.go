// Package review 实现并行代码评审：三个专业评审角色对同一份 diff
// 并发出具发现列表，再由主持人角色综合成最终结论。
package review

import (
	"context"
	"fmt"
	"strings"
	"time"

	"yqhp/agent-batch/internal/config"
	"yqhp/agent-batch/internal/llm"
	"yqhp/agent-batch/internal/metrics"
	"yqhp/agent-batch/pkg/fanout"
	"yqhp/agent-batch/pkg/logger"
	"yqhp/agent-batch/pkg/types"
)

const (
	metricsOpReview    = "review"
	metricsOpSynthesis = "review_synthesis"
)

// reviewRoles 固定的三个评审角色，顺序即报告顺序。
var reviewRoles = []types.ReviewRole{
	types.RoleSecurity,
	types.RoleScale,
	types.RoleCleanCode,
}

// Reviewer 驱动一次并行评审。
type Reviewer struct {
	model     llm.ChatModel
	cfg       config.ReviewConfig
	collector *metrics.Collector
}

// NewReviewer 创建 Reviewer。collector 可以为 nil。
func NewReviewer(model llm.ChatModel, cfg config.ReviewConfig, collector *metrics.Collector) *Reviewer {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = len(reviewRoles)
	}
	if cfg.MaxDiffBytes <= 0 {
		cfg.MaxDiffBytes = 512 * 1024
	}
	return &Reviewer{
		model:     model,
		cfg:       cfg,
		collector: collector,
	}
}

// Review 对 diff 执行三路并行评审并综合结论。
// 单个评审角色失败不会中断其余角色，只在报告中标注；
// 综合阶段失败则整体失败。
func (r *Reviewer) Review(ctx context.Context, diff string) (*types.ReviewReport, *fanout.Batch, error) {
	diff = strings.TrimSpace(diff)
	if diff == "" {
		return nil, nil, fmt.Errorf("diff 为空，无可评审内容")
	}
	if len(diff) > r.cfg.MaxDiffBytes {
		logger.Warn("diff 超过 %d 字节，截断后评审", r.cfg.MaxDiffBytes)
		diff = diff[:r.cfg.MaxDiffBytes]
	}

	logger.Info("开始并行评审: %d 个角色, 并发上限 %d", len(reviewRoles), r.cfg.MaxConcurrent)

	report := &types.ReviewReport{}

	results, batch, err := fanout.RunBatch(ctx, reviewRoles, r.cfg.MaxConcurrent,
		func(ctx context.Context, role types.ReviewRole, index int) (agentOutput, error) {
			return r.runAgent(ctx, role, diff)
		})
	if err != nil {
		return nil, nil, err
	}

	report.Findings = make([]types.ReviewFindings, len(reviewRoles))
	for i, res := range results {
		role := reviewRoles[i]
		if res.OK() {
			report.Usage.Add(res.Value.usage)
			report.Findings[i] = types.ReviewFindings{Role: role, Findings: res.Value.findings}
			continue
		}
		logger.Warn("评审角色 %s 失败: %v", role, res.Err)
		report.Findings[i] = types.ReviewFindings{Role: role, Findings: []string{}, Err: res.Err.Error()}
	}

	verdict, usage, err := r.synthesize(ctx, report.Findings)
	if err != nil {
		return nil, nil, fmt.Errorf("综合评审结论失败: %w", err)
	}
	report.Verdict = verdict
	report.Usage.Add(usage)

	logger.Info("评审完成: %d 条发现, 耗时 %s", report.TotalFindings(), batch.Duration.Round(time.Millisecond))
	return report, batch, nil
}

type agentOutput struct {
	findings []string
	usage    types.TokenUsage
}

// runAgent 执行单个评审角色：一次模型调用 + 发现列表解析。
func (r *Reviewer) runAgent(ctx context.Context, role types.ReviewRole, diff string) (agentOutput, error) {
	start := time.Now()

	system, err := llm.ReviewSystemPrompt(role)
	if err != nil {
		return agentOutput{}, err
	}

	content, usage, err := llm.Generate(ctx, r.model, system, llm.ReviewUserMessage(diff))
	if err != nil {
		r.record(metricsOpReview, time.Since(start), false)
		return agentOutput{}, err
	}

	findings, err := ParseFindings(content)
	if err != nil {
		r.record(metricsOpReview, time.Since(start), false)
		return agentOutput{}, fmt.Errorf("解析 %s 评审结果失败: %w", role, err)
	}

	r.record(metricsOpReview, time.Since(start), true)
	return agentOutput{findings: findings, usage: usage}, nil
}

// synthesize 由主持人角色把各路发现合成最终结论。
func (r *Reviewer) synthesize(ctx context.Context, findings []types.ReviewFindings) (string, types.TokenUsage, error) {
	start := time.Now()

	system, user := llm.ChairpersonMessages(findings)
	verdict, usage, err := llm.Generate(ctx, r.model, system, user)
	r.record(metricsOpSynthesis, time.Since(start), err == nil)
	if err != nil {
		return "", usage, err
	}
	return strings.TrimSpace(verdict), usage, nil
}

func (r *Reviewer) record(op string, d time.Duration, ok bool) {
	if r.collector != nil {
		r.collector.Record(op, d, ok)
	}
}
