package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"yqhp/agent-batch/internal/chunker"
	"yqhp/agent-batch/internal/config"
	"yqhp/agent-batch/internal/contextualizer"
	"yqhp/agent-batch/internal/metrics"
)

var (
	// contextualize 命令的 flags
	ctxMaxConcurrent int
	ctxOnError       string
	ctxMaxChunkChars int
	ctxOverlapChars  int
	ctxJSONOutput    string
)

// contextualizeCmd 是 contextualize 子命令
var contextualizeCmd = &cobra.Command{
	Use:   "contextualize <document.txt>",
	Short: "为文档片段批量生成检索上下文",
	Long: `读取文档，按段落切分后并发地为每个片段生成检索上下文。

文档路径为 "-" 时从标准输入读取。
失败策略：
  - fallback: 失败片段使用占位上下文（默认）
  - fail:     任一失败导致整体失败`,
	Example: `  # 基本执行
  agent-batch contextualize doc.txt

  # 指定并发上限和失败策略
  agent-batch contextualize -n 5 --on-error fail doc.txt

  # 从标准输入读取并输出 JSON 结果到文件
  cat doc.txt | agent-batch contextualize --out-json result.json -`,
	Args: cobra.ExactArgs(1),
	RunE: runContextualize,
}

func init() {
	rootCmd.AddCommand(contextualizeCmd)

	contextualizeCmd.Flags().IntVarP(&ctxMaxConcurrent, "max-concurrent", "n", 0, "并发上限 (覆盖配置)")
	contextualizeCmd.Flags().StringVar(&ctxOnError, "on-error", "", "失败策略 (fallback, fail)")
	contextualizeCmd.Flags().IntVar(&ctxMaxChunkChars, "max-chunk-chars", 0, "片段最大字符数 (覆盖配置)")
	contextualizeCmd.Flags().IntVar(&ctxOverlapChars, "overlap-chars", 0, "片段重叠字符数 (覆盖配置)")
	contextualizeCmd.Flags().StringVar(&ctxJSONOutput, "out-json", "", "输出 JSON 结果到文件")
}

func runContextualize(cmd *cobra.Command, args []string) error {
	document, err := readDocument(args[0])
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// 应用命令行参数覆盖
	if ctxMaxConcurrent > 0 {
		cfg.Contextualizer.MaxConcurrent = ctxMaxConcurrent
	}
	if ctxOnError != "" {
		cfg.Contextualizer.OnError = ctxOnError
	}
	if ctxMaxChunkChars > 0 {
		cfg.Chunker.MaxChars = ctxMaxChunkChars
	}
	if ctxOverlapChars > 0 {
		cfg.Chunker.OverlapChars = ctxOverlapChars
	}
	if err := config.NewValidator().Validate(cfg); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	model, err := newModel(ctx, cfg)
	if err != nil {
		return err
	}

	chunks := chunker.Split(document, chunker.Options{
		MaxChars:     cfg.Chunker.MaxChars,
		OverlapChars: cfg.Chunker.OverlapChars,
	})
	if !quiet {
		fmt.Printf("文档切分为 %d 个片段，并发上限 %d\n", len(chunks), cfg.Contextualizer.MaxConcurrent)
	}

	collector := metrics.NewCollector()
	ctxr := contextualizer.New(model, cfg.Contextualizer, collector)

	out, report, err := ctxr.AddContext(ctx, document, chunks)
	if err != nil {
		return fmt.Errorf("执行失败: %w", err)
	}

	if ctxJSONOutput != "" {
		if err := writeJSON(ctxJSONOutput, map[string]any{
			"chunks": out,
			"report": report,
		}); err != nil {
			return err
		}
	}

	if !quiet {
		printContextualizeSummary(report, collector)
	}
	return nil
}

// readDocument 读取文档内容，路径为 "-" 时从标准输入读取。
func readDocument(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("读取标准输入失败: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("读取文档失败: %w", err)
	}
	return string(data), nil
}

// writeJSON 把结果序列化为 JSON 并写入文件。
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化结果失败: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("写入结果失败: %w", err)
	}
	return nil
}

func printContextualizeSummary(report *contextualizer.Report, collector *metrics.Collector) {
	fmt.Printf("\n完成: 成功 %d, 失败 %d, 占位 %d, 耗时 %s\n",
		report.Batch.Succeeded, report.Batch.Failed, report.Fallbacks,
		report.Batch.Duration.Round(time.Millisecond))
	fmt.Printf("Token 用量: prompt=%d completion=%d total=%d\n",
		report.Usage.PromptTokens, report.Usage.CompletionTokens, report.Usage.TotalTokens)

	snap := collector.Snapshot()
	if op, ok := snap.Ops["contextualize"]; ok {
		fmt.Printf("延迟: p50=%s p95=%s p99=%s max=%s\n",
			op.P50.Round(time.Millisecond), op.P95.Round(time.Millisecond),
			op.P99.Round(time.Millisecond), op.Max.Round(time.Millisecond))
	}
}
