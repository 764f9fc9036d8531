package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"yqhp/agent-batch/internal/config"
	"yqhp/agent-batch/internal/metrics"
	"yqhp/agent-batch/internal/review"
	"yqhp/agent-batch/pkg/types"
)

var (
	// review 命令的 flags
	reviewMaxConcurrent int
	reviewJSONOutput    string
)

// reviewCmd 是 review 子命令
var reviewCmd = &cobra.Command{
	Use:   "review <diff-file|diff-url>",
	Short: "多角色并行代码评审",
	Long: `对代码变更执行三路并行评审（安全、扩展性、可维护性），
再由主持人角色综合成最终结论。

参数以 http:// 或 https:// 开头时按 URL 拉取 diff，否则按本地文件读取。`,
	Example: `  # 评审本地 diff 文件
  agent-batch review changes.diff

  # 评审远端 diff
  agent-batch review https://github.com/org/repo/pull/42.diff

  # 输出 JSON 结果到文件
  agent-batch review --out-json report.json changes.diff`,
	Args: cobra.ExactArgs(1),
	RunE: runReview,
}

func init() {
	rootCmd.AddCommand(reviewCmd)

	reviewCmd.Flags().IntVarP(&reviewMaxConcurrent, "max-concurrent", "n", 0, "并发上限 (覆盖配置)")
	reviewCmd.Flags().StringVar(&reviewJSONOutput, "out-json", "", "输出 JSON 结果到文件")
}

func runReview(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if reviewMaxConcurrent > 0 {
		cfg.Review.MaxConcurrent = reviewMaxConcurrent
	}

	diff, err := readDiff(args[0], cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	model, err := newModel(ctx, cfg)
	if err != nil {
		return err
	}

	collector := metrics.NewCollector()
	reviewer := review.NewReviewer(model, cfg.Review, collector)

	report, batch, err := reviewer.Review(ctx, diff)
	if err != nil {
		return fmt.Errorf("评审失败: %w", err)
	}

	if reviewJSONOutput != "" {
		if err := writeJSON(reviewJSONOutput, map[string]any{
			"report": report,
			"batch":  batch,
		}); err != nil {
			return err
		}
	}

	printReviewReport(report, batch.Duration)
	return nil
}

// readDiff 读取待评审的 diff，支持本地文件和 HTTP URL。
func readDiff(source string, cfg *config.Config) (string, error) {
	if isHTTPSource(source) {
		return review.NewDiffFetcher(cfg.Review).Fetch(source)
	}
	return readLocalDiff(source)
}

func printReviewReport(report *types.ReviewReport, elapsed time.Duration) {
	if !quiet {
		for _, f := range report.Findings {
			fmt.Printf("[%s] ", f.Role)
			switch {
			case f.Err != "":
				fmt.Printf("评审不可用: %s\n", f.Err)
			case len(f.Findings) == 0:
				fmt.Println("无发现")
			default:
				fmt.Printf("%d 条发现\n", len(f.Findings))
				for _, finding := range f.Findings {
					fmt.Println("  - " + finding)
				}
			}
		}
		fmt.Printf("\n共 %d 条发现, 耗时 %s, token 总量 %d\n\n",
			report.TotalFindings(), elapsed.Round(time.Millisecond), report.Usage.TotalTokens)
	}

	fmt.Println(report.Verdict)
}

func isHTTPSource(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

func readLocalDiff(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("读取 diff 失败: %w", err)
	}
	return string(data), nil
}
