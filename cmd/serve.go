package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"yqhp/agent-batch/api/rest"
	"yqhp/agent-batch/internal/metrics"
	"yqhp/agent-batch/pkg/logger"
)

var serveAddress string

// serveCmd 是 serve 子命令
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "启动 REST API 服务",
	Long: `启动 HTTP 服务，暴露批量上下文生成、并行评审和指标查询接口。

收到 SIGINT/SIGTERM 后优雅关闭。`,
	Example: `  # 使用默认配置启动
  agent-batch serve

  # 指定监听地址
  agent-batch serve --address :9090`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddress, "address", "", "监听地址 (覆盖配置)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveAddress != "" {
		cfg.Server.Address = serveAddress
	}

	ctx, cancel := signalContext()
	defer cancel()

	model, err := newModel(ctx, cfg)
	if err != nil {
		return err
	}

	collector := metrics.NewCollector()
	server := rest.NewServer(cfg, model, collector)

	if !quiet {
		fmt.Printf(Banner, Version)
		fmt.Println()
	}
	logger.Info("REST API 服务监听 %s", cfg.Server.Address)

	if err := server.StartWithContext(ctx); err != nil {
		return fmt.Errorf("服务异常退出: %w", err)
	}

	logger.Info("服务已关闭")
	_ = server.ShutdownWithTimeout(5 * time.Second)
	return nil
}
