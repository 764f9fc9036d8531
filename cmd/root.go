// Package cmd 提供 agent-batch CLI 的命令实现
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"yqhp/agent-batch/internal/config"
	"yqhp/agent-batch/internal/llm"
	"yqhp/agent-batch/pkg/logger"
)

const (
	// Version 是当前版本号
	Version = "0.1.0"
	// Banner 是启动时显示的 ASCII 艺术
	Banner = `
   ____ _       |‾‾| Agent Batch %s
  / __ \ \      |  |
 / /  \ \ \     |  |
 \ \__/ / /     |  |
  \____/_/      |__|
`
)

var (
	// 全局配置
	cfgFile string
	debug   bool
	quiet   bool
)

// rootCmd 是根命令
var rootCmd = &cobra.Command{
	Use:   "agent-batch",
	Short: "有界并发的批量模型调用工具",
	Long: `agent-batch 以受控并发批量调度模型调用，
支持文档片段的检索上下文生成和多角色并行代码评审。`,
	Version: Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if debug {
			logger.EnableDebug()
		}
	},
}

// Execute 执行根命令
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// 全局 flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "配置文件路径")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "启用调试日志")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "静默模式")

	// 禁用默认的 completion 命令
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	// 自定义版本模板
	rootCmd.SetVersionTemplate(fmt.Sprintf(Banner, Version) + "\n")
}

// GetRootCmd 返回根命令（用于测试）
func GetRootCmd() *cobra.Command {
	return rootCmd
}

// loadConfig 加载配置并应用全局 flags。
func loadConfig() (*config.Config, error) {
	cfg, err := config.NewLoader().WithConfigPath(cfgFile).Load()
	if err != nil {
		return nil, fmt.Errorf("加载配置失败: %w", err)
	}

	if debug {
		cfg.Logging.Level = "debug"
	}
	logger.SetLevelFromString(cfg.Logging.Level)

	return cfg, nil
}

// newModel 按配置创建聊天模型。
func newModel(ctx context.Context, cfg *config.Config) (llm.ChatModel, error) {
	model, err := llm.NewChatModel(ctx, &cfg.API)
	if err != nil {
		return nil, fmt.Errorf("创建聊天模型失败: %w", err)
	}
	return model, nil
}

// signalContext 返回随 SIGINT/SIGTERM 取消的上下文。
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\n正在中止...")
		cancel()
	}()

	return ctx, cancel
}
