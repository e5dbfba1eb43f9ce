// Package cmd 提供 robot-fleet CLI 的命令实现
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"yqhp/robot-fleet/internal/config"
	"yqhp/robot-fleet/pkg/logger"
)

// Version 是当前版本号
const Version = "0.1.0"

// globalOptions 是所有子命令共享的 flags 与加载后的配置
type globalOptions struct {
	cfgFile   string
	debug     bool
	quiet     bool
	overrides map[string]string

	cfg *config.Config
	log *zap.Logger
}

// NewRootCmd 创建根命令及全部子命令
func NewRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "robot-fleet",
		Short: "机器人编队协调核心的演示与基准工具",
		Long: `robot-fleet 在进程内模拟一组机器人：共享任务队列、按区域互斥、
基于心跳的离线检测。demo 展示离线检测，bench 与 stress 输出 CSV 基准结果。`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logger.Sync()
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.cfgFile, "config", "", "配置文件路径")
	rootCmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "启用调试日志")
	rootCmd.PersistentFlags().BoolVarP(&opts.quiet, "quiet", "q", false, "静默模式，只输出错误日志")
	rootCmd.PersistentFlags().StringToStringVar(&opts.overrides, "set", nil, "按路径覆盖配置，例如 --set fleet.bench.robots=8")

	// 禁用默认的 completion 命令
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(newDemoCmd(opts), newBenchCmd(opts), newStressCmd(opts), newConfigCmd(opts))
	return rootCmd
}

// load 加载配置并初始化日志
func (o *globalOptions) load() error {
	loader := config.NewLoader().WithCmdArgs(o.overrides)
	if o.cfgFile != "" {
		loader = loader.WithConfigPath(o.cfgFile)
	}

	cfg, err := loader.Load()
	if err != nil {
		return fmt.Errorf("加载配置失败: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger.Init(cfg.Logging.Logger())
	switch {
	case o.debug:
		logger.SetLevelFromString("debug")
	case o.quiet:
		logger.SetLevelFromString("error")
	default:
		logger.SetLevelFromString(cfg.Logging.Level)
	}

	o.cfg = cfg
	o.log = logger.Named("fleet")
	if logger.IsDebugEnabled() {
		if data, err := cfg.Serialize(); err == nil {
			o.log.Debug("effective config", zap.ByteString("yaml", data))
		}
	}
	return nil
}

// signalContext 返回在收到 SIGINT/SIGTERM 时取消的上下文
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// Execute 执行根命令
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
