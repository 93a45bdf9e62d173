// Package cmd 提供 codestat 的命令行入口与子命令编排。
package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"codestat/internal/config"
	"codestat/internal/observability"

	"github.com/spf13/cobra"
)

// rootOptions 是所有子命令共享的全局参数。
type rootOptions struct {
	configPath   string
	logLevel     string
	logFormat    string
	otlpEndpoint string
}

// app 保存一次命令执行期间的运行时状态。
// PersistentPreRunE 负责填充，子命令只读取。
type app struct {
	version string
	options rootOptions

	cfg      *config.Config
	logger   *slog.Logger
	shutdown func(context.Context) error
}

// Execute 组装根命令并执行。
// version 参数由 main 包注入，便于在 CI/CD 中打包不同版本。
func Execute(version string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return newRootCmd(version).ExecuteContext(ctx)
}

// newRootCmd 创建根命令并注册全部子命令。
func newRootCmd(version string) *cobra.Command {
	a := &app{version: version}

	rootCmd := &cobra.Command{
		Use:   "codestat",
		Short: "Swift/Kotlin/Objective-C 源码结构统计工具",
		Long: "codestat 递归扫描目录，按语言统计 class/struct/enum/interface/function/import/extension\n" +
			"等构造的出现次数与行数，并输出各语言汇总和行数占比。",
		SilenceUsage:       true,
		PersistentPreRunE:  a.setup,
		PersistentPostRunE: a.teardown,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.options.configPath, "config", "", "配置文件路径，默认读取当前目录的 "+config.DefaultFile)
	flags.StringVar(&a.options.logLevel, "log-level", "info", "日志级别: debug, info, warn, error")
	flags.StringVar(&a.options.logFormat, "log-format", "text", "日志格式: text 或 json")
	flags.StringVar(&a.options.otlpEndpoint, "otlp-endpoint", "", "OTLP gRPC 地址，设置后导出扫描 trace")

	rootCmd.AddCommand(newVersionCmd(a))
	rootCmd.AddCommand(newLanguageCmd(a))
	rootCmd.AddCommand(newScanCmd(a))
	rootCmd.AddCommand(newWatchCmd(a))
	rootCmd.AddCommand(newHistoryCmd(a))

	return rootCmd
}

// skipConfigAnnotation 标记不需要读取配置的子命令，
// 配置文件写坏时这些命令仍然可以执行。
const skipConfigAnnotation = "codestat/skip-config"

// setup 加载配置并初始化日志与 tracing。
// 优先级：命令行参数 > 环境变量 > 配置文件 > 默认值。
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if cmd.Annotations[skipConfigAnnotation] == "true" {
		a.logger = newLogger(cmd.ErrOrStderr(), a.options.logLevel, a.options.logFormat)
		return nil
	}

	cfg, err := config.Load(a.options.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Log.Level = a.options.logLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = a.options.logFormat
	}
	if flags.Changed("otlp-endpoint") {
		cfg.Tracing.Endpoint = a.options.otlpEndpoint
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = newLogger(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(a.logger)

	if cfg.Tracing.Endpoint != "" {
		shutdown, err := observability.SetupTracing(cmd.Context(), cfg.Tracing.Endpoint)
		if err != nil {
			return err
		}
		a.shutdown = shutdown
		a.logger.Debug("tracing enabled", "endpoint", cfg.Tracing.Endpoint)
	}
	return nil
}

// teardown 刷新尚未导出的 span。
func (a *app) teardown(_ *cobra.Command, _ []string) error {
	if a.shutdown == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := a.shutdown(ctx); err != nil {
		a.logger.Warn("failed to flush traces", "error", err)
	}
	return nil
}
