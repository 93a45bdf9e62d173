package cmd

import (
	"context"
	"fmt"
	"time"

	"codestat/internal/model"
	"codestat/internal/observability"
	"codestat/internal/scanner"
	"codestat/internal/watcher"

	"github.com/spf13/cobra"
)

var _ watcher.Filter = (*scanner.Service)(nil)

// newWatchCmd 创建 watch 子命令。
// 先完整扫描一次，之后在相关文件变化时重新扫描并输出。
func newWatchCmd(a *app) *cobra.Command {
	var options scanFlags
	var debounce time.Duration
	var metricsAddr string

	watchCmd := &cobra.Command{
		Use:   "watch [path]",
		Short: "监听目录变化并持续输出统计结果",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("debounce") {
				a.cfg.Watch.Debounce.Duration = debounce
			}
			if cmd.Flags().Changed("metrics-addr") {
				a.cfg.Watch.MetricsAddr = metricsAddr
			}
			if err := options.apply(cmd, a.cfg); err != nil {
				return err
			}

			service, err := newScanService(a, a.cfg.Scan.CacheSize)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			root := targetPath(args)

			if a.cfg.Watch.MetricsAddr != "" {
				server := observability.NewMetricsServer(a.cfg.Watch.MetricsAddr)
				if err := server.Start(); err != nil {
					return err
				}
				defer func() {
					stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					_ = server.Stop(stopCtx)
				}()
			}

			rescan := func(ctx context.Context) error {
				result, err := service.ScanPath(ctx, root)
				if err != nil {
					return err
				}
				if err := saveHistory(ctx, a.cfg, result); err != nil {
					a.logger.Warn("failed to record history", "error", err)
				}
				return printWatchResult(cmd, a, options, result)
			}

			if err := rescan(ctx); err != nil {
				return err
			}

			w, err := watcher.New(service, watcher.Options{
				Debounce:            a.cfg.Watch.Debounce.Duration,
				MaxRescansPerSecond: a.cfg.Watch.MaxRescansPerSecond,
				Logger:              a.logger,
			}, func(ctx context.Context, paths []string) {
				service.Invalidate(paths...)
				a.logger.Info("changes detected", "files", len(paths))
				if err := rescan(ctx); err != nil && ctx.Err() == nil {
					a.logger.Error("rescan failed", "error", err)
				}
			})
			if err != nil {
				return err
			}

			a.logger.Info("watching for changes", "path", root)
			return w.Run(ctx, root)
		},
	}

	options.register(watchCmd)
	watchCmd.Flags().DurationVar(&debounce, "debounce", 500*time.Millisecond, "变更去抖时间")
	watchCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Prometheus /metrics 监听地址，例如 :9090")

	return watchCmd
}

// printWatchResult 在每次扫描结果之间加分隔行。
func printWatchResult(cmd *cobra.Command, a *app, options scanFlags, result model.ScanResult) error {
	if _, err := fmt.Fprintf(cmd.OutOrStdout(), "\n== %s ==\n", result.StartedAt.Local().Format(time.TimeOnly)); err != nil {
		return err
	}
	return writeResult(cmd, a.cfg, options, result)
}
