package cmd

import (
	"context"
	"fmt"
	"strings"

	"codestat/internal/config"
	"codestat/internal/history"
	"codestat/internal/languages"
	"codestat/internal/model"
	"codestat/internal/report"
	"codestat/internal/scanner"

	"github.com/spf13/cobra"
)

// scanFlags 存放 scan/watch 共用的命令行参数。
// 只有显式传入的参数才会覆盖配置文件。
type scanFlags struct {
	languages     []string
	top           int
	format        string
	output        string
	workers       int
	exclude       []string
	noHeadersObjC bool
	history       bool
	noColor       bool
	showFiles     bool
}

func (f *scanFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringSliceVar(&f.languages, "lang", nil, "只统计指定语言，例如 swift,kotlin")
	flags.IntVar(&f.top, "top", 0, "输出行数最多的前 N 个文件")
	flags.StringVar(&f.format, "format", "table", "输出格式: table 或 json")
	flags.StringVar(&f.output, "output", "", "额外导出 JSON 结果的文件路径")
	flags.IntVar(&f.workers, "workers", 0, "并发 worker 数量，默认 CPU 核数")
	flags.StringSliceVar(&f.exclude, "exclude", nil, "排除的 glob 规则，会替换配置中的列表")
	flags.BoolVar(&f.noHeadersObjC, "no-headers-objc", false, "不把 .h 文件当作 Objective-C 统计")
	flags.BoolVar(&f.history, "history", false, "把本次扫描写入历史库")
	flags.BoolVar(&f.noColor, "no-color", false, "关闭彩色输出")
	flags.BoolVar(&f.showFiles, "files", false, "同时输出每个文件的明细")
}

// apply 把显式给出的参数写回配置并重新校验。
func (f *scanFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("lang") {
		cfg.Scan.Languages = f.languages
	}
	if flags.Changed("top") {
		cfg.Scan.Top = f.top
	}
	if flags.Changed("format") {
		cfg.Scan.Format = f.format
	}
	if flags.Changed("output") {
		cfg.Scan.Output = f.output
	}
	if flags.Changed("workers") {
		cfg.Scan.Workers = f.workers
	}
	if flags.Changed("exclude") {
		cfg.Scan.Exclude = f.exclude
	}
	if flags.Changed("no-headers-objc") {
		enabled := !f.noHeadersObjC
		cfg.Scan.HeadersAsObjC = &enabled
	}
	if flags.Changed("history") {
		cfg.History.Enabled = f.history
	}
	return cfg.Validate()
}

// newScanCmd 创建 scan 子命令。
// 示例：
//
//	codestat scan .
//	codestat scan ./App --lang swift --top 5
//	codestat scan ./project --format json --output result.json
func newScanCmd(a *app) *cobra.Command {
	var options scanFlags

	scanCmd := &cobra.Command{
		Use:   "scan [path]",
		Short: "扫描目录或文件并输出各语言构造统计",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := options.apply(cmd, a.cfg); err != nil {
				return err
			}

			service, err := newScanService(a, 0)
			if err != nil {
				return err
			}

			result, err := service.ScanPath(cmd.Context(), targetPath(args))
			if err != nil {
				return err
			}

			if err := saveHistory(cmd.Context(), a.cfg, result); err != nil {
				return err
			}
			return writeResult(cmd, a.cfg, options, result)
		},
	}

	options.register(scanCmd)
	return scanCmd
}

// targetPath 返回位置参数中的路径，缺省为当前目录。
func targetPath(args []string) string {
	if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
		return "."
	}
	return args[0]
}

// newScanService 按当前配置创建扫描服务。
func newScanService(a *app, cacheSize int) (*scanner.Service, error) {
	registry := languages.NewRegistry(languages.WithHeadersAsObjectiveC(a.cfg.HeadersAsObjectiveC()))
	return scanner.NewService(registry, scanner.Options{
		Workers:   a.cfg.Scan.Workers,
		Exclude:   a.cfg.Scan.Exclude,
		Languages: a.cfg.LanguageTags(),
		Top:       a.cfg.Scan.Top,
		CacheSize: cacheSize,
		Logger:    a.logger,
	})
}

// writeResult 按格式输出结果，并在配置了 output 时导出 JSON 文件。
func writeResult(cmd *cobra.Command, cfg *config.Config, options scanFlags, result model.ScanResult) error {
	switch cfg.Scan.Format {
	case "json":
		if err := report.PrintJSON(cmd.OutOrStdout(), result); err != nil {
			return err
		}
	default:
		if err := report.PrintTable(cmd.OutOrStdout(), result, report.Options{
			Color:     !options.noColor,
			ShowFiles: options.showFiles,
		}); err != nil {
			return err
		}
	}

	outputPath := strings.TrimSpace(cfg.Scan.Output)
	if outputPath == "" {
		return nil
	}
	if err := report.WriteJSONFile(outputPath, result); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "JSON exported to %s\n", outputPath)
	return nil
}

// saveHistory 在开启历史记录时保存本次扫描。
func saveHistory(ctx context.Context, cfg *config.Config, result model.ScanResult) error {
	if !cfg.History.Enabled {
		return nil
	}

	store, err := history.Open(cfg.History.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.SaveRun(ctx, result); err != nil {
		return fmt.Errorf("save history: %w", err)
	}
	return nil
}
