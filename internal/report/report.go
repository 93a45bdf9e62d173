// Package report 提供 codestat 的输出能力。
// 当前实现支持彩色控制台格式和 JSON 格式（含文件导出），本包只负责展示，不做统计。
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"codestat/internal/languages"
	"codestat/internal/model"

	"github.com/charmbracelet/lipgloss"
)

const (
	labelWidth     = 24
	separatorWidth = 35
)

// Options 控制控制台输出。
type Options struct {
	// Color 为 true 时按终端能力着色；写入非终端时 lipgloss 会自动降级为纯文本。
	Color bool
	// ShowFiles 为 true 时额外打印每个文件的明细。
	ShowFiles bool
}

// palette 是一组输出样式。
type palette struct {
	title     lipgloss.Style
	label     lipgloss.Style
	value     lipgloss.Style
	lines     lipgloss.Style
	percent   lipgloss.Style
	separator lipgloss.Style
	warning   lipgloss.Style
	muted     lipgloss.Style
}

func newPalette(writer io.Writer, color bool) palette {
	if !color {
		plain := lipgloss.NewStyle()
		return palette{plain, plain, plain, plain, plain, plain, plain, plain}
	}

	renderer := lipgloss.NewRenderer(writer)
	return palette{
		title:     renderer.NewStyle().Bold(true).Foreground(lipgloss.Color("#F8FAFC")),
		label:     renderer.NewStyle().Foreground(lipgloss.Color("#94A3B8")),
		value:     renderer.NewStyle().Foreground(lipgloss.Color("#3B82F6")),
		lines:     renderer.NewStyle().Foreground(lipgloss.Color("#F87171")),
		percent:   renderer.NewStyle().Foreground(lipgloss.Color("#10B981")),
		separator: renderer.NewStyle().Foreground(lipgloss.Color("#FBBF24")),
		warning:   renderer.NewStyle().Foreground(lipgloss.Color("#FBBF24")),
		muted:     renderer.NewStyle().Foreground(lipgloss.Color("#64748B")),
	}
}

// PrintTable 按语言分块展示扫描结果，随后输出占比、大文件排名和错误。
func PrintTable(writer io.Writer, result model.ScanResult, options Options) error {
	styles := newPalette(writer, options.Color)
	out := &errWriter{writer: writer}

	out.printf("%s %s\n\n", styles.label.Render("SCANNED PATH"), result.ScannedPath)

	if result.Total().Files == 0 {
		out.printf("%s\n", styles.warning.Render("no source files found"))
		out.printf("%s\n", formatElapsed(styles, result.ElapsedSeconds))
		return out.err
	}

	if options.ShowFiles {
		if err := printFiles(writer, result.Files); err != nil {
			return err
		}
		out.printf("\n")
	}

	for _, item := range result.Languages {
		printSummary(out, styles, item)
	}

	if len(result.Statistics) > 0 {
		for _, stat := range result.Statistics {
			// 占比为 0 的语言不值得单独一行。
			if stat.Percentage <= 0 {
				continue
			}
			out.printf("%s\n", styles.separator.Render(strings.Repeat("-", separatorWidth)))
			out.printf("%s%s  %s\n",
				styles.label.Render(pad(stat.Language.String()+" code", labelWidth)),
				styles.percent.Render(fmt.Sprintf("%.1f %%", stat.Percentage)),
				styles.muted.Render(fmt.Sprintf("(avg %.1f lines/file)", stat.AverageLines)),
			)
		}
		out.printf("%s\n", styles.separator.Render(strings.Repeat("-", separatorWidth)))
	}
	if out.err != nil {
		return out.err
	}

	if len(result.Largest) > 0 {
		out.printf("\n%s\n", styles.title.Render("LARGEST FILES"))
		if out.err != nil {
			return out.err
		}
		if err := printFiles(writer, result.Largest); err != nil {
			return err
		}
	}

	if len(result.Errors) > 0 {
		out.printf("\n%s\n", styles.warning.Render("UNREADABLE (counted as empty)"))
		if out.err != nil {
			return out.err
		}
		tw := tabwriter.NewWriter(writer, 0, 4, 2, ' ', 0)
		if _, err := fmt.Fprintln(tw, "FILE\tMESSAGE"); err != nil {
			return err
		}
		for _, item := range result.Errors {
			if _, err := fmt.Fprintf(tw, "%s\t%s\n", item.Path, item.Error); err != nil {
				return err
			}
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	out.printf("\n%s\n", formatElapsed(styles, result.ElapsedSeconds))
	return out.err
}

// printSummary 输出一个语言块，构造名称使用该语言自己的叫法。
func printSummary(out *errWriter, styles palette, item model.LanguageSummary) {
	if item.Files == 0 && item.Language != languages.All {
		return
	}

	out.printf("%s\n", styles.title.Render(item.Language.String()))
	for _, kind := range languages.Kinds() {
		if item.Language == languages.Unrecognized {
			break
		}
		// 该语言没有此构造的标记时跳过，避免输出恒为 0 的行。
		if item.Language.IsConcrete() && languages.MarkersFor(item.Language).Marker(kind) == "" {
			continue
		}
		out.printf("  %s%s\n",
			styles.label.Render(pad(languages.Label(item.Language, kind)+":", labelWidth)),
			styles.value.Render(fmt.Sprintf("%d", item.Counts.Get(kind))),
		)
	}
	out.printf("  %s%s\n", styles.label.Render(pad("files:", labelWidth)), styles.value.Render(fmt.Sprintf("%d", item.Files)))
	out.printf("  %s%s\n", styles.label.Render(pad("lines:", labelWidth)), styles.lines.Render(fmt.Sprintf("%d", item.LineCount())))
	out.printf("  %s%s\n",
		styles.label.Render(pad("code/comment/blank:", labelWidth)),
		styles.muted.Render(fmt.Sprintf("%d/%d/%d", item.Lines.Code, item.Lines.Comment, item.Lines.Blank)),
	)
	out.printf("\n")
}

// printFiles 使用表格展示文件明细。
func printFiles(writer io.Writer, records []model.FileRecord) error {
	tw := tabwriter.NewWriter(writer, 0, 4, 2, ' ', 0)

	if _, err := fmt.Fprintln(tw, "FILE\tLANGUAGE\tLINES\tCODE\tCOMMENT\tBLANK"); err != nil {
		return err
	}
	for _, item := range records {
		if _, err := fmt.Fprintf(
			tw,
			"%s\t%s\t%d\t%d\t%d\t%d\n",
			item.Filename,
			item.Language,
			item.Lines.Total,
			item.Lines.Code,
			item.Lines.Comment,
			item.Lines.Blank,
		); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func formatElapsed(styles palette, seconds float64) string {
	return "Total time: " + styles.percent.Render(fmt.Sprintf("%.2f", seconds)) + " seconds"
}

// pad 在着色之前补齐宽度，保证颜色转义码不影响对齐。
func pad(text string, width int) string {
	if len(text) >= width {
		return text + " "
	}
	return text + strings.Repeat(" ", width-len(text))
}

// errWriter 记住第一次写入错误，后续写入直接跳过。
type errWriter struct {
	writer io.Writer
	err    error
}

func (w *errWriter) printf(format string, args ...any) {
	if w.err != nil {
		return
	}
	_, w.err = fmt.Fprintf(w.writer, format, args...)
}

// PrintJSON 把扫描结果按易读 JSON 输出到任意 writer。
func PrintJSON(writer io.Writer, result model.ScanResult) error {
	content, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if _, err := writer.Write(append(content, '\n')); err != nil {
		return fmt.Errorf("write json: %w", err)
	}
	return nil
}

// WriteJSONFile 将 JSON 结果导出到指定路径。
// 如果目录不存在会自动创建。
func WriteJSONFile(path string, result model.ScanResult) error {
	content, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	directory := filepath.Dir(path)
	if directory != "." && directory != "" {
		if mkErr := os.MkdirAll(directory, 0o755); mkErr != nil {
			return fmt.Errorf("create output directory: %w", mkErr)
		}
	}

	if writeErr := os.WriteFile(path, content, 0o644); writeErr != nil {
		return fmt.Errorf("write output file: %w", writeErr)
	}
	return nil
}
