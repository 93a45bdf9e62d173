package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"codestat/internal/languages"

	"github.com/spf13/cobra"
)

// newLanguageCmd 创建 language 子命令。
// 命令用于展示当前支持的语言、对应文件后缀以及统计的构造标记。
func newLanguageCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "language",
		Short: "展示已支持语言、后缀及构造标记",
		RunE: func(cmd *cobra.Command, _ []string) error {
			registry := languages.NewRegistry(languages.WithHeadersAsObjectiveC(a.cfg.HeadersAsObjectiveC()))
			writer := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)

			if _, err := fmt.Fprintln(writer, "LANGUAGE\tEXTENSIONS\tMARKERS"); err != nil {
				return err
			}

			for _, item := range registry.Languages() {
				if _, err := fmt.Fprintf(
					writer,
					"%s\t%s\t%s\n",
					item.Tag,
					strings.Join(item.Extensions, ", "),
					describeMarkers(item.Tag),
				); err != nil {
					return err
				}
			}

			return writer.Flush()
		},
	}
}

// describeMarkers 把语言的标记表拼成一行，例如 class="class " function="func "。
func describeMarkers(tag languages.Tag) string {
	markers := languages.MarkersFor(tag)
	parts := make([]string, 0, len(languages.Kinds()))
	for _, kind := range languages.Kinds() {
		marker := markers.Marker(kind)
		if marker == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s=%q", kind, marker))
	}
	return strings.Join(parts, " ")
}
