package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"codestat/internal/history"
	"codestat/internal/report"

	"github.com/spf13/cobra"
)

// newHistoryCmd 创建 history 子命令。
// 示例：
//
//	codestat history
//	codestat history ./App --limit 5
//	codestat history --run 0f8fad5b-d9cb-469f-a165-70867728950e
func newHistoryCmd(a *app) *cobra.Command {
	var limit int
	var runID string

	historyCmd := &cobra.Command{
		Use:   "history [path]",
		Short: "查看历史扫描记录",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := history.Open(a.cfg.History.Path)
			if err != nil {
				return err
			}
			defer store.Close()

			if id := strings.TrimSpace(runID); id != "" {
				rows, err := store.LoadLanguages(cmd.Context(), id)
				if err != nil {
					return err
				}
				if len(rows) == 0 {
					return fmt.Errorf("run %q not found", id)
				}
				return report.PrintRunLanguages(cmd.OutOrStdout(), rows)
			}

			scannedPath := ""
			if len(args) == 1 {
				scannedPath, err = filepath.Abs(args[0])
				if err != nil {
					return fmt.Errorf("resolve absolute path: %w", err)
				}
			}

			runs, err := store.ListRuns(cmd.Context(), scannedPath, limit)
			if err != nil {
				return err
			}
			return report.PrintHistory(cmd.OutOrStdout(), runs)
		},
	}

	historyCmd.Flags().IntVar(&limit, "limit", 10, "最多显示的记录数，<= 0 表示全部")
	historyCmd.Flags().StringVar(&runID, "run", "", "显示指定扫描的语言明细")

	return historyCmd
}
