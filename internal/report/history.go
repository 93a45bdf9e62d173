package report

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"codestat/internal/history"
)

// PrintHistory 以表格展示历史扫描记录。
func PrintHistory(writer io.Writer, runs []history.Run) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(writer, "no recorded runs")
		return err
	}

	tw := tabwriter.NewWriter(writer, 0, 4, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, "RUN\tSTARTED\tPATH\tFILES\tLINES\tERRORS\tSECONDS"); err != nil {
		return err
	}
	for _, run := range runs {
		if _, err := fmt.Fprintf(
			tw,
			"%s\t%s\t%s\t%d\t%d\t%d\t%.2f\n",
			shortID(run.ID),
			run.StartedAt.Local().Format(time.DateTime),
			run.ScannedPath,
			run.Files,
			run.Lines,
			run.Errors,
			run.ElapsedSeconds,
		); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// PrintRunLanguages 展示某次扫描的语言汇总。
func PrintRunLanguages(writer io.Writer, rows []history.LanguageRow) error {
	tw := tabwriter.NewWriter(writer, 0, 4, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, "LANGUAGE\tFILES\tLINES\tCLASSES\tSTRUCTS\tENUMS\tINTERFACES\tFUNCTIONS\tIMPORTS\tEXTENSIONS\tSHARE"); err != nil {
		return err
	}
	for _, row := range rows {
		share := "-"
		if row.Percentage != nil {
			share = fmt.Sprintf("%.1f %%", *row.Percentage)
		}
		if _, err := fmt.Fprintf(
			tw,
			"%s\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%s\n",
			row.Language,
			row.Files,
			row.Lines,
			row.Counts.Classes,
			row.Counts.Structs,
			row.Counts.Enums,
			row.Counts.Interfaces,
			row.Counts.Functions,
			row.Counts.Imports,
			row.Counts.Extensions,
			share,
		); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// shortID 截取 uuid 前 8 位用于展示。
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
