package summary

import (
	"sort"

	"codestat/internal/model"
)

// TopN 返回行数最多的 n 个文件。
// 行数降序，行数相同按文件名升序，保证多次运行结果一致。
// n <= 0 时返回空列表；输入切片不会被修改。
func TopN(records []model.FileRecord, n int) []model.FileRecord {
	if n <= 0 || len(records) == 0 {
		return []model.FileRecord{}
	}

	sorted := make([]model.FileRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i int, j int) bool {
		if sorted[i].LineCount() != sorted[j].LineCount() {
			return sorted[i].LineCount() > sorted[j].LineCount()
		}
		return sorted[i].Filename < sorted[j].Filename
	})

	return sorted[:min(n, len(sorted))]
}
