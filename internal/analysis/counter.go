// Package analysis 实现单文件分析：构造计数与行统计。
//
// 构造计数是纯子串匹配而不是词法分析，
// 出现在字符串字面量或注释里的标记同样会被计数，这是已知的高估来源。
package analysis

import (
	"strings"

	"codestat/internal/languages"
	"codestat/internal/model"
)

// Analyze 分析一个文件的内容并生成记录。
// 这是纯函数：相同输入总是得到相同记录，不做任何 I/O。
// 读取失败由调用方以空内容传入，此时得到全零记录。
func Analyze(filename string, content string, tag languages.Tag) model.FileRecord {
	markers := languages.MarkersFor(tag)

	record := model.FileRecord{
		Filename: filename,
		Language: tag,
		Lines:    classifyLines(content, styleFor(tag)),
	}
	record.Lines.Total = CountLines(content)

	for _, kind := range languages.Kinds() {
		record.Counts.Set(kind, countKind(content, markers, kind))
	}
	return record
}

// countKind 统计某个构造，并扣除影子标记的匹配。
func countKind(content string, markers languages.MarkerSet, kind languages.Kind) int64 {
	count := CountInstances(content, markers.Marker(kind))
	if count == 0 {
		return 0
	}
	for _, shadow := range markers.Shadows(kind) {
		count -= CountInstances(content, shadow)
	}
	return max(count, 0)
}

// CountInstances 从左到右统计 marker 的不重叠出现次数，区分大小写。
// 每次命中后从命中末尾继续查找；空 marker 计为 0。
func CountInstances(content string, marker string) int64 {
	if marker == "" {
		return 0
	}
	return int64(strings.Count(content, marker))
}

// CountLines 返回常规意义上的行数：
// 换行符个数，若最后一行没有以换行结尾再加 1。
// 因此 "a\nb" 与 "a\nb\n" 都是 2 行，空内容为 0 行。
func CountLines(content string) int64 {
	if content == "" {
		return 0
	}
	count := int64(strings.Count(content, "\n"))
	if !strings.HasSuffix(content, "\n") {
		count++
	}
	return count
}
