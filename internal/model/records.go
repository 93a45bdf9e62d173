// Package model 定义 codestat 的核心数据模型。
// 这些结构会被分析器、汇总层、输出层和命令层共同使用，
// 创建后按值传递，不会被原地修改。
package model

import (
	"time"

	"codestat/internal/languages"
)

// LineMetrics 表示一组行级统计值。
//
// 注意：
// - Total 是按常规意义统计的行数，结尾换行不会多算一行空行
// - Code/Comment 可以在同一行同时 +1（例如: let x = 1 // note）
// - Blank 仅用于既不是代码也不是注释的空白行
type LineMetrics struct {
	Total   int64 `json:"total"`
	Code    int64 `json:"code"`
	Comment int64 `json:"comment"`
	Blank   int64 `json:"blank"`
}

// Add 将另一个统计结果叠加到当前对象。
func (m *LineMetrics) Add(other LineMetrics) {
	m.Total += other.Total
	m.Code += other.Code
	m.Comment += other.Comment
	m.Blank += other.Blank
}

// Counts 保存各类构造的出现次数。
type Counts struct {
	Classes    int64 `json:"classes"`
	Structs    int64 `json:"structs"`
	Enums      int64 `json:"enums"`
	Interfaces int64 `json:"interfaces"`
	Functions  int64 `json:"functions"`
	Imports    int64 `json:"imports"`
	Extensions int64 `json:"extensions"`
}

// Add 将另一组计数叠加到当前对象。
func (c *Counts) Add(other Counts) {
	c.Classes += other.Classes
	c.Structs += other.Structs
	c.Enums += other.Enums
	c.Interfaces += other.Interfaces
	c.Functions += other.Functions
	c.Imports += other.Imports
	c.Extensions += other.Extensions
}

// Get 按构造类型读取计数。
func (c Counts) Get(kind languages.Kind) int64 {
	switch kind {
	case languages.Class:
		return c.Classes
	case languages.Struct:
		return c.Structs
	case languages.Enum:
		return c.Enums
	case languages.Interface:
		return c.Interfaces
	case languages.Function:
		return c.Functions
	case languages.Import:
		return c.Imports
	case languages.Extension:
		return c.Extensions
	default:
		return 0
	}
}

// Set 按构造类型写入计数。
func (c *Counts) Set(kind languages.Kind, value int64) {
	switch kind {
	case languages.Class:
		c.Classes = value
	case languages.Struct:
		c.Structs = value
	case languages.Enum:
		c.Enums = value
	case languages.Interface:
		c.Interfaces = value
	case languages.Function:
		c.Functions = value
	case languages.Import:
		c.Imports = value
	case languages.Extension:
		c.Extensions = value
	}
}

// FileRecord 表示单文件分析结果。
// Filename 是相对扫描根目录的展示路径（保留后缀，使用 / 分隔）。
type FileRecord struct {
	Filename string        `json:"filename"`
	Language languages.Tag `json:"language"`
	Lines    LineMetrics   `json:"lines"`
	Counts   Counts        `json:"counts"`
}

// LineCount 返回文件的总行数。
func (r FileRecord) LineCount() int64 {
	return r.Lines.Total
}

// LanguageSummary 表示某个语言（或 All）的聚合结果。
type LanguageSummary struct {
	Language   languages.Tag `json:"language"`
	Extensions []string      `json:"extensions,omitempty"`
	Files      int64         `json:"files"`
	Lines      LineMetrics   `json:"lines"`
	Counts     Counts        `json:"counts"`
}

// AddRecord 累加一个文件的统计值到汇总中。
func (s *LanguageSummary) AddRecord(record FileRecord) {
	s.Files++
	s.Lines.Add(record.Lines)
	s.Counts.Add(record.Counts)
}

// LineCount 返回汇总的总行数。
func (s LanguageSummary) LineCount() int64 {
	return s.Lines.Total
}

// Statistic 是由语言汇总和 All 汇总派生出的占比数据。
// Percentage 与 AverageLines 都已按一位小数四舍五入（远离零）。
type Statistic struct {
	Language     languages.Tag `json:"language"`
	Percentage   float64       `json:"percentage"`
	AverageLines float64       `json:"average_lines"`
}

// ScanError 记录单文件读取失败信息。
// 读取失败的文件仍以全零记录参与统计，这里只用于提示。
type ScanError struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// ScanResult 是 scan 命令的完整输出模型。
// Languages 按固定顺序排列，最后一项总是 All。
type ScanResult struct {
	RunID          string            `json:"run_id"`
	ScannedPath    string            `json:"scanned_path"`
	StartedAt      time.Time         `json:"started_at"`
	ElapsedSeconds float64           `json:"elapsed_seconds"`
	Files          []FileRecord      `json:"files"`
	Languages      []LanguageSummary `json:"languages"`
	Statistics     []Statistic       `json:"statistics"`
	Largest        []FileRecord      `json:"largest,omitempty"`
	Errors         []ScanError       `json:"errors"`
}

// Total 返回 All 汇总；结果中没有 All 时返回零值汇总。
func (r ScanResult) Total() LanguageSummary {
	for _, item := range r.Languages {
		if item.Language == languages.All {
			return item
		}
	}
	return LanguageSummary{Language: languages.All}
}

// Summary 返回指定语言的汇总。
func (r ScanResult) Summary(tag languages.Tag) (LanguageSummary, bool) {
	for _, item := range r.Languages {
		if item.Language == tag {
			return item, true
		}
	}
	return LanguageSummary{}, false
}
