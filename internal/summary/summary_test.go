package summary

import (
	"math/rand"
	"testing"

	"codestat/internal/languages"
	"codestat/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newRecord 构造一个只关心语言和行数的记录。
func newRecord(name string, tag languages.Tag, lines int64) model.FileRecord {
	return model.FileRecord{
		Filename: name,
		Language: tag,
		Lines:    model.LineMetrics{Total: lines, Code: lines},
	}
}

func languageOrder(summaries []model.LanguageSummary) []languages.Tag {
	tags := make([]languages.Tag, 0, len(summaries))
	for _, item := range summaries {
		tags = append(tags, item.Language)
	}
	return tags
}

func TestSummarizeEmpty(t *testing.T) {
	summaries, statistics := Summarize(nil)

	require.Len(t, summaries, 1)
	assert.Equal(t, languages.All, summaries[0].Language)
	assert.Zero(t, summaries[0].Files)
	assert.Empty(t, statistics)
}

func TestSummarizeZeroLinesHasNoStatistics(t *testing.T) {
	records := []model.FileRecord{
		newRecord("Empty.swift", languages.Swift, 0),
		newRecord("Empty.kt", languages.Kotlin, 0),
	}

	summaries, statistics := Summarize(records)

	assert.Len(t, summaries, 3)
	assert.Empty(t, statistics)
}

func TestSummarizeCanonicalOrder(t *testing.T) {
	records := []model.FileRecord{
		newRecord("z.cpp", languages.Cpp, 10),
		newRecord("notes.txt", languages.Unrecognized, 5),
		newRecord("b.kt", languages.Kotlin, 20),
		newRecord("a.swift", languages.Swift, 30),
		newRecord("c.m", languages.ObjectiveC, 40),
	}

	summaries, _ := Summarize(records)

	assert.Equal(t, []languages.Tag{
		languages.Swift,
		languages.Kotlin,
		languages.ObjectiveC,
		languages.Cpp,
		languages.Unrecognized,
		languages.All,
	}, languageOrder(summaries))

	// 打乱输入顺序后结果完全一致。
	shuffled := append([]model.FileRecord(nil), records...)
	rand.New(rand.NewSource(1)).Shuffle(len(shuffled), func(i int, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	again, _ := Summarize(shuffled)
	assert.Equal(t, summaries, again)
}

func TestSummarizeSumsCounts(t *testing.T) {
	records := []model.FileRecord{
		{
			Filename: "A.swift",
			Language: languages.Swift,
			Lines:    model.LineMetrics{Total: 10, Code: 8, Comment: 1, Blank: 1},
			Counts:   model.Counts{Classes: 1, Functions: 3, Imports: 1},
		},
		{
			Filename: "B.swift",
			Language: languages.Swift,
			Lines:    model.LineMetrics{Total: 20, Code: 18, Blank: 2},
			Counts:   model.Counts{Structs: 2, Functions: 4, Extensions: 1},
		},
		{
			Filename: "C.kt",
			Language: languages.Kotlin,
			Lines:    model.LineMetrics{Total: 10, Code: 10},
			Counts:   model.Counts{Classes: 1, Enums: 1, Interfaces: 2},
		},
	}

	summaries, statistics := Summarize(records)

	require.Len(t, summaries, 3)
	swift := summaries[0]
	assert.Equal(t, languages.Swift, swift.Language)
	assert.Equal(t, int64(2), swift.Files)
	assert.Equal(t, model.LineMetrics{Total: 30, Code: 26, Comment: 1, Blank: 3}, swift.Lines)
	assert.Equal(t, model.Counts{Classes: 1, Structs: 2, Functions: 7, Imports: 1, Extensions: 1}, swift.Counts)

	all := summaries[2]
	assert.Equal(t, languages.All, all.Language)
	assert.Equal(t, int64(3), all.Files)
	assert.Equal(t, int64(40), all.LineCount())
	assert.Equal(t, model.Counts{Classes: 2, Structs: 2, Enums: 1, Interfaces: 2, Functions: 7, Imports: 1, Extensions: 1}, all.Counts)

	assert.Equal(t, []model.Statistic{
		{Language: languages.Swift, Percentage: 75, AverageLines: 15},
		{Language: languages.Kotlin, Percentage: 25, AverageLines: 10},
	}, statistics)
}

func TestSummarizePercentageRounding(t *testing.T) {
	records := []model.FileRecord{
		newRecord("a.swift", languages.Swift, 1),
		newRecord("b.kt", languages.Kotlin, 1),
		newRecord("c.m", languages.ObjectiveC, 1),
	}

	_, statistics := Summarize(records)

	require.Len(t, statistics, 3)
	for _, item := range statistics {
		assert.Equal(t, 33.3, item.Percentage)
	}
}

func TestSummarizeUnrecognizedHasNoStatistic(t *testing.T) {
	records := []model.FileRecord{
		newRecord("a.swift", languages.Swift, 50),
		newRecord("notes.txt", languages.Unrecognized, 50),
	}

	summaries, statistics := Summarize(records)

	assert.Len(t, summaries, 3)
	assert.Equal(t, []model.Statistic{
		{Language: languages.Swift, Percentage: 50, AverageLines: 50},
	}, statistics)
}

// TestSummarizeTotalsProperty 用随机输入验证 All 汇总与各语言汇总的守恒关系。
func TestSummarizeTotalsProperty(t *testing.T) {
	random := rand.New(rand.NewSource(42))
	tags := []languages.Tag{
		languages.Swift,
		languages.Kotlin,
		languages.ObjectiveC,
		languages.C,
		languages.Cpp,
		languages.Unrecognized,
	}

	for round := 0; round < 50; round++ {
		records := make([]model.FileRecord, random.Intn(40))
		var wantLines int64
		for i := range records {
			lines := random.Int63n(500)
			wantLines += lines
			records[i] = newRecord("f", tags[random.Intn(len(tags))], lines)
		}

		summaries, statistics := Summarize(records)
		all := summaries[len(summaries)-1]

		require.Equal(t, languages.All, all.Language)
		assert.Equal(t, wantLines, all.LineCount())
		assert.Equal(t, int64(len(records)), all.Files)

		var files, lines int64
		for _, item := range summaries[:len(summaries)-1] {
			assert.Positive(t, item.Files)
			files += item.Files
			lines += item.LineCount()
		}
		assert.Equal(t, int64(len(records)), files)
		assert.Equal(t, all.LineCount(), lines)

		if wantLines == 0 {
			assert.Empty(t, statistics)
		}
	}
}

// TestSummarizeHalfPercentages 验证恰好落在 .x5 的占比与平均值向远离零方向进位。
func TestSummarizeHalfPercentages(t *testing.T) {
	records := []model.FileRecord{
		newRecord("a.swift", languages.Swift, 5),
		newRecord("b.swift", languages.Swift, 6),
		newRecord("c.swift", languages.Swift, 6),
		newRecord("d.swift", languages.Swift, 6),
		newRecord("Main.kt", languages.Kotlin, 57),
	}

	_, statistics := Summarize(records)

	require.Len(t, statistics, 2)
	// 23/80 = 28.75%，57/80 = 71.25%，23/4 = 5.75 行。
	assert.Equal(t, model.Statistic{Language: languages.Swift, Percentage: 28.8, AverageLines: 5.8}, statistics[0])
	assert.Equal(t, model.Statistic{Language: languages.Kotlin, Percentage: 71.3, AverageLines: 57}, statistics[1])
}

func TestRatio1(t *testing.T) {
	tests := []struct {
		numerator   int64
		denominator int64
		want        float64
	}{
		{numerator: 0, denominator: 5, want: 0},
		{numerator: 1234, denominator: 100, want: 12.3},
		{numerator: 1235, denominator: 100, want: 12.4},
		{numerator: 2300, denominator: 80, want: 28.8},
		{numerator: 4100, denominator: 80, want: 51.3},
		{numerator: 5100, denominator: 80, want: 63.8},
		{numerator: 200, denominator: 3, want: 66.7},
		{numerator: 100, denominator: 1, want: 100},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ratio1(tt.numerator, tt.denominator), "ratio %d/%d", tt.numerator, tt.denominator)
	}
}
