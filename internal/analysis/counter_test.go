package analysis

import (
	"os"
	"path/filepath"
	"testing"

	"codestat/internal/languages"
	"codestat/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// readFixture 读取 testdata 下的样例文件。
func readFixture(t *testing.T, name string) string {
	t.Helper()

	content, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return string(content)
}

func TestAnalyzeSwiftFullFile(t *testing.T) {
	record := Analyze("fullfile.swift", readFixture(t, "fullfile.swift"), languages.Swift)

	assert.Equal(t, "fullfile.swift", record.Filename)
	assert.Equal(t, languages.Swift, record.Language)
	assert.Equal(t, model.Counts{
		Imports:    1,
		Classes:    0,
		Structs:    1,
		Extensions: 2,
		Functions:  11,
		Enums:      1,
	}, record.Counts)
	assert.Equal(t, int64(30), record.LineCount())
	assert.Equal(t, model.LineMetrics{Total: 30, Code: 19, Comment: 5, Blank: 6}, record.Lines)
}

func TestAnalyzeSwiftSnippets(t *testing.T) {
	tests := []struct {
		name    string
		content string
		kind    languages.Kind
		want    int64
	}{
		{
			name:    "imports",
			content: "import Foundation\nimport UIKit",
			kind:    languages.Import,
			want:    2,
		},
		{
			name:    "extensions",
			content: "extension String: Error {}\nextension String: Error {}\nextension String: Error {}",
			kind:    languages.Extension,
			want:    3,
		},
		{
			name:    "classes",
			content: "class MyClass{}\nenum UI {}\nclass myclass{}",
			kind:    languages.Class,
			want:    2,
		},
		{
			name: "functions",
			content: "func update() {}\nclass MyClass {}\nstatic func staticUpdate() {}\n" +
				"private func privateUpdate() {}\nenum MyEnum {}\nclass MyClass {}",
			kind: languages.Function,
			want: 3,
		},
		{
			name:    "protocols",
			content: "protocol Drawable {}\nprotocol Named: Drawable {}",
			kind:    languages.Interface,
			want:    2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := Analyze(tt.name, tt.content, languages.Swift)
			assert.Equal(t, tt.want, record.Counts.Get(tt.kind))
		})
	}
}

func TestAnalyzeKotlinClassDisambiguation(t *testing.T) {
	record := Analyze("Model.kt", "data class A {}\nclass B {}\nenum class C {}", languages.Kotlin)

	assert.Equal(t, int64(1), record.Counts.Classes)
	assert.Equal(t, int64(1), record.Counts.Structs)
	assert.Equal(t, int64(1), record.Counts.Enums)
	assert.Equal(t, int64(3), record.LineCount())
}

func TestAnalyzeKotlinFile(t *testing.T) {
	content := "import kotlin.math.max\n" +
		"import kotlin.math.min\n" +
		"\n" +
		"interface Shape { fun area(): Double }\n" +
		"data class Point(val x: Int, val y: Int)\n" +
		"class Circle(val r: Double) : Shape {\n" +
		"    override fun area(): Double = 3.14 * r * r\n" +
		"}\n"

	record := Analyze("Shapes.kt", content, languages.Kotlin)

	assert.Equal(t, model.Counts{
		Classes:    1,
		Structs:    1,
		Interfaces: 1,
		Functions:  2,
		Imports:    2,
	}, record.Counts)
	assert.Equal(t, int64(8), record.LineCount())
	assert.Equal(t, int64(1), record.Lines.Blank)
}

func TestAnalyzeObjectiveC(t *testing.T) {
	content := "#import <Foundation/Foundation.h>\n" +
		"#import \"Thing.h\"\n" +
		"@interface Thing : NSObject\n" +
		"@end\n" +
		"@implementation Thing\n" +
		"- (void)run {}\n" +
		"- (int)count { return 0; }\n" +
		"@end\n"

	record := Analyze("Thing.m", content, languages.ObjectiveC)

	assert.Equal(t, int64(2), record.Counts.Imports)
	assert.Equal(t, int64(1), record.Counts.Interfaces)
	assert.Equal(t, int64(1), record.Counts.Classes)
	assert.Equal(t, int64(2), record.Counts.Functions)
	assert.Zero(t, record.Counts.Extensions)
}

func TestAnalyzeCppEnumClassIsNotAClass(t *testing.T) {
	content := "#include <vector>\n" +
		"enum class Color { Red, Green };\n" +
		"class Widget {};\n" +
		"struct Point { int x; };\n"

	record := Analyze("widget.cpp", content, languages.Cpp)

	assert.Equal(t, int64(1), record.Counts.Classes)
	assert.Equal(t, int64(1), record.Counts.Enums)
	assert.Equal(t, int64(1), record.Counts.Structs)
	assert.Equal(t, int64(1), record.Counts.Imports)
	assert.Zero(t, record.Counts.Functions)
}

func TestAnalyzeUnrecognizedHasNoConstructs(t *testing.T) {
	record := Analyze("notes.txt", "class func struct import\n\nmore text", languages.Unrecognized)

	assert.Equal(t, model.Counts{}, record.Counts)
	assert.Equal(t, model.LineMetrics{Total: 3, Code: 2, Blank: 1}, record.Lines)
}

func TestAnalyzeEmptyContent(t *testing.T) {
	record := Analyze("Empty.swift", "", languages.Swift)

	assert.Equal(t, model.FileRecord{Filename: "Empty.swift", Language: languages.Swift}, record)
}

func TestAnalyzeIsIdempotent(t *testing.T) {
	content := readFixture(t, "fullfile.swift")

	first := Analyze("a.swift", content, languages.Swift)
	second := Analyze("a.swift", content, languages.Swift)

	assert.Equal(t, first, second)
}

// TestAnalyzeCountsMarkersInsideStrings 记录已知的高估：字符串和注释里的标记也会被计数。
func TestAnalyzeCountsMarkersInsideStrings(t *testing.T) {
	content := "let s = \"func \"\n// func helper()\n"

	record := Analyze("Shadow.swift", content, languages.Swift)

	assert.Equal(t, int64(2), record.Counts.Functions)
}

func TestCountInstances(t *testing.T) {
	tests := []struct {
		name    string
		content string
		marker  string
		want    int64
	}{
		{name: "empty marker", content: "anything", marker: "", want: 0},
		{name: "empty content", content: "", marker: "func ", want: 0},
		{name: "non overlapping", content: "aaaa", marker: "aa", want: 2},
		{name: "case sensitive", content: "Class class CLASS ", marker: "class ", want: 1},
		{name: "trailing space significant", content: "classes class", marker: "class ", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CountInstances(tt.content, tt.marker))
		})
	}
}

func TestCountLines(t *testing.T) {
	tests := []struct {
		content string
		want    int64
	}{
		{content: "", want: 0},
		{content: "a", want: 1},
		{content: "a\n", want: 1},
		{content: "a\nb", want: 2},
		{content: "a\nb\n", want: 2},
		{content: "\n", want: 1},
		{content: "a\n\n", want: 2},
		{content: "a\r\nb\r\n", want: 2},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, CountLines(tt.content), "content %q", tt.content)
	}
}
