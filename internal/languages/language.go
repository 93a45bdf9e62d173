// Package languages 提供语言识别与构造标记表。
// 后缀到语言的映射、以及每种语言的 class/struct/func 等标记字符串都在这里集中维护，
// 全部是只读数据，初始化后不会再被修改。
package languages

import (
	"fmt"
	"strings"
)

// Tag 表示一个语言标签。
// 零值为 Unrecognized，因此未初始化的记录天然属于“未识别”。
type Tag int

const (
	Unrecognized Tag = iota
	Swift
	Kotlin
	ObjectiveC
	C
	Cpp
	// All 是聚合用的合成标签，不会分配给真实文件。
	All
)

// CanonicalOrder 返回汇总输出使用的固定顺序。
// 顺序与输入顺序、map 遍历顺序无关，保证输出可复现。
func CanonicalOrder() []Tag {
	return []Tag{Swift, Kotlin, ObjectiveC, C, Cpp, Unrecognized, All}
}

// Concrete 返回全部真实语言标签（不含 Unrecognized 与 All）。
func Concrete() []Tag {
	return []Tag{Swift, Kotlin, ObjectiveC, C, Cpp}
}

// IsConcrete 判断标签是否为真实语言。
func (t Tag) IsConcrete() bool {
	return t >= Swift && t <= Cpp
}

// String 返回语言展示名称。
func (t Tag) String() string {
	switch t {
	case Swift:
		return "Swift"
	case Kotlin:
		return "Kotlin"
	case ObjectiveC:
		return "Objective-C"
	case C:
		return "C"
	case Cpp:
		return "C++"
	case All:
		return "All"
	default:
		return "Unrecognized"
	}
}

// MarshalText 让 JSON 输出使用语言名称而不是整数。
func (t Tag) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText 解析 MarshalText 输出的名称。
func (t *Tag) UnmarshalText(text []byte) error {
	parsed, err := ParseTag(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseTag 把用户输入的语言名转换为 Tag。
// 不区分大小写，并接受常见别名（objc、c++、cpp 等）。
func ParseTag(name string) (Tag, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "swift":
		return Swift, nil
	case "kotlin", "kt":
		return Kotlin, nil
	case "objective-c", "objectivec", "objc":
		return ObjectiveC, nil
	case "c":
		return C, nil
	case "c++", "cpp", "cxx":
		return Cpp, nil
	case "all":
		return All, nil
	case "unrecognized":
		return Unrecognized, nil
	default:
		return Unrecognized, fmt.Errorf("unknown language %q", name)
	}
}

// ParseTags 解析一组语言名，任何一个无法识别都会返回错误。
// All 与 Unrecognized 不能作为过滤条件。
func ParseTags(names []string) ([]Tag, error) {
	tags := make([]Tag, 0, len(names))
	seen := make(map[Tag]bool, len(names))
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		tag, err := ParseTag(name)
		if err != nil {
			return nil, err
		}
		if !tag.IsConcrete() {
			return nil, fmt.Errorf("language %q cannot be used as a filter", name)
		}
		if seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
	}
	return tags, nil
}

// defaultExtensions 是内置的后缀映射表，区分大小写。
// .h 默认归入 Objective-C，Registry 可以通过选项关闭。
var defaultExtensions = map[string]Tag{
	".swift": Swift,
	".kt":    Kotlin,
	".kts":   Kotlin,
	".ktm":   Kotlin,
	".m":     ObjectiveC,
	".h":     ObjectiveC,
	".c":     C,
	".cpp":   Cpp,
	".cc":    Cpp,
	".mm":    Cpp,
}

// Classify 根据后缀（包含点号）返回语言标签。
// 这是一个全函数：未知后缀返回 Unrecognized，不会失败。
func Classify(extension string) Tag {
	if tag, ok := defaultExtensions[extension]; ok {
		return tag
	}
	return Unrecognized
}
