package languages

import (
	"slices"
	"strings"
	"unicode"
)

// Kind 表示一种被统计的语法构造。
type Kind int

const (
	Class Kind = iota
	Struct
	Enum
	Interface
	Function
	Import
	Extension

	kindCount
)

// Kinds 按固定顺序返回全部构造类型。
func Kinds() []Kind {
	return []Kind{Class, Struct, Enum, Interface, Function, Import, Extension}
}

// String 返回构造类型的英文名称。
func (k Kind) String() string {
	switch k {
	case Class:
		return "class"
	case Struct:
		return "struct"
	case Enum:
		return "enum"
	case Interface:
		return "interface"
	case Function:
		return "function"
	case Import:
		return "import"
	case Extension:
		return "extension"
	default:
		return "unknown"
	}
}

// MarkerSet 保存某个语言的全部构造标记。
//
// 注意：
// - 标记是区分大小写的精确子串，尾部空格属于标记的一部分
// - 空字符串表示该语言没有此构造，计数恒为 0
// - shadows 记录“包含本标记、但属于其他构造”的更长标记，计数时需要减去
type MarkerSet struct {
	markers [kindCount]string
	shadows [kindCount][]string
}

// Marker 返回指定构造的标记字符串。
func (m MarkerSet) Marker(kind Kind) string {
	if kind < 0 || kind >= kindCount {
		return ""
	}
	return m.markers[kind]
}

// Shadows 返回需要从指定构造计数中扣除的标记列表（副本）。
func (m MarkerSet) Shadows(kind Kind) []string {
	if kind < 0 || kind >= kindCount {
		return nil
	}
	return slices.Clone(m.shadows[kind])
}

// Empty 判断该标记集是否一个标记都没有。
func (m MarkerSet) Empty() bool {
	for _, marker := range m.markers {
		if marker != "" {
			return false
		}
	}
	return true
}

// markerTable 是语言到标记集的只读表。
//
// Kotlin 的 "class " 同时是 "data class " 与 "enum class " 的子串，
// C++ 的 "class " 同时是 "enum class " 的子串，所以 class 计数必须扣除这些影子匹配。
// 新增标记时需要检查同样的包含关系。
var markerTable = map[Tag]MarkerSet{
	Swift: {
		markers: [kindCount]string{
			Class:     "class ",
			Struct:    "struct ",
			Enum:      "enum ",
			Interface: "protocol ",
			Function:  "func ",
			Import:    "import ",
			Extension: "extension ",
		},
	},
	Kotlin: {
		markers: [kindCount]string{
			Class:     "class ",
			Struct:    "data class ",
			Enum:      "enum class ",
			Interface: "interface ",
			Function:  "fun ",
			Import:    "import ",
		},
		shadows: [kindCount][]string{
			Class: {"data class ", "enum class "},
		},
	},
	ObjectiveC: {
		markers: [kindCount]string{
			Class:     "@implementation ",
			Struct:    "struct ",
			Enum:      "enum ",
			Interface: "@interface ",
			Function:  "- (",
			Import:    "#import ",
		},
	},
	C: {
		markers: [kindCount]string{
			Struct: "struct ",
			Enum:   "enum ",
			Import: "#include ",
		},
	},
	Cpp: {
		markers: [kindCount]string{
			Class:  "class ",
			Struct: "struct ",
			Enum:   "enum ",
			Import: "#include ",
		},
		shadows: [kindCount][]string{
			Class: {"enum class "},
		},
	},
}

// MarkersFor 返回语言的标记集。
// Unrecognized 与 All 没有标记，返回空集合。
func MarkersFor(tag Tag) MarkerSet {
	return markerTable[tag]
}

// allLabels 是 All 汇总使用的通用标签。
var allLabels = [kindCount]string{
	Class:     "classes",
	Struct:    "structs/data classes",
	Enum:      "enums/enum classes",
	Interface: "interfaces/protocols",
	Function:  "functions",
	Import:    "imports",
	Extension: "extensions",
}

// Label 返回展示层使用的构造名称。
// 真实语言使用去掉空白的标记本身（例如 protocol、data class），
// 没有标记或标记不含字母（Objective-C 的 "- ("）时回退到通用名称。
func Label(tag Tag, kind Kind) string {
	if kind < 0 || kind >= kindCount {
		return ""
	}
	if tag.IsConcrete() {
		marker := strings.TrimSpace(MarkersFor(tag).Marker(kind))
		if strings.IndexFunc(marker, unicode.IsLetter) >= 0 {
			return marker
		}
	}
	return allLabels[kind]
}
