package languages

import (
	"path/filepath"
	"sort"
)

// LanguageDescriptor 用于对外展示语言及后缀信息。
type LanguageDescriptor struct {
	Tag        Tag
	Extensions []string
}

// Registry 管理一次扫描使用的后缀映射。
// 与包级 Classify 不同，Registry 允许按配置调整 .h 的归属。
type Registry struct {
	tagByExt map[string]Tag
}

// Option 用于定制 Registry。
type Option func(*Registry)

// WithHeadersAsObjectiveC 控制 .h 是否按 Objective-C 统计。
// 关闭后 .h 视为未识别后缀，目录遍历时会被跳过。
func WithHeadersAsObjectiveC(enabled bool) Option {
	return func(r *Registry) {
		if enabled {
			r.tagByExt[".h"] = ObjectiveC
			return
		}
		delete(r.tagByExt, ".h")
	}
}

// NewRegistry 基于内置后缀表创建注册中心。
func NewRegistry(options ...Option) *Registry {
	registry := &Registry{
		tagByExt: make(map[string]Tag, len(defaultExtensions)),
	}
	for ext, tag := range defaultExtensions {
		registry.tagByExt[ext] = tag
	}
	for _, option := range options {
		option(registry)
	}
	return registry
}

// Classify 根据后缀返回语言标签，未知后缀返回 Unrecognized。
func (r *Registry) Classify(extension string) Tag {
	if tag, ok := r.tagByExt[extension]; ok {
		return tag
	}
	return Unrecognized
}

// TagForFile 根据文件路径查找语言。
// 第二个返回值表示后缀是否被识别。
func (r *Registry) TagForFile(path string) (Tag, bool) {
	tag := r.Classify(filepath.Ext(path))
	return tag, tag != Unrecognized
}

// Languages 按固定顺序返回已注册语言清单。
func (r *Registry) Languages() []LanguageDescriptor {
	result := make([]LanguageDescriptor, 0, len(Concrete()))
	for _, tag := range Concrete() {
		extensions := r.ExtensionsForLanguage(tag)
		if len(extensions) == 0 {
			continue
		}
		result = append(result, LanguageDescriptor{
			Tag:        tag,
			Extensions: extensions,
		})
	}
	return result
}

// ExtensionsForLanguage 返回指定语言对应的全部后缀。
func (r *Registry) ExtensionsForLanguage(tag Tag) []string {
	extensions := make([]string, 0, 4)
	for ext, candidate := range r.tagByExt {
		if candidate == tag {
			extensions = append(extensions, ext)
		}
	}
	sort.Strings(extensions)
	return extensions
}

// Extensions 返回给定语言集合的后缀；不传语言时返回全部已识别后缀。
func (r *Registry) Extensions(tags ...Tag) []string {
	wanted := make(map[Tag]bool, len(tags))
	for _, tag := range tags {
		wanted[tag] = true
	}

	extensions := make([]string, 0, len(r.tagByExt))
	for ext, tag := range r.tagByExt {
		if len(wanted) > 0 && !wanted[tag] {
			continue
		}
		extensions = append(extensions, ext)
	}
	sort.Strings(extensions)
	return extensions
}
