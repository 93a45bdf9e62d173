package analysis

import (
	"strings"
	"unicode"

	"codestat/internal/languages"
	"codestat/internal/model"
)

// commentStyle 描述一种语言的注释与字面量规则。
// cFamily 表示使用 // 与 /* */ 注释和双引号字符串；五种已识别语言都是，
// 差别只在块注释能否嵌套、是否有字符字面量。
type commentStyle struct {
	cFamily      bool
	nestedBlocks bool
	charLiterals bool
}

var commentStyles = map[languages.Tag]commentStyle{
	languages.Swift:      {cFamily: true, nestedBlocks: true},
	languages.Kotlin:     {cFamily: true, nestedBlocks: true, charLiterals: true},
	languages.ObjectiveC: {cFamily: true, charLiterals: true},
	languages.C:          {cFamily: true, charLiterals: true},
	languages.Cpp:        {cFamily: true, charLiterals: true},
}

// styleFor 返回语言的注释规则；未识别语言只区分代码与空行。
func styleFor(tag languages.Tag) commentStyle {
	return commentStyles[tag]
}

// classifyLines 逐行运行状态机，统计 code/comment/blank。
// Total 由 CountLines 单独给出，这里不累计。
func classifyLines(content string, style commentStyle) model.LineMetrics {
	var metrics model.LineMetrics
	engine := &lineFSM{style: style}

	rest := content
	for rest != "" {
		line, tail, found := strings.Cut(rest, "\n")
		rest = tail

		// 兼容 Windows 的 \r\n。
		line = strings.TrimSuffix(line, "\r")
		hasCode, hasComment := engine.processLine(line)
		applyLineClassification(&metrics, line, hasCode, hasComment)

		if !found {
			break
		}
	}
	return metrics
}

// applyLineClassification 根据状态机输出更新统计值。
//
// 约束说明：
// - 同一行可以同时具备 code/comment，两者独立累计
// - 空白行判定要求：既没有 code 也没有 comment 标记
func applyLineClassification(metrics *model.LineMetrics, line string, hasCode bool, hasComment bool) {
	if !hasCode && !hasComment {
		metrics.Blank++
		return
	}
	if hasCode {
		metrics.Code++
	}
	if hasComment {
		metrics.Comment++
	}
}

// lineFSM 维护跨行的注释与字符串状态。
// 块注释用深度计数，非嵌套语言的深度最多为 1。
type lineFSM struct {
	style             commentStyle
	blockCommentDepth int
	inDoubleQuoted    bool
	inSingleQuoted    bool
}

// processLine 解析单行内容，返回该行是否含代码、是否含注释。
func (e *lineFSM) processLine(line string) (bool, bool) {
	hasCode := false
	hasComment := false
	runes := []rune(line)

	// 先继承跨行状态。
	if e.blockCommentDepth > 0 {
		hasComment = true
	}
	if e.inDoubleQuoted || e.inSingleQuoted {
		hasCode = true
	}

	for idx := 0; idx < len(runes); {
		current := runes[idx]
		hasNext := idx+1 < len(runes)
		next := rune(0)
		if hasNext {
			next = runes[idx+1]
		}

		if e.blockCommentDepth > 0 {
			hasComment = true
			if e.style.nestedBlocks && current == '/' && hasNext && next == '*' {
				e.blockCommentDepth++
				idx += 2
				continue
			}
			if current == '*' && hasNext && next == '/' {
				e.blockCommentDepth--
				idx += 2
				continue
			}
			idx++
			continue
		}

		if e.inDoubleQuoted || e.inSingleQuoted {
			hasCode = true
			// 转义字符优先消费，避免误识别结束引号。
			if current == '\\' && hasNext {
				idx += 2
				continue
			}
			if e.inDoubleQuoted && current == '"' {
				e.inDoubleQuoted = false
			}
			if e.inSingleQuoted && current == '\'' {
				e.inSingleQuoted = false
			}
			idx++
			continue
		}

		if unicode.IsSpace(current) {
			idx++
			continue
		}

		if e.style.cFamily && current == '/' && hasNext && next == '/' {
			hasComment = true
			return hasCode, hasComment
		}

		if e.style.cFamily && current == '/' && hasNext && next == '*' {
			hasComment = true
			e.blockCommentDepth = 1
			idx += 2
			continue
		}

		if e.style.cFamily && current == '"' {
			e.inDoubleQuoted = true
		}
		if e.style.charLiterals && current == '\'' {
			e.inSingleQuoted = true
		}

		hasCode = true
		idx++
	}

	// 字符字面量不能跨行，未闭合的单引号（如 #error don't）只影响本行。
	e.inSingleQuoted = false
	return hasCode, hasComment
}
