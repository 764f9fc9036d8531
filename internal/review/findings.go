package review

import (
	"fmt"
	"strings"

	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
)

// findingsPath 优先从 {"findings": [...]} 形式的应答中取值。
var findingsPath = jp.MustParseString("$.findings")

// ParseFindings 从模型应答中解析发现列表。
// 兼容三种形式：裸 JSON 数组、{"findings": [...]}、以及任意包含
// 一个数组值的对象；应答可能被 markdown 代码块包裹。
func ParseFindings(raw string) ([]string, error) {
	text := stripCodeFence(raw)
	if text == "" {
		return nil, fmt.Errorf("应答为空")
	}

	data, err := oj.ParseString(text)
	if err != nil {
		return nil, fmt.Errorf("应答不是合法 JSON: %w", err)
	}

	// 裸数组
	if list, ok := data.([]any); ok {
		return toStrings(list), nil
	}

	// {"findings": [...]}
	if results := findingsPath.Get(data); len(results) > 0 {
		if list, ok := results[0].([]any); ok {
			return toStrings(list), nil
		}
	}

	// 对象中任意数组值
	if m, ok := data.(map[string]any); ok {
		for _, v := range m {
			if list, ok := v.([]any); ok {
				return toStrings(list), nil
			}
		}
		return []string{}, nil
	}

	return nil, fmt.Errorf("无法从应答中提取发现列表")
}

// stripCodeFence 去掉包裹应答的 markdown 代码块标记。
func stripCodeFence(raw string) string {
	text := strings.TrimSpace(raw)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	lines := strings.Split(text, "\n")
	if len(lines) < 2 {
		return text
	}
	// 丢弃首行 ```json 与末尾 ```
	lines = lines[1:]
	if strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func toStrings(list []any) []string {
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok {
			out = append(out, s)
			continue
		}
		out = append(out, fmt.Sprint(item))
	}
	return out
}
