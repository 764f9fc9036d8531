// Package chunker 将长文档切分为大小受限的片段，供批量上下文生成使用。
package chunker

import (
	"strings"
	"unicode/utf8"

	"yqhp/agent-batch/pkg/types"
)

// DefaultMaxChars 默认单片段最大字符数
const DefaultMaxChars = 1200

// Options 控制切分行为。长度均按字符（rune）计算。
type Options struct {
	// MaxChars 单个片段的最大长度，<=0 时使用 DefaultMaxChars。
	MaxChars int
	// OverlapChars 相邻片段之间携带的上文长度，用于保持检索连续性。
	OverlapChars int
}

const paragraphSep = "\n\n"

// Split 按段落边界切分文档并按 MaxChars 打包。
// 超长段落按字符硬切分。空白文档返回空切片；索引在切分时分配。
func Split(doc string, opts Options) []types.Chunk {
	maxChars := opts.MaxChars
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	overlap := opts.OverlapChars
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= maxChars {
		overlap = maxChars - 1
	}

	paragraphs := splitParagraphs(doc)
	if len(paragraphs) == 0 {
		return []types.Chunk{}
	}

	var texts []string
	var current []string
	currentLen := 0

	flush := func() {
		if len(current) > 0 {
			texts = append(texts, strings.Join(current, paragraphSep))
			current = current[:0]
			currentLen = 0
		}
	}

	for _, para := range paragraphs {
		plen := utf8.RuneCountInString(para)

		// 超长段落独立硬切分
		if plen > maxChars {
			flush()
			texts = append(texts, hardSplit(para, maxChars)...)
			continue
		}

		sepLen := 0
		if len(current) > 0 {
			sepLen = len(paragraphSep)
		}
		if currentLen+sepLen+plen > maxChars {
			flush()
			sepLen = 0
		}
		current = append(current, para)
		currentLen += sepLen + plen
	}
	flush()

	chunks := make([]types.Chunk, 0, len(texts))
	for i, text := range texts {
		if overlap > 0 && i > 0 {
			text = tail(texts[i-1], overlap) + "\n" + text
		}
		chunks = append(chunks, types.Chunk{Index: i, Text: text})
	}
	return chunks
}

// splitParagraphs 在空行处切分并丢弃空白段落。
func splitParagraphs(doc string) []string {
	parts := strings.Split(doc, paragraphSep)
	paragraphs := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			paragraphs = append(paragraphs, part)
		}
	}
	return paragraphs
}

// hardSplit 把超长段落按 maxChars 个字符切成连续窗口，丢弃纯空白窗口。
func hardSplit(para string, maxChars int) []string {
	runes := []rune(para)
	var out []string
	for start := 0; start < len(runes); start += maxChars {
		end := start + maxChars
		if end > len(runes) {
			end = len(runes)
		}
		window := string(runes[start:end])
		if strings.TrimSpace(window) != "" {
			out = append(out, window)
		}
	}
	return out
}

// tail 返回字符串末尾最多 n 个字符。
func tail(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[len(runes)-n:])
}
