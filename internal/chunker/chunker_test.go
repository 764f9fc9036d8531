package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestSplitEmptyDocument(t *testing.T) {
	assert.Empty(t, Split("", Options{}))
	assert.Empty(t, Split("   \n\n  \n\n", Options{}))
}

func TestSplitSmallDocumentSingleChunk(t *testing.T) {
	doc := "first paragraph.\n\nsecond paragraph."

	chunks := Split(doc, Options{MaxChars: 200})
	require.Len(t, chunks, 1)
	assert.Equal(t, 0, chunks[0].Index)
	assert.Equal(t, "first paragraph.\n\nsecond paragraph.", chunks[0].Text)
}

func TestSplitPacksParagraphsUpToLimit(t *testing.T) {
	doc := strings.Repeat("aaaa ", 8) + "\n\n" + strings.Repeat("bbbb ", 8) + "\n\n" + strings.Repeat("cccc ", 8)

	chunks := Split(doc, Options{MaxChars: 90})
	require.Len(t, chunks, 2)
	assert.Contains(t, chunks[0].Text, "aaaa")
	assert.Contains(t, chunks[0].Text, "bbbb")
	assert.Contains(t, chunks[1].Text, "cccc")
	for i, c := range chunks {
		assert.Equal(t, i, c.Index)
		assert.LessOrEqual(t, utf8.RuneCountInString(c.Text), 90)
	}
}

func TestSplitHardSplitsOversizedParagraph(t *testing.T) {
	doc := strings.Repeat("x", 250)

	chunks := Split(doc, Options{MaxChars: 100})
	require.Len(t, chunks, 3)
	assert.Equal(t, 100, len(chunks[0].Text))
	assert.Equal(t, 100, len(chunks[1].Text))
	assert.Equal(t, 50, len(chunks[2].Text))
}

func TestSplitOverlapCarriesTail(t *testing.T) {
	doc := strings.Repeat("a", 100) + "\n\n" + strings.Repeat("b", 100)

	chunks := Split(doc, Options{MaxChars: 100, OverlapChars: 10})
	require.Len(t, chunks, 2)
	assert.True(t, strings.HasPrefix(chunks[1].Text, strings.Repeat("a", 10)+"\n"))
	assert.True(t, strings.HasSuffix(chunks[1].Text, strings.Repeat("b", 100)))
}

func TestSplitDefaultOptions(t *testing.T) {
	doc := strings.Repeat("word ", 500)

	chunks := Split(doc, Options{})
	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c.Text), DefaultMaxChars)
	}
}

// TestSplitProperty 属性: 任意文档与合法配置下，
// 片段索引连续、无空片段、长度受限，且（无重叠时）内容不增不减。
func TestSplitProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		numParas := rapid.IntRange(0, 12).Draw(t, "numParas")
		maxChars := rapid.IntRange(8, 200).Draw(t, "maxChars")

		var paras []string
		for i := 0; i < numParas; i++ {
			para := rapid.StringMatching(`[a-zA-Z0-9 .,]{0,300}`).Draw(t, "para")
			paras = append(paras, para)
		}
		doc := strings.Join(paras, "\n\n")

		chunks := Split(doc, Options{MaxChars: maxChars})

		stripped := func(s string) string {
			return strings.Join(strings.Fields(s), "")
		}

		var joined strings.Builder
		for i, c := range chunks {
			if c.Index != i {
				t.Fatalf("chunk at position %d carries index %d", i, c.Index)
			}
			if strings.TrimSpace(c.Text) == "" {
				t.Fatalf("chunk %d is empty", i)
			}
			if n := utf8.RuneCountInString(c.Text); n > maxChars {
				t.Fatalf("chunk %d length %d exceeds max %d", i, n, maxChars)
			}
			joined.WriteString(c.Text)
		}

		// 无重叠时内容不增不减（忽略空白差异）
		if stripped(joined.String()) != stripped(doc) {
			t.Fatalf("chunk contents diverge from document")
		}
	})
}
