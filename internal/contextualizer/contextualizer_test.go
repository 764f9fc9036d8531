package contextualizer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yqhp/agent-batch/internal/config"
	"yqhp/agent-batch/internal/metrics"
	"yqhp/agent-batch/pkg/types"
)

// scriptedModel 根据 user 消息中的片段文本决定应答或失败。
type scriptedModel struct {
	failOn map[string]error
	delay  time.Duration
}

func (m *scriptedModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	user := input[len(input)-1].Content
	for marker, err := range m.failOn {
		if strings.Contains(user, marker) {
			return nil, err
		}
	}
	return &schema.Message{
		Role:    schema.Assistant,
		Content: "  context for: " + extractChunk(user) + "  ",
		ResponseMeta: &schema.ResponseMeta{
			Usage: &schema.TokenUsage{PromptTokens: 100, CompletionTokens: 10, TotalTokens: 110},
		},
	}, nil
}

func extractChunk(user string) string {
	start := strings.Index(user, "<chunk>\n")
	end := strings.Index(user, "\n</chunk>")
	if start < 0 || end < 0 {
		return ""
	}
	return user[start+len("<chunk>\n") : end]
}

func makeChunks(texts ...string) []types.Chunk {
	chunks := make([]types.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = types.Chunk{Index: i, Text: text}
	}
	return chunks
}

func defaultCfg() config.ContextualizerConfig {
	return config.ContextualizerConfig{
		MaxConcurrent: 2,
		MaxTokens:     200,
		OnError:       config.OnErrorFallback,
	}
}

func TestAddContextAlignsResults(t *testing.T) {
	c := New(&scriptedModel{}, defaultCfg(), nil)
	chunks := makeChunks("alpha", "beta", "gamma")

	out, report, err := c.AddContext(context.Background(), "doc body", chunks)
	require.NoError(t, err)
	require.Len(t, out, 3)

	for i, cc := range out {
		assert.Equal(t, chunks[i], cc.Chunk)
		assert.Equal(t, fmt.Sprintf("context for: %s", chunks[i].Text), cc.Context)
		assert.False(t, cc.Fallback)
	}

	require.NotNil(t, report)
	assert.Equal(t, 3, report.Batch.Submitted)
	assert.Equal(t, 3, report.Batch.Succeeded)
	assert.Equal(t, 0, report.Fallbacks)
	assert.Equal(t, 330, report.Usage.TotalTokens)
}

func TestAddContextEmptyInput(t *testing.T) {
	c := New(&scriptedModel{}, defaultCfg(), nil)

	out, report, err := c.AddContext(context.Background(), "doc", nil)
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Equal(t, 0, report.Batch.Submitted)
}

func TestAddContextFallbackPolicy(t *testing.T) {
	m := &scriptedModel{failOn: map[string]error{"beta": errors.New("rate limited")}}
	c := New(m, defaultCfg(), nil)
	chunks := makeChunks("alpha", "beta", "gamma")

	out, report, err := c.AddContext(context.Background(), "doc", chunks)
	require.NoError(t, err)
	require.Len(t, out, 3)

	assert.False(t, out[0].Fallback)
	require.True(t, out[1].Fallback)
	assert.Equal(t, "This is chunk 2 from the document.", out[1].Context)
	assert.False(t, out[2].Fallback)
	assert.Equal(t, "context for: gamma", out[2].Context)

	assert.Equal(t, 1, report.Fallbacks)
	assert.Equal(t, 1, report.Batch.Failed)
	assert.Equal(t, 2, report.Batch.Succeeded)
}

func TestAddContextFailPolicy(t *testing.T) {
	m := &scriptedModel{failOn: map[string]error{"beta": errors.New("rate limited")}}
	cfg := defaultCfg()
	cfg.OnError = config.OnErrorFail
	c := New(m, cfg, nil)

	_, _, err := c.AddContext(context.Background(), "doc", makeChunks("alpha", "beta"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "片段 1")
}

func TestAddContextRecordsMetrics(t *testing.T) {
	collector := metrics.NewCollector()
	m := &scriptedModel{
		failOn: map[string]error{"bad": errors.New("boom")},
		delay:  time.Millisecond,
	}
	c := New(m, defaultCfg(), collector)

	_, _, err := c.AddContext(context.Background(), "doc", makeChunks("ok-1", "bad", "ok-2"))
	require.NoError(t, err)

	snap := collector.Snapshot()
	require.Contains(t, snap.Ops, "contextualize")
	assert.Equal(t, int64(3), snap.Ops["contextualize"].Count)
	assert.Equal(t, int64(2), snap.Ops["contextualize"].Success)
	assert.Equal(t, int64(1), snap.Ops["contextualize"].Failure)
}

func TestNewAppliesDefaults(t *testing.T) {
	c := New(&scriptedModel{}, config.ContextualizerConfig{}, nil)
	assert.Equal(t, 10, c.cfg.MaxConcurrent)
	assert.Equal(t, config.OnErrorFallback, c.cfg.OnError)
}

func TestAddContextTrimsModelOutput(t *testing.T) {
	c := New(&scriptedModel{}, defaultCfg(), nil)

	out, _, err := c.AddContext(context.Background(), "doc", makeChunks("alpha"))
	require.NoError(t, err)
	assert.Equal(t, "context for: alpha", out[0].Context)
}
