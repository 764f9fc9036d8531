package types

// Chunk 表示文档切分后的一个片段，Index 在切分时分配且不可变。
type Chunk struct {
	Index int    `json:"index" yaml:"index"`
	Text  string `json:"text" yaml:"text"`
}

// ContextualizedChunk 是补充了检索上下文的片段。
// Fallback 为 true 表示上下文生成失败，Context 是调用方替换的占位文本。
type ContextualizedChunk struct {
	Chunk    Chunk  `json:"chunk" yaml:"chunk"`
	Context  string `json:"context" yaml:"context"`
	Fallback bool   `json:"fallback,omitempty" yaml:"fallback,omitempty"`
}

// TokenUsage 记录一次模型调用消耗的 token 数。
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens" yaml:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens" yaml:"completion_tokens"`
	TotalTokens      int `json:"total_tokens" yaml:"total_tokens"`
}

// Add 累加另一次调用的用量。
func (u *TokenUsage) Add(other TokenUsage) {
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
	u.TotalTokens += other.TotalTokens
}
