// Package llm 封装 eino 聊天模型的构建与单轮调用。
package llm

import (
	"context"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"yqhp/agent-batch/internal/config"
	"yqhp/agent-batch/pkg/types"
)

// ChatModel 是调用方依赖的最小模型接口，*openai.ChatModel 满足该接口，
// 测试中用桩实现替换。
type ChatModel interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

// NewChatModel 根据配置创建 LLM 聊天模型。
// 凭据和模型标识全部来自显式传入的配置，不读取环境变量。
func NewChatModel(ctx context.Context, cfg *config.APIConfig) (ChatModel, error) {
	chatConfig := &openai.ChatModelConfig{
		Model:  cfg.Model,
		APIKey: cfg.APIKey,
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		switch cfg.Provider {
		case "openai":
			baseURL = "https://api.openai.com/v1"
		case "deepseek":
			baseURL = "https://api.deepseek.com/v1"
		case "azure":
			chatConfig.ByAzure = true
			if cfg.APIVersion == "" {
				chatConfig.APIVersion = "2024-06-01"
			} else {
				chatConfig.APIVersion = cfg.APIVersion
			}
		}
	}
	if baseURL != "" {
		chatConfig.BaseURL = baseURL
	}

	if cfg.Temperature != nil {
		chatConfig.Temperature = cfg.Temperature
	}
	if cfg.MaxTokens != nil {
		chatConfig.MaxTokens = cfg.MaxTokens
	}

	cm, err := openai.NewChatModel(ctx, chatConfig)
	if err != nil {
		return nil, NewModelError("创建聊天模型失败", err)
	}
	return cm, nil
}

// Generate 执行一次 system+user 的单轮调用，返回文本内容与 token 用量。
func Generate(ctx context.Context, cm ChatModel, system, user string, opts ...model.Option) (string, types.TokenUsage, error) {
	var usage types.TokenUsage

	messages := buildMessages(system, user)
	resp, err := cm.Generate(ctx, messages, opts...)
	if err != nil {
		return "", usage, NewGenerateError("模型调用失败", err)
	}

	if resp.ResponseMeta != nil && resp.ResponseMeta.Usage != nil {
		usage.PromptTokens = resp.ResponseMeta.Usage.PromptTokens
		usage.CompletionTokens = resp.ResponseMeta.Usage.CompletionTokens
		usage.TotalTokens = resp.ResponseMeta.Usage.TotalTokens
	}
	return resp.Content, usage, nil
}

func buildMessages(system, user string) []*schema.Message {
	var messages []*schema.Message
	if system != "" {
		messages = append(messages, schema.SystemMessage(system))
	}
	messages = append(messages, schema.UserMessage(user))
	return messages
}
