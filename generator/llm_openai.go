package generator

import (
	"context"
	"errors"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAILLM implements LLMClient using the official openai-go SDK (chat completions).
type OpenAILLM struct {
	Model  string
	client openai.Client
}

func NewOpenAILLMFromConfig(cfg *LLMSettings) (*OpenAILLM, error) {
	if cfg == nil {
		return nil, errors.New("llm config is nil")
	}
	if cfg.APIKey == "" {
		return nil, errors.New("openai api key missing; provide llm.api_key or OPENAI_API_KEY")
	}
	if cfg.Model == "" {
		return nil, errors.New("llm model is required")
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &OpenAILLM{Model: cfg.Model, client: openai.NewClient(opts...)}, nil
}

func (o *OpenAILLM) Complete(ctx context.Context, prompt Prompt) (string, error) {
	model := prompt.Model
	if model == "" {
		model = o.Model
	}

	var msgs []openai.ChatCompletionMessageParamUnion
	if prompt.System != "" {
		msgs = append(msgs, openai.SystemMessage(prompt.System))
	}
	msgs = append(msgs, openai.UserMessage(prompt.User))

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: msgs,
	}
	if prompt.MaxOutputTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(prompt.MaxOutputTokens))
	}

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", err
	}
	// 无内容时返回空串，交给解析/修复流程处理
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}
