package generator

import (
	"context"
	"fmt"
)

// LLMClient 抽象大模型客户端，便于替换/Mock。
// Implementations return an error only for transport-level failures; an empty
// or malformed body is returned as text.
type LLMClient interface {
	Complete(ctx context.Context, prompt Prompt) (string, error)
}

// LLMSettings 提供给具体实现的基础配置。
type LLMSettings struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
}

// NewLLM picks the provider implementation named by settings.Provider.
func NewLLM(ctx context.Context, settings *LLMSettings) (LLMClient, error) {
	if settings == nil || settings.Provider == "" {
		return nil, fmt.Errorf("llm config missing; please set llm.provider/model/api_key")
	}
	switch settings.Provider {
	case "openai":
		return NewOpenAILLMFromConfig(settings)
	case "deepseek":
		// DeepSeek 提供 OpenAI 兼容接口，需填写 base_url。
		if settings.BaseURL == "" {
			return nil, fmt.Errorf("llm provider deepseek requires base_url (OpenAI-compatible endpoint)")
		}
		return NewOpenAILLMFromConfig(settings)
	case "gemini":
		return NewGeminiLLMFromConfig(ctx, settings)
	case "mock":
		return MockLLM{}, nil
	default:
		return nil, fmt.Errorf("llm provider %s not supported", settings.Provider)
	}
}
