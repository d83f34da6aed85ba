package generator

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

// GeminiLLM implements LLMClient on the Google GenAI SDK.
type GeminiLLM struct {
	Model  string
	client *genai.Client
}

func NewGeminiLLMFromConfig(ctx context.Context, cfg *LLMSettings) (*GeminiLLM, error) {
	if cfg == nil {
		return nil, errors.New("llm config is nil")
	}
	if cfg.APIKey == "" {
		return nil, errors.New("gemini api key missing; provide llm.api_key or GEMINI_API_KEY")
	}
	if cfg.Model == "" {
		return nil, errors.New("llm model is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GeminiLLM{Model: cfg.Model, client: client}, nil
}

func (g *GeminiLLM) Complete(ctx context.Context, prompt Prompt) (string, error) {
	model := prompt.Model
	if model == "" {
		model = g.Model
	}
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	}
	if prompt.System != "" {
		config.SystemInstruction = genai.NewContentFromText(prompt.System, genai.RoleUser)
	}
	if prompt.MaxOutputTokens > 0 {
		config.MaxOutputTokens = int32(prompt.MaxOutputTokens)
	}

	resp, err := g.client.Models.GenerateContent(ctx, model, genai.Text(prompt.User), config)
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}
