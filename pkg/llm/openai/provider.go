package openai

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"ehr-navigator-be/pkg/llm"

	goopenai "github.com/sashabaranov/go-openai"
)

// OpenAIProvider talks to any OpenAI-compatible chat completion endpoint.
// The default target is a local llama-server, which ignores the API key.
type OpenAIProvider struct {
	client    *goopenai.Client
	modelName string
}

// Ensure OpenAIProvider implements LLMProvider
var _ llm.LLMProvider = &OpenAIProvider{}

// NewOpenAIProvider builds a provider for baseURL (with or without the /v1 suffix).
func NewOpenAIProvider(baseURL, apiKey, modelName string, timeout time.Duration) *OpenAIProvider {
	if apiKey == "" {
		apiKey = "not-needed"
	}

	cfg := goopenai.DefaultConfig(apiKey)
	cfg.BaseURL = normalizeBaseURL(baseURL)
	cfg.HTTPClient = &http.Client{Timeout: timeout}

	return &OpenAIProvider{
		client:    goopenai.NewClientWithConfig(cfg),
		modelName: modelName,
	}
}

func (p *OpenAIProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	options := llm.Apply(llm.Options{Model: p.modelName, Temperature: 0.7}, opts...)

	messages := make([]goopenai.ChatCompletionMessage, len(history))
	for i, msg := range history {
		role := msg.Role
		if role == "model" {
			role = llm.RoleAssistant
		}
		messages[i] = goopenai.ChatCompletionMessage{Role: role, Content: msg.Content}
	}

	req := goopenai.ChatCompletionRequest{
		Model:       options.Model,
		Messages:    messages,
		Temperature: temperature(options.Temperature),
		Stop:        options.Stop,
	}
	if options.MaxTokens > 0 {
		req.MaxTokens = options.MaxTokens
	}

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}

func (p *OpenAIProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return p.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, opts...)
}

// temperature maps 0 to the smallest positive float so the field survives
// omitempty and the server does not substitute its own default.
func temperature(t float64) float32 {
	if t <= 0 {
		return math.SmallestNonzeroFloat32
	}
	return float32(t)
}

func normalizeBaseURL(baseURL string) string {
	baseURL = strings.TrimRight(baseURL, "/")
	if !strings.HasSuffix(baseURL, "/v1") {
		baseURL += "/v1"
	}
	return baseURL
}
