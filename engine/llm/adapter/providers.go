package llmadapter

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/stepkit/stepkit/engine/core"
)

// CreateLLMFactory creates an LLM instance based on the provider configuration
func CreateLLMFactory(provider *core.ProviderConfig) (llms.Model, error) {
	switch provider.Provider {
	case core.ProviderOpenAI:
		return createOpenAILLM(provider)
	case core.ProviderAnthropic:
		return createAnthropicLLM(provider)
	case core.ProviderGroq:
		return createGroqLLM(provider)
	case core.ProviderOllama:
		return createOllamaLLM(provider)
	case core.ProviderGoogle:
		return createGoogleLLM(provider)
	case core.ProviderDeepSeek:
		return createDeepSeekLLM(provider)
	case core.ProviderXAI:
		return createXAILLM(provider)
	case core.ProviderMock:
		return NewMockLLM(provider.Model), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider.Provider)
	}
}

// createOpenAILLM creates an OpenAI LLM instance
func createOpenAILLM(p *core.ProviderConfig) (llms.Model, error) {
	opts := []openai.Option{
		openai.WithModel(p.Model),
	}
	if p.APIKey != "" {
		opts = append(opts, openai.WithToken(p.APIKey))
	}
	if p.APIURL != "" {
		opts = append(opts, openai.WithBaseURL(p.APIURL))
	}
	if p.Organization != "" {
		opts = append(opts, openai.WithOrganization(p.Organization))
	}
	return openai.New(opts...)
}

// createAnthropicLLM creates an Anthropic LLM instance
func createAnthropicLLM(p *core.ProviderConfig) (llms.Model, error) {
	opts := []anthropic.Option{
		anthropic.WithModel(p.Model),
	}
	if p.APIKey != "" {
		opts = append(opts, anthropic.WithToken(p.APIKey))
	}
	if p.Organization != "" {
		return nil, fmt.Errorf("anthropic does not support organization")
	}
	return anthropic.New(opts...)
}

// createGroqLLM creates a Groq LLM instance
func createGroqLLM(p *core.ProviderConfig) (llms.Model, error) {
	baseURL := "https://api.groq.com/openai/v1"
	if p.APIURL != "" {
		baseURL = p.APIURL
	}
	opts := []openai.Option{
		openai.WithModel(p.Model),
		openai.WithBaseURL(baseURL),
	}
	if p.APIKey != "" {
		opts = append(opts, openai.WithToken(p.APIKey))
	}
	return openai.New(opts...)
}

// createOllamaLLM creates an Ollama LLM instance
func createOllamaLLM(p *core.ProviderConfig) (llms.Model, error) {
	opts := []ollama.Option{
		ollama.WithModel(p.Model),
	}
	if p.APIURL != "" {
		opts = append(opts, ollama.WithServerURL(p.APIURL))
	}
	return ollama.New(opts...)
}

// createGoogleLLM creates a Google AI LLM instance
func createGoogleLLM(p *core.ProviderConfig) (llms.Model, error) {
	opts := []googleai.Option{
		googleai.WithDefaultModel(p.Model),
	}
	if p.APIKey != "" {
		opts = append(opts, googleai.WithAPIKey(p.APIKey))
	}
	if p.APIURL != "" {
		return nil, fmt.Errorf("googleai does not support custom API URL")
	}
	return googleai.New(context.Background(), opts...)
}

// createDeepSeekLLM creates a DeepSeek LLM instance
func createDeepSeekLLM(p *core.ProviderConfig) (llms.Model, error) {
	baseURL := "https://api.deepseek.com/v1"
	if p.APIURL != "" {
		baseURL = p.APIURL
	}
	opts := []openai.Option{
		openai.WithModel(p.Model),
		openai.WithBaseURL(baseURL),
	}
	if p.APIKey != "" {
		opts = append(opts, openai.WithToken(p.APIKey))
	}
	return openai.New(opts...)
}

// createXAILLM creates an XAI (Grok) LLM instance
func createXAILLM(p *core.ProviderConfig) (llms.Model, error) {
	baseURL := "https://api.x.ai/v1"
	if p.APIURL != "" {
		baseURL = p.APIURL
	}
	opts := []openai.Option{
		openai.WithModel(p.Model),
		openai.WithBaseURL(baseURL),
	}
	if p.APIKey != "" {
		opts = append(opts, openai.WithToken(p.APIKey))
	}
	return openai.New(opts...)
}

// MockLLM is a mock implementation of the llms.Model interface for
// testing. It replies with the response pinned via WithResponse, or a
// summary line naming the model and prompt length when none is set.
type MockLLM struct {
	model    string
	response string
}

// NewMockLLM creates a new mock LLM
func NewMockLLM(model string) *MockLLM {
	return &MockLLM{model: model}
}

// WithResponse pins the mock's reply.
func (m *MockLLM) WithResponse(response string) *MockLLM {
	m.response = response
	return m
}

// GenerateContent implements the llms.Model interface with predictable responses
func (m *MockLLM) GenerateContent(
	_ context.Context,
	messages []llms.MessageContent,
	_ ...llms.CallOption,
) (*llms.ContentResponse, error) {
	content := m.response
	if content == "" {
		var prompt strings.Builder
		for _, message := range messages {
			for _, part := range message.Parts {
				if textPart, ok := part.(llms.TextContent); ok {
					prompt.WriteString(textPart.Text)
				}
			}
		}
		content = fmt.Sprintf("mock response from %s: %d chars", m.model, prompt.Len())
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: content}},
	}, nil
}

// Call implements the legacy llms.Model single-prompt entry point
func (m *MockLLM) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	resp, err := m.GenerateContent(ctx, []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}, options...)
	if err != nil {
		return "", err
	}
	return resp.Choices[0].Content, nil
}
