package llmadapter

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"

	"github.com/stepkit/stepkit/engine/core"
)

// LangChainAdapter adapts langchaingo to our LLMClient interface
type LangChainAdapter struct {
	model    llms.Model
	provider core.ProviderConfig
}

// NewLangChainAdapter creates a new LangChain adapter
func NewLangChainAdapter(config *core.ProviderConfig) (*LangChainAdapter, error) {
	model, err := CreateLLMFactory(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM model: %w", err)
	}
	return &LangChainAdapter{
		model:    model,
		provider: *config,
	}, nil
}

// GenerateContent implements LLMClient interface
func (a *LangChainAdapter) GenerateContent(ctx context.Context, req *LLMRequest) (*LLMResponse, error) {
	messages := a.convertMessages(req)
	options := a.buildCallOptions(req)

	response, err := a.model.GenerateContent(ctx, messages, options...)
	if err != nil {
		return nil, fmt.Errorf("langchain GenerateContent failed: %w", err)
	}

	return a.convertResponse(response)
}

// Close implements LLMClient interface
func (a *LangChainAdapter) Close() error {
	return nil
}

// convertMessages converts our Message format to langchain MessageContent
func (a *LangChainAdapter) convertMessages(req *LLMRequest) []llms.MessageContent {
	messages := make([]llms.MessageContent, 0, len(req.Messages)+1)

	if req.SystemPrompt != "" {
		messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, req.SystemPrompt))
	}

	for _, msg := range req.Messages {
		messages = append(messages, llms.TextParts(a.mapMessageRole(msg.Role), msg.Content))
	}

	return messages
}

// mapMessageRole maps our role to langchain ChatMessageType
func (a *LangChainAdapter) mapMessageRole(role string) llms.ChatMessageType {
	switch role {
	case RoleSystem:
		return llms.ChatMessageTypeSystem
	case RoleUser:
		return llms.ChatMessageTypeHuman
	case RoleAssistant:
		return llms.ChatMessageTypeAI
	default:
		return llms.ChatMessageTypeHuman
	}
}

// buildCallOptions builds langchain call options from our request
func (a *LangChainAdapter) buildCallOptions(req *LLMRequest) []llms.CallOption {
	var options []llms.CallOption

	// Temperature zero is meaningful for routing, so always pass it.
	options = append(options, llms.WithTemperature(req.Options.Temperature))

	if req.Options.MaxTokens > 0 {
		options = append(options, llms.WithMaxTokens(int(req.Options.MaxTokens)))
	}
	if len(req.Options.StopWords) > 0 {
		options = append(options, llms.WithStopWords(req.Options.StopWords))
	}
	if req.Options.Seed != 0 {
		options = append(options, llms.WithSeed(req.Options.Seed))
	}

	return options
}

// convertResponse converts langchain response to our format
func (a *LangChainAdapter) convertResponse(resp *llms.ContentResponse) (*LLMResponse, error) {
	if resp == nil || len(resp.Choices) == 0 {
		return nil, fmt.Errorf("empty response from LLM")
	}

	choice := resp.Choices[0]
	response := &LLMResponse{
		Content: choice.Content,
	}
	if usage := extractUsage(choice.GenerationInfo); usage != nil {
		response.Usage = usage
	}
	return response, nil
}

// extractUsage pulls token counts out of the provider's generation info
// when present; langchaingo has no first-class usage field.
func extractUsage(info map[string]any) *Usage {
	if len(info) == 0 {
		return nil
	}
	usage := &Usage{}
	found := false
	if v, ok := asInt(info["PromptTokens"]); ok {
		usage.PromptTokens = v
		found = true
	}
	if v, ok := asInt(info["CompletionTokens"]); ok {
		usage.CompletionTokens = v
		found = true
	}
	if v, ok := asInt(info["TotalTokens"]); ok {
		usage.TotalTokens = v
		found = true
	}
	if !found {
		return nil
	}
	if usage.TotalTokens == 0 {
		usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens
	}
	return usage
}

func asInt(v any) (int, bool) {
	switch t := v.(type) {
	case int:
		return t, true
	case int32:
		return int(t), true
	case int64:
		return int(t), true
	case float64:
		return int(t), true
	default:
		return 0, false
	}
}
