package router

import (
	"context"
	"fmt"
	"strings"

	"github.com/segmentio/ksuid"

	"github.com/stepkit/stepkit/engine/block"
	"github.com/stepkit/stepkit/engine/core"
	llmadapter "github.com/stepkit/stepkit/engine/llm/adapter"
	"github.com/stepkit/stepkit/pkg/logger"
)

// -----------------------------------------------------------------------------
// Selection state machine
// -----------------------------------------------------------------------------

type State string

const (
	StateIdle      State = "IDLE"
	StateInvoking  State = "INVOKING"
	StateSucceeded State = "SUCCEEDED"
	StateFailed    State = "FAILED"
)

// ProtocolViolationError reports model output that did not exactly match
// one candidate id. The raw text is kept for diagnosis; there is no fuzzy
// matching and no fallback candidate.
type ProtocolViolationError struct {
	RawOutput  string
	Candidates []string
}

func (e *ProtocolViolationError) Error() string {
	return fmt.Sprintf(
		"model output %q does not match any candidate id (candidates: %s)",
		e.RawOutput, strings.Join(e.Candidates, ", "),
	)
}

// -----------------------------------------------------------------------------
// Destination selector
// -----------------------------------------------------------------------------

// ModelConfig carries the user-facing model selection for one routing
// decision: the model name (resolved to a provider through the registry),
// an optional API key, and sampling parameters. Routing prefers
// determinism over creativity, so the zero temperature is passed through
// as-is.
type ModelConfig struct {
	Model  string            `json:"model"             validate:"required"`
	APIKey string            `json:"api_key,omitempty"`
	Params core.PromptParams `json:"params,omitempty"`
}

// defaultMaxTokens caps the routing response; identifiers are short.
const defaultMaxTokens = 64

// Selector performs the model invocation for a routing decision and
// validates the output against the candidate set. It holds only
// read-only collaborators and is safe to share across block instances.
type Selector struct {
	registry  Registry
	factory   llmadapter.Factory
	sets      ModelSets
	mode      core.DeploymentMode
	evaluator *block.ConditionEvaluator
}

func NewSelector(
	registry Registry,
	factory llmadapter.Factory,
	sets ModelSets,
	mode core.DeploymentMode,
) (*Selector, error) {
	if registry == nil {
		return nil, fmt.Errorf("provider registry is required")
	}
	if factory == nil {
		factory = llmadapter.NewDefaultFactory()
	}
	evaluator, err := block.NewConditionEvaluator()
	if err != nil {
		return nil, fmt.Errorf("failed to create condition evaluator: %w", err)
	}
	return &Selector{
		registry:  registry,
		factory:   factory,
		sets:      sets,
		mode:      mode,
		evaluator: evaluator,
	}, nil
}

// Select invokes the model with an already-synthesized prompt and
// extracts the single destination id from the raw output. The engine
// does not retry: a failed or protocol-violating response surfaces
// immediately and the caller owns any retry policy.
func (s *Selector) Select(
	ctx context.Context,
	prompt string,
	modelConfig ModelConfig,
	candidates []CandidateDestination,
) (*RoutingDecision, error) {
	log := logger.FromContext(ctx)
	invocationID := ksuid.New().String()
	state := StateIdle

	if len(candidates) == 0 {
		return nil, fmt.Errorf("at least one candidate destination is required")
	}
	if modelConfig.Model == "" {
		return nil, fmt.Errorf("model name is required")
	}

	if RequiresAPIKey(ctx, s.evaluator, modelConfig.Model, s.mode, s.sets) && modelConfig.APIKey == "" {
		return nil, core.NewError(
			&MissingCredentialError{Model: modelConfig.Model},
			"MISSING_API_KEY",
			map[string]any{"model": modelConfig.Model, "mode": s.mode},
		)
	}

	provider, ok := s.registry.LookupProvider(modelConfig.Model)
	if !ok {
		return nil, core.NewError(
			&UnknownModelError{Model: modelConfig.Model},
			"UNKNOWN_MODEL",
			map[string]any{"model": modelConfig.Model},
		)
	}
	overrides := map[string]any{"model": modelConfig.Model}
	if modelConfig.APIKey != "" {
		overrides["api_key"] = modelConfig.APIKey
	}
	if err := provider.FromMap(overrides); err != nil {
		return nil, fmt.Errorf("failed to apply model overrides: %w", err)
	}

	client, err := s.factory.CreateClient(provider)
	if err != nil {
		return nil, fmt.Errorf("failed to create model client: %w", err)
	}
	defer client.Close()

	state = StateInvoking
	log.Debug("invoking routing model",
		"invocation_id", invocationID, "provider", providerTrace(provider), "state", state)

	maxTokens := modelConfig.Params.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}
	response, err := client.GenerateContent(ctx, &llmadapter.LLMRequest{
		Messages: []llmadapter.Message{{Role: llmadapter.RoleUser, Content: prompt}},
		Options: llmadapter.CallOptions{
			Temperature: modelConfig.Params.Temperature,
			MaxTokens:   maxTokens,
			StopWords:   modelConfig.Params.StopWords,
			Seed:        modelConfig.Params.Seed,
		},
	})
	if err != nil {
		state = StateFailed
		log.Debug("routing model invocation failed",
			"invocation_id", invocationID, "state", state)
		return nil, fmt.Errorf("model invocation failed: %w", err)
	}

	raw := strings.TrimSpace(response.Content)
	for i := range candidates {
		if raw == candidates[i].ID {
			state = StateSucceeded
			log.Debug("destination selected",
				"invocation_id", invocationID, "selected", raw, "state", state)
			return &RoutingDecision{
				SelectedID:   raw,
				InvocationID: invocationID,
				Usage:        response.Usage,
			}, nil
		}
	}

	state = StateFailed
	log.Debug("routing protocol violation",
		"invocation_id", invocationID, "raw", raw, "state", state)
	return nil, &ProtocolViolationError{
		RawOutput:  raw,
		Candidates: candidateIDs(candidates),
	}
}

// Route is the convenience path used by the Router block: synthesize the
// prompt from the instruction and candidates, then select.
func (s *Selector) Route(
	ctx context.Context,
	instruction string,
	modelConfig ModelConfig,
	candidates []CandidateDestination,
) (*RoutingDecision, error) {
	prompt := BuildPrompt(instruction, candidates)
	return s.Select(ctx, prompt, modelConfig, candidates)
}

// providerTrace renders the effective provider configuration for the
// debug trace with the credential removed.
func providerTrace(p *core.ProviderConfig) map[string]any {
	trace, err := p.AsMap()
	if err != nil {
		return map[string]any{"provider": p.Provider.String()}
	}
	delete(trace, "api_key")
	return trace
}

func candidateIDs(candidates []CandidateDestination) []string {
	ids := make([]string, len(candidates))
	for i := range candidates {
		ids[i] = candidates[i].ID
	}
	return ids
}
