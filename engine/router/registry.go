package router

import (
	"context"
	"fmt"

	"github.com/stepkit/stepkit/engine/block"
	"github.com/stepkit/stepkit/engine/core"
	"github.com/stepkit/stepkit/pkg/logger"
)

// -----------------------------------------------------------------------------
// Provider registry
// -----------------------------------------------------------------------------

// Registry resolves a model name to its provider configuration. It is a
// read-only snapshot from this package's perspective: lookups are
// synchronous and side-effect free.
type Registry interface {
	LookupProvider(model string) (*core.ProviderConfig, bool)
}

// StaticRegistry is an immutable model→provider table.
type StaticRegistry struct {
	providers map[string]core.ProviderConfig
}

func NewStaticRegistry(entries map[string]core.ProviderConfig) *StaticRegistry {
	copied := make(map[string]core.ProviderConfig, len(entries))
	for model, cfg := range entries {
		copied[model] = cfg
	}
	return &StaticRegistry{providers: copied}
}

func (r *StaticRegistry) LookupProvider(model string) (*core.ProviderConfig, bool) {
	cfg, ok := r.providers[model]
	if !ok {
		return nil, false
	}
	// Copy out so callers cannot mutate the snapshot.
	out := cfg
	return &out, true
}

// UnknownModelError reports a model name with no registered provider.
// The selector fails with this before anything network-bound happens.
type UnknownModelError struct {
	Model string
}

func (e *UnknownModelError) Error() string {
	return fmt.Sprintf("no provider registered for model %q", e.Model)
}

// -----------------------------------------------------------------------------
// Keyless model sets
// -----------------------------------------------------------------------------

// ModelSets lists the models that need no API key per deployment mode.
type ModelSets interface {
	ListHostedModels(ctx context.Context) ([]string, error)
	ListLocalModels(ctx context.Context) ([]string, error)
}

// MissingCredentialError reports that a required API key was absent.
type MissingCredentialError struct {
	Model string
}

func (e *MissingCredentialError) Error() string {
	return fmt.Sprintf("an API key is required for model %q", e.Model)
}

// RequiresAPIKey reports whether the model needs an API key in the given
// deployment mode. The check is a condition-evaluator instance over the
// dynamically fetched keyless set: the key field is required unless the
// model is a member. A failed set query degrades to "key required".
func RequiresAPIKey(
	ctx context.Context,
	evaluator *block.ConditionEvaluator,
	model string,
	mode core.DeploymentMode,
	sets ModelSets,
) bool {
	log := logger.FromContext(ctx)
	if sets == nil {
		return true
	}
	var keyless []string
	var err error
	switch mode {
	case core.ModeHosted:
		keyless, err = sets.ListHostedModels(ctx)
	default:
		keyless, err = sets.ListLocalModels(ctx)
	}
	if err != nil {
		log.Warn("keyless model set query failed, assuming key required", "mode", mode, "error", err)
		return true
	}
	members := make([]any, len(keyless))
	for i, name := range keyless {
		members[i] = name
	}
	cond := &block.Condition{Field: "model", Value: members, Negate: true}
	required, evalErr := evaluator.IsActive(cond, core.FieldValues{"model": model})
	if evalErr != nil {
		log.Warn("keyless condition evaluation failed, assuming key required", "error", evalErr)
		return true
	}
	return required
}
