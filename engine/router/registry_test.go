package router

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stepkit/stepkit/engine/block"
	"github.com/stepkit/stepkit/engine/core"
)

func TestStaticRegistry_LookupProvider(t *testing.T) {
	registry := NewStaticRegistry(map[string]core.ProviderConfig{
		"gpt-4o-mini": {Provider: core.ProviderOpenAI, APIURL: "https://api.openai.com/v1"},
	})

	t.Run("Should resolve a registered model", func(t *testing.T) {
		cfg, ok := registry.LookupProvider("gpt-4o-mini")
		require.True(t, ok)
		assert.Equal(t, core.ProviderOpenAI, cfg.Provider)
	})
	t.Run("Should miss for an unregistered model", func(t *testing.T) {
		cfg, ok := registry.LookupProvider("unknown")
		assert.False(t, ok)
		assert.Nil(t, cfg)
	})
	t.Run("Should hand out copies, not snapshot aliases", func(t *testing.T) {
		cfg, ok := registry.LookupProvider("gpt-4o-mini")
		require.True(t, ok)
		cfg.APIURL = "mutated"
		again, _ := registry.LookupProvider("gpt-4o-mini")
		assert.Equal(t, "https://api.openai.com/v1", again.APIURL)
	})
}

func TestRequiresAPIKey(t *testing.T) {
	evaluator, err := block.NewConditionEvaluator()
	require.NoError(t, err)
	ctx := t.Context()

	t.Run("Should not require a key for keyless models in mode", func(t *testing.T) {
		sets := &staticSets{hosted: []string{"hosted-small"}, local: []string{"local-llama"}}
		assert.False(t, RequiresAPIKey(ctx, evaluator, "hosted-small", core.ModeHosted, sets))
		assert.False(t, RequiresAPIKey(ctx, evaluator, "local-llama", core.ModeSelfHosted, sets))
	})
	t.Run("Should require a key outside the keyless set", func(t *testing.T) {
		sets := &staticSets{hosted: []string{"hosted-small"}}
		assert.True(t, RequiresAPIKey(ctx, evaluator, "gpt-4o-mini", core.ModeHosted, sets))
	})
	t.Run("Should consult the set matching the deployment mode", func(t *testing.T) {
		sets := &staticSets{hosted: []string{"shared-model"}, local: []string{}}
		assert.False(t, RequiresAPIKey(ctx, evaluator, "shared-model", core.ModeHosted, sets))
		assert.True(t, RequiresAPIKey(ctx, evaluator, "shared-model", core.ModeSelfHosted, sets))
	})
	t.Run("Should degrade to key required when queries fail", func(t *testing.T) {
		sets := &staticSets{err: fmt.Errorf("unreachable")}
		assert.True(t, RequiresAPIKey(ctx, evaluator, "local-llama", core.ModeSelfHosted, sets))
	})
	t.Run("Should require a key when no sets are wired", func(t *testing.T) {
		assert.True(t, RequiresAPIKey(ctx, evaluator, "anything", core.ModeHosted, nil))
	})
}
