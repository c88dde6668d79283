package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stepkit/stepkit/engine/block"
	"github.com/stepkit/stepkit/engine/core"
)

func TestRegistry(t *testing.T) {
	t.Run("Should register all built-in blocks", func(t *testing.T) {
		registry, err := Default(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"chat", "linear", "mysql", "qdrant", "router"}, registry.IDs())
	})

	t.Run("Should return the definition for a known id", func(t *testing.T) {
		registry, err := Default(context.Background())
		require.NoError(t, err)
		def, err := registry.Get("mysql")
		require.NoError(t, err)
		assert.Equal(t, "MySQL", def.Name)
	})

	t.Run("Should fail on an unknown id", func(t *testing.T) {
		registry, err := Default(context.Background())
		require.NoError(t, err)
		_, err = registry.Get("postgres")
		require.Error(t, err)
		assert.Contains(t, err.Error(), `unknown block "postgres"`)
	})

	t.Run("Should reject duplicate block ids", func(t *testing.T) {
		_, err := New(context.Background(), MySQL(), MySQL())
		require.Error(t, err)
		assert.Contains(t, err.Error(), `duplicate block id "mysql"`)
	})

	t.Run("Should reject an invalid definition", func(t *testing.T) {
		bad := MySQL()
		bad.Tools = nil
		_, err := New(context.Background(), bad)
		require.Error(t, err)
	})
}

func TestBuiltinDefinitions(t *testing.T) {
	t.Run("Should resolve tools for every declared operation", func(t *testing.T) {
		registry, err := Default(context.Background())
		require.NoError(t, err)
		for _, id := range registry.IDs() {
			def, err := registry.Get(id)
			require.NoError(t, err)
			for _, op := range def.Tools.Operations() {
				tool, err := def.Tools.ResolveTool(op)
				require.NoError(t, err)
				assert.NotEmpty(t, tool)
			}
		}
	})

	t.Run("Should hide the query field for insert on the mysql block", func(t *testing.T) {
		evaluator, err := block.NewConditionEvaluator()
		require.NoError(t, err)
		active, err := MySQL().ActiveFields(evaluator, core.FieldValues{
			"operation": "insert",
		})
		require.NoError(t, err)
		assert.Contains(t, active, "table")
		assert.Contains(t, active, "row")
		assert.NotContains(t, active, "query")
	})

	t.Run("Should normalize the manual team id on the linear block", func(t *testing.T) {
		normalizer, err := block.NewNormalizer()
		require.NoError(t, err)
		params, err := normalizer.Normalize(context.Background(), core.FieldValues{
			"operation":    "create",
			"manualTeamId": " TEAM-42 ",
			"title":        "Fix login",
		}, "create", Linear())
		require.NoError(t, err)
		assert.Equal(t, "TEAM-42", params["team_id"])
		assert.Equal(t, "Fix login", params["title"])
	})

	t.Run("Should reject a malformed chat message element", func(t *testing.T) {
		normalizer, err := block.NewNormalizer()
		require.NoError(t, err)
		_, err = normalizer.Normalize(context.Background(), core.FieldValues{
			"operation": "complete",
			"model":     "gpt-4o",
			"messages":  `[{"role":"user"}]`,
		}, "complete", Chat())
		require.Error(t, err)
		var verrs block.ValidationErrors
		require.ErrorAs(t, err, &verrs)
		require.Len(t, verrs, 1)
		assert.Contains(t, verrs[0].Message, "element 0")
	})

	t.Run("Should surface an operation-scoped label for the linear body field", func(t *testing.T) {
		field, ok := Linear().Field("body")
		require.True(t, ok)
		assert.Equal(t, "Comment Body", field.DisplayLabel("comment"))
		assert.Equal(t, "Issue Description", field.DisplayLabel("create"))
		assert.Equal(t, "Body", field.DisplayLabel("update"))
	})
}
