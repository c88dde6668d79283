package block

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stepkit/stepkit/engine/core"
)

func TestDefinition_Validate(t *testing.T) {
	ctx := t.Context()

	t.Run("Should accept a well-formed definition", func(t *testing.T) {
		require.NoError(t, mysqlDefinition().Validate(ctx))
	})
	t.Run("Should reject a condition referencing an undeclared field", func(t *testing.T) {
		def := mysqlDefinition()
		def.Fields[1].Condition = &Condition{Field: "ghost", Value: "x"}
		err := def.Validate(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `undeclared field "ghost"`)
	})
	t.Run("Should reject an empty tool table", func(t *testing.T) {
		def := mysqlDefinition()
		def.Tools = ToolTable{}
		require.Error(t, def.Validate(ctx))
	})
	t.Run("Should reject canonical groups mixing types", func(t *testing.T) {
		def := spreadsheetDefinition()
		def.Fields[2].Type = FieldNumber
		err := def.Validate(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "mixes field types")
	})
	t.Run("Should reject a field without an id", func(t *testing.T) {
		def := mysqlDefinition()
		def.Fields[0].ID = ""
		require.Error(t, def.Validate(ctx))
	})
}

func TestDefinition_ActiveFields(t *testing.T) {
	evaluator, err := NewConditionEvaluator()
	require.NoError(t, err)

	t.Run("Should include unconditioned fields and matching conditions only", func(t *testing.T) {
		active, err := mysqlDefinition().ActiveFields(evaluator, core.FieldValues{
			"operation": "insert",
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"operation", "table", "row", "limit"}, active)
	})
	t.Run("Should flip with the operation", func(t *testing.T) {
		active, err := mysqlDefinition().ActiveFields(evaluator, core.FieldValues{
			"operation": "query",
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"operation", "table", "query", "limit"}, active)
	})
}

func TestFieldSpec_Variants(t *testing.T) {
	spec := FieldSpec{
		ID:    "target",
		Label: "Target",
		Type:  FieldString,
		Variants: map[core.OperationID]FieldVariant{
			"move": {Label: "Destination Folder"},
			"copy": {Condition: &Condition{Field: "operation", Value: "copy"}},
		},
	}

	t.Run("Should prefer the variant label for its operation", func(t *testing.T) {
		assert.Equal(t, "Destination Folder", spec.DisplayLabel("move"))
		assert.Equal(t, "Target", spec.DisplayLabel("delete"))
	})
	t.Run("Should prefer the variant condition for its operation", func(t *testing.T) {
		assert.NotNil(t, spec.EffectiveCondition("copy"))
		assert.Nil(t, spec.EffectiveCondition("move"))
	})
}

func TestDefinition_CanonicalGroups(t *testing.T) {
	t.Run("Should group by canonical key preserving declaration order", func(t *testing.T) {
		order, groups := spreadsheetDefinition().CanonicalGroups()
		assert.Equal(t, []string{"operation", "spreadsheet_id"}, order)
		require.Len(t, groups["spreadsheet_id"], 2)
		assert.Equal(t, "spreadsheetId", groups["spreadsheet_id"][0].ID)
		assert.Equal(t, "manualSpreadsheetId", groups["spreadsheet_id"][1].ID)
	})
}
