package block

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stepkit/stepkit/engine/core"
	"github.com/stepkit/stepkit/engine/schema"
)

func mysqlDefinition() *Definition {
	return &Definition{
		ID:   "mysql",
		Name: "MySQL",
		Fields: []FieldSpec{
			{ID: "operation", Label: "Operation", Type: FieldString},
			{
				ID: "table", Label: "Table Name", Type: FieldString,
				RequiredFor: []core.OperationID{"insert"},
			},
			{
				ID: "row", Label: "Row Data", Type: FieldJSON,
				RequiredFor: []core.OperationID{"insert"},
				Condition:   &Condition{Field: "operation", Value: "insert"},
			},
			{
				ID: "query", Label: "SQL Query", Type: FieldString,
				RequiredFor: []core.OperationID{"query"},
				Condition:   &Condition{Field: "operation", Value: "query"},
			},
			{ID: "limit", Label: "Row Limit", Type: FieldNumber},
		},
		Tools: ToolTable{
			"insert": "mysql_insert_row",
			"query":  "mysql_run_query",
		},
	}
}

func chatDefinition() *Definition {
	return &Definition{
		ID:   "chat",
		Name: "Chat Completion",
		Fields: []FieldSpec{
			{ID: "operation", Label: "Operation", Type: FieldString},
			{
				ID: "messages", Label: "Messages", Type: FieldJSON,
				RequiredFor: []core.OperationID{"complete"},
				ElementSchema: &schema.Schema{
					"type": "object",
					"properties": map[string]any{
						"role":    map[string]any{"type": "string"},
						"content": map[string]any{"type": "string"},
					},
					"required": []any{"role", "content"},
				},
			},
		},
		Tools: ToolTable{"complete": "chat_complete"},
	}
}

func spreadsheetDefinition() *Definition {
	return &Definition{
		ID: "sheets",
		Fields: []FieldSpec{
			{ID: "operation", Type: FieldString},
			// Picker before manual entry: declaration order is priority order.
			{ID: "spreadsheetId", Label: "Spreadsheet", Type: FieldString, CanonicalID: "spreadsheet_id"},
			{ID: "manualSpreadsheetId", Label: "Spreadsheet ID", Type: FieldString, CanonicalID: "spreadsheet_id"},
		},
		Tools: ToolTable{"read": "sheets_read"},
	}
}

func TestNormalizer_RequiredFields(t *testing.T) {
	n, err := NewNormalizer()
	require.NoError(t, err)
	ctx := t.Context()

	t.Run("Should collect every missing field and fail atomically", func(t *testing.T) {
		params, err := n.Normalize(ctx, core.FieldValues{
			"operation": "insert",
			"table":     "",
		}, "insert", mysqlDefinition())
		require.Error(t, err)
		assert.Nil(t, params)

		var verrs ValidationErrors
		require.True(t, errors.As(err, &verrs))
		require.Len(t, verrs, 2)
		assert.Equal(t, `Table Name is required for operation "insert"`, verrs[0].Message)
		assert.Equal(t, `Row Data is required for operation "insert"`, verrs[1].Message)
	})
	t.Run("Should pass when required fields are populated", func(t *testing.T) {
		params, err := n.Normalize(ctx, core.FieldValues{
			"operation": "insert",
			"table":     "users",
			"row":       map[string]any{"name": "ada"},
		}, "insert", mysqlDefinition())
		require.NoError(t, err)
		assert.Equal(t, "users", params["table"])
	})
	t.Run("Should scope required rules to the current operation", func(t *testing.T) {
		params, err := n.Normalize(ctx, core.FieldValues{
			"operation": "query",
			"query":     "SELECT 1",
		}, "query", mysqlDefinition())
		require.NoError(t, err)
		assert.Equal(t, "SELECT 1", params["query"])
		assert.NotContains(t, params, "table")
	})
}

func TestNormalizer_JSONDecoding(t *testing.T) {
	n, err := NewNormalizer()
	require.NoError(t, err)
	ctx := t.Context()

	t.Run("Should decode stringified JSON fields", func(t *testing.T) {
		params, err := n.Normalize(ctx, core.FieldValues{
			"operation": "complete",
			"messages":  `[{"role":"user","content":"hi"}]`,
		}, "complete", chatDefinition())
		require.NoError(t, err)
		messages, ok := params["messages"].([]any)
		require.True(t, ok)
		require.Len(t, messages, 1)
		assert.Equal(t, map[string]any{"role": "user", "content": "hi"}, messages[0])
	})
	t.Run("Should emit exactly one error for invalid JSON", func(t *testing.T) {
		params, err := n.Normalize(ctx, core.FieldValues{
			"operation": "complete",
			"messages":  `{not json`,
		}, "complete", chatDefinition())
		require.Error(t, err)
		assert.Nil(t, params)

		var verrs ValidationErrors
		require.True(t, errors.As(err, &verrs))
		require.Len(t, verrs, 1)
		assert.Equal(t, "messages", verrs[0].Field)
		assert.Contains(t, verrs[0].Message, "not valid JSON")
	})
	t.Run("Should stop element validation at the first bad element", func(t *testing.T) {
		_, err := n.Normalize(ctx, core.FieldValues{
			"operation": "complete",
			"messages": []any{
				map[string]any{"role": "user", "content": "hi"},
				map[string]any{"role": "user"},
				map[string]any{"content": "dangling"},
			},
		}, "complete", chatDefinition())
		require.Error(t, err)

		var verrs ValidationErrors
		require.True(t, errors.As(err, &verrs))
		require.Len(t, verrs, 1)
		assert.Contains(t, verrs[0].Message, "element 1")
	})
	t.Run("Should reject a non-list value for element-validated fields", func(t *testing.T) {
		_, err := n.Normalize(ctx, core.FieldValues{
			"operation": "complete",
			"messages":  map[string]any{"role": "user", "content": "hi"},
		}, "complete", chatDefinition())
		require.Error(t, err)

		var verrs ValidationErrors
		require.True(t, errors.As(err, &verrs))
		require.Len(t, verrs, 1)
		assert.Contains(t, verrs[0].Message, "must be a list")
	})
}

func TestNormalizer_NumericCoercion(t *testing.T) {
	n, err := NewNormalizer()
	require.NoError(t, err)
	ctx := t.Context()

	t.Run("Should coerce stringified numbers", func(t *testing.T) {
		params, err := n.Normalize(ctx, core.FieldValues{
			"operation": "query",
			"query":     "SELECT 1",
			"limit":     "25",
		}, "query", mysqlDefinition())
		require.NoError(t, err)
		assert.Equal(t, float64(25), params["limit"])
	})
	t.Run("Should report non-numeric text", func(t *testing.T) {
		_, err := n.Normalize(ctx, core.FieldValues{
			"operation": "query",
			"query":     "SELECT 1",
			"limit":     "lots",
		}, "query", mysqlDefinition())
		require.Error(t, err)

		var verrs ValidationErrors
		require.True(t, errors.As(err, &verrs))
		require.Len(t, verrs, 1)
		assert.Contains(t, verrs[0].Message, "must be a number")
	})
}

func TestNormalizer_CanonicalResolution(t *testing.T) {
	n, err := NewNormalizer()
	require.NoError(t, err)
	ctx := t.Context()

	t.Run("Should fall through to the manual entry when the picker is empty", func(t *testing.T) {
		params, err := n.Normalize(ctx, core.FieldValues{
			"operation":           "read",
			"spreadsheetId":       "",
			"manualSpreadsheetId": "abc123",
		}, "read", spreadsheetDefinition())
		require.NoError(t, err)
		assert.Equal(t, "abc123", params["spreadsheet_id"])
		assert.NotContains(t, params, "spreadsheetId")
		assert.NotContains(t, params, "manualSpreadsheetId")
	})
	t.Run("Should prefer the declared-priority source when both are populated", func(t *testing.T) {
		params, err := n.Normalize(ctx, core.FieldValues{
			"operation":           "read",
			"spreadsheetId":       "picker-id",
			"manualSpreadsheetId": "manual-id",
		}, "read", spreadsheetDefinition())
		require.NoError(t, err)
		assert.Equal(t, "picker-id", params["spreadsheet_id"])
	})
	t.Run("Should trim whitespace on string sources", func(t *testing.T) {
		params, err := n.Normalize(ctx, core.FieldValues{
			"operation":           "read",
			"manualSpreadsheetId": "  abc123  ",
		}, "read", spreadsheetDefinition())
		require.NoError(t, err)
		assert.Equal(t, "abc123", params["spreadsheet_id"])
	})
}

func TestNormalizer_Assembly(t *testing.T) {
	n, err := NewNormalizer()
	require.NoError(t, err)
	ctx := t.Context()

	t.Run("Should pass through undeclared fields untouched", func(t *testing.T) {
		params, err := n.Normalize(ctx, core.FieldValues{
			"operation":    "query",
			"query":        "SELECT 1",
			"traceContext": map[string]any{"requestId": "r-1"},
		}, "query", mysqlDefinition())
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"requestId": "r-1"}, params["traceContext"])
	})
	t.Run("Should omit absent optional fields instead of emitting nulls", func(t *testing.T) {
		params, err := n.Normalize(ctx, core.FieldValues{
			"operation": "query",
			"query":     "SELECT 1",
		}, "query", mysqlDefinition())
		require.NoError(t, err)
		assert.NotContains(t, params, "limit")
		assert.NotContains(t, params, "row")
	})
	t.Run("Should drop populated fields whose condition is inactive", func(t *testing.T) {
		// Stale "row" value left over from a previously selected operation.
		params, err := n.Normalize(ctx, core.FieldValues{
			"operation": "query",
			"query":     "SELECT 1",
			"row":       map[string]any{"name": "stale"},
		}, "query", mysqlDefinition())
		require.NoError(t, err)
		assert.NotContains(t, params, "row")
	})
	t.Run("Should never return a param set alongside errors", func(t *testing.T) {
		params, err := n.Normalize(ctx, core.FieldValues{
			"operation": "insert",
			"limit":     "NaN-ish",
		}, "insert", mysqlDefinition())
		require.Error(t, err)
		assert.Nil(t, params)
	})
}
