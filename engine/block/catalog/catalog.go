// Package catalog holds the built-in block descriptors: static metadata
// tables consumed by the resolution engine. Descriptors are data only;
// all decision logic lives in the block package.
package catalog

import (
	"context"
	"fmt"
	"sort"

	"github.com/stepkit/stepkit/engine/block"
	"github.com/stepkit/stepkit/engine/core"
	"github.com/stepkit/stepkit/engine/schema"
)

// Registry is a read-only lookup of block definitions by id.
type Registry struct {
	blocks map[string]*block.Definition
}

// New builds a registry from definitions, validating each one.
func New(ctx context.Context, defs ...*block.Definition) (*Registry, error) {
	blocks := make(map[string]*block.Definition, len(defs))
	for _, def := range defs {
		if err := def.Validate(ctx); err != nil {
			return nil, err
		}
		if _, exists := blocks[def.ID]; exists {
			return nil, fmt.Errorf("duplicate block id %q", def.ID)
		}
		blocks[def.ID] = def
	}
	return &Registry{blocks: blocks}, nil
}

// Default returns the registry of built-in blocks.
func Default(ctx context.Context) (*Registry, error) {
	return New(ctx, MySQL(), Qdrant(), Linear(), Chat(), Router())
}

// Get returns the definition for a block id.
func (r *Registry) Get(id string) (*block.Definition, error) {
	def, ok := r.blocks[id]
	if !ok {
		return nil, fmt.Errorf("unknown block %q", id)
	}
	return def, nil
}

// IDs returns the registered block ids in sorted order.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.blocks))
	for id := range r.blocks {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// MySQL wraps row-level access to a MySQL database.
func MySQL() *block.Definition {
	return &block.Definition{
		ID:          "mysql",
		Name:        "MySQL",
		Description: "Read and write rows in a MySQL database",
		Icon:        "database",
		Color:       "#00758f",
		Fields: []block.FieldSpec{
			{ID: "operation", Label: "Operation", Type: block.FieldString},
			{
				ID: "table", Label: "Table Name", Type: block.FieldString,
				RequiredFor: []core.OperationID{"insert", "update", "delete"},
				Condition:   &block.Condition{Field: "operation", Value: []any{"insert", "update", "delete"}},
			},
			{
				ID: "row", Label: "Row Data", Type: block.FieldJSON,
				RequiredFor: []core.OperationID{"insert", "update"},
				Condition:   &block.Condition{Field: "operation", Value: []any{"insert", "update"}},
			},
			{
				ID: "query", Label: "SQL Query", Type: block.FieldString,
				RequiredFor: []core.OperationID{"query"},
				Condition:   &block.Condition{Field: "operation", Value: "query"},
			},
			{ID: "limit", Label: "Row Limit", Type: block.FieldNumber},
		},
		Tools: block.ToolTable{
			"query":  "mysql_run_query",
			"insert": "mysql_insert_row",
			"update": "mysql_update_row",
			"delete": "mysql_delete_row",
		},
	}
}

// Qdrant wraps vector search against a Qdrant collection.
func Qdrant() *block.Definition {
	return &block.Definition{
		ID:          "qdrant",
		Name:        "Qdrant",
		Description: "Store and search vectors in a Qdrant collection",
		Icon:        "vector",
		Color:       "#dc244c",
		Fields: []block.FieldSpec{
			{ID: "operation", Label: "Operation", Type: block.FieldString},
			{
				ID: "collection", Label: "Collection", Type: block.FieldString,
				RequiredFor: []core.OperationID{"search", "upsert"},
			},
			{
				ID: "vector", Label: "Query Vector", Type: block.FieldJSON,
				RequiredFor: []core.OperationID{"search"},
				Condition:   &block.Condition{Field: "operation", Value: "search"},
			},
			{
				ID: "points", Label: "Points", Type: block.FieldJSON,
				RequiredFor: []core.OperationID{"upsert"},
				Condition:   &block.Condition{Field: "operation", Value: "upsert"},
			},
			{ID: "topK", Label: "Result Count", Type: block.FieldNumber},
			{
				ID: "filter", Label: "Payload Filter", Type: block.FieldJSON,
				Condition: &block.Condition{Field: "operation", Value: "search"},
			},
		},
		Tools: block.ToolTable{
			"search": "qdrant_search_points",
			"upsert": "qdrant_upsert_points",
		},
	}
}

// Linear wraps issue management in a Linear workspace.
func Linear() *block.Definition {
	return &block.Definition{
		ID:          "linear",
		Name:        "Linear",
		Description: "Create and update issues in Linear",
		Icon:        "linear",
		Color:       "#5e6ad2",
		Fields: []block.FieldSpec{
			{ID: "operation", Label: "Operation", Type: block.FieldString},
			// Team picker with a manual fallback sharing one canonical id.
			{ID: "teamId", Label: "Team", Type: block.FieldString, CanonicalID: "team_id"},
			{
				ID: "manualTeamId", Label: "Team ID", Type: block.FieldString, CanonicalID: "team_id",
				RequiredFor: []core.OperationID{"create"},
			},
			{
				ID: "title", Label: "Issue Title", Type: block.FieldString,
				RequiredFor: []core.OperationID{"create"},
				Condition:   &block.Condition{Field: "operation", Value: "create"},
			},
			{
				ID: "issueId", Label: "Issue", Type: block.FieldString,
				RequiredFor: []core.OperationID{"update", "comment"},
				Condition:   &block.Condition{Field: "operation", Value: []any{"update", "comment"}},
			},
			{
				ID: "body", Label: "Body", Type: block.FieldString,
				RequiredFor: []core.OperationID{"comment"},
				Variants: map[core.OperationID]block.FieldVariant{
					"create":  {Label: "Issue Description"},
					"comment": {Label: "Comment Body"},
				},
			},
		},
		Tools: block.ToolTable{
			"create":  "linear_create_issue",
			"update":  "linear_update_issue",
			"comment": "linear_create_comment",
		},
	}
}

// Chat wraps a chat-completion call with a message history.
func Chat() *block.Definition {
	return &block.Definition{
		ID:          "chat",
		Name:        "Chat Completion",
		Description: "Send a message history to a language model",
		Icon:        "chat",
		Color:       "#10a37f",
		Fields: []block.FieldSpec{
			{ID: "operation", Label: "Operation", Type: block.FieldString},
			{ID: "model", Label: "Model", Type: block.FieldString, RequiredFor: []core.OperationID{"complete"}},
			{
				ID: "messages", Label: "Messages", Type: block.FieldJSON,
				RequiredFor:   []core.OperationID{"complete"},
				ElementSchema: messageElementSchema(),
			},
			{ID: "temperature", Label: "Temperature", Type: block.FieldNumber},
			{ID: "maxTokens", Label: "Max Tokens", Type: block.FieldNumber},
		},
		Tools: block.ToolTable{
			"complete": "chat_complete",
		},
	}
}

// Router selects the next workflow destination with a language model.
func Router() *block.Definition {
	return &block.Definition{
		ID:          "router",
		Name:        "AI Router",
		Description: "Route the workflow to one of several destinations",
		Icon:        "route",
		Color:       "#f59e0b",
		Fields: []block.FieldSpec{
			{ID: "operation", Label: "Operation", Type: block.FieldString},
			{
				ID: "instruction", Label: "Routing Instruction", Type: block.FieldString,
				RequiredFor: []core.OperationID{"route"},
			},
			{
				ID: "model", Label: "Model", Type: block.FieldString,
				RequiredFor: []core.OperationID{"route"},
			},
			// Visibility of the key input is resolved at runtime against
			// the keyless model set for the current deployment mode; the
			// static condition only hides it while the model field is blank.
			{
				ID: "apiKey", Label: "API Key", Type: block.FieldString,
				Condition: &block.Condition{Field: "model", Value: "", Negate: true},
			},
			{ID: "temperature", Label: "Temperature", Type: block.FieldNumber},
		},
		Tools: block.ToolTable{
			"route": "router_select_destination",
		},
	}
}

func messageElementSchema() *schema.Schema {
	return &schema.Schema{
		"type": "object",
		"properties": map[string]any{
			"role":    map[string]any{"type": "string"},
			"content": map[string]any{"type": "string"},
		},
		"required": []any{"role", "content"},
	}
}
