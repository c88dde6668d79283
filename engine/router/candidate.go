package router

import (
	"encoding/json"

	llmadapter "github.com/stepkit/stepkit/engine/llm/adapter"
)

// CandidateDestination is one possible next step the model may select.
// Candidates are built per routing invocation from the live workflow
// graph and are read-only inputs to this package.
type CandidateDestination struct {
	ID           string          `json:"id"                      yaml:"id"                      mapstructure:"id"                      validate:"required"`
	Type         string          `json:"type,omitempty"          yaml:"type,omitempty"          mapstructure:"type,omitempty"`
	Title        string          `json:"title,omitempty"         yaml:"title,omitempty"         mapstructure:"title,omitempty"`
	Description  string          `json:"description,omitempty"   yaml:"description,omitempty"   mapstructure:"description,omitempty"`
	Category     string          `json:"category,omitempty"      yaml:"category,omitempty"      mapstructure:"category,omitempty"`
	Config       json.RawMessage `json:"config,omitempty"        yaml:"config,omitempty"        mapstructure:"config,omitempty"`
	CurrentState json.RawMessage `json:"current_state,omitempty" yaml:"current_state,omitempty" mapstructure:"current_state,omitempty"`
}

// RoutingDecision is the validated outcome of one destination selection.
// SelectedID always equals the id of exactly one supplied candidate.
type RoutingDecision struct {
	SelectedID   string            `json:"selected_id"`
	InvocationID string            `json:"invocation_id"`
	Usage        *llmadapter.Usage `json:"usage,omitempty"`
}
