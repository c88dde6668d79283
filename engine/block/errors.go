package block

import (
	"fmt"
	"strings"

	"github.com/stepkit/stepkit/engine/core"
)

// -----------------------------------------------------------------------------
// Unknown operation
// -----------------------------------------------------------------------------

// UnknownOperationError reports an operation id with no tool mapping.
// Resolution never substitutes a default; silent fallbacks mask upstream
// UI and state bugs.
type UnknownOperationError struct {
	Operation core.OperationID
	Valid     []core.OperationID
}

func (e *UnknownOperationError) Error() string {
	valid := make([]string, len(e.Valid))
	for i, op := range e.Valid {
		valid[i] = op.String()
	}
	return fmt.Sprintf(
		"unknown operation %q: valid operations are [%s]",
		e.Operation, strings.Join(valid, ", "),
	)
}

// -----------------------------------------------------------------------------
// Validation errors
// -----------------------------------------------------------------------------

// ValidationError describes one malformed or missing parameter found
// during normalization.
type ValidationError struct {
	Field     string           `json:"field"`
	Operation core.OperationID `json:"operation,omitempty"`
	Message   string           `json:"message"`
}

func (e ValidationError) Error() string {
	return e.Message
}

// ValidationErrors is the ordered batch of problems found in one
// normalization attempt. Normalization accumulates instead of
// short-circuiting so the user sees every problem at once.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	messages := e.Messages()
	return fmt.Sprintf("invalid parameters: %s", strings.Join(messages, "; "))
}

// Messages returns the human-readable message for each error in order.
func (e ValidationErrors) Messages() []string {
	messages := make([]string, len(e))
	for i, err := range e {
		messages[i] = err.Message
	}
	return messages
}
