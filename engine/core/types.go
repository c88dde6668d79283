package core

import (
	"strings"

	"github.com/mohae/deepcopy"
)

// -----------------------------------------------------------------------------
// Field values
// -----------------------------------------------------------------------------

// FieldValues is the snapshot of a block instance's current inputs,
// keyed by field id. It is produced by the UI layer and owned by the
// workflow engine; this library never mutates it.
type FieldValues map[string]any

// Get returns the value for a field id and whether it is present.
func (v FieldValues) Get(field string) (any, bool) {
	val, ok := v[field]
	return val, ok
}

// Clone returns a deep copy of the snapshot so callers can hand it to
// concurrent consumers without aliasing.
func (v FieldValues) Clone() FieldValues {
	if v == nil {
		return nil
	}
	copied, ok := deepcopy.Copy(map[string]any(v)).(map[string]any)
	if !ok {
		return nil
	}
	return FieldValues(copied)
}

// IsEmptyValue reports whether a field value counts as "not populated"
// for canonical-id resolution and required-field checks. Whitespace-only
// strings are empty; zero numbers and false are populated values.
func IsEmptyValue(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case []any:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	default:
		return false
	}
}

// -----------------------------------------------------------------------------
// Param set
// -----------------------------------------------------------------------------

// ParamSet is the canonical, validated parameter object handed to the
// tool invocation boundary together with the resolved tool id.
type ParamSet map[string]any

// -----------------------------------------------------------------------------
// Identifiers
// -----------------------------------------------------------------------------

// OperationID is a user-selected mode of a block ("read", "insert", ...).
type OperationID string

func (o OperationID) String() string {
	return string(o)
}

// ToolID is the concrete backend action invoked to fulfill an operation.
type ToolID string

func (t ToolID) String() string {
	return string(t)
}

// -----------------------------------------------------------------------------
// Deployment mode
// -----------------------------------------------------------------------------

// DeploymentMode distinguishes the hosted service from self-hosted
// installs. The set of models that need no API key differs per mode.
type DeploymentMode string

const (
	ModeHosted     DeploymentMode = "hosted"
	ModeSelfHosted DeploymentMode = "self-hosted"
)

func (m DeploymentMode) String() string {
	return string(m)
}
