package block

import (
	"context"
	"fmt"

	"github.com/stepkit/stepkit/engine/core"
	"github.com/stepkit/stepkit/engine/schema"
)

// -----------------------------------------------------------------------------
// Field model
// -----------------------------------------------------------------------------

type FieldType string

const (
	FieldString  FieldType = "string"
	FieldNumber  FieldType = "number"
	FieldBoolean FieldType = "boolean"
	FieldJSON    FieldType = "json"
	FieldList    FieldType = "list"
)

// FieldVariant overrides parts of a field spec for one operation. A field
// that older descriptors declared several times, each copy gated by a
// mutually-exclusive condition, is declared once here with per-operation
// variants instead.
type FieldVariant struct {
	Label     string     `json:"label,omitempty"     yaml:"label,omitempty"     mapstructure:"label,omitempty"`
	Condition *Condition `json:"condition,omitempty" yaml:"condition,omitempty" mapstructure:"condition,omitempty"`
	Default   any        `json:"default,omitempty"   yaml:"default,omitempty"   mapstructure:"default,omitempty"`
}

// FieldSpec describes one input of a block.
//
// Fields sharing a CanonicalID are alternative sources for the same
// logical parameter (a picker and a manual-entry field both feeding
// "spreadsheet_id"); declaration order is priority order. RequiredFor
// lists the operations for which the canonical parameter must be
// populated. ElementSchema constrains each element of list-shaped
// values (a "messages" list whose elements need role and content).
type FieldSpec struct {
	ID            string                               `json:"id"                       yaml:"id"                       mapstructure:"id"                       validate:"required"`
	Label         string                               `json:"label,omitempty"          yaml:"label,omitempty"          mapstructure:"label,omitempty"`
	Type          FieldType                            `json:"type"                     yaml:"type"                     mapstructure:"type"                     validate:"required,oneof=string number boolean json list"`
	CanonicalID   string                               `json:"canonical_id,omitempty"   yaml:"canonical_id,omitempty"   mapstructure:"canonical_id,omitempty"`
	Condition     *Condition                           `json:"condition,omitempty"      yaml:"condition,omitempty"      mapstructure:"condition,omitempty"`
	RequiredFor   []core.OperationID                   `json:"required_for,omitempty"   yaml:"required_for,omitempty"   mapstructure:"required_for,omitempty"`
	ElementSchema *schema.Schema                       `json:"element_schema,omitempty" yaml:"element_schema,omitempty" mapstructure:"element_schema,omitempty"`
	Variants      map[core.OperationID]FieldVariant    `json:"variants,omitempty"       yaml:"variants,omitempty"       mapstructure:"variants,omitempty"`
}

// CanonicalKey is the parameter name this field resolves to.
func (f *FieldSpec) CanonicalKey() string {
	if f.CanonicalID != "" {
		return f.CanonicalID
	}
	return f.ID
}

// DisplayLabel returns the user-facing name used in validation messages,
// preferring the operation variant's label when one exists.
func (f *FieldSpec) DisplayLabel(op core.OperationID) string {
	if v, ok := f.Variants[op]; ok && v.Label != "" {
		return v.Label
	}
	if f.Label != "" {
		return f.Label
	}
	return f.ID
}

// EffectiveCondition returns the visibility condition for the given
// operation, preferring the operation variant's condition.
func (f *FieldSpec) EffectiveCondition(op core.OperationID) *Condition {
	if v, ok := f.Variants[op]; ok && v.Condition != nil {
		return v.Condition
	}
	return f.Condition
}

// RequiredForOperation reports whether the field's canonical parameter
// is mandatory for the given operation.
func (f *FieldSpec) RequiredForOperation(op core.OperationID) bool {
	for _, candidate := range f.RequiredFor {
		if candidate == op {
			return true
		}
	}
	return false
}

// -----------------------------------------------------------------------------
// Block definition
// -----------------------------------------------------------------------------

// Definition is the static descriptor for one block: its metadata, its
// input fields, and the operation→tool table the resolver consults.
type Definition struct {
	ID             string           `json:"id"                        yaml:"id"                        mapstructure:"id"                        validate:"required"`
	Name           string           `json:"name,omitempty"            yaml:"name,omitempty"            mapstructure:"name,omitempty"`
	Description    string           `json:"description,omitempty"     yaml:"description,omitempty"     mapstructure:"description,omitempty"`
	Icon           string           `json:"icon,omitempty"            yaml:"icon,omitempty"            mapstructure:"icon,omitempty"`
	Color          string           `json:"color,omitempty"           yaml:"color,omitempty"           mapstructure:"color,omitempty"`
	OperationField string           `json:"operation_field,omitempty" yaml:"operation_field,omitempty" mapstructure:"operation_field,omitempty"`
	Fields         []FieldSpec      `json:"fields"                    yaml:"fields"                    mapstructure:"fields"                    validate:"dive"`
	Tools          ToolTable        `json:"tools"                     yaml:"tools"                     mapstructure:"tools"                     validate:"required"`
}

const defaultOperationField = "operation"

// OperationKey returns the field id carrying the user-selected operation.
func (d *Definition) OperationKey() string {
	if d.OperationField != "" {
		return d.OperationField
	}
	return defaultOperationField
}

// Field returns the spec for a field id.
func (d *Definition) Field(id string) (*FieldSpec, bool) {
	for i := range d.Fields {
		if d.Fields[i].ID == id {
			return &d.Fields[i], true
		}
	}
	return nil, false
}

// CanonicalGroups returns the block's fields grouped by canonical key,
// preserving declaration order both across groups and within each group.
// Within a group, earlier fields win canonical resolution.
func (d *Definition) CanonicalGroups() ([]string, map[string][]*FieldSpec) {
	order := make([]string, 0, len(d.Fields))
	groups := make(map[string][]*FieldSpec, len(d.Fields))
	for i := range d.Fields {
		f := &d.Fields[i]
		key := f.CanonicalKey()
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], f)
	}
	return order, groups
}

// Validate checks the definition's structural invariants: struct tags,
// condition fields referencing declared fields, tool table entries, and
// canonical groups agreeing on type.
func (d *Definition) Validate(ctx context.Context) error {
	if err := schema.NewStructValidator(d).Validate(ctx); err != nil {
		return fmt.Errorf("block %q: %w", d.ID, err)
	}
	if len(d.Tools) == 0 {
		return fmt.Errorf("block %q: tool table is empty", d.ID)
	}
	declared := make(map[string]struct{}, len(d.Fields))
	for i := range d.Fields {
		declared[d.Fields[i].ID] = struct{}{}
	}
	for i := range d.Fields {
		f := &d.Fields[i]
		if err := validateConditionFields(f.Condition, declared); err != nil {
			return fmt.Errorf("block %q field %q: %w", d.ID, f.ID, err)
		}
		for op := range f.Variants {
			variant := f.Variants[op]
			if err := validateConditionFields(variant.Condition, declared); err != nil {
				return fmt.Errorf("block %q field %q variant %q: %w", d.ID, f.ID, op, err)
			}
		}
	}
	_, groups := d.CanonicalGroups()
	for key, members := range groups {
		for _, member := range members[1:] {
			if member.Type != members[0].Type {
				return fmt.Errorf(
					"block %q: canonical group %q mixes field types %s and %s",
					d.ID, key, members[0].Type, member.Type,
				)
			}
		}
	}
	return nil
}

func validateConditionFields(cond *Condition, declared map[string]struct{}) error {
	if cond == nil {
		return nil
	}
	if cond.Field != "" {
		if _, ok := declared[cond.Field]; !ok {
			return fmt.Errorf("condition references undeclared field %q", cond.Field)
		}
	}
	for _, sub := range cond.All {
		if err := validateConditionFields(sub, declared); err != nil {
			return err
		}
	}
	for _, sub := range cond.AnyOf {
		if err := validateConditionFields(sub, declared); err != nil {
			return err
		}
	}
	if err := validateConditionFields(cond.Not, declared); err != nil {
		return err
	}
	return validateConditionFields(cond.And, declared)
}

// ActiveFields returns the ids of fields whose conditions hold for the
// current snapshot, in declaration order. The UI layer uses this to
// decide which inputs to render.
func (d *Definition) ActiveFields(
	evaluator *ConditionEvaluator,
	values core.FieldValues,
) ([]string, error) {
	op := core.OperationID(fmt.Sprint(values[d.OperationKey()]))
	active := make([]string, 0, len(d.Fields))
	for i := range d.Fields {
		f := &d.Fields[i]
		ok, err := evaluator.IsActive(f.EffectiveCondition(op), values)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.ID, err)
		}
		if ok {
			active = append(active, f.ID)
		}
	}
	return active, nil
}
