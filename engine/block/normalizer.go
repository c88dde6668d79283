package block

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cast"

	"github.com/stepkit/stepkit/engine/core"
	"github.com/stepkit/stepkit/pkg/logger"
)

// Normalizer turns a raw field snapshot into the canonical parameter set
// for a resolved tool, or fails with the complete batch of validation
// problems. Normalization is atomic: a non-empty error batch means no
// parameter set is produced and the tool must not be invoked.
type Normalizer struct {
	evaluator *ConditionEvaluator
}

func NewNormalizer() (*Normalizer, error) {
	evaluator, err := NewConditionEvaluator()
	if err != nil {
		return nil, fmt.Errorf("failed to create condition evaluator: %w", err)
	}
	return &Normalizer{evaluator: evaluator}, nil
}

// resolvedParam is one canonical parameter after source selection.
type resolvedParam struct {
	key     string
	spec    *FieldSpec // winning source field
	value   any
	present bool
	invalid bool // decode/coercion failed; value must not reach the output
}

// Normalize applies canonical-id resolution, structured-text decoding,
// numeric coercion, operation-scoped required checks, and element-shape
// validation, in that order. Errors accumulate across all fields; the
// element check stops at the first bad element per field.
func (n *Normalizer) Normalize(
	ctx context.Context,
	raw core.FieldValues,
	op core.OperationID,
	def *Definition,
) (core.ParamSet, error) {
	log := logger.FromContext(ctx)
	var errs ValidationErrors

	order, groups := def.CanonicalGroups()
	resolved := make(map[string]*resolvedParam, len(order))
	for _, key := range order {
		param := resolveCanonical(key, groups[key], raw)
		n.decodeAndCoerce(param, op, &errs)
		resolved[key] = param
	}

	for _, key := range order {
		param := resolved[key]
		checkRequired(param, groups[key], op, &errs)
		n.checkElements(param, op, &errs)
	}

	if len(errs) > 0 {
		log.Debug("normalization failed", "block", def.ID, "operation", op, "errors", len(errs))
		return nil, errs
	}

	out := make(core.ParamSet, len(raw))
	declared := make(map[string]struct{}, len(def.Fields))
	for i := range def.Fields {
		declared[def.Fields[i].ID] = struct{}{}
	}
	for k, v := range raw {
		if _, ok := declared[k]; !ok {
			out[k] = v
		}
	}
	for _, key := range order {
		param := resolved[key]
		if !param.present {
			continue
		}
		active, err := n.evaluator.IsActive(param.spec.EffectiveCondition(op), raw)
		if err != nil {
			return nil, fmt.Errorf("failed to evaluate condition for field %q: %w", param.spec.ID, err)
		}
		if !active {
			continue
		}
		out[key] = param.value
	}
	return out, nil
}

// resolveCanonical picks the first populated source in declaration order
// and trims string-typed values.
func resolveCanonical(key string, members []*FieldSpec, raw core.FieldValues) *resolvedParam {
	param := &resolvedParam{key: key, spec: members[0]}
	for _, member := range members {
		value, ok := raw[member.ID]
		if !ok || core.IsEmptyValue(value) {
			continue
		}
		if s, isString := value.(string); isString {
			value = strings.TrimSpace(s)
		}
		param.spec = member
		param.value = value
		param.present = true
		break
	}
	return param
}

// decodeAndCoerce parses stringified JSON fields and coerces stringified
// numbers. Failures append to the batch and poison the value without
// stopping the remaining fields.
func (n *Normalizer) decodeAndCoerce(param *resolvedParam, op core.OperationID, errs *ValidationErrors) {
	if !param.present {
		return
	}
	label := param.spec.DisplayLabel(op)
	switch param.spec.Type {
	case FieldJSON, FieldList:
		text, isString := param.value.(string)
		if !isString {
			return
		}
		var decoded any
		if err := json.Unmarshal([]byte(text), &decoded); err != nil {
			*errs = append(*errs, ValidationError{
				Field:     param.key,
				Operation: op,
				Message:   fmt.Sprintf("%s is not valid JSON", label),
			})
			param.invalid = true
			return
		}
		param.value = decoded
	case FieldNumber:
		text, isString := param.value.(string)
		if !isString {
			return
		}
		number, err := cast.ToFloat64E(text)
		if err != nil {
			*errs = append(*errs, ValidationError{
				Field:     param.key,
				Operation: op,
				Message:   fmt.Sprintf("%s must be a number, got %q", label, text),
			})
			param.invalid = true
			return
		}
		param.value = number
	}
}

// checkRequired enforces the (operation, field) required rules after
// resolution and decoding.
func checkRequired(param *resolvedParam, members []*FieldSpec, op core.OperationID, errs *ValidationErrors) {
	var requiring *FieldSpec
	for _, member := range members {
		if member.RequiredForOperation(op) {
			requiring = member
			break
		}
	}
	if requiring == nil {
		return
	}
	if param.present && !param.invalid && !core.IsEmptyValue(param.value) {
		return
	}
	if param.invalid {
		// The decode/coercion error already names this field.
		return
	}
	*errs = append(*errs, ValidationError{
		Field:     param.key,
		Operation: op,
		Message:   fmt.Sprintf("%s is required for operation %q", requiring.DisplayLabel(op), op),
	})
}

// checkElements validates list elements against the field's element
// schema, stopping at the first bad element for that field.
func (n *Normalizer) checkElements(param *resolvedParam, op core.OperationID, errs *ValidationErrors) {
	if !param.present || param.invalid || param.spec.ElementSchema == nil {
		return
	}
	label := param.spec.DisplayLabel(op)
	elements, ok := param.value.([]any)
	if !ok {
		*errs = append(*errs, ValidationError{
			Field:     param.key,
			Operation: op,
			Message:   fmt.Sprintf("%s must be a list", label),
		})
		param.invalid = true
		return
	}
	compiled, err := param.spec.ElementSchema.Compile()
	if err != nil {
		*errs = append(*errs, ValidationError{
			Field:     param.key,
			Operation: op,
			Message:   fmt.Sprintf("%s has an invalid element schema", label),
		})
		param.invalid = true
		return
	}
	for i, element := range elements {
		if err := compiled.Check(element); err != nil {
			*errs = append(*errs, ValidationError{
				Field:     param.key,
				Operation: op,
				Message:   fmt.Sprintf("%s element %d is invalid: %s", label, i, err),
			})
			param.invalid = true
			return
		}
	}
}
