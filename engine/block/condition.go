package block

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/spf13/cast"

	"github.com/stepkit/stepkit/engine/core"
)

// Condition is a predicate over a block's current field values, used to
// decide whether a dependent field is active. Exactly one variant should
// be set; a nil Condition means "always active".
//
// Leaf form: Field + Value (single value or list for membership), with
// optional Negate. All/AnyOf/Not combine conditions recursively. Expr
// holds a CEL expression evaluated against the same snapshot. And keeps
// the single-level conjunctive chain used by older block descriptors.
type Condition struct {
	Field  string `json:"field,omitempty"  yaml:"field,omitempty"  mapstructure:"field,omitempty"`
	Value  any    `json:"value,omitempty"  yaml:"value,omitempty"  mapstructure:"value,omitempty"`
	Negate bool   `json:"negate,omitempty" yaml:"negate,omitempty" mapstructure:"negate,omitempty"`

	All   []*Condition `json:"all,omitempty" yaml:"all,omitempty" mapstructure:"all,omitempty"`
	AnyOf []*Condition `json:"any,omitempty" yaml:"any,omitempty" mapstructure:"any,omitempty"`
	Not   *Condition   `json:"not,omitempty" yaml:"not,omitempty" mapstructure:"not,omitempty"`

	Expr string `json:"expr,omitempty" yaml:"expr,omitempty" mapstructure:"expr,omitempty"`

	And *Condition `json:"and,omitempty" yaml:"and,omitempty" mapstructure:"and,omitempty"`
}

// fieldsVar is the CEL binding exposing the field snapshot to Expr conditions.
const fieldsVar = "fields"

// ConditionEvaluator evaluates Conditions against field snapshots. The
// CEL environment is built once and programs are cached per expression,
// so evaluation performs no I/O and is safe to call on every keystroke.
type ConditionEvaluator struct {
	env      *cel.Env
	mu       sync.RWMutex
	programs map[string]cel.Program
}

func NewConditionEvaluator() (*ConditionEvaluator, error) {
	env, err := cel.NewEnv(
		cel.Variable(fieldsVar, cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	return &ConditionEvaluator{env: env, programs: make(map[string]cel.Program)}, nil
}

// IsActive reports whether the condition holds for the given snapshot.
// A nil condition is always active.
func (e *ConditionEvaluator) IsActive(cond *Condition, values core.FieldValues) (bool, error) {
	if cond == nil {
		return true, nil
	}
	result, err := e.evaluate(cond, values)
	if err != nil {
		return false, err
	}
	if cond.And != nil {
		chained, err := e.IsActive(cond.And, values)
		if err != nil {
			return false, err
		}
		result = result && chained
	}
	return result, nil
}

func (e *ConditionEvaluator) evaluate(cond *Condition, values core.FieldValues) (bool, error) {
	switch {
	case len(cond.All) > 0:
		for _, sub := range cond.All {
			ok, err := e.IsActive(sub, values)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
		}
		return true, nil
	case len(cond.AnyOf) > 0:
		for _, sub := range cond.AnyOf {
			ok, err := e.IsActive(sub, values)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	case cond.Not != nil:
		ok, err := e.IsActive(cond.Not, values)
		if err != nil {
			return false, err
		}
		return !ok, nil
	case cond.Expr != "":
		return e.evaluateExpr(cond.Expr, values)
	case cond.Field != "":
		return evaluateLeaf(cond, values), nil
	default:
		return false, fmt.Errorf("empty condition: one of field, all, any, not, or expr must be set")
	}
}

func evaluateLeaf(cond *Condition, values core.FieldValues) bool {
	current, ok := values[cond.Field]
	matches := false
	if ok {
		if expected, isList := cond.Value.([]any); isList {
			for _, candidate := range expected {
				if looseEqual(current, candidate) {
					matches = true
					break
				}
			}
		} else {
			matches = looseEqual(current, cond.Value)
		}
	}
	if cond.Negate {
		return !matches
	}
	return matches
}

// looseEqual compares UI-sourced values, which may arrive stringified.
// Scalars compare through their string rendering so "5" matches 5 and
// "true" matches true.
func looseEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	as, errA := cast.ToStringE(a)
	bs, errB := cast.ToStringE(b)
	if errA != nil || errB != nil {
		return false
	}
	return as == bs
}

func (e *ConditionEvaluator) evaluateExpr(expr string, values core.FieldValues) (bool, error) {
	prg, err := e.program(expr)
	if err != nil {
		return false, err
	}
	out, _, err := prg.Eval(map[string]any{fieldsVar: map[string]any(values)})
	if err != nil {
		return false, fmt.Errorf("failed to evaluate CEL expression %q: %w", expr, err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("CEL expression %q evaluated to %T, want bool", expr, out.Value())
	}
	return result, nil
}

// program returns the cached compiled program for an expression,
// compiling it on first use.
func (e *ConditionEvaluator) program(expr string) (cel.Program, error) {
	e.mu.RLock()
	prg, ok := e.programs[expr]
	e.mu.RUnlock()
	if ok {
		return prg, nil
	}
	ast, issues := e.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("invalid CEL expression %q: %w", expr, issues.Err())
	}
	prg, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to build CEL program for %q: %w", expr, err)
	}
	e.mu.Lock()
	e.programs[expr] = prg
	e.mu.Unlock()
	return prg, nil
}

// ValidateExpression compiles a CEL expression without evaluating it,
// so block descriptors can be checked at load time.
func (e *ConditionEvaluator) ValidateExpression(expr string) error {
	if expr == "" {
		return fmt.Errorf("expression is empty")
	}
	if _, issues := e.env.Compile(expr); issues != nil && issues.Err() != nil {
		return fmt.Errorf("invalid CEL expression %q: %w", expr, issues.Err())
	}
	return nil
}
