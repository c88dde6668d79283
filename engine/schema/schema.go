// Package schema compiles the JSON Schema fragments that block
// descriptors embed (element shapes for list-valued fields) and holds
// the struct-tag validator applied when descriptors are registered.
package schema

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kaptinlin/jsonschema"
)

// Schema is a JSON Schema fragment authored as data inside a block
// descriptor.
type Schema map[string]any

func (s *Schema) String() string {
	bytes, err := json.Marshal(s)
	if err != nil {
		return ""
	}
	return string(bytes)
}

// Compile resolves the fragment into a validator that can be reused
// across many values. A nil schema compiles to a nil *Compiled, which
// accepts everything.
func (s *Schema) Compile() (*Compiled, error) {
	if s == nil {
		return nil, nil
	}
	bytes, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}
	compiled, err := jsonschema.NewCompiler().Compile(bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}
	return &Compiled{schema: compiled}, nil
}

// Compiled is a compiled schema fragment. The zero-value nil pointer
// accepts every value.
type Compiled struct {
	schema *jsonschema.Schema
}

// Check validates one value and returns the first problem the schema
// reports, or nil when the value conforms.
func (c *Compiled) Check(value any) error {
	if c == nil {
		return nil
	}
	result := c.schema.Validate(value)
	if result.Valid {
		return nil
	}
	for _, detail := range result.Errors {
		return errors.New(detail.Error())
	}
	return errors.New("value does not match the schema")
}
