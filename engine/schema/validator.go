package schema

import (
	"context"

	"github.com/go-playground/validator/v10"
)

// StructValidator applies go-playground struct tags to a block
// descriptor at registration time.
type StructValidator struct {
	validate *validator.Validate
	value    any
}

func NewStructValidator(value any) *StructValidator {
	return &StructValidator{
		validate: validator.New(),
		value:    value,
	}
}

func (v *StructValidator) Validate(_ context.Context) error {
	return v.validate.Struct(v.value)
}
