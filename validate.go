package restclient

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator wraps go-playground/validator for checking decoded response
// payloads against their struct tags.
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a new Validator instance.
func NewValidator() *Validator {
	return &Validator{validate: validator.New()}
}

// GetValidator returns the underlying validator instance so callers can
// register custom validation rules.
func (v *Validator) GetValidator() *validator.Validate {
	return v.validate
}

// Validate performs validation on the provided struct. Failures surface as a
// validation error naming the first offending field.
func (v *Validator) Validate(i any) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if errors.As(err, &fieldErrors) {
		messages := make([]string, 0, len(fieldErrors))
		for _, fe := range fieldErrors {
			messages = append(messages, getErrorMessage(fe))
		}
		return NewValidationError(strings.Join(messages, "; "), fieldErrors[0].Field())
	}

	// Non-struct inputs and other invalid uses of the validator.
	return NewValidationError(err.Error(), "")
}

func getErrorMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "len":
		return fmt.Sprintf("%s must have exactly %s elements", fe.Field(), fe.Param())
	case "url":
		return fmt.Sprintf("%s must be a valid URL", fe.Field())
	case "uuid":
		return fmt.Sprintf("%s must be a valid UUID", fe.Field())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed validation", fe.Field())
	}
}
