// Package validatorx is the field-validation capability the auth and catalog
// services depend on. Constraints are declared on the record types themselves
// via `validate` struct tags; callers get back either nil or a ValidationError
// carrying every violation at once.
package validatorx

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldValidator applies the declared constraints of a record and reports all
// violations. Implementations must not mutate the record.
type FieldValidator interface {
	Validate(record any) error
}

// Violation describes a single failed constraint on a single field.
type Violation struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

// ValidationError aggregates every violation found in one pass so the caller
// can correct all of them at once.
type ValidationError struct {
	Violations []Violation
}

// Error joins all violation messages into one description.
func (ve *ValidationError) Error() string {
	return "validation failed: " + strings.Join(ve.Messages(), ", ")
}

// Messages returns one "field: message" line per violation, for response
// bodies.
func (ve *ValidationError) Messages() []string {
	msgs := make([]string, len(ve.Violations))
	for i, v := range ve.Violations {
		msgs[i] = fmt.Sprintf("%s: %s", v.Field, v.Message)
	}
	return msgs
}

// Validator is a FieldValidator backed by go-playground/validator.
type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	return &Validator{validate: validator.New()}
}

// Validate checks the record against its declared constraints. It returns a
// *ValidationError listing every violation, or nil when the record is valid.
func (v *Validator) Validate(record any) error {
	err := v.validate.Struct(record)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return err
	}

	out := &ValidationError{Violations: make([]Violation, len(fieldErrors))}
	for i, fe := range fieldErrors {
		out.Violations[i] = Violation{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Message: msgForTag(fe.Tag(), fe.Param()),
		}
	}
	return out
}

func msgForTag(tag, param string) string {
	switch tag {
	case "required":
		return "this field is required"
	case "email":
		return "invalid email format"
	case "min":
		return fmt.Sprintf("must be at least %s characters long", param)
	case "max":
		return fmt.Sprintf("must not exceed %s characters", param)
	case "gte":
		return fmt.Sprintf("must be %s or greater", param)
	case "oneof":
		return fmt.Sprintf("must be one of: %s", param)
	default:
		return fmt.Sprintf("failed validation on rule: %s", tag)
	}
}
