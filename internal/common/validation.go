package common

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

// ValidationError is one failed rule on one request field.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field '%s' with value '%v': %s", e.Field, e.Value, e.Message)
}

// ValidationRule checks one value. It returns nil when the value passes.
type ValidationRule func(fieldName string, value interface{}) *ValidationError

// Validator collects every failure across fields so a request can be
// rejected with all of its problems at once.
type Validator struct {
	errors []ValidationError
}

func NewValidator() *Validator {
	return &Validator{}
}

// Field runs rules against value in order, keeping every failure.
func (v *Validator) Field(fieldName string, value interface{}, rules ...ValidationRule) *Validator {
	for _, rule := range rules {
		if err := rule(fieldName, value); err != nil {
			v.errors = append(v.errors, *err)
		}
	}
	return v
}

func (v *Validator) HasErrors() bool { return len(v.errors) > 0 }

func (v *Validator) Errors() []ValidationError { return v.errors }

// ErrorMessage joins all failures with "; ", or returns "" when there are none.
func (v *Validator) ErrorMessage() string {
	msgs := make([]string, len(v.errors))
	for i, err := range v.errors {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

func (v *Validator) Error() error {
	if !v.HasErrors() {
		return nil
	}
	return errors.New(v.ErrorMessage())
}

// ValidateAndReturnError returns a VALIDATION_ERROR AppError when the
// validator collected errors.
func ValidateAndReturnError(validator *Validator) error {
	if validator.HasErrors() {
		return NewAppError("VALIDATION_ERROR", validator.ErrorMessage(), ErrValidation)
	}
	return nil
}

// asString unwraps string and *string values.
func asString(value interface{}) (string, bool) {
	switch s := value.(type) {
	case string:
		return s, true
	case *string:
		if s == nil {
			return "", false
		}
		return *s, true
	}
	return "", false
}

func invalid(fieldName string, value interface{}, format string, args ...any) *ValidationError {
	return &ValidationError{Field: fieldName, Value: value, Message: fmt.Sprintf(format, args...)}
}

// Required rejects nil values and blank strings.
func Required(fieldName string, value interface{}) *ValidationError {
	if value == nil {
		return invalid(fieldName, value, "is required")
	}
	if s, ok := asString(value); ok && strings.TrimSpace(s) == "" {
		return invalid(fieldName, value, "is required")
	}
	if p, ok := value.(*string); ok && p == nil {
		return invalid(fieldName, value, "is required")
	}
	return nil
}

// MinLen requires at least min runes. An empty value passes; pair it with
// Required when the field is mandatory.
func MinLen(min int) ValidationRule {
	return func(fieldName string, value interface{}) *ValidationError {
		s, ok := asString(value)
		if !ok || s == "" {
			return nil
		}
		if utf8.RuneCountInString(s) < min {
			return invalid(fieldName, value, "must be at least %d characters", min)
		}
		return nil
	}
}

// MaxLen allows at most max runes.
func MaxLen(max int) ValidationRule {
	return func(fieldName string, value interface{}) *ValidationError {
		s, ok := asString(value)
		if !ok {
			return nil
		}
		if utf8.RuneCountInString(s) > max {
			return invalid(fieldName, value, "must be at most %d characters", max)
		}
		return nil
	}
}

func UUID(fieldName string, value interface{}) *ValidationError {
	s, ok := value.(string)
	if !ok {
		return invalid(fieldName, value, "must be a string")
	}
	if _, err := uuid.Parse(s); err != nil {
		return invalid(fieldName, value, "must be a valid UUID")
	}
	return nil
}

// OneOf builds a rule accepting only the listed strings, compared
// case-insensitively. An empty value passes; pair it with Required.
func OneOf(allowed ...string) ValidationRule {
	return func(fieldName string, value interface{}) *ValidationError {
		s, ok := value.(string)
		if !ok || s == "" {
			return nil
		}
		for _, a := range allowed {
			if strings.EqualFold(a, s) {
				return nil
			}
		}
		return invalid(fieldName, value, "must be one of %s", strings.Join(allowed, ", "))
	}
}

// OCRLang accepts Tesseract language specs such as "eng" or "ara+eng":
// one or more model names of at least three letters joined by "+". An
// empty value passes.
func OCRLang(fieldName string, value interface{}) *ValidationError {
	s, ok := asString(value)
	if !ok || s == "" {
		return nil
	}
	for _, part := range strings.Split(s, "+") {
		if err := MinLen(3)(fieldName, part); err != nil || part == "" {
			return invalid(fieldName, value, "must be language codes such as eng or ara+eng")
		}
		for _, r := range part {
			if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r == '_') {
				return invalid(fieldName, value, "must be language codes such as eng or ara+eng")
			}
		}
	}
	return nil
}
