package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrValidation is the sentinel wrapped by every validation failure.
// Use errors.Is(err, ErrValidation).
var ErrValidation = errors.New("config: validation failed")

// FieldError is one struct-tag validation failure.
type FieldError struct {
	Namespace string
	Tag       string
	Param     string
	Message   string
}

func (fe FieldError) String() string {
	return fmt.Sprintf("%s: %s (validate:%q)", fe.Namespace, fe.Message, fe.Tag)
}

// ValidationError wraps one or more FieldErrors.
type ValidationError struct {
	Errors []FieldError
}

func (ve ValidationError) Error() string {
	msgs := make([]string, len(ve.Errors))
	for i, e := range ve.Errors {
		msgs[i] = e.String()
	}
	return fmt.Sprintf("%s:\n%s", ErrValidation.Error(), strings.Join(msgs, "\n"))
}

func (ve ValidationError) Unwrap() error { return ErrValidation }

//nolint:gochecknoglobals // validator caches struct reflection info; one instance is the intended usage.
var configValidator = newConfigValidator()

func newConfigValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if name, _, _ := strings.Cut(fld.Tag.Get("mapstructure"), ","); name != "-" && name != "" {
			return name
		}
		return fld.Name
	})
	return v
}

// Validate runs struct-tag validation over cfg (grounded on
// petabytecl-gaz/config.ValidateStruct; "why" left at its call sites).
func Validate(cfg any) error {
	err := configValidator.Struct(cfg)
	if err == nil {
		return nil
	}

	var invalid *validator.InvalidValidationError
	if errors.As(err, &invalid) {
		return fmt.Errorf("config: invalid validation input: %w", err)
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fieldErrors := make([]FieldError, 0, len(verrs))
		for _, e := range verrs {
			fieldErrors = append(fieldErrors, FieldError{
				Namespace: e.Namespace(),
				Tag:       e.Tag(),
				Param:     e.Param(),
				Message:   humanizeTag(e.Tag(), e.Param()),
			})
		}
		return ValidationError{Errors: fieldErrors}
	}

	return fmt.Errorf("config: validation error: %w", err)
}

func humanizeTag(tag, param string) string {
	switch tag {
	case "required":
		return "required field cannot be empty"
	case "min":
		return fmt.Sprintf("must be at least %s", param)
	case "max":
		return fmt.Sprintf("must be at most %s", param)
	case "oneof":
		return fmt.Sprintf("must be one of: %s", param)
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", param)
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", param)
	default:
		return fmt.Sprintf("failed %s validation", tag)
	}
}
