// Package validate checks input structs against their `validate` tags and
// reports failures as structured CLI errors.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/cyberdeck-app/cyberdeck/internal/clierr"
)

// ErrInvalid is wrapped by every error returned from Struct.
var ErrInvalid = errors.New("validation failed")

var (
	once     sync.Once
	instance *validator.Validate
)

func engine() *validator.Validate {
	once.Do(func() {
		instance = validator.New(validator.WithRequiredStructEnabled())
		instance.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "" || name == "-" {
				return f.Name
			}
			return name
		})
	})
	return instance
}

// Error carries per-field messages keyed by the field's JSON name.
type Error struct {
	Fields map[string]string
	cli    *clierr.Error
}

func (e *Error) Error() string { return e.cli.Message }

// Unwrap exposes both the *clierr.Error and ErrInvalid.
func (e *Error) Unwrap() []error { return []error{e.cli, ErrInvalid} }

// Struct validates v and returns an *Error listing every failing field.
func Struct(v any) error {
	err := engine().Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	fields := make(map[string]string, len(verrs))
	details := make(map[string]any, len(verrs))
	first := ""
	for _, fe := range verrs {
		msg := message(fe)
		fields[fe.Field()] = msg
		details[fe.Field()] = msg
		if first == "" {
			first = fe.Field() + " " + msg
		}
	}
	return &Error{
		Fields: fields,
		cli:    clierr.New(code(verrs[0]), first).WithDetails(details),
	}
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "min", "gte":
		return "must be at least " + fe.Param()
	default:
		return "is invalid (" + fe.Tag() + ")"
	}
}

func code(fe validator.FieldError) string {
	switch fe.Field() {
	case "status":
		return clierr.InvalidStatus
	case "priority":
		return clierr.InvalidPriority
	case "timeTracked":
		return clierr.InvalidTime
	default:
		return clierr.InvalidInput
	}
}

// Required reports field as missing in the same shape Struct uses.
func Required(field string) error {
	msg := "is required"
	return &Error{
		Fields: map[string]string{field: msg},
		cli:    clierr.New(clierr.InvalidInput, field+" "+msg).WithDetails(map[string]any{field: msg}),
	}
}
