package validator

import (
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/jwalitptl/booking-api/pkg/errors"
)

// Validator checks tagged structs and reports every failing field.
type Validator interface {
	Validate(obj interface{}) []errors.FieldError
	ValidateVar(field string, value interface{}, tag string) []errors.FieldError
}

type structValidator struct {
	v *validator.Validate
}

var (
	once     sync.Once
	instance *structValidator
)

// New returns the shared validator. Field names are reported by their json tag.
func New() Validator {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
		_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
		instance = &structValidator{v: v}
	})
	return instance
}

func (s *structValidator) Validate(obj interface{}) []errors.FieldError {
	return toFieldErrors(s.v.Struct(obj), "")
}

func (s *structValidator) ValidateVar(field string, value interface{}, tag string) []errors.FieldError {
	return toFieldErrors(s.v.Var(value, tag), field)
}

func toFieldErrors(err error, field string) []errors.FieldError {
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []errors.FieldError{{Field: field, Key: "validation.invalid", Message: err.Error()}}
	}

	out := make([]errors.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		name := fe.Field()
		if field != "" {
			name = field
		}
		out = append(out, errors.FieldError{
			Field:   name,
			Key:     keyFor(fe.Tag()),
			Message: messageFor(name, fe),
		})
	}
	return out
}

func keyFor(tag string) string {
	switch tag {
	case "required", "notblank":
		return "validation.required"
	case "email":
		return "validation.email"
	case "min":
		return "validation.minLength"
	case "eqfield":
		return "validation.mismatch"
	case "oneof":
		return "validation.oneOf"
	case "len":
		return "validation.length"
	case "datetime":
		return "validation.date"
	default:
		return "validation.invalid"
	}
}

func messageFor(name string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return name + " is required"
	case "email":
		return name + " must be a valid email"
	case "min":
		return name + " must be at least " + fe.Param() + " characters long"
	case "eqfield":
		return name + " does not match"
	case "oneof":
		return name + " must be one of " + fe.Param()
	case "len":
		return name + " must be exactly " + fe.Param() + " characters"
	case "datetime":
		return name + " must be a date in " + fe.Param() + " format"
	default:
		return name + " is invalid"
	}
}
