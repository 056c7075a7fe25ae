package middleware

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/cuidapet/clinic-api/internal/model"
)

// ValidationError describes one invalid field
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

var messages = map[string]string{
	"required": "is required",
	"email":    "must be a valid email address",
	"min":      "is too short",
	"max":      "is too long",
	"gte":      "is too small",
	"lte":      "is too large",
	"oneof":    "has an unsupported value",
	"hhmm":     "must be a time in HH:MM format",
	"isodate":  "must be a date in YYYY-MM-DD format",
}

// RegisterValidators installs the custom binding tags on gin's validator
// and makes field errors use the JSON names.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
	}

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	if err := v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		_, ok := model.ParseClock(fl.Field().String())
		return ok && len(fl.Field().String()) == len(model.ClockLayout)
	}); err != nil {
		return err
	}
	return v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		return model.ValidDate(fl.Field().String())
	})
}

// ValidationErrors flattens a binding error into per-field messages.
// Errors that are not validation failures give a nil slice.
func ValidationErrors(err error) []ValidationError {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return nil
	}

	out := make([]ValidationError, 0, len(errs))
	for _, e := range errs {
		msg, ok := messages[e.Tag()]
		if !ok {
			msg = "is invalid"
		}
		out = append(out, ValidationError{Field: e.Field(), Message: msg})
	}
	return out
}

// DescribeBindError renders a binding error as one readable sentence.
func DescribeBindError(err error) string {
	fields := ValidationErrors(err)
	if len(fields) == 0 {
		return "invalid request body"
	}
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = f.Field + " " + f.Message
	}
	return strings.Join(parts, "; ")
}
