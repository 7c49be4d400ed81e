package validator

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// maxBodyBytes caps request bodies read by DecodeAndValidate.
const maxBodyBytes = 1 << 20

// ErrEmptyBody is returned by DecodeAndValidate when the body is empty.
var ErrEmptyBody = errors.New("request body is empty")

var validate = newValidate()

// newValidate reports fields by their JSON name so messages match what the
// client sent. Fields without a json tag keep their Go name.
func newValidate() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		switch name {
		case "-":
			return ""
		case "":
			return f.Name
		}
		return name
	})
	return v
}

// messages maps a validation tag to a message; %s receives the tag param.
var messages = map[string]string{
	"required": "is required",
	"min":      "must be at least %s",
	"max":      "must be at most %s",
	"gte":      "must be greater than or equal to %s",
	"lte":      "must be less than or equal to %s",
	"gt":       "must be greater than %s",
	"url":      "must be a valid URL",
	"oneof":    "must be one of: %s",
}

func describe(fe validator.FieldError) string {
	tmpl, ok := messages[fe.Tag()]
	if !ok {
		return fmt.Sprintf("failed on '%s' validation", fe.Tag())
	}
	if strings.Contains(tmpl, "%s") {
		return fmt.Sprintf(tmpl, fe.Param())
	}
	return tmpl
}

// ValidationError lists the fields that failed validation.
type ValidationError struct {
	Errors validator.ValidationErrors
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fmt.Sprintf("field '%s' %s", fe.Field(), describe(fe))
	}
	return strings.Join(parts, "; ")
}

// Fields returns field name -> message.
func (e *ValidationError) Fields() map[string]string {
	out := make(map[string]string, len(e.Errors))
	for _, fe := range e.Errors {
		out[fe.Field()] = describe(fe)
	}
	return out
}

// Validate checks s against its `validate` struct tags. Field failures come
// back as *ValidationError.
func Validate(s any) error {
	err := validate.Struct(s)
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		return &ValidationError{Errors: fieldErrs}
	}
	return err
}

// DecodeAndValidate decodes a JSON body of at most 1 MiB into dst, rejecting
// unknown fields, then validates it.
func DecodeAndValidate(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	switch err := dec.Decode(dst); {
	case errors.Is(err, io.EOF):
		return ErrEmptyBody
	case err != nil:
		return fmt.Errorf("decode request body: %w", err)
	}
	return Validate(dst)
}
