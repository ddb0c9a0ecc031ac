// Package api holds what resource packages share: the client they call through
// and validation of payloads before they leave the process.
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/nkiryanov/sims/internal/apiclient"
	"github.com/nkiryanov/sims/internal/apperrors"
)

// Client the resource packages call through. Implemented by apiclient.Client
type Client interface {
	JSON(ctx context.Context, method string, path string, query url.Values, in any, out any) error
	Get(ctx context.Context, path string, query url.Values, out any) error
	Post(ctx context.Context, path string, in any, out any) error
	Put(ctx context.Context, path string, in any, out any) error
	Patch(ctx context.Context, path string, in any, out any) error
	Delete(ctx context.Context, path string, out any) error
	Multipart(ctx context.Context, path string, fields map[string]string, file apiclient.File, out any) error
	Download(ctx context.Context, path string, w io.Writer) (string, error)
}

var _ Client = (*apiclient.Client)(nil)

var validate = validator.New()

func init() {
	// Report fields by json names, the way the backend does
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// ValidationError lists invalid fields of a payload by json name
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+e.Fields[name])
	}
	return fmt.Sprintf("%s: %s", apperrors.ErrInvalidPayload, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error {
	return apperrors.ErrInvalidPayload
}

// Validate payload struct using its validate tags
func Validate(payload any) error {
	err := validate.Struct(payload)
	if err == nil {
		return nil
	}

	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return fmt.Errorf("%w: %v", apperrors.ErrInvalidPayload, err)
	}

	fields := make(map[string]string, len(errs))
	for _, fe := range errs {
		var message string
		switch fe.Tag() {
		case "required":
			message = "This field is required"
		case "min":
			message = fmt.Sprintf("Value is too short (minimum %s)", fe.Param())
		case "email":
			message = "Enter a valid email address"
		case "eqfield":
			message = "Passwords do not match"
		case "oneof":
			message = fmt.Sprintf("Must be one of: %s", fe.Param())
		case "datetime":
			message = "Use YYYY-MM-DD format"
		default:
			message = "Invalid value"
		}
		fields[fe.Field()] = message
	}
	return &ValidationError{Fields: fields}
}

// Validate single value against tag, e.g. ValidateVar(email, "required,email")
func ValidateVar(name string, value any, tag string) error {
	if err := validate.Var(value, tag); err != nil {
		return &ValidationError{Fields: map[string]string{name: "Invalid value"}}
	}
	return nil
}
