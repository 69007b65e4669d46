package prolific

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/gaborage/go-prolific/httpclient"
)

var (
	payloadValidatorOnce sync.Once
	payloadValidator     *validator.Validate
)

// payloads returns the shared validator for request payloads. Field names in
// errors are the JSON keys sent to the API.
func payloads() *validator.Validate {
	payloadValidatorOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
			if name == "" || name == "-" {
				return fld.Name
			}
			return name
		})
		v.RegisterStructValidation(validateFilterValue, FilterValue{})
		payloadValidator = v
	})
	return payloadValidator
}

// validateFilterValue requires a filter to carry either selected values or a
// range, but not both.
func validateFilterValue(sl validator.StructLevel) {
	fv, ok := sl.Current().Interface().(FilterValue)
	if !ok {
		return
	}
	hasValues := len(fv.SelectedValues) > 0
	hasRange := len(fv.RangeValue) > 0
	if hasValues == hasRange {
		sl.ReportError(fv.SelectedValues, "selected_values", "SelectedValues", "filter_criteria", "")
	}
}

// ValidationError lists every field that failed validation.
type ValidationError struct {
	Errors []FieldError `json:"errors"`
}

// FieldError describes a single invalid field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Value   string `json:"value,omitempty"`
}

func (ve *ValidationError) Error() string {
	switch len(ve.Errors) {
	case 0:
		return "validation failed"
	case 1:
		return "validation failed: " + ve.Errors[0].Message
	default:
		return fmt.Sprintf("validation failed: %d errors", len(ve.Errors))
	}
}

func newValidationError(errs validator.ValidationErrors) *ValidationError {
	fieldErrors := make([]FieldError, 0, len(errs))
	for _, fe := range errs {
		fieldErrors = append(fieldErrors, FieldError{
			Field:   fieldPath(fe),
			Message: fieldMessage(fe),
			Value:   fmt.Sprintf("%v", fe.Value()),
		})
	}
	return &ValidationError{Errors: fieldErrors}
}

// fieldPath drops the root struct name from the namespace, so nested filter
// errors read "filters[0].filter_id".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return fe.Field()
}

func fieldMessage(fe validator.FieldError) string {
	field := fieldPath(fe)
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	case "url":
		return field + " must be a valid URL"
	case "email":
		return field + " must be a valid email address"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "filter_criteria":
		return field + " or range_value must be set, but not both"
	default:
		return field + " failed validation"
	}
}

// validatePayload checks v before it is sent. Failures are reported as a
// validation error of the transport taxonomy with no status code, so callers
// handle local and server-side rejections the same way.
func validatePayload(v any) error {
	err := payloads().Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return invalidArgument("invalid payload", err)
	}
	ve := newValidationError(fieldErrs)
	return &httpclient.Error{
		Kind:    httpclient.KindValidation,
		Message: "invalid request payload",
		Payload: map[string]any{"errors": ve.Errors},
		Cause:   ve,
	}
}

// invalidArgument reports a local argument problem, such as a missing id.
func invalidArgument(msg string, cause error) *httpclient.Error {
	return &httpclient.Error{
		Kind:    httpclient.KindValidation,
		Message: msg,
		Cause:   cause,
	}
}
