package config

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidConfig is matched by every *ConfigError through errors.Is.
var ErrInvalidConfig = errors.New("invalid configuration")

// Error categories.
const (
	CategoryMissing = "missing"
	CategoryInvalid = "invalid"
)

// ConfigError represents a configuration error with actionable guidance.
// All error messages are lowercase following Go conventions.
//
//nolint:revive // ConfigError is intentionally named for clarity in external API usage
type ConfigError struct {
	Category string // "missing" or "invalid"
	Field    string // config key, e.g. "api_token"
	Message  string // user-friendly error message (lowercase)
	Action   string // actionable instruction (lowercase)
}

// Error implements the error interface with lowercase formatting.
func (e *ConfigError) Error() string {
	var parts []string

	if e.Category != "" {
		parts = append(parts, fmt.Sprintf("config_%s:", e.Category))
	}
	if e.Field != "" {
		parts = append(parts, e.Field)
	}
	if e.Message != "" {
		parts = append(parts, e.Message)
	}
	if e.Action != "" {
		parts = append(parts, e.Action)
	}

	return strings.Join(parts, " ")
}

// Is reports whether target is ErrInvalidConfig.
func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidConfig
}

// NewMissingFieldError creates an error for a required missing configuration field.
func NewMissingFieldError(field, envVar string) *ConfigError {
	return &ConfigError{
		Category: CategoryMissing,
		Field:    field,
		Message:  "required",
		Action:   fmt.Sprintf("set %s env var or pass %s explicitly", envVar, field),
	}
}

// NewInvalidFieldError creates an error for an out-of-range or malformed value.
func NewInvalidFieldError(field, message string) *ConfigError {
	return &ConfigError{
		Category: CategoryInvalid,
		Field:    field,
		Message:  message,
	}
}
