package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		// Report koanf keys rather than Go field names.
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("koanf"), ",")
			if name == "" || name == "-" {
				return fld.Name
			}
			return name
		})
		validate = v
	})
	return validate
}

// fieldEnv maps koanf keys to the environment variable that sets them.
var fieldEnv = map[string]string{
	"api_token":    EnvToken,
	"base_url":     EnvBaseURL,
	"workspace_id": EnvWorkspaceID,
	"timeout":      EnvTimeout,
	"max_retries":  EnvMaxRetries,
	"rate_limit":   EnvRateLimit,
	"rate_burst":   EnvRateBurst,
	"log_level":    EnvLogLevel,
	"log_pretty":   EnvLogPretty,
}

// New normalizes and validates an explicitly built Config and returns a copy.
// Defaults are not applied; start from Default() to get them.
func New(cfg Config) (*Config, error) {
	c := cfg
	normalize(&c)
	if err := Validate(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

// normalize trims whitespace and strips trailing slashes from the base URL.
func normalize(c *Config) {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	c.WorkspaceID = strings.TrimSpace(c.WorkspaceID)
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
}

// Validate checks cfg and returns the first violation as a *ConfigError.
func Validate(cfg *Config) error {
	if cfg == nil {
		return NewInvalidFieldError("config", "is nil")
	}

	err := structValidator().Struct(cfg)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return toConfigError(fieldErrs[0])
}

func toConfigError(fe validator.FieldError) *ConfigError {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		env := fieldEnv[field]
		if env == "" {
			env = envPrefix + strings.ToUpper(field)
		}
		return NewMissingFieldError(field, env)
	case "url":
		return NewInvalidFieldError(field, fmt.Sprintf("must be an absolute url, got %q", fe.Value()))
	case "gt":
		return NewInvalidFieldError(field, fmt.Sprintf("must be greater than %s, got %v", fe.Param(), fe.Value()))
	case "gte":
		return NewInvalidFieldError(field, fmt.Sprintf("must be at least %s, got %v", fe.Param(), fe.Value()))
	case "oneof":
		return NewInvalidFieldError(field, fmt.Sprintf("must be one of: %s", strings.ReplaceAll(fe.Param(), " ", ", ")))
	default:
		return NewInvalidFieldError(field, fmt.Sprintf("failed %s validation", fe.Tag()))
	}
}
