// Package config loads and validates the Prolific client settings.
//
// Sources are layered with increasing priority:
//  1. Default values
//  2. YAML file and inline YAML
//  3. .env files
//  4. Process environment (PROLIFIC_*)
//  5. Explicit overrides
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// loadOptions collects the sources passed to Load.
type loadOptions struct {
	configFile string
	yaml       []byte
	envFiles   []string
	environ    func() []string
	overrides  map[string]any
}

// LoadOption customizes Load.
type LoadOption func(*loadOptions)

// WithConfigFile layers a YAML file over the defaults. The file must exist.
func WithConfigFile(path string) LoadOption {
	return func(o *loadOptions) { o.configFile = path }
}

// WithYAML layers inline YAML over the defaults and the config file.
func WithYAML(data []byte) LoadOption {
	return func(o *loadOptions) { o.yaml = data }
}

// WithEnvFiles reads .env files. Their values never override the real environment.
func WithEnvFiles(paths ...string) LoadOption {
	return func(o *loadOptions) { o.envFiles = append(o.envFiles, paths...) }
}

// WithEnviron replaces os.Environ as the environment source.
func WithEnviron(fn func() []string) LoadOption {
	return func(o *loadOptions) { o.environ = fn }
}

// WithOverrides applies explicit values keyed by koanf key
// (api_token, base_url, workspace_id, timeout, max_retries, ...).
func WithOverrides(values map[string]any) LoadOption {
	return func(o *loadOptions) { o.overrides = values }
}

// Load builds a validated Config from defaults, files, environment and overrides.
// A missing token is reported as a *ConfigError with category "missing".
func Load(opts ...LoadOption) (*Config, error) {
	o := loadOptions{environ: os.Environ}
	for _, opt := range opts {
		opt(&o)
	}

	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if o.configFile != "" {
		if err := k.Load(file.Provider(o.configFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", o.configFile, err)
		}
	}

	if len(o.yaml) > 0 {
		if err := k.Load(rawbytes.Provider(o.yaml), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to parse inline yaml: %w", err)
		}
	}

	if len(o.envFiles) > 0 {
		dotenv, err := godotenv.Read(o.envFiles...)
		if err != nil {
			return nil, fmt.Errorf("failed to read env files: %w", err)
		}
		if err := k.Load(confmap.Provider(envMapToKeys(dotenv), "."), nil); err != nil {
			return nil, fmt.Errorf("failed to load env files: %w", err)
		}
	}

	if err := k.Load(env.Provider(".", env.Opt{
		Prefix:        envPrefix,
		TransformFunc: transformEnv,
		EnvironFunc:   o.environ,
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if len(o.overrides) > 0 {
		if err := k.Load(confmap.Provider(o.overrides, "."), nil); err != nil {
			return nil, fmt.Errorf("failed to load overrides: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, NewInvalidFieldError("config", "failed to decode: "+err.Error())
	}

	return New(cfg)
}

func loadDefaults(k *koanf.Koanf) error {
	d := Default()
	defaults := map[string]any{
		"base_url":    d.BaseURL,
		"timeout":     d.TimeoutSeconds,
		"max_retries": d.MaxRetries,
		"rate_limit":  d.RateLimit,
		"rate_burst":  d.RateBurst,
		"log_level":   d.LogLevel,
		"log_pretty":  d.LogPretty,
	}
	return k.Load(confmap.Provider(defaults, "."), nil)
}

// transformEnv maps PROLIFIC_API_TOKEN to api_token and drops unknown variables.
func transformEnv(key, value string) (string, any) {
	name := strings.ToLower(strings.TrimPrefix(key, envPrefix))
	if _, ok := fieldEnv[name]; !ok {
		return "", nil
	}
	return name, value
}

func envMapToKeys(vars map[string]string) map[string]any {
	out := make(map[string]any, len(vars))
	for k, v := range vars {
		if !strings.HasPrefix(k, envPrefix) {
			continue
		}
		if name, val := transformEnv(k, v); name != "" {
			out[name] = val
		}
	}
	return out
}
