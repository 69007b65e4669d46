package cli

import (
	"errors"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/gaborage/go-prolific/config"
	"github.com/gaborage/go-prolific/httpclient"
	"github.com/gaborage/go-prolific/logger"
	"github.com/gaborage/go-prolific/observability"
	"github.com/gaborage/go-prolific/prolific"
)

// telemetryServiceName identifies the CLI in telemetry backends.
const telemetryServiceName = "prolific-cli"

// session is everything a command needs to talk to the API.
type session struct {
	cfg       *config.Config
	client    httpclient.Client
	svc       *prolific.Service
	telemetry observability.Provider
}

func loadConfig(env *Env, flags *globalFlags) (*config.Config, error) {
	opts := []config.LoadOption{config.WithEnviron(env.Environ)}
	if flags.configFile != "" {
		opts = append(opts, config.WithConfigFile(flags.configFile))
	}
	if flags.envFile != "" {
		opts = append(opts, config.WithEnvFiles(flags.envFile))
	}
	overrides := map[string]any{}
	if flags.workspace != "" {
		overrides["workspace_id"] = flags.workspace
	}
	if flags.logLevel != "" {
		overrides["log_level"] = flags.logLevel
	}
	if len(overrides) > 0 {
		opts = append(opts, config.WithOverrides(overrides))
	}
	return config.Load(opts...)
}

// newLogger writes to stderr so command output on stdout stays parseable.
func newLogger(w io.Writer, cfg *config.Config) logger.Logger {
	if cfg.LogPretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return logger.NewWithWriter(w, cfg.LogLevel, nil)
}

// newTelemetry exports traces and metrics only when an endpoint was given.
func newTelemetry(env *Env, flags *globalFlags) (observability.Provider, error) {
	return observability.NewProvider(&observability.Config{
		Enabled:        flags.otelEndpoint != "",
		ServiceName:    telemetryServiceName,
		ServiceVersion: flags.version,
		Endpoint:       flags.otelEndpoint,
		Protocol:       flags.otelProtocol,
		Writer:         env.Stderr,
	})
}

// newSession builds the transport and resource service for cfg.
func newSession(env *Env, flags *globalFlags, cfg *config.Config) (*session, error) {
	tel, err := newTelemetry(env, flags)
	if err != nil {
		return nil, err
	}
	client, err := httpclient.New(cfg, newLogger(env.Stderr, cfg),
		httpclient.WithTracerProvider(tel.TracerProvider()),
		httpclient.WithMeterProvider(tel.MeterProvider()),
		httpclient.WithUserAgent(httpclient.DefaultUserAgent+"/"+flags.version),
	)
	if err != nil {
		_ = observability.Shutdown(tel, 0)
		return nil, err
	}
	return &session{
		cfg:       cfg,
		client:    client,
		svc:       prolific.NewService(client, prolific.WithWorkspace(cfg.WorkspaceID)),
		telemetry: tel,
	}, nil
}

func openSession(env *Env, flags *globalFlags) (*session, error) {
	cfg, err := loadConfig(env, flags)
	if err != nil {
		return nil, err
	}
	return newSession(env, flags, cfg)
}

// Close releases connections and flushes telemetry.
func (s *session) Close() error {
	return errors.Join(s.client.Close(), observability.Shutdown(s.telemetry, 0))
}
