package observability

import (
	"fmt"
	"io"
	"maps"
	"os"
	"strings"
	"time"
)

const (
	// EndpointStdout writes spans and metrics to the configured writer (stderr by default).
	EndpointStdout = "stdout"

	// ProtocolHTTP specifies OTLP over HTTP/protobuf.
	ProtocolHTTP = "http"

	// ProtocolGRPC specifies OTLP over gRPC.
	ProtocolGRPC = "grpc"

	// EnvironmentDevelopment is the default environment name.
	EnvironmentDevelopment = "development"

	// DefaultServiceName identifies the Prolific client in telemetry backends.
	DefaultServiceName = "go-prolific"

	// DefaultMetricInterval is the export period of the metric reader.
	DefaultMetricInterval = 30 * time.Second
)

// Float64Ptr returns a pointer to the provided float64 value.
func Float64Ptr(v float64) *float64 {
	return &v
}

// Config defines the telemetry exporters for the Prolific client.
type Config struct {
	// Enabled controls whether telemetry is exported. When false every
	// provider operation is a no-op.
	Enabled bool `koanf:"enabled"`

	ServiceName    string `koanf:"service_name"`
	ServiceVersion string `koanf:"service_version"`
	Environment    string `koanf:"environment"`

	// Endpoint is "stdout" or an OTLP collector address. HTTP accepts
	// "host:port" or a full URL; gRPC requires "host:port".
	Endpoint string `koanf:"endpoint"`
	Protocol string `koanf:"protocol"`
	Insecure bool   `koanf:"insecure"`
	// Headers are sent with every OTLP export, e.g. for collector auth.
	Headers map[string]string `koanf:"headers"`

	// SampleRate is the trace ratio in [0,1]; nil means 1.0.
	SampleRate     *float64      `koanf:"sample_rate"`
	MetricInterval time.Duration `koanf:"metric_interval"`

	// Writer receives stdout exporter output.
	Writer io.Writer `koanf:"-"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.ServiceName == "" {
		c.ServiceName = DefaultServiceName
	}
	if c.ServiceVersion == "" {
		c.ServiceVersion = "unknown"
	}
	if c.Environment == "" {
		c.Environment = EnvironmentDevelopment
	}
	if c.Endpoint == "" {
		c.Endpoint = EndpointStdout
	}
	if c.Protocol == "" {
		c.Protocol = ProtocolHTTP
	}
	c.Protocol = strings.ToLower(c.Protocol)
	if c.SampleRate == nil {
		c.SampleRate = Float64Ptr(1.0)
	}
	if c.MetricInterval <= 0 {
		c.MetricInterval = DefaultMetricInterval
	}
	if c.Writer == nil {
		c.Writer = os.Stderr
	}
	c.Headers = maps.Clone(c.Headers)
}

// Validate checks a defaulted config.
func (c *Config) Validate() error {
	if c == nil {
		return ErrNilConfig
	}
	if !c.Enabled {
		return nil
	}
	if c.ServiceName == "" {
		return ErrMissingServiceName
	}
	if c.SampleRate != nil && (*c.SampleRate < 0 || *c.SampleRate > 1) {
		return fmt.Errorf("%w: got %v", ErrInvalidSampleRate, *c.SampleRate)
	}
	if c.Endpoint == EndpointStdout {
		return nil
	}
	switch c.Protocol {
	case ProtocolHTTP:
		return nil
	case ProtocolGRPC:
		if hasScheme(c.Endpoint) {
			return fmt.Errorf("%w: grpc endpoint %q must be host:port", ErrInvalidEndpointFormat, c.Endpoint)
		}
		return nil
	default:
		return fmt.Errorf("protocol %q: %w", c.Protocol, ErrInvalidProtocol)
	}
}

func hasScheme(endpoint string) bool {
	return strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://")
}
