package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"google.golang.org/grpc/credentials/insecure"
)

// initMeterProvider creates a meter provider with a periodic reader.
func (p *provider) initMeterProvider(res *resource.Resource) error {
	exporter, err := p.createMetricExporter()
	if err != nil {
		return fmt.Errorf("failed to create metric exporter: %w", err)
	}

	reader := sdkmetric.NewPeriodicReader(
		exporter,
		sdkmetric.WithInterval(p.config.MetricInterval),
	)

	p.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
	)
	return nil
}

// createMetricExporter mirrors createTraceExporter for metrics.
func (p *provider) createMetricExporter() (sdkmetric.Exporter, error) {
	if p.config.Endpoint == EndpointStdout {
		return stdoutmetric.New(
			stdoutmetric.WithWriter(p.config.Writer),
			stdoutmetric.WithPrettyPrint(),
		)
	}

	switch p.config.Protocol {
	case ProtocolHTTP:
		return p.createOTLPHTTPMetricExporter()
	case ProtocolGRPC:
		return p.createOTLPGRPCMetricExporter()
	default:
		return nil, fmt.Errorf("metrics protocol '%s': %w", p.config.Protocol, ErrInvalidProtocol)
	}
}

func (p *provider) createOTLPHTTPMetricExporter() (sdkmetric.Exporter, error) {
	var opts []otlpmetrichttp.Option
	if hasScheme(p.config.Endpoint) {
		opts = append(opts, otlpmetrichttp.WithEndpointURL(p.config.Endpoint))
	} else {
		opts = append(opts, otlpmetrichttp.WithEndpoint(p.config.Endpoint))
	}
	if p.config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	if len(p.config.Headers) > 0 {
		opts = append(opts, otlpmetrichttp.WithHeaders(p.config.Headers))
	}
	return otlpmetrichttp.New(context.Background(), opts...)
}

func (p *provider) createOTLPGRPCMetricExporter() (sdkmetric.Exporter, error) {
	opts := []otlpmetricgrpc.Option{
		otlpmetricgrpc.WithEndpoint(p.config.Endpoint),
	}
	if p.config.Insecure {
		opts = append(opts, otlpmetricgrpc.WithTLSCredentials(insecure.NewCredentials()))
	}
	if len(p.config.Headers) > 0 {
		opts = append(opts, otlpmetricgrpc.WithHeaders(p.config.Headers))
	}
	return otlpmetricgrpc.New(context.Background(), opts...)
}
