package httpclient

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	oteltrace "go.opentelemetry.io/otel/trace"
)

const (
	instrumentationName = "github.com/gaborage/go-prolific/httpclient"

	spanName = "prolific.request"

	metricAttempts = "prolific.client.attempts"
	metricRetries  = "prolific.client.retries"
	metricDuration = "prolific.client.duration"

	attrMethod        = "http.request.method"
	attrPath          = "url.path"
	attrStatusCode    = "http.response.status_code"
	attrCorrelationID = "prolific.correlation_id"
	attrAttempts      = "prolific.attempts"
	attrErrorKind     = "error.type"
)

// telemetry holds the tracer and instruments of one client.
type telemetry struct {
	tracer   oteltrace.Tracer
	attempts metric.Int64Counter
	retries  metric.Int64Counter
	duration metric.Float64Histogram
}

// logMetricError reports instrument creation failures without failing the client.
func logMetricError(name string, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "WARNING: Failed to initialize metric %s: %v\n", name, err)
	}
}

func newTelemetry(tp oteltrace.TracerProvider, mp metric.MeterProvider) *telemetry {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(instrumentationName)

	t := &telemetry{tracer: tp.Tracer(instrumentationName)}

	var err error
	t.attempts, err = meter.Int64Counter(
		metricAttempts,
		metric.WithDescription("Number of HTTP attempts sent to the Prolific API"),
	)
	logMetricError(metricAttempts, err)

	t.retries, err = meter.Int64Counter(
		metricRetries,
		metric.WithDescription("Number of retries scheduled after a retryable failure"),
	)
	logMetricError(metricRetries, err)

	t.duration, err = meter.Float64Histogram(
		metricDuration,
		metric.WithDescription("Duration of individual HTTP attempts"),
		metric.WithUnit("s"),
	)
	logMetricError(metricDuration, err)

	return t
}

func (t *telemetry) startCall(ctx context.Context, method, path, correlationID string) (context.Context, oteltrace.Span) {
	return t.tracer.Start(ctx, spanName,
		oteltrace.WithSpanKind(oteltrace.SpanKindClient),
		oteltrace.WithAttributes(
			attribute.String(attrMethod, method),
			attribute.String(attrPath, path),
			attribute.String(attrCorrelationID, correlationID),
		),
	)
}

func (t *telemetry) endCall(span oteltrace.Span, status, attempts int, err error) {
	span.SetAttributes(attribute.Int(attrAttempts, attempts))
	if status > 0 {
		span.SetAttributes(attribute.Int(attrStatusCode, status))
	}
	if err != nil {
		if apiErr, ok := AsError(err); ok {
			span.SetAttributes(attribute.String(attrErrorKind, string(apiErr.Kind)))
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (t *telemetry) recordAttempt(ctx context.Context, method string, status int, elapsed time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String(attrMethod, method),
		attribute.Int(attrStatusCode, status),
	)
	if t.attempts != nil {
		t.attempts.Add(ctx, 1, attrs)
	}
	if t.duration != nil {
		t.duration.Record(ctx, elapsed.Seconds(), attrs)
	}
}

func (t *telemetry) recordRetry(ctx context.Context, method string, kind ErrorKind) {
	if t.retries == nil {
		return
	}
	t.retries.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrMethod, method),
		attribute.String(attrErrorKind, string(kind)),
	))
}
