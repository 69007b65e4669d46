package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	oteltrace "go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/gaborage/go-prolific/config"
	"github.com/gaborage/go-prolific/logger"
	"github.com/gaborage/go-prolific/trace"
)

const (
	// DefaultMaxConnections bounds the per-host connection pool.
	DefaultMaxConnections = 10
	// DefaultUserAgent is sent unless overridden with WithUserAgent.
	DefaultUserAgent = "go-prolific"
)

// RequestInterceptor is called before each attempt is sent.
type RequestInterceptor func(ctx context.Context, req *http.Request) error

// ResponseInterceptor is called after each attempt receives a response.
type ResponseInterceptor func(ctx context.Context, req *http.Request, resp *http.Response) error

// Option customizes a client built by New.
type Option func(*options)

type options struct {
	httpClient     *http.Client
	tracerProvider oteltrace.TracerProvider
	meterProvider  metric.MeterProvider
	propagator     propagation.TextMapPropagator
	limiter        *rate.Limiter
	maxConns       int
	userAgent      string
	requestHooks   []RequestInterceptor
	responseHooks  []ResponseInterceptor
}

// WithHTTPClient replaces the pooled http.Client. Close then leaves the
// supplied client's connections alone.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) { o.httpClient = hc }
}

// WithTracerProvider sets the tracer provider; the global one is used otherwise.
func WithTracerProvider(tp oteltrace.TracerProvider) Option {
	return func(o *options) { o.tracerProvider = tp }
}

// WithMeterProvider sets the meter provider; the global one is used otherwise.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) { o.meterProvider = mp }
}

// WithPropagator sets the propagator used to inject trace context headers.
func WithPropagator(p propagation.TextMapPropagator) Option {
	return func(o *options) { o.propagator = p }
}

// WithRateLimiter throttles every attempt through l, taking precedence over
// the configured rate limit.
func WithRateLimiter(l *rate.Limiter) Option {
	return func(o *options) { o.limiter = l }
}

// WithMaxConnections sets the connection pool size.
func WithMaxConnections(n int) Option {
	return func(o *options) { o.maxConns = n }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(o *options) { o.userAgent = ua }
}

// WithRequestInterceptor adds a hook that runs before each attempt.
func WithRequestInterceptor(fn RequestInterceptor) Option {
	return func(o *options) { o.requestHooks = append(o.requestHooks, fn) }
}

// WithResponseInterceptor adds a hook that runs after each response.
func WithResponseInterceptor(fn ResponseInterceptor) Option {
	return func(o *options) { o.responseHooks = append(o.responseHooks, fn) }
}

// client implements the Client interface
type client struct {
	cfg        config.Config
	logger     logger.Logger
	httpClient *http.Client
	transport  *http.Transport // nil when the http.Client was supplied by the caller
	limiter    *rate.Limiter
	userAgent  string
	propagator propagation.TextMapPropagator
	telemetry  *telemetry

	requestHooks  []RequestInterceptor
	responseHooks []ResponseInterceptor

	// test seams
	sleep  func(ctx context.Context, d time.Duration) error
	jitter func() float64
	now    func() time.Time

	closeOnce sync.Once
}

// New creates a Prolific transport. cfg is copied and re-validated, so later
// changes to it have no effect on the client.
func New(cfg *config.Config, log logger.Logger, opts ...Option) (Client, error) {
	if cfg == nil {
		return nil, config.NewInvalidFieldError("config", "is nil")
	}
	validated, err := config.New(*cfg)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Nop()
	}

	o := options{maxConns: DefaultMaxConnections, userAgent: DefaultUserAgent}
	for _, opt := range opts {
		opt(&o)
	}
	if o.maxConns <= 0 {
		o.maxConns = DefaultMaxConnections
	}

	c := &client{
		cfg:           *validated,
		logger:        log,
		limiter:       o.limiter,
		userAgent:     o.userAgent,
		propagator:    o.propagator,
		requestHooks:  o.requestHooks,
		responseHooks: o.responseHooks,
		sleep:         sleepContext,
		jitter:        defaultJitter,
		now:           time.Now,
	}

	if c.propagator == nil {
		c.propagator = otel.GetTextMapPropagator()
	}

	if c.limiter == nil && validated.RateLimit > 0 {
		burst := validated.RateBurst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(validated.RateLimit), burst)
	}

	if o.httpClient != nil {
		c.httpClient = o.httpClient
	} else {
		c.transport = newPooledTransport(o.maxConns)
		// No client-level timeout: each attempt carries its own deadline.
		c.httpClient = &http.Client{Transport: c.transport}
	}

	c.telemetry = newTelemetry(o.tracerProvider, o.meterProvider)
	return c, nil
}

func newPooledTransport(maxConns int) *http.Transport {
	tr := http.DefaultTransport.(*http.Transport).Clone()
	tr.MaxIdleConns = maxConns
	tr.MaxIdleConnsPerHost = maxConns
	tr.MaxConnsPerHost = maxConns
	return tr
}

// Get performs a GET request
func (c *client) Get(ctx context.Context, req *Request) (*Response, error) {
	return c.Do(ctx, http.MethodGet, req)
}

// Post performs a POST request
func (c *client) Post(ctx context.Context, req *Request) (*Response, error) {
	return c.Do(ctx, http.MethodPost, req)
}

// Put performs a PUT request
func (c *client) Put(ctx context.Context, req *Request) (*Response, error) {
	return c.Do(ctx, http.MethodPut, req)
}

// Patch performs a PATCH request
func (c *client) Patch(ctx context.Context, req *Request) (*Response, error) {
	return c.Do(ctx, http.MethodPatch, req)
}

// Delete performs a DELETE request
func (c *client) Delete(ctx context.Context, req *Request) (*Response, error) {
	return c.Do(ctx, http.MethodDelete, req)
}

// Close releases idle pooled connections.
func (c *client) Close() error {
	c.closeOnce.Do(func() {
		if c.transport != nil {
			c.transport.CloseIdleConnections()
		}
	})
	return nil
}

// Do executes one logical call, retrying retryable failures up to MaxRetries
// times. The returned error is an *Error unless ctx was cancelled.
func (c *client) Do(ctx context.Context, method string, req *Request) (*Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if req == nil {
		req = &Request{}
	}
	method = strings.ToUpper(strings.TrimSpace(method))

	correlationID := c.correlationID(ctx, req)
	ctx = trace.WithCorrelationID(ctx, correlationID)

	target, err := c.buildURL(req)
	if err != nil {
		return nil, c.invalidRequest("invalid request url", err, correlationID)
	}
	body, err := encodeBody(req.Body)
	if err != nil {
		return nil, c.invalidRequest("failed to encode request body", err, correlationID)
	}

	ctx, span := c.telemetry.startCall(ctx, method, req.Path, correlationID)
	start := c.now()
	c.logRequest(method, req, correlationID)

	var lastErr *Error
	attempts := 0
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if err := c.throttle(ctx); err != nil {
			return nil, c.abort(span, method, req.Path, correlationID, attempts, err)
		}

		attempts++
		attemptStart := c.now()
		resp, callErr := c.attempt(ctx, method, target, body, req.Headers, correlationID)
		c.telemetry.recordAttempt(ctx, method, statusOf(resp, callErr), c.now().Sub(attemptStart))

		if callErr == nil {
			resp.CorrelationID = correlationID
			resp.Stats = Stats{ElapsedTime: c.now().Sub(start), Attempts: attempts}
			c.logResponse(method, req.Path, correlationID, attempt, resp.StatusCode, resp.Stats.ElapsedTime)
			c.telemetry.endCall(span, resp.StatusCode, attempts, nil)
			return resp, nil
		}

		// A cancelled caller context is not a Prolific failure.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, c.abort(span, method, req.Path, correlationID, attempts, ctxErr)
		}

		c.logAttemptFailure(method, req.Path, correlationID, attempt, callErr)
		lastErr = callErr
		if !c.shouldRetry(callErr, attempt) {
			break
		}

		delay := c.retryDelay(callErr, attempt)
		c.telemetry.recordRetry(ctx, method, callErr.Kind)
		c.logRetry(method, req.Path, correlationID, attempt, delay, callErr)
		if err := c.sleep(ctx, delay); err != nil {
			return nil, c.abort(span, method, req.Path, correlationID, attempts, err)
		}
	}

	c.logFailure(method, req.Path, correlationID, attempts, lastErr)
	c.telemetry.endCall(span, lastErr.StatusCode, attempts, lastErr)
	return nil, lastErr
}

// attempt sends a single HTTP request bounded by the per-attempt timeout.
func (c *client) attempt(ctx context.Context, method, target string, body []byte, headers map[string]string, correlationID string) (*Response, *Error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout())
	defer cancel()

	httpReq, err := c.buildRequest(attemptCtx, method, target, body, headers, correlationID)
	if err != nil {
		return nil, NewConnectionError(err, correlationID)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, c.transportError(attemptCtx, err, correlationID)
	}
	defer httpResp.Body.Close()

	if err := c.runResponseInterceptors(attemptCtx, httpReq, httpResp); err != nil {
		return nil, NewConnectionError(fmt.Errorf("response interceptor failed: %w", err), correlationID)
	}

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, c.transportError(attemptCtx, err, correlationID)
	}

	if IsSuccessStatus(httpResp.StatusCode) {
		return &Response{
			StatusCode: httpResp.StatusCode,
			Body:       successBody(raw),
			Headers:    httpResp.Header,
		}, nil
	}

	apiErr := Classify(httpResp.StatusCode, raw, correlationID)
	if apiErr.Kind == KindRateLimited && apiErr.RetryAfter <= 0 {
		apiErr.RetryAfter = parseRetryAfterHeader(httpResp.Header.Get("Retry-After"), c.now())
	}
	return nil, apiErr
}

// buildRequest constructs an *http.Request, applies headers and runs request interceptors.
func (c *client) buildRequest(ctx context.Context, method, target string, body []byte, headers map[string]string, correlationID string) (*http.Request, error) {
	var reader io.Reader = http.NoBody
	if body != nil {
		reader = bytes.NewReader(body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create http request: %w", err)
	}

	// Request-specific headers first; auth and correlation headers always win.
	for key, value := range headers {
		httpReq.Header.Set(key, value)
	}
	for key, value := range c.cfg.AuthHeaders() {
		httpReq.Header.Set(key, value)
	}
	httpReq.Header.Set(HeaderCorrelationID, correlationID)
	if c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}
	c.propagator.Inject(ctx, propagation.HeaderCarrier(httpReq.Header))

	for _, hook := range c.requestHooks {
		if err := hook(ctx, httpReq); err != nil {
			return nil, fmt.Errorf("request interceptor failed: %w", err)
		}
	}
	return httpReq, nil
}

func (c *client) runResponseInterceptors(ctx context.Context, req *http.Request, resp *http.Response) error {
	for _, hook := range c.responseHooks {
		if err := hook(ctx, req, resp); err != nil {
			return err
		}
	}
	return nil
}

func (c *client) buildURL(req *Request) (string, error) {
	path := req.Path
	if path != "" && !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u, err := url.Parse(c.cfg.BaseURL + path)
	if err != nil {
		return "", err
	}
	if len(req.Params) > 0 {
		q := u.Query()
		for k, v := range req.Params {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func (c *client) correlationID(ctx context.Context, req *Request) string {
	if id := strings.TrimSpace(req.CorrelationID); id != "" {
		return id
	}
	return trace.EnsureCorrelationID(ctx)
}

func (c *client) throttle(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

// transportError classifies a failure that produced no usable response.
func (c *client) transportError(attemptCtx context.Context, err error, correlationID string) *Error {
	if isTimeout(attemptCtx, err) {
		return NewTimeoutError(c.cfg.Timeout(), err, correlationID)
	}
	return NewConnectionError(err, correlationID)
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// abort ends a call interrupted by the caller's context or the rate limiter.
func (c *client) abort(span oteltrace.Span, method, path, correlationID string, attempts int, cause error) error {
	err := fmt.Errorf("prolific %s %s aborted [correlation_id: %s]: %w", method, path, correlationID, cause)
	c.logger.Warn().
		Str("correlation_id", correlationID).
		Str("method", method).
		Str("path", path).
		Int("attempts", attempts).
		Err(cause).
		Msg("Prolific request aborted")
	c.telemetry.endCall(span, 0, attempts, err)
	return err
}

func (c *client) invalidRequest(msg string, cause error, correlationID string) *Error {
	return &Error{
		Kind:          KindValidation,
		Message:       msg,
		CorrelationID: correlationID,
		Cause:         cause,
	}
}

func statusOf(resp *Response, err *Error) int {
	if resp != nil {
		return resp.StatusCode
	}
	if err != nil {
		return err.StatusCode
	}
	return 0
}

func encodeBody(body any) ([]byte, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case json.RawMessage:
		return b, nil
	case []byte:
		return b, nil
	default:
		return json.Marshal(body)
	}
}

// successBody normalizes a 2xx payload into valid JSON.
func successBody(raw []byte) json.RawMessage {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return json.RawMessage("{}")
	}
	if json.Valid(trimmed) {
		return json.RawMessage(trimmed)
	}
	fallback, err := json.Marshal(map[string]string{
		"status":       "success",
		"raw_response": string(raw),
	})
	if err != nil {
		return json.RawMessage(`{"status":"success"}`)
	}
	return fallback
}
