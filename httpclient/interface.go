// Package httpclient is the transport for the Prolific REST API. It adds
// auth headers, correlation ids, bounded retries with jittered backoff and
// a closed error taxonomy on top of net/http.
package httpclient

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gaborage/go-prolific/trace"
)

// HeaderCorrelationID is sent with every request.
const HeaderCorrelationID = trace.HeaderCorrelationID

// Client defines the Prolific transport.
// Implementations are safe for concurrent use.
type Client interface {
	Get(ctx context.Context, req *Request) (*Response, error)
	Post(ctx context.Context, req *Request) (*Response, error)
	Put(ctx context.Context, req *Request) (*Response, error)
	Patch(ctx context.Context, req *Request) (*Response, error)
	Delete(ctx context.Context, req *Request) (*Response, error)
	Do(ctx context.Context, method string, req *Request) (*Response, error)
	// Close releases pooled connections. It is safe to call more than once.
	Close() error
}

// Request describes one logical API call.
type Request struct {
	// Path is appended to the configured base URL, e.g. "/api/v1/studies/".
	Path   string
	Params map[string]string
	// Body is JSON-encoded when non-nil. json.RawMessage is sent verbatim.
	Body any
	// CorrelationID overrides the id taken from the context.
	CorrelationID string
	Headers       map[string]string
}

// Response is the decoded outcome of a successful call.
type Response struct {
	StatusCode int
	// Body is always valid JSON; an empty 2xx body is reported as {}.
	Body          json.RawMessage
	Headers       http.Header
	CorrelationID string
	Stats         Stats
}

// Stats contains request execution statistics.
type Stats struct {
	ElapsedTime time.Duration
	Attempts    int
}

// Decode unmarshals the response body into v.
func (r *Response) Decode(v any) error {
	return json.Unmarshal(r.Body, v)
}
