package httpclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// ErrorKind identifies one failure class of the Prolific API.
type ErrorKind string

const (
	KindAuthentication ErrorKind = "authentication"
	KindAuthorization  ErrorKind = "authorization"
	KindNotFound       ErrorKind = "not_found"
	KindRateLimited    ErrorKind = "rate_limited"
	KindValidation     ErrorKind = "validation"
	KindServer         ErrorKind = "server"
	KindConnection     ErrorKind = "connection"
	KindTimeout        ErrorKind = "timeout"
	KindAPI            ErrorKind = "api"
)

// Retryable reports whether a failure of this kind may succeed on a later attempt.
func (k ErrorKind) Retryable() bool {
	switch k {
	case KindRateLimited, KindServer, KindConnection, KindTimeout:
		return true
	default:
		return false
	}
}

// Sentinels matched by errors.Is against any *Error of the same kind.
var (
	ErrAuthentication = errors.New("authentication failed")
	ErrAuthorization  = errors.New("access forbidden")
	ErrNotFound       = errors.New("resource not found")
	ErrRateLimited    = errors.New("rate limit exceeded")
	ErrValidation     = errors.New("validation error")
	ErrServer         = errors.New("server error")
	ErrConnection     = errors.New("connection error")
	ErrTimeout        = errors.New("request timed out")
	ErrAPI            = errors.New("api error")
)

var kindSentinels = map[ErrorKind]error{
	KindAuthentication: ErrAuthentication,
	KindAuthorization:  ErrAuthorization,
	KindNotFound:       ErrNotFound,
	KindRateLimited:    ErrRateLimited,
	KindValidation:     ErrValidation,
	KindServer:         ErrServer,
	KindConnection:     ErrConnection,
	KindTimeout:        ErrTimeout,
	KindAPI:            ErrAPI,
}

// statusKinds is the exact-match part of the status classification.
// Anything in [500,600) not listed here is KindServer; the rest is KindAPI.
var statusKinds = map[int]ErrorKind{
	http.StatusBadRequest:          KindValidation,
	http.StatusUnauthorized:        KindAuthentication,
	http.StatusForbidden:           KindAuthorization,
	http.StatusNotFound:            KindNotFound,
	http.StatusUnprocessableEntity: KindValidation,
	http.StatusTooManyRequests:     KindRateLimited,
}

const unknownErrorMessage = "Unknown error"

// Error is the single error type returned by the transport.
// StatusCode is 0 for failures that never produced a response.
type Error struct {
	Kind          ErrorKind
	StatusCode    int
	Message       string
	Payload       map[string]any
	Raw           []byte
	CorrelationID string
	// RetryAfter is the server-declared wait, set only for KindRateLimited.
	RetryAfter time.Duration
	// Timeout is the per-attempt limit that expired, set only for KindTimeout.
	Timeout time.Duration
	Cause   error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.StatusCode > 0 {
		fmt.Fprintf(&b, "prolific api error %d (%s): %s", e.StatusCode, e.Kind, e.Message)
	} else {
		fmt.Fprintf(&b, "prolific %s error: %s", e.Kind, e.Message)
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	if e.CorrelationID != "" {
		fmt.Fprintf(&b, " [correlation_id: %s]", e.CorrelationID)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches the sentinel for the error's kind.
func (e *Error) Is(target error) bool {
	sentinel, ok := kindSentinels[e.Kind]
	return ok && target == sentinel
}

// Retryable reports whether the transport would retry this error.
func (e *Error) Retryable() bool { return e.Kind.Retryable() }

// KindForStatus maps an HTTP status code to its error kind. The mapping is total.
func KindForStatus(status int) ErrorKind {
	if kind, ok := statusKinds[status]; ok {
		return kind
	}
	if status >= 500 && status < 600 {
		return KindServer
	}
	return KindAPI
}

// Classify builds the error for a non-2xx response.
func Classify(status int, body []byte, correlationID string) *Error {
	payload := decodePayload(body)
	e := &Error{
		Kind:          KindForStatus(status),
		StatusCode:    status,
		Message:       extractMessage(payload, body),
		Payload:       payload,
		Raw:           body,
		CorrelationID: correlationID,
	}
	if e.Kind == KindRateLimited {
		e.RetryAfter = retryAfterFromPayload(payload)
	}
	return e
}

// NewConnectionError wraps a transport failure that produced no response.
func NewConnectionError(cause error, correlationID string) *Error {
	return &Error{
		Kind:          KindConnection,
		Message:       "failed to connect to prolific api",
		CorrelationID: correlationID,
		Cause:         cause,
	}
}

// NewTimeoutError reports an attempt that exceeded timeout.
func NewTimeoutError(timeout time.Duration, cause error, correlationID string) *Error {
	return &Error{
		Kind:          KindTimeout,
		Message:       fmt.Sprintf("request timed out after %s", timeout),
		CorrelationID: correlationID,
		Timeout:       timeout,
		Cause:         cause,
	}
}

// AsError extracts an *Error from err's chain.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsKind reports whether err carries an *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	e, ok := AsError(err)
	return ok && e.Kind == kind
}

// IsSuccessStatus reports whether code is in [200,300).
func IsSuccessStatus(code int) bool {
	return code >= 200 && code < 300
}

// decodePayload returns the JSON object in body, a raw_response wrapper for
// anything else, or nil for an empty body.
func decodePayload(body []byte) map[string]any {
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil
	}
	var obj map[string]any
	if err := json.Unmarshal(body, &obj); err == nil && obj != nil {
		return obj
	}
	return map[string]any{"raw_response": string(body)}
}

func extractMessage(payload map[string]any, body []byte) string {
	if len(payload) == 0 {
		return unknownErrorMessage
	}
	for _, key := range []string{"error", "message", "detail"} {
		if msg := stringify(payload[key]); msg != "" {
			return msg
		}
	}
	if raw, ok := payload["raw_response"].(string); ok && len(payload) == 1 {
		return raw
	}
	return strings.TrimSpace(string(body))
}

// stringify renders a message-like JSON value; empty results mean "absent".
func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		if !val {
			return ""
		}
		return "true"
	default:
		out, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		s := string(out)
		if s == "[]" || s == "{}" || s == "0" {
			return ""
		}
		return s
	}
}

func retryAfterFromPayload(payload map[string]any) time.Duration {
	if payload == nil {
		return 0
	}
	switch v := payload["retry_after"].(type) {
	case float64:
		return secondsToDuration(v)
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return secondsToDuration(f)
		}
	}
	return 0
}

// parseRetryAfterHeader accepts the delta-seconds and HTTP-date forms.
func parseRetryAfterHeader(value string, now time.Time) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return secondsToDuration(f)
	}
	if t, err := http.ParseTime(value); err == nil {
		return t.Sub(now)
	}
	return 0
}

func secondsToDuration(s float64) time.Duration {
	if math.IsNaN(s) || math.IsInf(s, 0) {
		return 0
	}
	return time.Duration(s * float64(time.Second))
}
