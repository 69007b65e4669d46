package httpclient

import (
	"time"
)

const (
	logMsgRequest  = "Prolific request"
	logMsgResponse = "Prolific response"
	logMsgRetry    = "Retrying Prolific request"
	logMsgAttempt  = "Prolific attempt failed"
	logMsgFailed   = "Prolific request failed"
)

// logRequest logs the outgoing call once, before the first attempt.
func (c *client) logRequest(method string, req *Request, correlationID string) {
	event := c.logger.Info().
		Str("direction", "outbound").
		Str("correlation_id", correlationID).
		Str("method", method).
		Str("path", req.Path).
		Str("auth", c.cfg.RedactedToken())

	if len(req.Params) > 0 {
		event = event.Interface("params", RedactParams(req.Params))
	}
	event.Msg(logMsgRequest)
}

func (c *client) logResponse(method, path, correlationID string, attempt, status int, elapsed time.Duration) {
	c.logger.Info().
		Str("direction", "inbound").
		Str("correlation_id", correlationID).
		Str("method", method).
		Str("path", path).
		Int("status_code", status).
		Int("attempt", attempt).
		Dur("elapsed", elapsed).
		Msg(logMsgResponse)
}

func (c *client) logAttemptFailure(method, path, correlationID string, attempt int, err *Error) {
	c.logger.Info().
		Str("direction", "inbound").
		Str("correlation_id", correlationID).
		Str("method", method).
		Str("path", path).
		Int("status_code", err.StatusCode).
		Str("error_kind", string(err.Kind)).
		Int("attempt", attempt).
		Msg(logMsgAttempt)
}

func (c *client) logRetry(method, path, correlationID string, attempt int, delay time.Duration, err *Error) {
	c.logger.Warn().
		Str("correlation_id", correlationID).
		Str("method", method).
		Str("path", path).
		Int("attempt", attempt).
		Int("max_retries", c.cfg.MaxRetries).
		Float64("backoff_seconds", delay.Seconds()).
		Str("error_kind", string(err.Kind)).
		Err(err).
		Msg(logMsgRetry)
}

func (c *client) logFailure(method, path, correlationID string, attempts int, err *Error) {
	c.logger.Error().
		Str("correlation_id", correlationID).
		Str("method", method).
		Str("path", path).
		Int("status_code", err.StatusCode).
		Str("error_kind", string(err.Kind)).
		Int("attempts", attempts).
		Err(err).
		Msg(logMsgFailed)
}
