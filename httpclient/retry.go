package httpclient

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"
)

const (
	backoffBase    = time.Second
	backoffMax     = 60 * time.Second
	jitterFraction = 0.25
)

var (
	jitterMu  sync.Mutex
	jitterRng = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x9e3779b97f4a7c15))
)

// defaultJitter returns a uniform value in [-1, 1).
func defaultJitter() float64 {
	jitterMu.Lock()
	defer jitterMu.Unlock()
	return jitterRng.Float64()*2 - 1
}

// Backoff returns the wait before retry number attempt+1: 1s doubled per
// attempt, capped at 60s, with +/-25% jitter.
func Backoff(attempt int) time.Duration {
	return backoffWithJitter(attempt, defaultJitter())
}

// BaseBackoff is Backoff without jitter.
func BaseBackoff(attempt int) time.Duration {
	return backoffWithJitter(attempt, 0)
}

// backoffWithJitter applies a jitter factor j in [-1, 1] scaled to the jitter band.
func backoffWithJitter(attempt int, j float64) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if j < -1 {
		j = -1
	} else if j > 1 {
		j = 1
	}

	delay := backoffMax
	// 2^6 s already exceeds the cap; the guard also keeps the shift from overflowing.
	if attempt < 6 {
		delay = min(backoffBase<<attempt, backoffMax)
	}
	return time.Duration(float64(delay) * (1 + jitterFraction*j))
}

// shouldRetry reports whether a failed attempt gets another try.
func (c *client) shouldRetry(err *Error, attempt int) bool {
	return err != nil && err.Kind.Retryable() && attempt < c.cfg.MaxRetries
}

// retryDelay is the jittered backoff, extended to the server's retry-after
// for rate-limited responses. Non-positive retry-after values are ignored.
func (c *client) retryDelay(err *Error, attempt int) time.Duration {
	delay := backoffWithJitter(attempt, c.jitter())
	if err != nil && err.Kind == KindRateLimited && err.RetryAfter > 0 {
		delay = max(delay, err.RetryAfter)
	}
	return delay
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
