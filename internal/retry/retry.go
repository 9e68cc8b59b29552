// Package retry decides how long to wait before repeating a Discord API call.
//
// Retries are driven by HTTP status codes: 429 waits for the larger of the
// server-supplied retry_after and the local backoff, 5xx waits for the local
// backoff. Every other status is final. The backoff starts at one second,
// doubles after each consecutive retry and is capped at thirty seconds. A
// Backoff belongs to one logical operation (one fetch or one delete).
package retry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

const (
	defaultInitialBackoff = 1 * time.Second
	defaultMaxBackoff     = 30 * time.Second
)

// ErrRetriesExhausted is returned when the optional retry ceiling is reached.
var ErrRetriesExhausted = errors.New("retries exhausted")

// Config represents retry configuration.
type Config struct {
	InitialBackoff time.Duration // Initial backoff duration (default: 1s)
	MaxBackoff     time.Duration // Maximum backoff duration (default: 30s)
	MaxRetries     int           // Retry ceiling per operation, 0 retries forever
}

// Outcome is the classification of an HTTP status code.
type Outcome int

const (
	Success Outcome = iota
	RateLimited
	ServerError
	NotFound
	Forbidden
	ClientError
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case RateLimited:
		return "rate_limited"
	case ServerError:
		return "server_error"
	case NotFound:
		return "not_found"
	case Forbidden:
		return "forbidden"
	default:
		return "client_error"
	}
}

// Retryable reports whether the same request should be sent again.
func (o Outcome) Retryable() bool {
	return o == RateLimited || o == ServerError
}

// Classify maps an HTTP status code to an Outcome.
func Classify(status int) Outcome {
	switch {
	case status >= 200 && status < 300:
		return Success
	case status == http.StatusTooManyRequests:
		return RateLimited
	case status >= 500 && status < 600:
		return ServerError
	case status == http.StatusNotFound:
		return NotFound
	case status == http.StatusForbidden:
		return Forbidden
	default:
		return ClientError
	}
}

// Backoff tracks the wait state of a single logical operation.
type Backoff struct {
	cfg      Config
	attempts int
}

// NewBackoff creates a fresh backoff with defaults applied.
func NewBackoff(cfg Config) *Backoff {
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = defaultInitialBackoff
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = defaultMaxBackoff
	}
	if cfg.MaxBackoff < cfg.InitialBackoff {
		cfg.MaxBackoff = cfg.InitialBackoff
	}
	return &Backoff{cfg: cfg}
}

// Current returns the backoff that the next retry would use.
func (b *Backoff) Current() time.Duration {
	return calculateBackoff(b.attempts, b.cfg.InitialBackoff, b.cfg.MaxBackoff)
}

// Attempts returns the number of retries granted so far.
func (b *Backoff) Attempts() int {
	return b.attempts
}

// Next returns the wait before retrying after outcome and advances the
// backoff. retryAfter is the server-supplied delay of a 429 response and is
// ignored for other outcomes.
func (b *Backoff) Next(outcome Outcome, retryAfter time.Duration) (time.Duration, error) {
	if !outcome.Retryable() {
		return 0, fmt.Errorf("outcome %s is not retryable", outcome)
	}
	if b.cfg.MaxRetries > 0 && b.attempts >= b.cfg.MaxRetries {
		return 0, fmt.Errorf("%w after %d attempts (%s)", ErrRetriesExhausted, b.attempts, outcome)
	}

	wait := b.Current()
	if outcome == RateLimited {
		wait = max(retryAfter, wait)
	}

	b.attempts++
	return wait, nil
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the default SleepFunc.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// calculateBackoff calculates the backoff duration for a given attempt.
// Uses exponential backoff: 2^attempt * initial
// Capped at maxBackoff if the result exceeds it.
func calculateBackoff(attempt int, initial, maxBackoff time.Duration) time.Duration {
	// Beyond 2^30 the shift overflows long before the cap matters
	if attempt > 30 {
		return maxBackoff
	}

	backoff := time.Duration(1<<uint(attempt)) * initial
	if backoff > maxBackoff || backoff <= 0 {
		return maxBackoff
	}

	return backoff
}
