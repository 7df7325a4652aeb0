package api

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"net/url"
	"time"
)

// Policy controls retries of transient remote failures: how many attempts,
// how the wait between them grows, and which error categories are worth
// retrying at all. The zero value is unusable; start from DefaultPolicy.
type Policy struct {
	// MaxAttempts is the total attempt budget, first try included.
	MaxAttempts int
	// InitialBackoff is the wait before the second attempt; it doubles per
	// attempt up to MaxBackoff.
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	// Jitter randomizes each wait by ±Jitter fraction to avoid thundering
	// herds, 0 disables.
	Jitter float64
}

// DefaultPolicy mirrors the service's tolerated request profile: three
// attempts, one second initial backoff.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:    3,
		InitialBackoff: time.Second,
		MaxBackoff:     30 * time.Second,
		Jitter:         0.25,
	}
}

// Do runs fn until it succeeds, fails with a non-retryable error, or exhausts
// the attempt budget, whichever comes first. Waits are cancelable through ctx
// and honor a server-provided Retry-After when the failure carries one.
func (p Policy) Do(ctx context.Context, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !Retryable(lastErr) || attempt == p.MaxAttempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.backoff(attempt, lastErr)):
		}
	}
	return lastErr
}

// backoff computes the wait after the given zero-based attempt, preferring a
// server Retry-After hint over the exponential schedule.
func (p Policy) backoff(attempt int, err error) time.Duration {
	var statusErr *StatusError
	if errors.As(err, &statusErr) && statusErr.RetryAfter > 0 {
		return statusErr.RetryAfter
	}

	backoff := time.Duration(float64(p.InitialBackoff) * math.Pow(2, float64(attempt)))
	if backoff > p.MaxBackoff {
		backoff = p.MaxBackoff
	}
	if p.Jitter > 0 {
		delta := p.Jitter * float64(backoff)
		backoff = time.Duration(float64(backoff) - delta + rand.Float64()*2*delta)
	}
	return backoff
}

// Retryable reports whether err is a transient category: a rate limit, a
// server-side failure, or a transport error. Session, not-found, and
// malformed-response failures are final no matter how often they are retried.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrSessionExpired) || errors.Is(err, ErrNotFound) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.retryable()
	}
	var malformed *MalformedResponseError
	if errors.As(err, &malformed) {
		return false
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}
