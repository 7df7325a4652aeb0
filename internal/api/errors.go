package api

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Error categories callers branch on. Session and not-found conditions are
// sentinels checked with errors.Is; status and malformed-body failures carry
// diagnostic context and are unpacked with errors.As.

// ErrSessionExpired marks a 401/403: the session cookie is invalid or expired
// and the user must log into claude.ai again. Never retried.
var ErrSessionExpired = errors.New("session expired or invalid")

// ErrNotFound marks a 404: the entity vanished between listing and fetch.
// Non-fatal for that entity; never retried.
var ErrNotFound = errors.New("not found")

// StatusError is a non-2xx response not covered by a more specific category.
// Rate limits (429) and server errors (5xx) are retryable; other client
// errors are not.
type StatusError struct {
	Status     int
	URL        string
	Snippet    string
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("claude.ai returned status %d for %s", e.Status, e.URL)
	if e.Status == 429 {
		msg = fmt.Sprintf("rate limited by claude.ai (429) for %s", e.URL)
	}
	if e.Snippet != "" {
		msg += fmt.Sprintf(" (body starts %q)", e.Snippet)
	}
	return msg
}

// retryable reports whether the status is a transient server-side condition.
func (e *StatusError) retryable() bool {
	return e.Status == 429 || e.Status >= 500
}

// MalformedResponseError is a 2xx response whose body was not the expected
// shape: empty, non-JSON, or a JSON type mismatch. The snippet usually makes
// an edge/CDN block obvious. Fatal for the request, never retried.
type MalformedResponseError struct {
	URL     string
	Status  int
	Snippet string
	Err     error
}

func (e *MalformedResponseError) Error() string {
	msg := fmt.Sprintf("malformed response from %s (status %d): %v", e.URL, e.Status, e.Err)
	if e.Snippet != "" {
		msg += fmt.Sprintf(" (body starts %q)", e.Snippet)
	}
	return msg
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// snippet trims body to a short single-line diagnostic prefix.
func snippet(body []byte) string {
	s := strings.Join(strings.Fields(string(body)), " ")
	if len(s) > 120 {
		s = s[:120]
	}
	return s
}
