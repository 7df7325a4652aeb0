package api

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"testing"
	"time"
)

func fastPolicy() Policy {
	return Policy{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: 4 * time.Millisecond}
}

func TestPolicySucceedsMidway(t *testing.T) {
	calls := 0
	err := fastPolicy().Do(t.Context(), func() error {
		calls++
		if calls < 2 {
			return &StatusError{Status: 503}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if calls != 2 {
		t.Errorf("got %d calls, want 2", calls)
	}
}

func TestPolicyStopsOnNonRetryable(t *testing.T) {
	calls := 0
	wantErr := fmt.Errorf("fetch: %w", ErrSessionExpired)
	err := fastPolicy().Do(t.Context(), func() error {
		calls++
		return wantErr
	})
	if !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("err = %v, want ErrSessionExpired", err)
	}
	if calls != 1 {
		t.Errorf("got %d calls, want 1", calls)
	}
}

func TestPolicyExhaustsBudget(t *testing.T) {
	calls := 0
	err := fastPolicy().Do(t.Context(), func() error {
		calls++
		return &StatusError{Status: 500}
	})
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("err = %v, want StatusError", err)
	}
	if calls != 3 {
		t.Errorf("got %d calls, want 3", calls)
	}
}

func TestPolicyHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	calls := 0
	err := fastPolicy().Do(ctx, func() error {
		calls++
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if calls != 0 {
		t.Errorf("fn ran %d times after cancellation, want 0", calls)
	}
}

func TestRetryableCategories(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"session expired", ErrSessionExpired, false},
		{"wrapped session expired", fmt.Errorf("x: %w", ErrSessionExpired), false},
		{"not found", ErrNotFound, false},
		{"rate limit", &StatusError{Status: 429}, true},
		{"server error", &StatusError{Status: 502}, true},
		{"client error", &StatusError{Status: 400}, false},
		{"malformed", &MalformedResponseError{Err: errors.New("bad")}, false},
		{"transport", &url.Error{Op: "Get", URL: "https://claude.ai", Err: errors.New("refused")}, true},
		{"wrapped transport", fmt.Errorf("failed to reach claude.ai: %w", &url.Error{Op: "Get", Err: errors.New("reset")}), true},
		{"generic", errors.New("something else"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Retryable(tt.err); got != tt.want {
				t.Errorf("Retryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestBackoffSchedule(t *testing.T) {
	p := Policy{MaxAttempts: 5, InitialBackoff: 100 * time.Millisecond, MaxBackoff: time.Second}

	if got := p.backoff(0, errors.New("x")); got != 100*time.Millisecond {
		t.Errorf("attempt 0 backoff = %v, want 100ms", got)
	}
	if got := p.backoff(1, errors.New("x")); got != 200*time.Millisecond {
		t.Errorf("attempt 1 backoff = %v, want 200ms", got)
	}
	if got := p.backoff(10, errors.New("x")); got != time.Second {
		t.Errorf("attempt 10 backoff = %v, want cap of 1s", got)
	}
}

func TestBackoffJitterBounds(t *testing.T) {
	p := Policy{MaxAttempts: 3, InitialBackoff: 100 * time.Millisecond, MaxBackoff: time.Second, Jitter: 0.25}
	for range 50 {
		got := p.backoff(0, errors.New("x"))
		if got < 75*time.Millisecond || got > 125*time.Millisecond {
			t.Fatalf("jittered backoff %v outside [75ms, 125ms]", got)
		}
	}
}

func TestBackoffPrefersRetryAfter(t *testing.T) {
	p := fastPolicy()
	err := &StatusError{Status: 429, RetryAfter: 7 * time.Millisecond}
	if got := p.backoff(0, err); got != 7*time.Millisecond {
		t.Errorf("backoff = %v, want Retry-After hint of 7ms", got)
	}
}
