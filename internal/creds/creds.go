// Package creds locates a claude.ai session key.
//
// The key can come from an explicit value, a key file, the CLAUDE_SESSION_KEY
// environment variable, or a local browser's cookie store, tried in that
// order. Browser stores are read from a temporary copy so a running browser's
// lock never blocks us. The key itself must never be logged; errors from this
// package carry lengths and sources, not key material.
package creds

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// SupportedBrowsers lists the cookie stores Acquire knows how to read.
var SupportedBrowsers = []string{"firefox", "chrome", "chromium", "edge"}

// ErrNoSessionCookie is returned when a cookie store was readable but held no
// claude.ai session cookie.
var ErrNoSessionCookie = errors.New("no claude.ai session cookie found")

const minSessionKeyLen = 20

// Credentials is a validated session key plus where it came from.
type Credentials struct {
	SessionKey string
	Source     string
}

// Cookies returns the cookie set to present to the API.
func (c Credentials) Cookies() map[string]string {
	return map[string]string{"sessionKey": c.SessionKey}
}

// Options controls where Acquire looks, in priority order: an explicit key,
// then a key file, then the environment, then a browser cookie store.
type Options struct {
	SessionKey     string
	SessionKeyFile string
	Browser        string
}

// Acquire finds and validates a session key. The browser store is only
// consulted when no explicit key, key file, or environment variable supplied
// one.
func Acquire(ctx context.Context, opts Options) (Credentials, error) {
	if opts.SessionKey != "" {
		if err := Validate(opts.SessionKey); err != nil {
			return Credentials{}, fmt.Errorf("invalid session key: %w", err)
		}
		return Credentials{SessionKey: opts.SessionKey, Source: "flag"}, nil
	}

	if opts.SessionKeyFile != "" {
		return FromFile(opts.SessionKeyFile)
	}

	if key := os.Getenv("CLAUDE_SESSION_KEY"); key != "" {
		if err := Validate(key); err != nil {
			return Credentials{}, fmt.Errorf("invalid CLAUDE_SESSION_KEY: %w", err)
		}
		return Credentials{SessionKey: key, Source: "env"}, nil
	}

	browser := opts.Browser
	if browser == "" {
		browser = "firefox"
	}
	return FromBrowser(ctx, browser)
}

// FromFile reads a session key from a file, ignoring surrounding whitespace.
func FromFile(path string) (Credentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Credentials{}, fmt.Errorf("failed to read session key file %s: %w", path, err)
	}
	key := strings.TrimSpace(string(data))
	if err := Validate(key); err != nil {
		return Credentials{}, fmt.Errorf("invalid session key in %s: %w", path, err)
	}
	return Credentials{SessionKey: key, Source: "file"}, nil
}

// FromBrowser reads the session cookie out of the named browser's store.
func FromBrowser(ctx context.Context, browser string) (Credentials, error) {
	var (
		key string
		err error
	)
	switch browser {
	case "firefox":
		key, err = firefoxSessionKey(ctx)
	case "chrome", "chromium", "edge":
		key, err = chromiumSessionKey(ctx, browser)
	default:
		return Credentials{}, fmt.Errorf("unsupported browser %q (supported: %s)",
			browser, strings.Join(SupportedBrowsers, ", "))
	}
	if err != nil {
		return Credentials{}, fmt.Errorf("failed to read %s cookies: %w", browser, err)
	}
	if err := Validate(key); err != nil {
		return Credentials{}, fmt.Errorf("invalid session key from %s: %w", browser, err)
	}
	return Credentials{SessionKey: key, Source: browser}, nil
}

// Validate rejects keys that cannot possibly be a live session token.
func Validate(key string) error {
	if key == "" {
		return errors.New("session key is empty")
	}
	if len(key) < minSessionKeyLen {
		return fmt.Errorf("session key too short (%d chars)", len(key))
	}
	return nil
}

// copyToTemp copies a cookie database to a private temp file so reads never
// contend with the browser's own lock. The caller runs cleanup when done.
func copyToTemp(path string) (string, func(), error) {
	src, err := os.Open(path)
	if err != nil {
		return "", nil, fmt.Errorf("failed to open cookie database %s: %w", path, err)
	}
	defer src.Close()

	tmp, err := os.CreateTemp("", "claude-sync-cookies-*.sqlite")
	if err != nil {
		return "", nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	cleanup := func() { os.Remove(tmp.Name()) }

	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		cleanup()
		return "", nil, fmt.Errorf("failed to copy cookie database: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("failed to close temp file: %w", err)
	}
	return tmp.Name(), cleanup, nil
}
