// Package redact scrubs session tokens out of text bound for logs or the
// terminal. Diagnostics routinely embed request context (URLs, headers, error
// chains), any of which can carry the session cookie; everything user-visible
// funnels through String first.
package redact

import "regexp"

// Marker replaces each redacted substring.
const Marker = "[redacted]"

var patterns = []*regexp.Regexp{
	// claude.ai session keys, hyphenated segments included.
	regexp.MustCompile(`sk-ant-[A-Za-z0-9_-]{8,}`),
	// Any long opaque token. Hyphens, dots, and slashes are excluded from the
	// class so UUIDs, slugs, hostnames, and paths survive intact.
	regexp.MustCompile(`[A-Za-z0-9_=+]{40,}`),
}

// String replaces every token-shaped substring in s with Marker.
func String(s string) string {
	for _, p := range patterns {
		s = p.ReplaceAllString(s, Marker)
	}
	return s
}
