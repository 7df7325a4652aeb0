// Package naming maps remote entity names and IDs to stable, collision-safe,
// cross-platform filesystem names.
//
// All functions are pure. Sanitize guarantees a non-empty result that is valid
// on Windows, macOS, and Linux; Unique resolves collisions within a caller-owned
// name set; Slug anchors a directory name to the remote ID so display-name
// changes and sanitization collisions cannot silently merge two projects.
package naming

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// MaxNameLen is the length ceiling applied by Sanitize. Names longer than this
// are truncated and suffixed with a short content hash.
const MaxNameLen = 200

// slugMaxLen bounds the name portion of a Slug before the ID suffix.
const slugMaxLen = 50

var (
	// invalidChars covers characters rejected by Windows plus control chars.
	invalidChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)
	hyphenRuns   = regexp.MustCompile(`-+`)
	whitespace   = regexp.MustCompile(`\s+`)
)

// reservedStems are Windows device names that cannot be used as a file stem.
var reservedStems = map[string]bool{}

func init() {
	for _, stem := range []string{"CON", "PRN", "AUX", "NUL"} {
		reservedStems[stem] = true
	}
	for i := 1; i <= 9; i++ {
		reservedStems[fmt.Sprintf("COM%d", i)] = true
		reservedStems[fmt.Sprintf("LPT%d", i)] = true
	}
}

// Sanitize converts name into a valid cross-platform filename. The input is
// NFC-normalized first so visually identical names with different code-point
// decompositions always sanitize identically. Never returns an empty string;
// a name that sanitizes away entirely becomes "unnamed".
func Sanitize(name string) string {
	name = norm.NFC.String(name)
	name = invalidChars.ReplaceAllString(name, "-")
	name = hyphenRuns.ReplaceAllString(name, "-")
	name = strings.Trim(name, " .-")

	stem := name
	if i := strings.LastIndex(name, "."); i >= 0 {
		stem = name[:i]
	}
	if reservedStems[strings.ToUpper(stem)] {
		name = "_" + name
	}

	if runes := []rune(name); len(runes) > MaxNameLen {
		name = string(runes[:MaxNameLen-10]) + "_" + shortHash(name)
	}

	if name == "" {
		return "unnamed"
	}
	return name
}

// Unique returns base unchanged if it does not collide with existing,
// otherwise the first free numbered variant "stem_1.ext" through
// "stem_999.ext" (split at the last dot only). If all 999 probes collide it
// falls back to a hash-suffixed variant derived from the original base; the
// caller still owns checking that one into its name set.
func Unique(base string, existing map[string]bool, caseInsensitive bool) string {
	normalize := func(s string) string {
		if caseInsensitive {
			return strings.ToLower(s)
		}
		return s
	}

	used := make(map[string]bool, len(existing))
	for name := range existing {
		used[normalize(name)] = true
	}

	if !used[normalize(base)] {
		return base
	}

	stem, ext := base, ""
	if i := strings.LastIndex(base, "."); i >= 0 {
		stem, ext = base[:i], base[i:]
	}

	for i := 1; i <= 999; i++ {
		candidate := fmt.Sprintf("%s_%d%s", stem, i, ext)
		if !used[normalize(candidate)] {
			return candidate
		}
	}

	return fmt.Sprintf("%s_%s%s", stem, shortHash(base), ext)
}

// Slug derives a project directory name: the sanitized display name,
// lowercased, whitespace runs collapsed to single hyphens, truncated to 50
// characters, then suffixed with the first 8 hex characters of the remote ID
// with its hyphens removed. The ID suffix keeps two differently-named projects
// that sanitize identically from sharing a directory; it is not a defense
// against two IDs sharing their first 8 hex characters.
func Slug(displayName, remoteID string) string {
	slug := strings.ToLower(Sanitize(displayName))
	slug = whitespace.ReplaceAllString(slug, "-")

	if runes := []rune(slug); len(runes) > slugMaxLen {
		slug = strings.TrimRight(string(runes[:slugMaxLen]), "-")
	}

	shortID := strings.ReplaceAll(remoteID, "-", "")
	if len(shortID) > 8 {
		shortID = shortID[:8]
	}
	return slug + "-" + shortID
}

// shortHash returns the first 8 hex characters of the SHA-256 of s.
func shortHash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:4])
}
