package creds

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// firefoxSessionKey searches every local Firefox profile for a claude.ai
// session cookie, newest profile first. Firefox stores cookies unencrypted.
func firefoxSessionKey(ctx context.Context) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}

	paths := firefoxCookiePaths(home)
	if len(paths) == 0 {
		return "", errors.New("no Firefox profiles found")
	}

	var lastErr error
	for _, path := range paths {
		key, err := readFirefoxCookie(ctx, path)
		if err == nil {
			return key, nil
		}
		lastErr = err
	}
	return "", lastErr
}

// firefoxCookiePaths returns candidate cookie databases across all profiles,
// most recently modified first. Both the classic install location and the
// Ubuntu snap location are checked on Linux.
func firefoxCookiePaths(home string) []string {
	var roots []string
	switch runtime.GOOS {
	case "darwin":
		roots = []string{filepath.Join(home, "Library", "Application Support", "Firefox", "Profiles")}
	default:
		roots = []string{
			filepath.Join(home, ".mozilla", "firefox"),
			filepath.Join(home, "snap", "firefox", "common", ".mozilla", "firefox"),
		}
	}

	var paths []string
	for _, root := range roots {
		matches, err := filepath.Glob(filepath.Join(root, "*", "cookies.sqlite"))
		if err != nil {
			continue
		}
		paths = append(paths, matches...)
	}

	sort.Slice(paths, func(i, j int) bool {
		pi, erri := os.Stat(paths[i])
		pj, errj := os.Stat(paths[j])
		if erri != nil || errj != nil {
			return erri == nil
		}
		return pi.ModTime().After(pj.ModTime())
	})
	return paths
}

// readFirefoxCookie pulls the sessionKey cookie out of one cookies.sqlite.
func readFirefoxCookie(ctx context.Context, path string) (string, error) {
	tmp, cleanup, err := copyToTemp(path)
	if err != nil {
		return "", err
	}
	defer cleanup()

	db, err := sql.Open("sqlite3", "file:"+tmp)
	if err != nil {
		return "", fmt.Errorf("failed to open cookie database: %w", err)
	}
	defer db.Close()

	query := `
	SELECT value FROM moz_cookies
	WHERE host LIKE '%claude.ai' AND name = 'sessionKey'
	ORDER BY lastAccessed DESC
	LIMIT 1
	`

	var value string
	err = db.QueryRowContext(ctx, query).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNoSessionCookie
	}
	if err != nil {
		return "", fmt.Errorf("failed to query cookies: %w", err)
	}
	return value, nil
}
