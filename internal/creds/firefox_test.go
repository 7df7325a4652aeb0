package creds

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
)

func writeFirefoxFixture(t *testing.T, rows []struct {
	host, name, value string
	lastAccessed      int64
}) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "cookies.sqlite")
	db, err := sql.Open("sqlite3", "file:"+path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	schema := `
	CREATE TABLE moz_cookies (
		id INTEGER PRIMARY KEY,
		host TEXT,
		name TEXT,
		value TEXT,
		lastAccessed INTEGER
	)`
	if _, err := db.Exec(schema); err != nil {
		t.Fatal(err)
	}
	for _, row := range rows {
		_, err := db.Exec(
			"INSERT INTO moz_cookies (host, name, value, lastAccessed) VALUES (?, ?, ?, ?)",
			row.host, row.name, row.value, row.lastAccessed,
		)
		if err != nil {
			t.Fatal(err)
		}
	}
	return path
}

func TestReadFirefoxCookie(t *testing.T) {
	path := writeFirefoxFixture(t, []struct {
		host, name, value string
		lastAccessed      int64
	}{
		{".claude.ai", "sessionKey", "sk-ant-REDACTED", 100},
		{".claude.ai", "sessionKey", testKey, 200},
		{".claude.ai", "lastActiveOrg", "org-uuid", 300},
		{".example.com", "sessionKey", "unrelated", 400},
	})

	got, err := readFirefoxCookie(t.Context(), path)
	if err != nil {
		t.Fatalf("readFirefoxCookie() error = %v", err)
	}
	if got != testKey {
		t.Errorf("readFirefoxCookie() = %q, want most recently accessed %q", got, testKey)
	}
}

func TestReadFirefoxCookieMissing(t *testing.T) {
	path := writeFirefoxFixture(t, []struct {
		host, name, value string
		lastAccessed      int64
	}{
		{".example.com", "sessionKey", "unrelated", 100},
	})

	_, err := readFirefoxCookie(t.Context(), path)
	if !errors.Is(err, ErrNoSessionCookie) {
		t.Errorf("readFirefoxCookie() error = %v, want ErrNoSessionCookie", err)
	}
}
