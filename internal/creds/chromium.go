package creds

import (
	"bytes"
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha1"
	"crypto/sha256"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/crypto/pbkdf2"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// Chromium-family cookie values are AES-128-CBC encrypted with a key derived
// from a per-OS password: the literal "peanuts" on Linux (1 PBKDF2 round) and
// the browser's Safe Storage keychain entry on macOS (1003 rounds). The salt
// and IV are fixed. v11 values use the OS keyring directly and are not
// supported here.
const (
	chromiumSalt = "saltysalt"
	chromiumIV   = "                " // 16 spaces
)

// chromiumSessionKey searches the named browser's profiles for a claude.ai
// session cookie and decrypts it.
func chromiumSessionKey(ctx context.Context, browser string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}

	paths := chromiumCookiePaths(browser, home)
	if len(paths) == 0 {
		return "", fmt.Errorf("no %s profiles found", browser)
	}

	key, err := chromiumKey(ctx, browser)
	if err != nil {
		return "", err
	}

	var lastErr error
	for _, path := range paths {
		value, err := readChromiumCookie(ctx, path, key)
		if err == nil {
			return value, nil
		}
		lastErr = err
	}
	return "", lastErr
}

// chromiumCookiePaths returns candidate cookie databases, most recently
// modified first. Chrome 96 moved the database under Network/; both locations
// are checked, across the Default profile and any numbered profiles.
func chromiumCookiePaths(browser, home string) []string {
	var base string
	switch runtime.GOOS {
	case "darwin":
		switch browser {
		case "chrome":
			base = filepath.Join(home, "Library", "Application Support", "Google", "Chrome")
		case "chromium":
			base = filepath.Join(home, "Library", "Application Support", "Chromium")
		case "edge":
			base = filepath.Join(home, "Library", "Application Support", "Microsoft Edge")
		}
	default:
		switch browser {
		case "chrome":
			base = filepath.Join(home, ".config", "google-chrome")
		case "chromium":
			base = filepath.Join(home, ".config", "chromium")
		case "edge":
			base = filepath.Join(home, ".config", "microsoft-edge")
		}
	}
	if base == "" {
		return nil
	}

	var paths []string
	for _, profile := range []string{"Default", "Profile *"} {
		for _, rel := range []string{"Network/Cookies", "Cookies"} {
			matches, err := filepath.Glob(filepath.Join(base, profile, rel))
			if err != nil {
				continue
			}
			paths = append(paths, matches...)
		}
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

// chromiumKey derives the AES key for v10 cookie values.
func chromiumKey(ctx context.Context, browser string) ([]byte, error) {
	switch runtime.GOOS {
	case "linux":
		return pbkdf2.Key([]byte("peanuts"), []byte(chromiumSalt), 1, 16, sha1.New), nil
	case "darwin":
		password, err := keychainPassword(ctx, browser)
		if err != nil {
			return nil, err
		}
		return pbkdf2.Key(password, []byte(chromiumSalt), 1003, 16, sha1.New), nil
	default:
		return nil, fmt.Errorf("%s cookie decryption not supported on %s", browser, runtime.GOOS)
	}
}

// keychainPassword asks the macOS keychain for the browser's Safe Storage
// password. The user may get a keychain prompt the first time.
func keychainPassword(ctx context.Context, browser string) ([]byte, error) {
	service := map[string]string{
		"chrome":   "Chrome Safe Storage",
		"chromium": "Chromium Safe Storage",
		"edge":     "Microsoft Edge Safe Storage",
	}[browser]

	out, err := exec.CommandContext(ctx, "security", "find-generic-password", "-w", "-s", service).Output()
	if err != nil {
		return nil, fmt.Errorf("failed to read %q from keychain: %w", service, err)
	}
	return bytes.TrimRight(out, "\n"), nil
}

// readChromiumCookie pulls the sessionKey cookie out of one cookie database,
// decrypting it when stored encrypted.
func readChromiumCookie(ctx context.Context, path string, key []byte) (string, error) {
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
	SELECT host_key, value, encrypted_value FROM cookies
	WHERE host_key LIKE '%claude.ai' AND name = 'sessionKey'
	ORDER BY last_access_utc DESC
	LIMIT 1
	`

	var hostKey, value string
	var encrypted []byte
	err = db.QueryRowContext(ctx, query).Scan(&hostKey, &value, &encrypted)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNoSessionCookie
	}
	if err != nil {
		return "", fmt.Errorf("failed to query cookies: %w", err)
	}

	if value != "" {
		return value, nil
	}
	return decryptV10(encrypted, key, hostKey)
}

// decryptV10 decrypts a v10 cookie value. Chrome 130+ prefixes the plaintext
// with sha256(host_key); when present it is stripped.
func decryptV10(encrypted, key []byte, hostKey string) (string, error) {
	if len(encrypted) < 3 || !strings.HasPrefix(string(encrypted), "v10") {
		if strings.HasPrefix(string(encrypted), "v11") {
			return "", errors.New("v11 cookie encryption (OS keyring) not supported")
		}
		return "", errors.New("unrecognized cookie encryption format")
	}

	data := encrypted[3:]
	if len(data) == 0 || len(data)%aes.BlockSize != 0 {
		return "", errors.New("encrypted cookie is not block-aligned")
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("failed to init cipher: %w", err)
	}

	plain := make([]byte, len(data))
	cipher.NewCBCDecrypter(block, []byte(chromiumIV)).CryptBlocks(plain, data)

	plain, err = stripPKCS7(plain)
	if err != nil {
		return "", err
	}

	if len(plain) >= sha256.Size {
		sum := sha256.Sum256([]byte(hostKey))
		if bytes.Equal(plain[:sha256.Size], sum[:]) {
			plain = plain[sha256.Size:]
		}
	}
	return string(plain), nil
}

func stripPKCS7(b []byte) ([]byte, error) {
	if len(b) == 0 {
		return nil, errors.New("decrypted cookie is empty")
	}
	n := int(b[len(b)-1])
	if n == 0 || n > aes.BlockSize || n > len(b) {
		return nil, errors.New("decrypted cookie has invalid padding")
	}
	for _, c := range b[len(b)-n:] {
		if int(c) != n {
			return nil, errors.New("decrypted cookie has invalid padding")
		}
	}
	return b[:len(b)-n], nil
}
