package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// chdirTemp moves the test into a fresh directory so Load never sees a real
// config file, and points HOME there for the same reason.
func chdirTemp(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	originalWd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(originalWd); err != nil {
			t.Errorf("Failed to restore working directory: %v", err)
		}
	})
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change to temp dir: %v", err)
	}

	t.Setenv("HOME", dir)
	t.Setenv("CLAUDE_SYNC_ORG", "")
	t.Setenv("CLAUDE_ORG_UUID", "")
	t.Setenv("CLAUDE_SYNC_SESSION_KEY", "")
	t.Setenv("CLAUDE_SESSION_KEY", "")
	return dir
}

func TestLoadDefaults(t *testing.T) {
	dir := chdirTemp(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.OrgID != "" {
		t.Errorf("OrgID = %q, want empty", cfg.OrgID)
	}
	want := filepath.Join(dir, ".local", "share", "claude-sync")
	if cfg.Output != want {
		t.Errorf("Output = %q, want %q", cfg.Output, want)
	}
	if cfg.Browser != "firefox" {
		t.Errorf("Browser = %q, want firefox", cfg.Browser)
	}
	if !cfg.Conversations {
		t.Error("Conversations should default to true")
	}
	if !cfg.AutoCommit {
		t.Error("AutoCommit should default to true")
	}
	if cfg.FullResync {
		t.Error("FullResync should default to false")
	}
	if cfg.Delay != 200*time.Millisecond {
		t.Errorf("Delay = %v, want 200ms", cfg.Delay)
	}
	if cfg.Retries != 3 {
		t.Errorf("Retries = %d, want 3", cfg.Retries)
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := strings.Join([]string{
		"org: 11111111-2222-3333-4444-555555555555",
		"output: /tmp/claude-export",
		"conversations: false",
		"delay: 500ms",
		"retries: 5",
	}, "\n")
	if err := os.WriteFile(filepath.Join(dir, ".claude-sync.yaml"), []byte(yaml), 0o644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.OrgID != "11111111-2222-3333-4444-555555555555" {
		t.Errorf("OrgID = %q", cfg.OrgID)
	}
	if cfg.Output != "/tmp/claude-export" {
		t.Errorf("Output = %q", cfg.Output)
	}
	if cfg.Conversations {
		t.Error("Conversations should be false from config file")
	}
	if cfg.Delay != 500*time.Millisecond {
		t.Errorf("Delay = %v, want 500ms", cfg.Delay)
	}
	if cfg.Retries != 5 {
		t.Errorf("Retries = %d, want 5", cfg.Retries)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	if err := os.WriteFile(filepath.Join(dir, ".claude-sync.yaml"), []byte("org: from-file\n"), 0o644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	t.Setenv("CLAUDE_SYNC_ORG", "from-env")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.OrgID != "from-env" {
		t.Errorf("OrgID = %q, want from-env", cfg.OrgID)
	}
}

func TestLoadLegacyEnvNames(t *testing.T) {
	chdirTemp(t)

	t.Setenv("CLAUDE_ORG_UUID", "legacy-org")
	t.Setenv("CLAUDE_SESSION_KEY", "legacy-session-key-value")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.OrgID != "legacy-org" {
		t.Errorf("OrgID = %q, want legacy-org", cfg.OrgID)
	}
	if cfg.SessionKey != "legacy-session-key-value" {
		t.Errorf("SessionKey = %q, want legacy value", cfg.SessionKey)
	}
}

func TestLoadPrefixedEnvBeatsLegacy(t *testing.T) {
	chdirTemp(t)

	t.Setenv("CLAUDE_ORG_UUID", "legacy-org")
	t.Setenv("CLAUDE_SYNC_ORG", "prefixed-org")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.OrgID != "prefixed-org" {
		t.Errorf("OrgID = %q, want prefixed-org", cfg.OrgID)
	}
}

func TestLoadMalformedFile(t *testing.T) {
	dir := chdirTemp(t)

	if err := os.WriteFile(filepath.Join(dir, ".claude-sync.yaml"), []byte("org: [unclosed\n"), 0o644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	if _, err := Load(); err == nil {
		t.Fatal("Load() should fail on malformed config file")
	}
}
