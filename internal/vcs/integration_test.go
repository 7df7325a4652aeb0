package vcs_test

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/steveyegge/claude-sync/internal/vcs"
	// Import implementations to trigger auto-registration
	_ "github.com/steveyegge/claude-sync/internal/vcs/git"
	_ "github.com/steveyegge/claude-sync/internal/vcs/jj"
)

// TestRegistrationIntegration verifies that git and jj implementations
// are registered via their init() functions.
func TestRegistrationIntegration(t *testing.T) {
	if !vcs.IsRegistered(vcs.TypeGit) {
		t.Error("Expected git to be auto-registered")
	}
	if !vcs.IsRegistered(vcs.TypeJJ) {
		t.Error("Expected jj to be auto-registered")
	}
}

// setupGitRepo creates a git repository with one commit so later commits can
// use pathspecs.
func setupGitRepo(t *testing.T) string {
	t.Helper()

	if !vcs.Available(vcs.TypeGit) {
		t.Skip("git not available")
	}

	dir := t.TempDir()
	run := func(args ...string) {
		t.Helper()
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Fatalf("git %v failed: %v\n%s", args, err, out)
		}
	}
	run("init")
	run("config", "user.name", "Test User")
	run("config", "user.email", "test@example.com")

	if err := os.WriteFile(filepath.Join(dir, "README"), []byte("x\n"), 0o644); err != nil {
		t.Fatalf("failed to write README: %v", err)
	}
	run("add", "README")
	run("commit", "-m", "initial")
	return dir
}

func TestAutoCommit(t *testing.T) {
	repo := setupGitRepo(t)
	outDir := filepath.Join(repo, "claude")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		t.Fatalf("failed to create output dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(outDir, "index.json"), []byte("{}\n"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	ctx := context.Background()
	committed, err := vcs.AutoCommit(ctx, outDir, "claude-sync: 1 project updated")
	if err != nil {
		t.Fatalf("AutoCommit() failed: %v", err)
	}
	if !committed {
		t.Fatal("AutoCommit() = false, want commit on dirty dir")
	}

	// A second pass over a clean directory must not commit.
	committed, err = vcs.AutoCommit(ctx, outDir, "claude-sync: nothing changed")
	if err != nil {
		t.Fatalf("AutoCommit() second run failed: %v", err)
	}
	if committed {
		t.Error("AutoCommit() = true on clean dir, want false")
	}

	cmd := exec.Command("git", "log", "-1", "--format=%s")
	cmd.Dir = repo
	out, err := cmd.Output()
	if err != nil {
		t.Fatalf("git log failed: %v", err)
	}
	if got := string(out); got != "claude-sync: 1 project updated\n" {
		t.Errorf("last commit subject = %q", got)
	}
}

// TestAutoCommitScopedToDir verifies dirt outside the output directory is
// left alone.
func TestAutoCommitScopedToDir(t *testing.T) {
	repo := setupGitRepo(t)
	outDir := filepath.Join(repo, "claude")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		t.Fatalf("failed to create output dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(outDir, "index.json"), []byte("{}\n"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	if err := os.WriteFile(filepath.Join(repo, "unrelated.txt"), []byte("keep out\n"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	if _, err := vcs.AutoCommit(context.Background(), outDir, "scoped"); err != nil {
		t.Fatalf("AutoCommit() failed: %v", err)
	}

	v, err := vcs.Open(outDir)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	dirty, err := v.HasChanges(context.Background())
	if err != nil {
		t.Fatalf("HasChanges() failed: %v", err)
	}
	if !dirty {
		t.Error("unrelated file should still be uncommitted")
	}
}

func TestAutoCommitOutsideRepo(t *testing.T) {
	committed, err := vcs.AutoCommit(context.Background(), t.TempDir(), "nope")
	if err != nil {
		t.Fatalf("AutoCommit() outside repo failed: %v", err)
	}
	if committed {
		t.Error("AutoCommit() = true outside any repo, want false")
	}
}
