// Package git provides a Git implementation of the VCS interface.
//
// This package wraps the git CLI to provide the operations the sync tool
// needs: change detection and snapshot commits scoped to the output
// directory. Worktrees are handled transparently by rev-parse.
package git

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/steveyegge/claude-sync/internal/vcs"
)

// Git implements the VCS interface for git repositories.
type Git struct {
	repoRoot string
}

// New creates a Git instance for the repository containing path.
func New(path string) (*Git, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}

	cmd := exec.Command("git", "rev-parse", "--show-toplevel")
	cmd.Dir = absPath
	output, err := cmd.Output()
	if err != nil {
		return nil, vcs.ErrNotInVCS
	}

	root := strings.TrimSpace(string(output))
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		root = resolved
	}
	return &Git{repoRoot: root}, nil
}

// Name returns the VCS type (git)
func (g *Git) Name() vcs.Type {
	return vcs.TypeGit
}

// RepoRoot returns the repository root directory path
func (g *Git) RepoRoot() string {
	return g.repoRoot
}

// run executes a git command at the repository root.
func (g *Git) run(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = g.repoRoot

	output, err := cmd.CombinedOutput()
	if err != nil {
		return output, fmt.Errorf("git %s failed: %w\n%s",
			strings.Join(args, " "), err, string(output))
	}
	return output, nil
}

// HasChanges returns true if there are uncommitted changes.
// If paths are specified, only those paths are checked.
func (g *Git) HasChanges(ctx context.Context, paths ...string) (bool, error) {
	args := []string{"status", "--porcelain"}
	if len(paths) > 0 {
		args = append(args, "--")
		args = append(args, paths...)
	}

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = g.repoRoot
	output, err := cmd.Output()
	if err != nil {
		return false, fmt.Errorf("git status failed: %w", err)
	}
	return len(strings.TrimSpace(string(output))) > 0, nil
}

// Commit stages the requested paths and commits them.
func (g *Git) Commit(ctx context.Context, opts vcs.CommitOptions) error {
	if opts.Message == "" {
		return fmt.Errorf("commit message is required")
	}

	if len(opts.Paths) > 0 {
		args := append([]string{"add", "--"}, opts.Paths...)
		if _, err := g.run(ctx, args...); err != nil {
			return err
		}
	}

	args := []string{"commit", "-m", opts.Message}
	if len(opts.Paths) > 0 {
		args = append(args, "--")
		args = append(args, opts.Paths...)
	}
	_, err := g.run(ctx, args...)
	return err
}
