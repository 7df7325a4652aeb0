// Package jj implements the VCS interface for Jujutsu (jj).
//
// Jujutsu snapshots the working copy automatically, so there is no staging
// step: HasChanges inspects the working-copy change and Commit finalizes it
// with a description, leaving a fresh empty change on top. Colocated repos
// (.jj alongside .git) are supported and reported as such.
package jj

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/steveyegge/claude-sync/internal/vcs"
)

// JJ implements the VCS interface for Jujutsu.
type JJ struct {
	repoRoot    string
	jjDir       string
	isColocated bool
}

// New creates a JJ instance for the given repository root.
// The repository must already be initialized with jj (have a .jj directory).
func New(repoRoot string) (*JJ, error) {
	absRoot, err := filepath.Abs(repoRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve repository root: %w", err)
	}

	jjDir := filepath.Join(absRoot, ".jj")
	if _, err := os.Stat(jjDir); err != nil {
		return nil, vcs.ErrNotInVCS
	}

	_, gitErr := os.Stat(filepath.Join(absRoot, ".git"))
	return &JJ{
		repoRoot:    absRoot,
		jjDir:       jjDir,
		isColocated: gitErr == nil,
	}, nil
}

// Name returns the VCS type.
// Returns "jj" for non-colocated repos, "colocate" for colocated repos.
func (j *JJ) Name() vcs.Type {
	if j.isColocated {
		return vcs.TypeColocate
	}
	return vcs.TypeJJ
}

// RepoRoot returns the repository root directory path.
func (j *JJ) RepoRoot() string {
	return j.repoRoot
}

// run executes a jj command at the repository root.
func (j *JJ) run(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "jj", args...)
	cmd.Dir = j.repoRoot

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		stderrStr := stderr.String()
		if strings.Contains(stderrStr, "No workspace configured") {
			return nil, vcs.ErrNotInVCS
		}
		return nil, fmt.Errorf("jj %s failed: %w: %s",
			strings.Join(args, " "), err, stderrStr)
	}
	return stdout.Bytes(), nil
}

// HasChanges returns true if the working-copy change touches anything.
// If paths are specified, only those paths are checked.
func (j *JJ) HasChanges(ctx context.Context, paths ...string) (bool, error) {
	args := []string{"diff", "--summary"}
	args = append(args, paths...)

	output, err := j.run(ctx, args...)
	if err != nil {
		return false, err
	}
	return len(bytes.TrimSpace(output)) > 0, nil
}

// Commit describes the working-copy change and starts a new one, so the
// snapshot gets a commit of its own.
func (j *JJ) Commit(ctx context.Context, opts vcs.CommitOptions) error {
	if opts.Message == "" {
		return fmt.Errorf("commit message is required")
	}

	args := []string{"commit", "-m", opts.Message}
	args = append(args, opts.Paths...)
	_, err := j.run(ctx, args...)
	return err
}
