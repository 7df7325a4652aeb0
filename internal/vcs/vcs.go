// Package vcs provides a unified interface for snapshotting the sync output
// directory with whichever version control system manages it.
//
// The package abstracts the differences between git and jj (Jujutsu) behind a
// small strategy interface with runtime detection and registry-based
// construction. Implementations register themselves on import:
//
//	import (
//	    _ "github.com/steveyegge/claude-sync/internal/vcs/git"
//	    _ "github.com/steveyegge/claude-sync/internal/vcs/jj"
//	)
//
//	committed, err := vcs.AutoCommit(ctx, outputDir, message)
//
// A directory outside any repository is not an error; auto-commit simply
// does nothing there.
package vcs

import "context"

// Type represents the VCS backend type
type Type string

const (
	// TypeGit indicates a git-only repository
	TypeGit Type = "git"

	// TypeJJ indicates a jj-only repository (non-colocated)
	TypeJJ Type = "jj"

	// TypeColocate indicates a colocated repository (jj + git together)
	TypeColocate Type = "colocate"
)

// String returns the string representation of the VCS type
func (t Type) String() string {
	return string(t)
}

// VCS is the set of operations the sync tool needs from a version control
// system. Implementations exist for git (internal/vcs/git) and jj
// (internal/vcs/jj).
type VCS interface {
	// Name returns the VCS type (git, jj, or colocate)
	Name() Type

	// RepoRoot returns the repository root directory path
	RepoRoot() string

	// HasChanges returns true if there are uncommitted changes.
	// If paths are specified, only those paths are checked.
	HasChanges(ctx context.Context, paths ...string) (bool, error)

	// Commit records the specified paths (or everything staged/tracked when
	// empty) in a new commit.
	Commit(ctx context.Context, opts CommitOptions) error
}

// CommitOptions configures a commit operation
type CommitOptions struct {
	// Message is the commit message (required)
	Message string

	// Paths limits the commit to these files or directories.
	// Empty commits all pending changes.
	Paths []string
}
