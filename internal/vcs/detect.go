package vcs

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// DetectionResult contains information about the detected VCS
type DetectionResult struct {
	// Type is the detected VCS type
	Type Type

	// RepoRoot is the repository root directory path
	RepoRoot string

	// VCSDir is the VCS metadata directory path (.git or .jj)
	VCSDir string

	// HasGit indicates a .git directory/file was found
	HasGit bool

	// HasJJ indicates a .jj directory was found
	HasJJ bool

	// Colocated indicates both git and jj are present
	Colocated bool
}

// Detect identifies the VCS type for a given directory.
//
// Detection precedence:
//  1. Check for .jj directory (indicates jj or colocated mode)
//  2. Check for .git directory or file (a file means a git worktree)
//  3. Walk up parent directories until VCS found or root reached
//
// For colocated repositories (both .jj and .git present), the Type will be
// TypeColocate; Preferred() decides which implementation to use.
//
// Returns ErrNotInVCS if no VCS is found.
func Detect(path string) (*DetectionResult, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	result := &DetectionResult{}

	current := absPath
	for {
		jjDir := filepath.Join(current, ".jj")
		gitPath := filepath.Join(current, ".git")

		if info, err := os.Stat(jjDir); err == nil && info.IsDir() {
			result.HasJJ = true
			if result.RepoRoot == "" {
				result.RepoRoot = current
				result.VCSDir = jjDir
			}
		}

		// .git may be a file for worktrees; the git implementation resolves
		// the real metadata directory itself via rev-parse.
		if _, err := os.Stat(gitPath); err == nil {
			result.HasGit = true
			if result.RepoRoot == "" {
				result.RepoRoot = current
				result.VCSDir = gitPath
			}
		}

		if result.HasJJ || result.HasGit {
			result.Colocated = result.HasJJ && result.HasGit

			switch {
			case result.HasJJ && result.HasGit:
				result.Type = TypeColocate
			case result.HasJJ:
				result.Type = TypeJJ
			default:
				result.Type = TypeGit
			}
			return result, nil
		}

		parent := filepath.Dir(current)
		if parent == current {
			return nil, ErrNotInVCS
		}
		current = parent
	}
}

// Preferred returns the preferred VCS type for colocated repositories.
//
// Preference order:
//  1. CLAUDE_SYNC_VCS environment variable ("git" or "jj")
//  2. jj, which keeps the working copy clean after a commit
func Preferred() Type {
	if pref := os.Getenv("CLAUDE_SYNC_VCS"); pref != "" {
		switch strings.ToLower(pref) {
		case "jj", "jujutsu":
			return TypeJJ
		case "git":
			return TypeGit
		}
	}
	return TypeJJ
}

// Available reports whether the binary for the given VCS type is in PATH.
func Available(t Type) bool {
	switch t {
	case TypeGit:
		_, err := exec.LookPath("git")
		return err == nil
	case TypeJJ, TypeColocate:
		_, err := exec.LookPath("jj")
		return err == nil
	default:
		return false
	}
}
