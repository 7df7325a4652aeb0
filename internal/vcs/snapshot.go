package vcs

import (
	"context"
	"errors"
	"fmt"
)

// Open returns a VCS instance for the repository containing dir.
//
// For colocated repositories the preferred implementation is used, falling
// back to whichever binary is actually installed. Returns ErrNotInVCS when
// dir is outside any repository and ErrVCSNotAvailable when the repository's
// binary is missing.
func Open(dir string) (VCS, error) {
	detected, err := Detect(dir)
	if err != nil {
		return nil, err
	}

	implType := detected.Type
	if implType == TypeColocate {
		implType = pickColocated()
	}
	if !Available(implType) {
		return nil, fmt.Errorf("%s: %w", implType, ErrVCSNotAvailable)
	}

	constructor := getConstructor(implType)
	if constructor == nil {
		return nil, fmt.Errorf("no registered constructor for VCS type %s (available: %v)", implType, RegisteredTypes())
	}
	v, err := constructor(detected.RepoRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s VCS instance: %w", implType, err)
	}
	return v, nil
}

// pickColocated resolves which implementation to use when both .jj and .git
// are present.
func pickColocated() Type {
	preferred := Preferred()
	if Available(preferred) {
		return preferred
	}
	if preferred == TypeJJ && Available(TypeGit) {
		return TypeGit
	}
	if preferred == TypeGit && Available(TypeJJ) {
		return TypeJJ
	}
	return preferred
}

// AutoCommit snapshots dir with the repository that manages it, if any.
// It reports whether a commit was made. A dir outside version control is
// not an error; everything else is the caller's to report.
func AutoCommit(ctx context.Context, dir, message string) (bool, error) {
	v, err := Open(dir)
	if errors.Is(err, ErrNotInVCS) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	changed, err := v.HasChanges(ctx, dir)
	if err != nil {
		return false, err
	}
	if !changed {
		return false, nil
	}

	if err := v.Commit(ctx, CommitOptions{Message: message, Paths: []string{dir}}); err != nil {
		return false, err
	}
	return true, nil
}
