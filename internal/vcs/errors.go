package vcs

import "errors"

// Common errors returned by VCS operations, checkable with errors.Is().
var (
	// ErrNotInVCS is returned when the operation requires being inside
	// a VCS repository but none was found.
	ErrNotInVCS = errors.New("not in a VCS repository")

	// ErrVCSNotAvailable is returned when the required VCS binary
	// (git or jj) is not installed or not in PATH.
	ErrVCSNotAvailable = errors.New("VCS binary not available")
)
