package jj

import "github.com/steveyegge/claude-sync/internal/vcs"

// init registers the jj VCS implementation with the registry.
// This is called automatically when the package is imported.
//
// Usage:
//
//	import _ "github.com/steveyegge/claude-sync/internal/vcs/jj"
func init() {
	vcs.Register(vcs.TypeJJ, func(path string) (vcs.VCS, error) {
		return New(path)
	})
}
