package git

import "github.com/steveyegge/claude-sync/internal/vcs"

// init registers the git VCS implementation with the registry.
// This is called automatically when the package is imported.
//
// Usage:
//
//	import _ "github.com/steveyegge/claude-sync/internal/vcs/git"
func init() {
	vcs.Register(vcs.TypeGit, func(path string) (vcs.VCS, error) {
		return New(path)
	})
}
