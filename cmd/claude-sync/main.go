package main

import (
	"os"

	// Register the VCS backends auto-commit can snapshot with.
	_ "github.com/steveyegge/claude-sync/internal/vcs/git"
	_ "github.com/steveyegge/claude-sync/internal/vcs/jj"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
