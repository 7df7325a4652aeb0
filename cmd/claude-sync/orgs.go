package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/steveyegge/claude-sync/internal/ui"
)

var orgsCmd = &cobra.Command{
	Use:   "orgs",
	Short: "List organizations visible to the session",
	Long: `List the claude.ai organizations the configured credentials can see.

Pass the UUID of the one you want to sync as the argument to claude-sync,
with --org, or through the CLAUDE_ORG_UUID environment variable.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd, args)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		ui.Init(cfg.NoColor)
		logger := newLogger(cfg)

		ctx, stop := interruptContext()
		defer stop()

		client, err := newClient(ctx, cfg, logger)
		if err != nil {
			fatal(err)
		}

		orgs, err := client.Organizations(ctx)
		if err != nil {
			fatal(err)
		}
		if len(orgs) == 0 {
			fmt.Printf("%s No organizations visible to this session\n", ui.RenderWarn("⚠"))
			return
		}
		for _, org := range orgs {
			fmt.Printf("%s  %s\n", ui.RenderMuted(org.UUID), ui.RenderBold(org.Name))
		}
	},
}

func init() {
	rootCmd.AddCommand(orgsCmd)
}
