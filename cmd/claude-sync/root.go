package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"github.com/steveyegge/claude-sync/internal/api"
	"github.com/steveyegge/claude-sync/internal/config"
	"github.com/steveyegge/claude-sync/internal/creds"
	"github.com/steveyegge/claude-sync/internal/logging"
	"github.com/steveyegge/claude-sync/internal/redact"
	"github.com/steveyegge/claude-sync/internal/sync"
	"github.com/steveyegge/claude-sync/internal/ui"
	"github.com/steveyegge/claude-sync/internal/vcs"
)

var (
	flagOutput          string
	flagBrowser         string
	flagSessionKey      string
	flagSessionKeyFile  string
	flagOrg             string
	flagNoConversations bool
	flagFull            bool
	flagProject         string
	flagNoCommit        bool
	flagVerbose         bool
	flagNoColor         bool
	flagDelay           time.Duration
	flagRetries         int
	flagLogFile         string
)

var rootCmd = &cobra.Command{
	Use:   "claude-sync [org-uuid]",
	Short: "Sync claude.ai projects to local markdown",
	Long: `Sync claude.ai project workspaces to a local directory tree.

Each project becomes a directory of markdown files: CLAUDE.md with the
project instructions, docs/ with the knowledge files, and optionally
conversations/ with the chat threads. Repeat runs are incremental: only
projects whose content changed since the last run are rewritten, and
projects deleted remotely are kept locally and marked orphaned.

Session credentials are read from a browser cookie store (firefox by
default), the CLAUDE_SESSION_KEY environment variable, --session-key, or
--session-key-file. The organization comes from the positional argument,
--org, CLAUDE_ORG_UUID, or interactive selection when several are visible.`,
	Args: cobra.MaximumNArgs(1),
	Run:  runSync,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagBrowser, "browser", "b", "", "Browser cookie store: firefox, chrome, chromium, or edge")
	rootCmd.PersistentFlags().StringVar(&flagSessionKey, "session-key", "", "Session key (skips browser cookie lookup)")
	rootCmd.PersistentFlags().StringVar(&flagSessionKeyFile, "session-key-file", "", "File containing the session key")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().StringVar(&flagLogFile, "log-file", "", "Rotating debug log location")

	rootCmd.Flags().StringVarP(&flagOutput, "output", "o", "", "Output directory (default ~/.local/share/claude-sync)")
	rootCmd.Flags().StringVar(&flagOrg, "org", "", "Organization UUID")
	rootCmd.Flags().BoolVar(&flagNoConversations, "no-conversations", false, "Skip conversation sync")
	rootCmd.Flags().BoolVar(&flagFull, "full", false, "Re-sync everything, ignoring saved state")
	rootCmd.Flags().StringVarP(&flagProject, "project", "p", "", "Sync one project by UUID or name substring")
	rootCmd.Flags().BoolVar(&flagNoCommit, "no-commit", false, "Skip auto-commit of the output directory")
	rootCmd.Flags().DurationVar(&flagDelay, "delay", 0, "Pause between API requests (default 200ms)")
	rootCmd.Flags().IntVar(&flagRetries, "retries", 0, "Attempt budget for transient API failures (default 3)")
}

func runSync(cmd *cobra.Command, args []string) {
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

	orgID := cfg.OrgID
	if orgID == "" {
		orgID, err = selectOrganization(ctx, client)
		if err != nil {
			fatal(err)
		}
	}

	engine := sync.New(client, sync.Options{
		OrgID:         orgID,
		Output:        cfg.Output,
		Conversations: cfg.Conversations,
		FullResync:    cfg.FullResync,
		ProjectFilter: cfg.Project,
		Logger:        logger,
		Progress:      ui.NewStepPrinter(os.Stdout),
	})

	fmt.Printf("%s Syncing organization %s\n", ui.RenderAccent("🔄"), orgID)
	fmt.Printf("   Output: %s\n", cfg.Output)

	start := time.Now()
	res, runErr := engine.Run(ctx)
	if res == nil {
		fatal(runErr)
	}
	printSummary(res, time.Since(start))

	if cfg.AutoCommit && res.Synced > 0 {
		commitOutput(cfg.Output, res.Synced, logger)
	}

	switch {
	case res.Interrupted || errors.Is(runErr, context.Canceled):
		os.Exit(130)
	case runErr != nil:
		fatal(runErr)
	case res.Failed > 0:
		os.Exit(1)
	}
}

// loadConfig resolves file/env configuration, then overlays every flag the
// user actually set. A positional organization argument wins over all of it.
func loadConfig(cmd *cobra.Command, args []string) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("output") {
		cfg.Output = flagOutput
	}
	if flags.Changed("browser") {
		cfg.Browser = flagBrowser
	}
	if flags.Changed("session-key") {
		cfg.SessionKey = flagSessionKey
	}
	if flags.Changed("session-key-file") {
		cfg.SessionKeyFile = flagSessionKeyFile
	}
	if flags.Changed("org") {
		cfg.OrgID = flagOrg
	}
	if flags.Changed("no-conversations") {
		cfg.Conversations = !flagNoConversations
	}
	if flags.Changed("full") {
		cfg.FullResync = flagFull
	}
	if flags.Changed("project") {
		cfg.Project = flagProject
	}
	if flags.Changed("no-commit") {
		cfg.AutoCommit = !flagNoCommit
	}
	if flags.Changed("verbose") {
		cfg.Verbose = flagVerbose
	}
	if flags.Changed("no-color") {
		cfg.NoColor = flagNoColor
	}
	if flags.Changed("delay") {
		cfg.Delay = flagDelay
	}
	if flags.Changed("retries") {
		cfg.Retries = flagRetries
	}
	if flags.Changed("log-file") {
		cfg.LogFile = flagLogFile
	}
	if len(args) > 0 {
		cfg.OrgID = args[0]
	}
	return cfg, nil
}

func newLogger(cfg config.Config) *slog.Logger {
	file := cfg.LogFile
	if file == "" {
		file = logging.DefaultFile()
	}
	return logging.New(logging.Options{Verbose: cfg.Verbose, File: file})
}

// newClient acquires session credentials and builds the API client.
func newClient(ctx context.Context, cfg config.Config, logger *slog.Logger) (*api.Client, error) {
	credentials, err := creds.Acquire(ctx, creds.Options{
		SessionKey:     cfg.SessionKey,
		SessionKeyFile: cfg.SessionKeyFile,
		Browser:        cfg.Browser,
	})
	if err != nil {
		return nil, err
	}
	logger.Debug("session key acquired", "source", credentials.Source)

	policy := api.DefaultPolicy()
	if cfg.Retries > 0 {
		policy.MaxAttempts = cfg.Retries
	}
	return api.New(api.Config{
		Cookies:      credentials.Cookies(),
		RequestDelay: cfg.Delay,
		Retry:        policy,
		Logger:       logger,
	})
}

// selectOrganization resolves the organization when none was configured. One
// visible organization is used as-is; several prompt when interactive and
// abort with the candidate list otherwise.
func selectOrganization(ctx context.Context, client *api.Client) (string, error) {
	orgs, err := client.Organizations(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to list organizations: %w", err)
	}
	switch len(orgs) {
	case 0:
		return "", errors.New("no organizations visible to this session")
	case 1:
		fmt.Printf("%s Organization: %s\n", ui.RenderAccent("→"), orgs[0].Name)
		return orgs[0].UUID, nil
	}

	if !ui.Interactive() {
		fmt.Fprintf(os.Stderr, "Error: multiple organizations available, pass one as an argument or set --org:\n")
		for _, org := range orgs {
			fmt.Fprintf(os.Stderr, "  %s  %s\n", org.UUID, org.Name)
		}
		os.Exit(1)
	}
	return ui.PickOrganization(orgs)
}

func printSummary(res *sync.Result, elapsed time.Duration) {
	if res.Interrupted {
		fmt.Printf("%s Sync interrupted after %v, partial progress saved\n", ui.RenderWarn("⚠"), elapsed.Round(time.Millisecond))
	} else {
		fmt.Printf("%s Sync complete in %v\n", ui.RenderPass("✓"), elapsed.Round(time.Millisecond))
	}
	fmt.Printf("   Synced: %d\n", res.Synced)
	fmt.Printf("   Unchanged: %d\n", res.Unchanged)
	if res.Conversations > 0 {
		fmt.Printf("   Conversations: %d\n", res.Conversations)
	}
	if res.Failed > 0 {
		fmt.Printf("   %s Failed: %d\n", ui.RenderFail("✗"), res.Failed)
	}
	if res.Orphaned > 0 {
		fmt.Printf("   %s Orphaned: %d (local copies kept)\n", ui.RenderWarn("⚠"), res.Orphaned)
	}
}

// commitOutput snapshots the output directory with whatever VCS hosts it.
// Runs on a fresh context so an interrupted sync still commits its partial
// progress. Failure to commit never fails the run.
func commitOutput(output string, updated int, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	noun := "projects"
	if updated == 1 {
		noun = "project"
	}
	msg := fmt.Sprintf("claude-sync: %d %s updated %s", updated, noun, time.Now().UTC().Format(time.RFC3339))

	committed, err := vcs.AutoCommit(ctx, output, msg)
	if err != nil {
		logger.Warn("auto-commit failed", "error", err)
		return
	}
	if committed {
		fmt.Printf("%s Committed %s\n", ui.RenderPass("✓"), output)
	}
}

// interruptContext cancels on the first interrupt and releases the handler
// right after, so a second interrupt kills the process outright.
func interruptContext() (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	go func() {
		<-ctx.Done()
		stop()
	}()
	return ctx, stop
}

// fatal prints err and exits: 130 when the user stopped the run, 1 otherwise.
// Session tokens are scrubbed before anything reaches the terminal.
func fatal(err error) {
	if errors.Is(err, context.Canceled) || errors.Is(err, huh.ErrUserAborted) {
		os.Exit(130)
	}
	fmt.Fprintf(os.Stderr, "Error: %s\n", redact.String(err.Error()))
	os.Exit(1)
}
