// Package config resolves runtime configuration for a sync run.
//
// Precedence, highest first: command-line flags (overlaid by the caller),
// environment variables, an optional .claude-sync.yaml file, built-in
// defaults. The environment names used by the original tool
// (CLAUDE_ORG_UUID, CLAUDE_SESSION_KEY) keep working alongside the
// CLAUDE_SYNC_* prefix.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config is the resolved configuration for one invocation. Flag overrides
// happen in the command layer; everything else is resolved by Load.
type Config struct {
	// OrgID is the claude.ai organization UUID. Empty means discover via the
	// API and auto-select or prompt.
	OrgID string `mapstructure:"org"`

	// Output is the root directory the synced tree is written under.
	Output string `mapstructure:"output"`

	// Browser is the cookie store consulted when no explicit session key is
	// configured: firefox, chrome, chromium, or edge.
	Browser string `mapstructure:"browser"`

	SessionKey     string `mapstructure:"session_key"`
	SessionKeyFile string `mapstructure:"session_key_file"`

	// Conversations controls whether conversation threads are synced in
	// addition to instructions and documents.
	Conversations bool `mapstructure:"conversations"`

	// FullResync ignores all prior sync state and re-writes everything.
	FullResync bool `mapstructure:"full"`

	// Project restricts the run to one project, matched by exact UUID or
	// case-insensitive name substring.
	Project string `mapstructure:"project"`

	// AutoCommit snapshots the output directory with the local VCS after a
	// run that changed anything.
	AutoCommit bool `mapstructure:"commit"`

	Verbose bool `mapstructure:"verbose"`
	NoColor bool `mapstructure:"no_color"`

	// Delay is the pause enforced after every successful API request.
	Delay time.Duration `mapstructure:"delay"`

	// Retries is the total attempt budget for transient API failures.
	Retries int `mapstructure:"retries"`

	// LogFile is the rotating debug log location; empty picks the default
	// under the user's state directory.
	LogFile string `mapstructure:"log_file"`
}

// DefaultOutput returns the default output root, following the XDG data
// convention the original tool used.
func DefaultOutput() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "claude-sync"
	}
	return filepath.Join(home, ".local", "share", "claude-sync")
}

// Load resolves configuration from defaults, an optional config file, and the
// environment. A missing config file is normal; an unreadable or malformed
// one is an error.
func Load() (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName(".claude-sync")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "claude-sync"))
	}

	v.SetEnvPrefix("CLAUDE_SYNC")
	v.AutomaticEnv()
	// Names the original tool established, oldest last.
	v.BindEnv("org", "CLAUDE_SYNC_ORG", "CLAUDE_ORG_UUID")
	v.BindEnv("session_key", "CLAUDE_SYNC_SESSION_KEY", "CLAUDE_SESSION_KEY")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("org", "")
	v.SetDefault("output", DefaultOutput())
	v.SetDefault("browser", "firefox")
	v.SetDefault("session_key", "")
	v.SetDefault("session_key_file", "")
	v.SetDefault("conversations", true)
	v.SetDefault("full", false)
	v.SetDefault("project", "")
	v.SetDefault("commit", true)
	v.SetDefault("verbose", false)
	v.SetDefault("no_color", false)
	v.SetDefault("delay", 200*time.Millisecond)
	v.SetDefault("retries", 3)
	v.SetDefault("log_file", "")
}
