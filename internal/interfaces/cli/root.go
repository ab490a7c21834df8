// Package cli implements the submap command line: batch matching of
// delimited files and vocabulary inspection, sharing the configuration and
// matching pipeline of the server.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/medcodelab/substance-mapper/internal/config"
	"github.com/medcodelab/substance-mapper/internal/infrastructure/monitoring/logging"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// RootOptions holds global CLI flags.
type RootOptions struct {
	ConfigPath string
	LogLevel   string
	Quiet      bool
}

// NewRootCommand creates the root command with global flags and subcommands.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "submap",
		Short: "submap maps free-text substance mentions to a reference vocabulary",
		Long: "submap maps free-text clinical substance mentions to canonical entries\n" +
			"of a reference vocabulary using fuzzy matching with deterministic\n" +
			"disambiguation, for both single values and whole delimited files.",
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.ConfigPath, "config", "c", "", "config file path")
	pf.StringVar(&opts.LogLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	pf.BoolVarP(&opts.Quiet, "quiet", "q", false, "suppress log output")

	cmd.AddCommand(
		NewMatchCmd(opts),
		NewVocabCmd(opts),
	)

	return cmd
}

// loadConfig loads the configuration file (or pure defaults when no file is
// given) and applies the global log flags.
func loadConfig(opts *RootOptions) (*config.Config, logging.Logger, error) {
	var (
		cfg *config.Config
		err error
	)
	if opts.ConfigPath != "" {
		cfg, err = config.Load(opts.ConfigPath)
	} else {
		cfg, err = config.LoadFromEnv()
	}
	if err != nil {
		return nil, nil, err
	}

	if opts.Quiet {
		return cfg, logging.NewNopLogger(), nil
	}
	log, err := logging.NewLogger(logging.LogConfig{
		Level:  opts.LogLevel,
		Format: "console",
	})
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
