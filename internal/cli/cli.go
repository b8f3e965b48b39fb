package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/museum-events/internal/config"
	"github.com/pfrederiksen/museum-events/internal/logger"
)

const (
	ExitSuccess = 0
	ExitError   = 1
)

// globalOptions holds the persistent flags shared by every command
type globalOptions struct {
	configPath string
	dataDir    string
	verbose    bool
	logLevel   string
	logOut     io.Writer

	// now is replaced in tests
	now func() time.Time
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	return newRootCmd(time.Now)
}

func newRootCmd(now func() time.Time) *cobra.Command {
	opts := &globalOptions{now: now}

	cmd := &cobra.Command{
		Use:   "museum-events",
		Short: "Aggregate museum events into a single JSON feed",
		Long: `A CLI tool that collects event listings from museum sources (CSV exports,
HTML pages and JSON endpoints), normalizes dates, times and types, removes
duplicates and writes one chronologically sorted JSON feed.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setupLogger(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to YAML configuration file")
	cmd.PersistentFlags().StringVar(&opts.dataDir, "data-dir", "", "Data directory for health log (overrides config)")
	cmd.PersistentFlags().BoolVar(&opts.verbose, "verbose", false, "Enable verbose output and debug logging")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error")

	cmd.AddCommand(
		newAggregateCmd(opts),
		newListCmd(opts),
		newCalendarCmd(opts),
		newHealthCmd(opts),
		newNormalizeDateCmd(opts),
	)

	return cmd
}

func (o *globalOptions) setupLogger(cmd *cobra.Command) error {
	level := logger.LevelInfo
	if o.logLevel != "" {
		parsed, err := logger.ParseLevel(o.logLevel)
		if err != nil {
			return err
		}
		level = parsed
	}
	if o.verbose {
		level = logger.LevelDebug
	}

	o.logOut = cmd.ErrOrStderr()
	logger.SetDefault(logger.New(level, o.logOut))
	return nil
}

// loadConfig loads the configuration and applies flag overrides
func (o *globalOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if o.dataDir != "" {
		cfg.Output.DataDir = o.dataDir
	}
	if o.logOut != nil && o.logLevel == "" && !o.verbose && cfg.Logging.Level != "" {
		if level, err := logger.ParseLevel(cfg.Logging.Level); err == nil {
			logger.SetDefault(logger.New(level, o.logOut))
		}
	}
	return cfg, nil
}

// Execute runs the CLI
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitError)
	}
}
