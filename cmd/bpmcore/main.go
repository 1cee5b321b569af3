// Command bpmcore validates task contract inputs and executes data
// assignment operations from YAML definitions.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/hupe1980/bpmcore/internal/config"
	"github.com/hupe1980/bpmcore/logging"
)

var (
	// Global flags
	configPath string
	verbose    bool
	timeout    time.Duration

	cfg    *config.Config
	logger logging.Logger
)

// newRootCmd builds the base command with every subcommand attached.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "bpmcore",
		Short: "Contract validation and data assignment runtime",
		Long: `bpmcore validates the inputs submitted for a task against its contract
and executes the task's data assignment operations in three phases:
load the current values, execute every operation in order, commit one
write per target.

Stores default to memory. Point storage.dsn at sqlite or postgres and
external.redis_addr at a redis server to keep data between runs.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load(configPath)
			if err != nil {
				return err
			}
			if verbose {
				cfg.Logging.Level = "debug"
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}
			logger, err = newLogger(cfg.Logging)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if z, ok := logger.(*logging.ZapAdapter); ok {
				_ = z.Sync()
			}
		},
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "bpmcore.yaml", "Path to the YAML config file")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	root.PersistentFlags().DurationVar(&timeout, "timeout", time.Minute, "Command timeout")

	root.AddCommand(newValidateCmd())
	root.AddCommand(newExecuteCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger(c config.LoggingConfig) (logging.Logger, error) {
	level := logging.ParseLevel(c.Level)
	if c.Backend == "zap" {
		return logging.NewZapLogger(level, c.Format)
	}
	lc := logging.DefaultLoggerConfig()
	lc.Level = level
	lc.Format = c.Format
	lc.Output = os.Stderr
	lc.AddSource = false
	lc.Component = "bpmcore"
	return logging.NewLogger(lc), nil
}
