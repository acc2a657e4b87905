package cli

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vietddude/resilience/internal/core/config"
	"github.com/vietddude/resilience/internal/core/logging"
)

// app carries global flags and the process logging state shared by every command.
type app struct {
	cfgPath string
	debug   bool
	logs    *logging.State
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	a := &app{logs: logging.NewState()}

	root := &cobra.Command{
		Use:   "resilient",
		Short: "Retry policy runtime",
		Long: `resilient runs operations under configured retry policies, exports retry metrics and
keeps a journal of executions that exhausted their retries.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&a.cfgPath, "config", "config.yaml", "config file (default is config.yaml)")
	root.PersistentFlags().BoolVar(&a.debug, "debug", false, "enable debug logging")

	root.AddCommand(
		a.serveCmd(),
		a.delaysCmd(),
		a.probeCmd(),
		a.journalCmd(),
	)
	return root
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads --config. A missing default file falls back to compiled-in defaults.
func (a *app) loadConfig(cmd *cobra.Command) (*config.AppConfig, error) {
	cfg, err := config.Load(a.cfgPath)
	if errors.Is(err, fs.ErrNotExist) && !cmd.Flags().Changed("config") {
		return config.Default(), nil
	}
	return cfg, err
}

func (a *app) initLogging(cmd *cobra.Command, cfg *config.AppConfig) *slog.Logger {
	opts := logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Debug:  a.debug,
	}
	if w := cmd.ErrOrStderr(); w != os.Stderr {
		opts.Output = w
	}
	return a.logs.Init(opts)
}
