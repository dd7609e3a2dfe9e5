package cli

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/OybekDeveloper/leora/internal/app"
	"github.com/OybekDeveloper/leora/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose  bool
	Format   string // "json" | "text"
	DB       string // overrides LEORA_DB
	Timezone string // overrides LEORA_TIMEZONE

	// AppOptions are passed to app.New by every command that opens the
	// database. Tests use them to pin the clock and IDs.
	AppOptions []app.Option
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the leora CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "leora",
		Short: "Leora - personal finance and planner engine",
		Long: `Leora keeps a ledger, recurring transactions, debts, budgets, habits and
tasks in one SQLite database. Every ledger change is published on an event
bus, and listeners keep debts, budgets, habit outcomes and finance-linked
tasks in step with it.`,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return setupLogging(opts, cmd)
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.DB, "db", "", "SQLite database path (default $LEORA_DB or leora.db)")
	cmd.PersistentFlags().StringVar(&opts.Timezone, "timezone", "", "IANA timezone for today (default $LEORA_TIMEZONE or Local)")

	cmd.AddCommand(NewProcessCommand(opts))
	cmd.AddCommand(NewScheduleCommand(opts))
	cmd.AddCommand(NewTxCommand(opts))
	cmd.AddCommand(NewHabitsCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// setupLogging installs a text handler on stderr. --verbose forces debug,
// otherwise LEORA_LOG_LEVEL decides.
func setupLogging(opts *RootOptions, cmd *cobra.Command) error {
	level := slog.LevelDebug
	if !opts.Verbose {
		cfg, err := config.Load()
		if err != nil {
			return WrapExitError(ExitCommandError, "load config", err)
		}
		level = cfg.LogLevel
	}
	handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
	return nil
}

// config resolves the configuration: environment first, flags on top.
func (o *RootOptions) config() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	if o.DB != "" {
		cfg.DB = o.DB
	}
	if o.Timezone != "" {
		cfg.Timezone = o.Timezone
	}
	return cfg, nil
}

// openApp opens the configured database and wires the listeners. Failures
// here are command errors.
func openApp(opts *RootOptions) (*app.App, error) {
	cfg, err := opts.config()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "load config", err)
	}
	a, err := app.New(cfg, opts.AppOptions...)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "open database", err)
	}
	return a, nil
}

// formatter builds the output formatter for a command.
func formatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
}
