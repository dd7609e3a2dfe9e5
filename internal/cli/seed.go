package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/OybekDeveloper/leora/internal/fixture"
)

// SeedResult counts what a seed file inserted.
type SeedResult struct {
	File         string `json:"file"`
	DryRun       bool   `json:"dry_run,omitempty"`
	Accounts     int    `json:"accounts"`
	Debts        int    `json:"debts"`
	Budgets      int    `json:"budgets"`
	Goals        int    `json:"goals"`
	Tasks        int    `json:"tasks"`
	Habits       int    `json:"habits"`
	Schedules    int    `json:"schedules"`
	Transactions int    `json:"transactions"`
}

// SeedErrorDetails locates a schema violation in the seed file.
type SeedErrorDetails struct {
	File   string `json:"file"`
	Line   int    `json:"line,omitempty"`
	Column int    `json:"column,omitempty"`
}

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "seed <file.cue>",
		Short: "Load seed data from a CUE file",
		Long: `Validate a CUE seed file against the seed schema and insert it.

Accounts, debts, budgets, goals, tasks and habits are inserted as written.
Schedules go through the schedule service and transactions through the
ledger, so debts, budgets, habits and tasks react to them.

Use --dry-run to validate without touching the database.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(rootOpts, args[0], dryRun, cmd)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate only")
	return cmd
}

func runSeed(opts *RootOptions, path string, dryRun bool, cmd *cobra.Command) error {
	out := formatter(opts, cmd)

	seed, err := fixture.Load(path)
	if err != nil {
		details := SeedErrorDetails{File: path}
		var fe *fixture.Error
		if errors.As(err, &fe) && fe.Pos.IsValid() {
			details.Line = fe.Pos.Line()
			details.Column = fe.Pos.Column()
		}
		if outErr := out.Error("E_SEED", err.Error(), details); outErr != nil {
			return outErr
		}
		return WrapExitError(ExitCommandError, "invalid seed", err)
	}

	result := SeedResult{
		File:         path,
		DryRun:       dryRun,
		Accounts:     len(seed.Accounts),
		Debts:        len(seed.Debts),
		Budgets:      len(seed.Budgets),
		Goals:        len(seed.Goals),
		Tasks:        len(seed.Tasks),
		Habits:       len(seed.Habits),
		Schedules:    len(seed.Schedules),
		Transactions: len(seed.Transactions),
	}

	if !dryRun {
		a, err := openApp(opts)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := seed.Apply(cmd.Context(), a); err != nil {
			return fmt.Errorf("apply seed: %w", err)
		}
	}

	return out.Success(result, func(w io.Writer) {
		verb := "Seeded"
		if dryRun {
			verb = "Valid"
		}
		fmt.Fprintf(w, "%s %s: %d accounts, %d debts, %d budgets, %d goals, %d tasks, %d habits, %d schedules, %d transactions\n",
			verb, path, result.Accounts, result.Debts, result.Budgets, result.Goals,
			result.Tasks, result.Habits, result.Schedules, result.Transactions)
	})
}
