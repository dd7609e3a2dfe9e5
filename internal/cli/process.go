package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// ProcessResult is the payload of the process command.
type ProcessResult struct {
	Today     string `json:"today"`
	Processed int    `json:"processed"`
	Failed    int    `json:"failed"`
	Skipped   int    `json:"skipped"`
}

// NewProcessCommand creates the process command.
func NewProcessCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "process",
		Short: "Turn due recurring schedules into transactions",
		Long: `Run the schedule processor once for today.

Each due schedule creates at most one transaction per run. A second run on
the same day does nothing.

Exit codes:
  0 - Run completed (or was already done today)
  1 - One or more schedules failed
  2 - Command error (database cannot be opened, etc.)`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProcess(rootOpts, cmd)
		},
	}
}

func runProcess(opts *RootOptions, cmd *cobra.Command) error {
	a, err := openApp(opts)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.Processor.ProcessScheduledTransactions(cmd.Context())
	if err != nil {
		return fmt.Errorf("process schedules: %w", err)
	}

	out := ProcessResult{
		Today:     a.Clock().Today().String(),
		Processed: res.Processed,
		Failed:    res.Failed,
		Skipped:   res.Skipped,
	}
	if err := formatter(opts, cmd).Success(out, func(w io.Writer) {
		fmt.Fprintf(w, "Processed %s: %d created, %d failed, %d skipped\n",
			out.Today, out.Processed, out.Failed, out.Skipped)
	}); err != nil {
		return err
	}

	if res.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d schedule(s) failed", res.Failed))
	}
	return nil
}
