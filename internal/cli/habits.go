package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/OybekDeveloper/leora/internal/date"
	"github.com/OybekDeveloper/leora/internal/domain"
)

// NewHabitsCommand creates the habits command group.
func NewHabitsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "habits",
		Short: "Finance-linked habits",
	}
	cmd.AddCommand(newHabitsEvaluateCommand(rootOpts))
	return cmd
}

func newHabitsEvaluateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "evaluate [date]",
		Short: "Re-evaluate finance-linked habits for a day",
		Long: `Re-evaluate every active finance-linked habit against the transactions
booked on a day (default today) and store one outcome per habit.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var day date.Date
			if len(args) == 1 {
				d, err := date.Parse(args[0])
				if err != nil {
					return WrapExitError(ExitCommandError, "invalid date", err)
				}
				day = d
			}

			a, err := openApp(rootOpts)
			if err != nil {
				return err
			}
			defer a.Close()

			if day.IsZero() {
				day = a.Clock().Today()
			}
			entries, err := a.Habits.EvaluateDay(cmd.Context(), day)
			if err != nil {
				return fmt.Errorf("evaluate habits on %s: %w", day, err)
			}
			if entries == nil {
				entries = []domain.HabitEntry{}
			}
			return formatter(rootOpts, cmd).Success(entries, func(w io.Writer) {
				if len(entries) == 0 {
					fmt.Fprintf(w, "No finance-linked habits to evaluate on %s.\n", day)
					return
				}
				tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "HABIT\tDATE\tOUTCOME\tVALUE")
				for _, e := range entries {
					value := ""
					if e.Value != nil {
						value = e.Value.String()
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.HabitID, e.Day, e.Outcome, value)
				}
				tw.Flush()
			})
		},
	}
}
