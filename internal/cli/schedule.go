package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/OybekDeveloper/leora/internal/app"
	"github.com/OybekDeveloper/leora/internal/date"
	"github.com/OybekDeveloper/leora/internal/domain"
	"github.com/OybekDeveloper/leora/internal/fixture"
	"github.com/OybekDeveloper/leora/internal/store"
)

// ScheduleAddOptions holds flags for schedule add.
type ScheduleAddOptions struct {
	*RootOptions
	Record fixture.Schedule
}

// NewScheduleCommand creates the schedule command group.
func NewScheduleCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Manage recurring transactions",
	}
	cmd.AddCommand(
		newScheduleAddCommand(rootOpts),
		newScheduleListCommand(rootOpts),
		newScheduleStateCommand(rootOpts, "pause", "Stop a schedule from firing", pauseSchedule),
		newScheduleStateCommand(rootOpts, "resume", "Let a paused schedule fire again", resumeSchedule),
		newScheduleSkipCommand(rootOpts),
		newScheduleDeleteCommand(rootOpts),
	)
	return cmd
}

func newScheduleAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ScheduleAddOptions{RootOptions: rootOpts}
	r := &opts.Record

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a recurring schedule",
		Long: `Create a recurring schedule.

The amount is in the account's currency. The first occurrence is the first
matching day on or after the start date, which defaults to today.

Examples:
  leora schedule add --account card --amount 900 --pattern monthly --day-of-month 31
  leora schedule add --account cash --type income --amount 50 --pattern weekly --days-of-week 1,4`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScheduleAdd(opts, cmd)
		},
	}

	f := cmd.Flags()
	f.StringVar(&r.AccountID, "account", "", "account ID (required)")
	f.StringVar(&r.Type, "type", "expense", "transaction type (income|expense|transfer)")
	f.StringVar(&r.Amount, "amount", "", "amount per occurrence (required)")
	f.StringVar(&r.Pattern, "pattern", "monthly", "daily|weekly|biweekly|monthly|quarterly|yearly")
	f.IntVar(&r.Interval, "interval", 1, "every N periods")
	f.IntSliceVar(&r.DaysOfWeek, "days-of-week", nil, "weekdays for weekly patterns (0=Sunday)")
	f.IntVar(&r.DayOfMonth, "day-of-month", 0, "anchor day for monthly patterns")
	f.StringVar(&r.StartDate, "start", "", "first day the schedule may fire (default today)")
	f.StringVar(&r.EndDate, "end", "", "last day the schedule may fire")
	f.StringVar(&r.CategoryID, "category", "", "category ID")
	f.StringVar(&r.Description, "description", "", "description")
	f.StringVar(&r.DebtID, "debt", "", "debt the transactions pay")
	f.StringVar(&r.BudgetID, "budget", "", "budget the transactions count against")
	_ = cmd.MarkFlagRequired("account")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func runScheduleAdd(opts *ScheduleAddOptions, cmd *cobra.Command) error {
	a, err := openApp(opts.RootOptions)
	if err != nil {
		return err
	}
	defer a.Close()

	r := opts.Record
	if r.StartDate == "" {
		r.StartDate = a.Clock().Today().String()
	}
	checked, err := fixture.Seed{Schedules: []fixture.Schedule{r}}.Check()
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid schedule", err)
	}

	sc, err := checked.Schedules[0].Create(cmd.Context(), a)
	if err != nil {
		return fmt.Errorf("create schedule: %w", err)
	}
	return printSchedule(opts.RootOptions, cmd, sc)
}

func newScheduleListCommand(rootOpts *RootOptions) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:           "list",
		Short:         "List schedules",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(rootOpts)
			if err != nil {
				return err
			}
			defer a.Close()

			schedules, err := a.Schedules.List(cmd.Context(), store.ScheduleFilter{ActiveOnly: !all})
			if err != nil {
				return fmt.Errorf("list schedules: %w", err)
			}
			if schedules == nil {
				schedules = []domain.Schedule{}
			}
			return formatter(rootOpts, cmd).Success(schedules, func(w io.Writer) {
				if len(schedules) == 0 {
					fmt.Fprintln(w, "No schedules.")
					return
				}
				writeScheduleTable(w, schedules)
			})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "include ended schedules")
	return cmd
}

type scheduleAction func(ctx context.Context, a *app.App, id string) (domain.Schedule, error)

func pauseSchedule(ctx context.Context, a *app.App, id string) (domain.Schedule, error) {
	return a.Schedules.Pause(ctx, id)
}

func resumeSchedule(ctx context.Context, a *app.App, id string) (domain.Schedule, error) {
	return a.Schedules.Resume(ctx, id)
}

func newScheduleStateCommand(rootOpts *RootOptions, use, short string, action scheduleAction) *cobra.Command {
	return &cobra.Command{
		Use:           use + " <schedule-id>",
		Short:         short,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(rootOpts)
			if err != nil {
				return err
			}
			defer a.Close()

			sc, err := action(cmd.Context(), a, args[0])
			if err != nil {
				return fmt.Errorf("%s schedule %s: %w", use, args[0], err)
			}
			return printSchedule(rootOpts, cmd, sc)
		},
	}
}

func newScheduleSkipCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "skip <schedule-id> <date>",
		Short: "Skip one occurrence",
		Long: `Skip one occurrence of a schedule.

When the skipped date is the next occurrence, the schedule moves on to the
following one.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := date.Parse(args[1])
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid date", err)
			}
			a, err := openApp(rootOpts)
			if err != nil {
				return err
			}
			defer a.Close()

			sc, err := a.Schedules.SkipOccurrence(cmd.Context(), args[0], day)
			if err != nil {
				return fmt.Errorf("skip %s on %s: %w", args[0], day, err)
			}
			return printSchedule(rootOpts, cmd, sc)
		},
	}
}

func newScheduleDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	var cascade bool
	cmd := &cobra.Command{
		Use:           "delete <schedule-id>",
		Short:         "Delete a schedule",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(rootOpts)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Schedules.Delete(cmd.Context(), args[0], cascade); err != nil {
				return fmt.Errorf("delete schedule %s: %w", args[0], err)
			}
			out := map[string]any{"deleted": args[0], "cascade": cascade}
			return formatter(rootOpts, cmd).Success(out, func(w io.Writer) {
				fmt.Fprintf(w, "Deleted schedule %s\n", args[0])
			})
		},
	}
	cmd.Flags().BoolVar(&cascade, "cascade", false, "also delete the transactions it created")
	return cmd
}

func printSchedule(opts *RootOptions, cmd *cobra.Command, sc domain.Schedule) error {
	return formatter(opts, cmd).Success(sc, func(w io.Writer) {
		writeScheduleTable(w, []domain.Schedule{sc})
	})
}

func writeScheduleTable(w io.Writer, schedules []domain.Schedule) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tACCOUNT\tTYPE\tAMOUNT\tPATTERN\tNEXT\tSTATE")
	for _, sc := range schedules {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			sc.ID, sc.AccountID, sc.Type, sc.Amount, sc.Pattern, sc.NextOccurrence, scheduleState(sc))
	}
	tw.Flush()
}

func scheduleState(sc domain.Schedule) string {
	switch {
	case !sc.IsActive:
		return "ended"
	case sc.IsPaused:
		return "paused"
	}
	return "active"
}
