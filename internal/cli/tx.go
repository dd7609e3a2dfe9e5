package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/OybekDeveloper/leora/internal/fixture"
)

// TxAddOptions holds flags for tx add.
type TxAddOptions struct {
	*RootOptions
	Record fixture.Transaction
}

// NewTxCommand creates the tx command group.
func NewTxCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tx",
		Short: "Record and delete ledger transactions",
	}
	cmd.AddCommand(newTxAddCommand(rootOpts), newTxDeleteCommand(rootOpts))
	return cmd
}

func newTxAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TxAddOptions{RootOptions: rootOpts}
	r := &opts.Record

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a transaction",
		Long: `Record a transaction in the ledger.

Tagging it with --debt applies it as a payment; tagging it with --budget
counts it against the budget. Habits and finance-linked tasks are
re-evaluated as usual.

Example:
  leora tx add --account card --amount 30 --debt loan-ali`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTxAdd(opts, cmd)
		},
	}

	f := cmd.Flags()
	f.StringVar(&r.AccountID, "account", "", "account ID (required)")
	f.StringVar(&r.Type, "type", "expense", "transaction type (income|expense|transfer)")
	f.StringVar(&r.Amount, "amount", "", "amount in the account's currency (required)")
	f.StringVar(&r.Date, "date", "", "booking day (default today)")
	f.StringVar(&r.CategoryID, "category", "", "category ID")
	f.StringVar(&r.Description, "description", "", "description")
	f.StringVar(&r.DebtID, "debt", "", "debt this transaction pays")
	f.StringVar(&r.BudgetID, "budget", "", "budget this transaction counts against")
	_ = cmd.MarkFlagRequired("account")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func runTxAdd(opts *TxAddOptions, cmd *cobra.Command) error {
	a, err := openApp(opts.RootOptions)
	if err != nil {
		return err
	}
	defer a.Close()

	r := opts.Record
	if r.Date == "" {
		r.Date = a.Clock().Today().String()
	}
	checked, err := fixture.Seed{Transactions: []fixture.Transaction{r}}.Check()
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid transaction", err)
	}

	tx, err := checked.Transactions[0].Create(cmd.Context(), a)
	if err != nil {
		return fmt.Errorf("create transaction: %w", err)
	}
	return formatter(opts.RootOptions, cmd).Success(tx, func(w io.Writer) {
		fmt.Fprintf(w, "Recorded %s %s %s on %s\n", tx.ID, tx.Type, tx.Amount, tx.Date)
	})
}

func newTxDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <transaction-id>",
		Short: "Delete a transaction",
		Long: `Delete a transaction from the ledger.

A debt payment is reversed, budget spending and habit outcomes are
recomputed. Tasks completed by the transaction stay completed.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(rootOpts)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Ledger.Delete(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("delete transaction %s: %w", args[0], err)
			}
			return formatter(rootOpts, cmd).Success(map[string]string{"deleted": args[0]}, func(w io.Writer) {
				fmt.Fprintf(w, "Deleted transaction %s\n", args[0])
			})
		},
	}
}
