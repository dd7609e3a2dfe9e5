package harness

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/OybekDeveloper/leora/internal/app"
	"github.com/OybekDeveloper/leora/internal/bus"
	"github.com/OybekDeveloper/leora/internal/config"
	"github.com/OybekDeveloper/leora/internal/date"
	"github.com/OybekDeveloper/leora/internal/fixture"
	"github.com/OybekDeveloper/leora/internal/ident"
	"github.com/OybekDeveloper/leora/internal/scheduler"
	"github.com/OybekDeveloper/leora/internal/testutil"
)

// Harness holds the wired app of one scenario run.
type Harness struct {
	app   *app.App
	clock *testutil.Clock

	// processed holds the processor result of each process step, keyed by
	// 1-based step index.
	processed map[int]scheduler.Result
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database. The returned error is
// reserved for setup failures (store, seed); step and assertion failures
// are reported in the result.
//
// Execution flow:
//  1. Wire an app on an in-memory store with a fixed clock and IDs
//  2. Apply the seed
//  3. Run the steps, tagging every published event with its step
//  4. Evaluate assertions against the final state and the trace
func Run(scenario *Scenario) (*Result, error) {
	today, err := date.Parse(scenario.Today)
	if err != nil {
		return nil, fmt.Errorf("today: %w", err)
	}
	clock := testutil.NewClock(today)

	a, err := app.New(config.Config{DB: ":memory:", Timezone: "UTC"},
		app.WithClock(clock),
		app.WithIDs(ident.NewSequence("id")),
		app.WithRecorder(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create app: %w", err)
	}
	defer a.Close()

	h := &Harness{app: a, clock: clock, processed: make(map[int]scheduler.Result)}
	ctx := context.Background()

	if err := scenario.Seed.Apply(ctx, a); err != nil {
		return nil, fmt.Errorf("failed to apply seed: %w", err)
	}
	a.Events.Reset()

	result := NewResult()
	seen := 0
	for i, step := range scenario.Steps {
		n := i + 1
		if err := h.executeStep(ctx, n, step); err != nil {
			result.AddError(fmt.Sprintf("steps[%d]: %v", i, err))
		}
		events := a.Events.Events()
		for _, e := range events[seen:] {
			result.Trace = append(result.Trace, TraceEvent{
				Seq:    len(result.Trace) + 1,
				Step:   n,
				Topic:  string(e.Topic()),
				Fields: describe(e),
			})
		}
		seen = len(events)
	}

	actx := &AssertionContext{App: a, Processed: h.processed, Ctx: ctx}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}
	return result, nil
}

func (h *Harness) executeStep(ctx context.Context, n int, step Step) error {
	switch {
	case step.Today != "":
		d, err := date.Parse(step.Today)
		if err != nil {
			return err
		}
		h.clock.Set(d)

	case step.CreateTx != nil:
		seed := fixture.Seed{Transactions: []fixture.Transaction{*step.CreateTx}}
		return seed.Apply(ctx, h.app)

	case step.DeleteTx != "":
		return h.app.Ledger.Delete(ctx, step.DeleteTx)

	case step.Process:
		res, err := h.app.Processor.ProcessScheduledTransactions(ctx)
		if err != nil {
			return err
		}
		h.processed[n] = res

	case step.EvaluateHabits != "":
		d, err := date.Parse(step.EvaluateHabits)
		if err != nil {
			return err
		}
		_, err = h.app.Habits.EvaluateDay(ctx, d)
		return err
	}
	slog.Debug("scenario step done", "step", n)
	return nil
}

// describe flattens an event into the string fields the trace records.
// Empty fields are left out so traces stay short.
func describe(e bus.Event) map[string]string {
	f := fields{}
	switch ev := e.(type) {
	case bus.TxCreated:
		tx := ev.Transaction
		f.set("tx", tx.ID)
		f.set("type", string(tx.Type))
		f.set("amount", tx.Amount.Decimal().String())
		f.set("currency", tx.Amount.Currency())
		f.set("date", tx.Date.String())
		f.set("debt", tx.DebtID)
		f.set("budget", tx.BudgetID)
		f.set("schedule", tx.ScheduleID)
	case bus.TxUpdated:
		f.set("tx", ev.After.ID)
		f.set("before_date", ev.Before.Date.String())
		f.set("after_date", ev.After.Date.String())
		f.set("before_amount", ev.Before.Amount.Decimal().String())
		f.set("after_amount", ev.After.Amount.Decimal().String())
	case bus.TxDeleted:
		tx := ev.Transaction
		f.set("tx", tx.ID)
		f.set("date", tx.Date.String())
		f.set("debt", tx.DebtID)
		f.set("budget", tx.BudgetID)
	case bus.DebtPaymentAdded:
		f.set("debt", ev.DebtID)
		f.set("payment", ev.Payment.ID)
		f.set("amount", ev.Payment.Amount.Decimal().String())
	case bus.DebtStatusChanged:
		f.set("debt", ev.DebtID)
		f.set("from", string(ev.From))
		f.set("to", string(ev.To))
		f.set("tx", ev.TransactionID)
	case bus.DebtSynced:
		f.set("debt", ev.DebtID)
		f.set("tx", ev.TransactionID)
		f.set("applied", ev.Applied.Decimal().String())
		f.set("remaining", ev.Remaining.Decimal().String())
		f.set("status", string(ev.Status))
	case bus.DebtSyncReversed:
		f.set("debt", ev.DebtID)
		f.set("tx", ev.TransactionID)
		f.set("restored", ev.Restored.Decimal().String())
		f.set("remaining", ev.Remaining.Decimal().String())
		f.set("status", string(ev.Status))
	case bus.BudgetSpendingChanged:
		f.set("budget", ev.BudgetID)
		f.set("spent", ev.Spent.Decimal().String())
		f.set("tx", ev.TransactionID)
	case bus.RecurringFired:
		f.set("schedule", ev.ScheduleID)
		f.set("tx", ev.TransactionID)
		f.set("occurrence", ev.Occurrence.String())
		f.set("next", ev.NextOccurrence.String())
	case bus.HabitDayEvaluated:
		f.set("habit", ev.HabitID)
		f.set("date", ev.Date.String())
		f.set("result", string(ev.Result))
		f.set("rule", string(ev.RuleType))
	case bus.TaskAutoCompleted:
		f.set("task", ev.TaskID)
		f.set("link", string(ev.FinanceLink))
		f.set("tx", ev.TransactionID)
	}
	return f
}

type fields map[string]string

func (f fields) set(k, v string) {
	if v != "" {
		f[k] = v
	}
}
