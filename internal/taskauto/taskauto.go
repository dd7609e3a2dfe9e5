// Package taskauto completes finance-linked planner tasks when the ledger
// reports the financial event they were waiting for.
//
// Completion is one-way. Tasks that are not open are filtered out before any
// predicate runs and are reloaded inside the write scope, so a task that was
// completed by an earlier event (or by the user) is never touched again.
package taskauto

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/OybekDeveloper/leora/internal/bus"
	"github.com/OybekDeveloper/leora/internal/domain"
	"github.com/OybekDeveloper/leora/internal/store"
)

// Store is the persistence the listener needs.
type Store interface {
	WithWriteScope(ctx context.Context, fn func(ctx context.Context) error) error
	ListTasks(ctx context.Context, f store.TaskFilter) ([]domain.Task, error)
	GetTask(ctx context.Context, id string) (domain.Task, error)
	UpdateTask(ctx context.Context, t domain.Task) error
	GetGoal(ctx context.Context, id string) (domain.Goal, error)
}

// Publisher delivers follow-up events.
type Publisher interface {
	Publish(ctx context.Context, e bus.Event) (failed int)
}

// Clock stamps completion times.
type Clock interface {
	Now() time.Time
}

// trigger is the part of an incoming event the predicates look at.
type trigger struct {
	txID     string
	debtID   string
	budgetID string
	expense  bool
	transfer bool
}

type Listener struct {
	store Store
	bus   Publisher
	clock Clock
}

func New(s Store, pub Publisher, clock Clock) *Listener {
	return &Listener{store: s, bus: pub, clock: clock}
}

// Subscribe registers the listener on b.
func (l *Listener) Subscribe(b *bus.Bus) (unsubscribe func()) {
	offs := []func(){
		bus.Subscribe(b, "taskauto.tx_created", l.OnTxCreated),
		bus.Subscribe(b, "taskauto.debt_payment", l.OnDebtPayment),
		bus.Subscribe(b, "taskauto.budget_spending", l.OnBudgetSpending),
		bus.Subscribe(b, "taskauto.debt_status", l.OnDebtStatus),
	}
	return func() {
		for _, off := range offs {
			off()
		}
	}
}

func (l *Listener) OnTxCreated(ctx context.Context, ev bus.TxCreated) error {
	tx := ev.Transaction
	return l.handle(ctx, trigger{
		txID:     tx.ID,
		debtID:   tx.DebtID,
		budgetID: tx.BudgetID,
		expense:  tx.IsExpense(),
		transfer: tx.IsTransfer(),
	})
}

func (l *Listener) OnDebtPayment(ctx context.Context, ev bus.DebtPaymentAdded) error {
	return l.handle(ctx, trigger{txID: ev.Payment.ID, debtID: ev.DebtID})
}

func (l *Listener) OnBudgetSpending(ctx context.Context, ev bus.BudgetSpendingChanged) error {
	return l.handle(ctx, trigger{txID: ev.TransactionID, budgetID: ev.BudgetID})
}

// OnDebtStatus only reacts to a debt becoming paid.
func (l *Listener) OnDebtStatus(ctx context.Context, ev bus.DebtStatusChanged) error {
	if ev.To != domain.DebtPaid {
		return nil
	}
	return l.handle(ctx, trigger{txID: ev.TransactionID, debtID: ev.DebtID})
}

func (l *Listener) handle(ctx context.Context, tr trigger) error {
	tasks, err := l.store.ListTasks(ctx, store.TaskFilter{Open: true, Linked: true})
	if err != nil {
		return err
	}

	var events []bus.Event
	for _, t := range tasks {
		ok, err := l.matches(ctx, t, tr)
		if err != nil {
			slog.Warn("task match failed", "task", t.ID, "error", err)
			continue
		}
		if !ok {
			continue
		}
		ev, err := l.complete(ctx, t.ID, tr.txID)
		if err != nil {
			slog.Warn("task completion failed", "task", t.ID, "error", err)
			continue
		}
		if ev != nil {
			events = append(events, *ev)
		}
	}

	for _, ev := range events {
		l.bus.Publish(ctx, ev)
	}
	return nil
}

func (l *Listener) matches(ctx context.Context, t domain.Task, tr trigger) (bool, error) {
	switch t.FinanceLink {
	case domain.LinkRecordExpenses:
		return tr.expense, nil
	case domain.LinkTransferMoney:
		return tr.transfer, nil
	case domain.LinkPayDebt:
		if tr.debtID == "" {
			return false, nil
		}
		goal, err := l.goal(ctx, t)
		if err != nil {
			return false, err
		}
		return goal.LinkedDebtID == "" || goal.LinkedDebtID == tr.debtID, nil
	case domain.LinkReviewBudget:
		if tr.budgetID == "" {
			return false, nil
		}
		goal, err := l.goal(ctx, t)
		if err != nil {
			return false, err
		}
		return goal.LinkedBudgetID == "" || goal.LinkedBudgetID == tr.budgetID, nil
	}
	return false, nil
}

// goal returns the task's goal, or a zero goal when the task has none or the
// goal no longer exists.
func (l *Listener) goal(ctx context.Context, t domain.Task) (domain.Goal, error) {
	if t.GoalID == "" {
		return domain.Goal{}, nil
	}
	g, err := l.store.GetGoal(ctx, t.GoalID)
	if errors.Is(err, domain.ErrNotFound) {
		slog.Debug("task goal missing", "task", t.ID, "goal", t.GoalID)
		return domain.Goal{}, nil
	}
	return g, err
}

// complete marks the task completed unless it stopped being open since it
// was listed. It returns nil when nothing changed.
func (l *Listener) complete(ctx context.Context, taskID, txID string) (*bus.TaskAutoCompleted, error) {
	var ev *bus.TaskAutoCompleted
	err := l.store.WithWriteScope(ctx, func(ctx context.Context) error {
		t, err := l.store.GetTask(ctx, taskID)
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if !t.IsOpen() {
			return nil
		}
		now := l.clock.Now().UTC()
		t.Status = domain.TaskCompleted
		t.CompletedAt = &now
		if err := l.store.UpdateTask(ctx, t); err != nil {
			return err
		}
		ev = &bus.TaskAutoCompleted{
			TaskID:        t.ID,
			FinanceLink:   t.FinanceLink,
			TransactionID: txID,
			CompletedAt:   now,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if ev != nil {
		slog.Info("task auto-completed", "task", ev.TaskID, "link", ev.FinanceLink, "tx", txID)
	}
	return ev, nil
}
