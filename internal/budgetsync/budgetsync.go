// Package budgetsync keeps each budget's spent amount equal to the sum of the
// expense transactions tagged with it.
package budgetsync

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/OybekDeveloper/leora/internal/bus"
	"github.com/OybekDeveloper/leora/internal/domain"
	"github.com/OybekDeveloper/leora/internal/store"
)

// Store is the persistence the listener needs.
type Store interface {
	WithWriteScope(ctx context.Context, fn func(ctx context.Context) error) error
	GetBudget(ctx context.Context, id string) (domain.Budget, error)
	UpdateBudget(ctx context.Context, b domain.Budget) error
	ListTransactions(ctx context.Context, f store.TransactionFilter) ([]domain.Transaction, error)
}

// Publisher delivers follow-up events.
type Publisher interface {
	Publish(ctx context.Context, e bus.Event) (failed int)
}

type Listener struct {
	store Store
	bus   Publisher
}

func New(s Store, pub Publisher) *Listener {
	return &Listener{store: s, bus: pub}
}

// Subscribe registers the listener on b.
func (l *Listener) Subscribe(b *bus.Bus) (unsubscribe func()) {
	offs := []func(){
		bus.Subscribe(b, "budgetsync.created", l.OnCreated),
		bus.Subscribe(b, "budgetsync.updated", l.OnUpdated),
		bus.Subscribe(b, "budgetsync.deleted", l.OnDeleted),
	}
	return func() {
		for _, off := range offs {
			off()
		}
	}
}

func (l *Listener) OnCreated(ctx context.Context, ev bus.TxCreated) error {
	return l.Recompute(ctx, ev.Transaction.BudgetID, ev.Transaction.ID)
}

// OnUpdated recomputes the old budget and, when the tag moved, the new one.
func (l *Listener) OnUpdated(ctx context.Context, ev bus.TxUpdated) error {
	if err := l.Recompute(ctx, ev.Before.BudgetID, ev.After.ID); err != nil {
		return err
	}
	if ev.After.BudgetID == ev.Before.BudgetID {
		return nil
	}
	return l.Recompute(ctx, ev.After.BudgetID, ev.After.ID)
}

func (l *Listener) OnDeleted(ctx context.Context, ev bus.TxDeleted) error {
	return l.Recompute(ctx, ev.Transaction.BudgetID, ev.Transaction.ID)
}

// Recompute rescans the budget's expenses and stores the new total. It
// publishes finance.budget.spending_changed only when the total moved.
// Expenses in a currency other than the budget's are left out.
func (l *Listener) Recompute(ctx context.Context, budgetID, txID string) error {
	if budgetID == "" {
		return nil
	}
	var changed *bus.BudgetSpendingChanged
	err := l.store.WithWriteScope(ctx, func(ctx context.Context) error {
		b, err := l.store.GetBudget(ctx, budgetID)
		if err != nil {
			return err
		}
		txs, err := l.store.ListTransactions(ctx, store.TransactionFilter{
			BudgetID: budgetID,
			Type:     domain.TxExpense,
		})
		if err != nil {
			return err
		}
		sum := decimal.Zero
		for _, tx := range txs {
			if tx.Amount.Currency() == b.Limit.Currency() {
				sum = sum.Add(tx.Amount.Decimal().Abs())
			}
		}
		if sum.Equal(b.Spent.Decimal()) {
			return nil
		}
		b.Spent = b.Limit.WithValue(sum)
		if err := l.store.UpdateBudget(ctx, b); err != nil {
			return err
		}
		changed = &bus.BudgetSpendingChanged{BudgetID: b.ID, Spent: b.Spent, TransactionID: txID}
		return nil
	})
	if errors.Is(err, domain.ErrNotFound) {
		slog.Warn("budget not found, dropping event", "budget", budgetID, "tx", txID)
		return nil
	}
	if err != nil {
		return err
	}
	if changed != nil {
		slog.Debug("budget spending changed", "budget", budgetID, "spent", changed.Spent)
		l.bus.Publish(ctx, *changed)
	}
	return nil
}
