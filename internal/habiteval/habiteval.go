// Package habiteval records finance-linked habit outcomes from the ledger.
//
// Any change to a day's transactions re-evaluates the whole day from the
// stored transactions rather than applying a delta, so the recorded outcome
// is always what the current ledger says. Each habit keeps one outcome per
// day; re-evaluation overwrites it.
package habiteval

import (
	"context"
	"log/slog"

	"github.com/OybekDeveloper/leora/internal/bus"
	"github.com/OybekDeveloper/leora/internal/date"
	"github.com/OybekDeveloper/leora/internal/domain"
	"github.com/OybekDeveloper/leora/internal/store"
)

// Store is the persistence the evaluator needs.
type Store interface {
	WithWriteScope(ctx context.Context, fn func(ctx context.Context) error) error
	ListHabits(ctx context.Context, f store.HabitFilter) ([]domain.Habit, error)
	ListTransactions(ctx context.Context, f store.TransactionFilter) ([]domain.Transaction, error)
	UpsertHabitEntry(ctx context.Context, e domain.HabitEntry) error
}

// Publisher delivers follow-up events.
type Publisher interface {
	Publish(ctx context.Context, e bus.Event) (failed int)
}

// Evaluator re-evaluates habits whenever a day's transactions change.
type Evaluator struct {
	store Store
	bus   Publisher
}

func New(s Store, pub Publisher) *Evaluator {
	return &Evaluator{store: s, bus: pub}
}

// Subscribe registers the evaluator on b.
func (e *Evaluator) Subscribe(b *bus.Bus) (unsubscribe func()) {
	offs := []func(){
		bus.Subscribe(b, "habiteval.created", e.OnCreated),
		bus.Subscribe(b, "habiteval.updated", e.OnUpdated),
		bus.Subscribe(b, "habiteval.deleted", e.OnDeleted),
	}
	return func() {
		for _, off := range offs {
			off()
		}
	}
}

func (e *Evaluator) OnCreated(ctx context.Context, ev bus.TxCreated) error {
	_, err := e.EvaluateDay(ctx, ev.Transaction.Date)
	return err
}

// OnUpdated re-evaluates the old day and, when the date moved, the new one.
func (e *Evaluator) OnUpdated(ctx context.Context, ev bus.TxUpdated) error {
	if _, err := e.EvaluateDay(ctx, ev.Before.Date); err != nil {
		return err
	}
	if ev.After.Date == ev.Before.Date {
		return nil
	}
	_, err := e.EvaluateDay(ctx, ev.After.Date)
	return err
}

func (e *Evaluator) OnDeleted(ctx context.Context, ev bus.TxDeleted) error {
	_, err := e.EvaluateDay(ctx, ev.Transaction.Date)
	return err
}

// EvaluateDay evaluates every active finance-linked habit against the
// transactions stored for day and records one outcome per habit.
func (e *Evaluator) EvaluateDay(ctx context.Context, day date.Date) ([]domain.HabitEntry, error) {
	var (
		entries []domain.HabitEntry
		events  []bus.Event
	)
	err := e.store.WithWriteScope(ctx, func(ctx context.Context) error {
		habits, err := e.store.ListHabits(ctx, store.HabitFilter{ActiveOnly: true, FinanceLinked: true})
		if err != nil {
			return err
		}
		if len(habits) == 0 {
			return nil
		}
		txs, err := e.store.ListTransactions(ctx, store.TransactionFilter{Date: day})
		if err != nil {
			return err
		}
		for _, h := range habits {
			result, value := Evaluate(*h.Rule, txs)
			entry := domain.HabitEntry{HabitID: h.ID, Day: day, Outcome: result, Value: &value}
			if err := e.store.UpsertHabitEntry(ctx, entry); err != nil {
				return err
			}
			entries = append(entries, entry)
			events = append(events, bus.HabitDayEvaluated{
				HabitID:  h.ID,
				Date:     day,
				Result:   result,
				RuleType: h.Rule.Type,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, ev := range events {
		e.bus.Publish(ctx, ev)
	}
	slog.Debug("habits evaluated", "day", day, "habits", len(entries))
	return entries, nil
}
