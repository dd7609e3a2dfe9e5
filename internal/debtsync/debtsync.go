// Package debtsync keeps debt balances in step with debt-tagged ledger
// transactions.
//
// A created transaction lowers its debt's remaining amount; deleting it
// puts back exactly what was taken off. The amount applied is recorded per
// transaction in debt_syncs, so a payment clamped at zero reverses to the
// same balance it started from, and a redelivered creation event changes
// nothing.
package debtsync

import (
	"context"
	"errors"
	"log/slog"

	"github.com/OybekDeveloper/leora/internal/bus"
	"github.com/OybekDeveloper/leora/internal/domain"
)

// Store is the persistence the listener needs.
type Store interface {
	WithWriteScope(ctx context.Context, fn func(ctx context.Context) error) error
	GetDebt(ctx context.Context, id string) (domain.Debt, error)
	UpdateDebt(ctx context.Context, d domain.Debt) error
	RecordDebtSync(ctx context.Context, ds domain.DebtSync) (inserted bool, err error)
	GetDebtSync(ctx context.Context, transactionID string) (domain.DebtSync, error)
	PriorDebtStatus(ctx context.Context, debtID string) (domain.DebtStatus, error)
	DeleteDebtSync(ctx context.Context, transactionID string) error
}

// Publisher delivers follow-up events.
type Publisher interface {
	Publish(ctx context.Context, e bus.Event) (failed int)
}

// Listener reconciles debts on finance.tx.created and finance.tx.deleted.
type Listener struct {
	store Store
	bus   Publisher
}

func New(s Store, pub Publisher) *Listener {
	return &Listener{store: s, bus: pub}
}

// Subscribe registers the listener on b.
func (l *Listener) Subscribe(b *bus.Bus) (unsubscribe func()) {
	offCreated := bus.Subscribe(b, "debtsync.created", l.OnCreated)
	offDeleted := bus.Subscribe(b, "debtsync.deleted", l.OnDeleted)
	return func() {
		offCreated()
		offDeleted()
	}
}

// OnCreated applies a debt-tagged transaction to its debt.
func (l *Listener) OnCreated(ctx context.Context, e bus.TxCreated) error {
	tx := e.Transaction
	if tx.DebtID == "" {
		return nil
	}

	var events []bus.Event
	err := l.store.WithWriteScope(ctx, func(ctx context.Context) error {
		d, err := l.store.GetDebt(ctx, tx.DebtID)
		if errors.Is(err, domain.ErrNotFound) {
			slog.Warn("debt not found, event dropped", "debt", tx.DebtID, "transaction", tx.ID)
			return nil
		}
		if err != nil {
			return err
		}
		if !tx.Amount.SameCurrency(d.Remaining) {
			slog.Warn("payment currency differs from debt, event dropped",
				"debt", d.ID,
				"transaction", tx.ID,
				"debt_currency", d.Remaining.Currency(),
				"payment_currency", tx.Amount.Currency())
			return nil
		}
		if d.Status == domain.DebtCanceled {
			slog.Info("debt canceled, payment not applied", "debt", d.ID, "transaction", tx.ID)
			return nil
		}

		from := d.Status
		applied := d.ApplyPayment(tx.Amount.Decimal())
		sync := domain.DebtSync{
			TransactionID: tx.ID,
			DebtID:        d.ID,
			Applied:       d.Remaining.WithValue(applied),
			SyncedOn:      tx.Date,
		}
		if from != domain.DebtPaid && d.Status == domain.DebtPaid {
			sync.PriorStatus = from
		}
		inserted, err := l.store.RecordDebtSync(ctx, sync)
		if err != nil {
			return err
		}
		if !inserted {
			slog.Debug("transaction already applied to debt", "debt", d.ID, "transaction", tx.ID)
			return nil
		}
		if err := l.store.UpdateDebt(ctx, d); err != nil {
			return err
		}

		events = append(events,
			bus.DebtSynced{
				DebtID:        d.ID,
				TransactionID: tx.ID,
				Applied:       sync.Applied,
				Remaining:     d.Remaining,
				Status:        d.Status,
			},
			bus.DebtPaymentAdded{
				DebtID: d.ID,
				Payment: bus.Payment{
					ID:     tx.ID,
					Amount: tx.Amount.Abs(),
					PaidAt: tx.Date,
					Note:   tx.Description,
				},
			},
		)
		if d.Status != from {
			events = append(events, bus.DebtStatusChanged{DebtID: d.ID, From: from, To: d.Status, TransactionID: tx.ID})
		}
		slog.Debug("debt synced", "debt", d.ID, "transaction", tx.ID, "applied", applied, "remaining", d.Remaining.Decimal())
		return nil
	})
	if err != nil {
		return err
	}
	l.publish(ctx, events)
	return nil
}

// OnDeleted reverses what a deleted transaction applied to its debt.
func (l *Listener) OnDeleted(ctx context.Context, e bus.TxDeleted) error {
	tx := e.Transaction
	if tx.DebtID == "" {
		return nil
	}

	var events []bus.Event
	err := l.store.WithWriteScope(ctx, func(ctx context.Context) error {
		sync, err := l.store.GetDebtSync(ctx, tx.ID)
		if errors.Is(err, domain.ErrNotFound) {
			slog.Debug("transaction never applied to debt", "debt", tx.DebtID, "transaction", tx.ID)
			return nil
		}
		if err != nil {
			return err
		}

		d, err := l.store.GetDebt(ctx, sync.DebtID)
		if errors.Is(err, domain.ErrNotFound) {
			slog.Warn("debt not found, reversal dropped", "debt", sync.DebtID, "transaction", tx.ID)
			return l.store.DeleteDebtSync(ctx, tx.ID)
		}
		if err != nil {
			return err
		}

		// Read before the delete: this payment may be the one that settled the debt.
		reopenAs := sync.PriorStatus
		if reopenAs == "" && d.Status == domain.DebtPaid {
			if reopenAs, err = l.store.PriorDebtStatus(ctx, d.ID); err != nil {
				return err
			}
		}
		if err := l.store.DeleteDebtSync(ctx, tx.ID); err != nil {
			return err
		}

		from := d.Status
		d.ReversePayment(sync.Applied.Decimal(), reopenAs)
		if err := l.store.UpdateDebt(ctx, d); err != nil {
			return err
		}

		events = append(events, bus.DebtSyncReversed{
			DebtID:        d.ID,
			TransactionID: tx.ID,
			Restored:      sync.Applied,
			Remaining:     d.Remaining,
			Status:        d.Status,
		})
		if d.Status != from {
			events = append(events, bus.DebtStatusChanged{DebtID: d.ID, From: from, To: d.Status, TransactionID: tx.ID})
		}
		slog.Debug("debt sync reversed", "debt", d.ID, "transaction", tx.ID, "restored", sync.Applied.Decimal())
		return nil
	})
	if err != nil {
		return err
	}
	l.publish(ctx, events)
	return nil
}

func (l *Listener) publish(ctx context.Context, events []bus.Event) {
	for _, e := range events {
		l.bus.Publish(ctx, e)
	}
}
