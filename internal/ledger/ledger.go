// Package ledger is the write path for ledger transactions.
//
// Every mutation runs in a store write scope and publishes its event only
// after the scope commits, so listeners always see committed rows.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/OybekDeveloper/leora/internal/bus"
	"github.com/OybekDeveloper/leora/internal/domain"
	"github.com/OybekDeveloper/leora/internal/ident"
	"github.com/OybekDeveloper/leora/internal/store"
)

// ErrDuplicate is returned when a transaction with the same ID exists.
var ErrDuplicate = errors.New("duplicate transaction")

// Publisher delivers events to subscribers. Implemented by *bus.Bus.
type Publisher interface {
	Publish(ctx context.Context, e bus.Event) (failed int)
}

// Clock stamps creation times.
type Clock interface {
	Now() time.Time
}

// Service creates, updates and deletes ledger transactions.
type Service struct {
	store *store.Store
	bus   Publisher
	ids   ident.Generator
	clock Clock
}

// New creates a ledger service.
func New(s *store.Store, pub Publisher, ids ident.Generator, clock Clock) *Service {
	return &Service{store: s, bus: pub, ids: ids, clock: clock}
}

// Create records a manual transaction and publishes finance.tx.created.
// An empty ID is filled from the generator and a zero CreatedAt from the
// clock.
func (l *Service) Create(ctx context.Context, tx domain.Transaction) (domain.Transaction, error) {
	if tx.ID == "" {
		tx.ID = l.ids.NewID()
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = l.clock.Now()
	}
	if err := validate(tx); err != nil {
		return domain.Transaction{}, err
	}

	err := l.store.WithWriteScope(ctx, func(ctx context.Context) error {
		if err := l.requireAccount(ctx, tx.AccountID); err != nil {
			return err
		}
		inserted, err := l.store.CreateTransaction(ctx, tx)
		if err != nil {
			return err
		}
		if !inserted {
			return fmt.Errorf("transaction %s: %w", tx.ID, ErrDuplicate)
		}
		return nil
	})
	if err != nil {
		return domain.Transaction{}, err
	}

	slog.Debug("transaction created", "transaction", tx.ID, "type", tx.Type, "date", tx.Date)
	l.bus.Publish(ctx, bus.TxCreated{Transaction: tx})
	return tx, nil
}

// Update rewrites the editable fields of a transaction and publishes
// finance.tx.updated with both versions.
//
// The debt tag and the amount of a debt-tagged transaction cannot change:
// the debt was reconciled against them. Delete and re-create instead.
func (l *Service) Update(ctx context.Context, tx domain.Transaction) (domain.Transaction, error) {
	var before domain.Transaction
	err := l.store.WithWriteScope(ctx, func(ctx context.Context) error {
		var err error
		if before, err = l.store.GetTransaction(ctx, tx.ID); err != nil {
			return err
		}
		if tx.DebtID != before.DebtID {
			return &domain.ValidationError{Entity: "transaction", Field: "debt_id", Reason: "cannot change once reconciled"}
		}
		if before.DebtID != "" && !tx.Amount.Equal(before.Amount) {
			return &domain.ValidationError{Entity: "transaction", Field: "amount", Reason: "cannot change on a debt payment"}
		}
		tx.ScheduleID = before.ScheduleID
		tx.Occurrence = before.Occurrence
		tx.CreatedAt = before.CreatedAt
		if err := validate(tx); err != nil {
			return err
		}
		if tx.AccountID != before.AccountID {
			if err := l.requireAccount(ctx, tx.AccountID); err != nil {
				return err
			}
		}
		return l.store.UpdateTransaction(ctx, tx)
	})
	if err != nil {
		return domain.Transaction{}, err
	}

	l.bus.Publish(ctx, bus.TxUpdated{Before: before, After: tx})
	return tx, nil
}

// Delete removes a transaction, drops it from its schedule's history and
// publishes finance.tx.deleted so reacting domains can reverse.
func (l *Service) Delete(ctx context.Context, id string) error {
	var tx domain.Transaction
	err := l.store.WithWriteScope(ctx, func(ctx context.Context) error {
		var err error
		if tx, err = l.store.GetTransaction(ctx, id); err != nil {
			return err
		}
		if err := l.store.DeleteTransaction(ctx, id); err != nil {
			return err
		}
		if tx.ScheduleID == "" {
			return nil
		}
		sc, err := l.store.GetSchedule(ctx, tx.ScheduleID)
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		sc.TransactionIDs = slices.DeleteFunc(sc.TransactionIDs, func(s string) bool { return s == id })
		return l.store.UpdateSchedule(ctx, sc)
	})
	if err != nil {
		return err
	}

	slog.Debug("transaction deleted", "transaction", id)
	l.bus.Publish(ctx, bus.TxDeleted{Transaction: tx})
	return nil
}

// Get returns a transaction by ID.
func (l *Service) Get(ctx context.Context, id string) (domain.Transaction, error) {
	return l.store.GetTransaction(ctx, id)
}

// List returns transactions matching f.
func (l *Service) List(ctx context.Context, f store.TransactionFilter) ([]domain.Transaction, error) {
	return l.store.ListTransactions(ctx, f)
}

func (l *Service) requireAccount(ctx context.Context, id string) error {
	_, err := l.store.GetAccount(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return &domain.ValidationError{Entity: "transaction", Field: "account_id", Reason: fmt.Sprintf("unknown account %q", id)}
	}
	return err
}

func validate(tx domain.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}
	if !tx.Amount.IsPositive() {
		return &domain.ValidationError{Entity: "transaction", Field: "amount", Reason: "must be positive"}
	}
	return nil
}
