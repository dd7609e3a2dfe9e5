package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/OybekDeveloper/leora/internal/date"
	"github.com/OybekDeveloper/leora/internal/domain"
	"github.com/OybekDeveloper/leora/internal/ident"
	"github.com/OybekDeveloper/leora/internal/recurrence"
	"github.com/OybekDeveloper/leora/internal/store"
)

// TransactionDeleter removes ledger transactions with their reversals.
// Implemented by *ledger.Service.
type TransactionDeleter interface {
	Delete(ctx context.Context, id string) error
}

// Service manages the lifecycle of recurring schedules.
type Service struct {
	store  *store.Store
	ledger TransactionDeleter
	clock  Clock
	ids    ident.Generator
}

// NewService creates a schedule service.
func NewService(s *store.Store, ledger TransactionDeleter, clock Clock, ids ident.Generator) *Service {
	return &Service{store: s, ledger: ledger, clock: clock, ids: ids}
}

// Create validates sc and stores it with its first occurrence on or after
// today. A start date in the past is walked forward without creating any
// transactions for the days walked over.
func (s *Service) Create(ctx context.Context, sc domain.Schedule) (domain.Schedule, error) {
	if sc.ID == "" {
		sc.ID = s.ids.NewID()
	}
	if err := sc.Validate(); err != nil {
		return domain.Schedule{}, err
	}
	rule := recurrence.RuleOf(sc)
	if err := recurrence.Validate(rule.Pattern, rule.Interval, rule.Constraints); err != nil {
		return domain.Schedule{}, err
	}
	if sc.SkipDates == nil {
		sc.SkipDates = date.NewSet()
	}

	next, err := recurrence.FirstOnOrAfter(rule, s.clock.Today())
	if err != nil {
		return domain.Schedule{}, err
	}
	sc.NextOccurrence = next
	sc.IsActive = !sc.Ended(next)
	sc.TransactionIDs = nil

	err = s.store.WithWriteScope(ctx, func(ctx context.Context) error {
		if _, err := s.store.GetAccount(ctx, sc.AccountID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return &domain.ValidationError{Entity: "schedule", Field: "account_id", Reason: fmt.Sprintf("unknown account %q", sc.AccountID)}
			}
			return err
		}
		return s.store.CreateSchedule(ctx, sc)
	})
	if err != nil {
		return domain.Schedule{}, err
	}
	slog.Info("schedule created",
		"schedule", sc.ID,
		"pattern", sc.Pattern,
		"start", sc.StartDate,
		"next", sc.NextOccurrence,
		"active", sc.IsActive)
	return sc, nil
}

// Get returns a schedule by ID.
func (s *Service) Get(ctx context.Context, id string) (domain.Schedule, error) {
	return s.store.GetSchedule(ctx, id)
}

// List returns schedules matching f.
func (s *Service) List(ctx context.Context, f store.ScheduleFilter) ([]domain.Schedule, error) {
	return s.store.ListSchedules(ctx, f)
}

// Pause stops the processor from firing the schedule. The next occurrence
// is kept as is.
func (s *Service) Pause(ctx context.Context, id string) (domain.Schedule, error) {
	return s.modify(ctx, id, func(sc *domain.Schedule) error {
		sc.IsPaused = true
		return nil
	})
}

// Resume lets the processor fire the schedule again from its retained next
// occurrence.
func (s *Service) Resume(ctx context.Context, id string) (domain.Schedule, error) {
	return s.modify(ctx, id, func(sc *domain.Schedule) error {
		sc.IsPaused = false
		return nil
	})
}

// SkipOccurrence adds day to the schedule's skip dates. When day is the
// pending occurrence, the schedule advances past it.
func (s *Service) SkipOccurrence(ctx context.Context, id string, day date.Date) (domain.Schedule, error) {
	if day.IsZero() {
		return domain.Schedule{}, &domain.ValidationError{Entity: "schedule", Field: "skip_dates", Reason: "date required"}
	}
	return s.modify(ctx, id, func(sc *domain.Schedule) error {
		if sc.SkipDates == nil {
			sc.SkipDates = date.NewSet()
		}
		sc.SkipDates.Add(day)
		if sc.NextOccurrence != day {
			return nil
		}
		next, err := recurrence.RuleOf(*sc).Next(day)
		if err != nil {
			return err
		}
		sc.NextOccurrence = next
		if sc.Ended(next) {
			sc.IsActive = false
		}
		return nil
	})
}

// Delete removes a schedule. With cascade, every transaction it created is
// deleted through the ledger first, so reacting domains reverse.
func (s *Service) Delete(ctx context.Context, id string, cascade bool) error {
	sc, err := s.store.GetSchedule(ctx, id)
	if err != nil {
		return err
	}
	if cascade {
		for _, txID := range sc.TransactionIDs {
			if err := s.ledger.Delete(ctx, txID); err != nil && !errors.Is(err, domain.ErrNotFound) {
				return fmt.Errorf("delete schedule %s: transaction %s: %w", id, txID, err)
			}
		}
	}
	if err := s.store.DeleteSchedule(ctx, id); err != nil {
		return err
	}
	slog.Info("schedule deleted", "schedule", id, "cascade", cascade, "transactions", len(sc.TransactionIDs))
	return nil
}

func (s *Service) modify(ctx context.Context, id string, fn func(sc *domain.Schedule) error) (domain.Schedule, error) {
	var sc domain.Schedule
	err := s.store.WithWriteScope(ctx, func(ctx context.Context) error {
		var err error
		if sc, err = s.store.GetSchedule(ctx, id); err != nil {
			return err
		}
		if err := fn(&sc); err != nil {
			return err
		}
		return s.store.UpdateSchedule(ctx, sc)
	})
	if err != nil {
		return domain.Schedule{}, err
	}
	return sc, nil
}
