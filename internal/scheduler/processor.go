package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/OybekDeveloper/leora/internal/bus"
	"github.com/OybekDeveloper/leora/internal/date"
	"github.com/OybekDeveloper/leora/internal/domain"
	"github.com/OybekDeveloper/leora/internal/ident"
	"github.com/OybekDeveloper/leora/internal/recurrence"
	"github.com/OybekDeveloper/leora/internal/store"
)

const tracerName = "github.com/OybekDeveloper/leora/internal/scheduler"

// Publisher delivers events to subscribers. Implemented by *bus.Bus.
type Publisher interface {
	Publish(ctx context.Context, e bus.Event) (failed int)
}

// Result counts what one processing run did with the due schedules.
type Result struct {
	Processed int `json:"processed"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
}

// Processor turns due schedules into ledger transactions, one occurrence
// per schedule per run, at most one run per calendar day.
//
// Each schedule is handled in its own write scope: the transaction insert
// and the schedule advance commit together or not at all. Events are
// published after the scope commits.
type Processor struct {
	store  *store.Store
	bus    Publisher
	clock  Clock
	state  *State
	tracer trace.Tracer
}

// Option configures a Processor.
type Option func(*Processor)

// WithClock replaces the system clock.
func WithClock(c Clock) Option {
	return func(p *Processor) { p.clock = c }
}

// WithState shares a guard between processors. Default: a fresh State.
func WithState(s *State) Option {
	return func(p *Processor) { p.state = s }
}

// WithTracer replaces the global OpenTelemetry tracer.
func WithTracer(t trace.Tracer) Option {
	return func(p *Processor) { p.tracer = t }
}

// NewProcessor creates a Processor over s that publishes to pub.
func NewProcessor(s *store.Store, pub Publisher, opts ...Option) *Processor {
	p := &Processor{
		store:  s,
		bus:    pub,
		clock:  SystemClock{},
		state:  NewState(),
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// State returns the processor's guard.
func (p *Processor) State() *State { return p.state }

type outcome int

const (
	outcomeProcessed outcome = iota
	outcomeSkipped
	outcomeFailed
)

// ProcessScheduledTransactions fires every active schedule whose next
// occurrence is today or earlier.
//
// A second call on the same day, or a call while a run is in flight,
// returns a zero Result without side effects. A failing schedule is counted
// and logged; it never aborts the batch. The returned error covers only
// failures to load or save the scheduler state and the due list.
func (p *Processor) ProcessScheduledTransactions(ctx context.Context) (Result, error) {
	today := p.clock.Today()
	if !p.state.TryBegin(today) {
		slog.Debug("scheduler run skipped", "today", today, "running", p.state.Running())
		return Result{}, nil
	}
	finished := false
	defer func() { p.state.Finish(today, finished) }()

	ctx, span := p.tracer.Start(ctx, "scheduler.process",
		trace.WithAttributes(attribute.String("leora.today", today.String())))
	defer span.End()

	last, err := p.store.LastProcessedDate(ctx)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return Result{}, fmt.Errorf("load scheduler state: %w", err)
	}
	if last == today {
		finished = true
		slog.Debug("scheduler already ran today", "today", today)
		return Result{}, nil
	}

	due, err := p.store.ListSchedules(ctx, store.ScheduleFilter{DueOnOrBefore: today, ActiveOnly: true})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return Result{}, fmt.Errorf("list due schedules: %w", err)
	}

	var res Result
	for _, sc := range due {
		out, events, err := p.processSchedule(ctx, sc)
		switch out {
		case outcomeProcessed:
			res.Processed++
		case outcomeSkipped:
			res.Skipped++
		case outcomeFailed:
			res.Failed++
			slog.Error("schedule failed",
				"schedule", sc.ID,
				"occurrence", sc.NextOccurrence,
				"config_error", recurrence.IsConfigError(err),
				"error", err)
		}
		for _, e := range events {
			p.bus.Publish(ctx, e)
		}
	}

	if err := p.store.SetLastProcessedDate(ctx, today); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return res, fmt.Errorf("save scheduler state: %w", err)
	}
	finished = true

	span.SetAttributes(
		attribute.Int("leora.processed", res.Processed),
		attribute.Int("leora.failed", res.Failed),
		attribute.Int("leora.skipped", res.Skipped),
	)
	slog.Info("scheduled transactions processed",
		"today", today,
		"due", len(due),
		"processed", res.Processed,
		"failed", res.Failed,
		"skipped", res.Skipped)
	return res, nil
}

// processSchedule fires one occurrence of sc. The returned events must be
// published by the caller once the write scope has committed.
func (p *Processor) processSchedule(ctx context.Context, sc domain.Schedule) (outcome, []bus.Event, error) {
	occurrence := sc.NextOccurrence
	ctx, span := p.tracer.Start(ctx, "scheduler.schedule", trace.WithAttributes(
		attribute.String("leora.schedule_id", sc.ID),
		attribute.String("leora.occurrence", occurrence.String()),
	))
	defer span.End()

	if sc.IsPaused {
		span.SetAttributes(attribute.String("leora.outcome", "paused"))
		return outcomeSkipped, nil, nil
	}

	if sc.Ended(occurrence) {
		sc.IsActive = false
		if err := p.store.UpdateSchedule(ctx, sc); err != nil {
			span.SetStatus(codes.Error, err.Error())
			return outcomeFailed, nil, fmt.Errorf("deactivate ended schedule: %w", err)
		}
		slog.Info("schedule ended", "schedule", sc.ID, "end_date", sc.EndDate)
		span.SetAttributes(attribute.String("leora.outcome", "ended"))
		return outcomeSkipped, nil, nil
	}

	next, err := recurrence.RuleOf(sc).Next(occurrence)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return outcomeFailed, nil, err
	}
	id, err := ident.OccurrenceID(sc.ID, occurrence)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return outcomeFailed, nil, err
	}
	tx := sc.Occurrence(id, occurrence, p.clock.Now())

	var inserted bool
	err = p.store.WithWriteScope(ctx, func(ctx context.Context) error {
		if _, err := p.store.GetAccount(ctx, sc.AccountID); err != nil {
			return fmt.Errorf("schedule account: %w", err)
		}
		var err error
		if inserted, err = p.store.CreateTransaction(ctx, tx); err != nil {
			return err
		}
		sc.NextOccurrence = next
		if inserted {
			sc.TransactionIDs = append(sc.TransactionIDs, tx.ID)
		}
		if sc.Ended(next) {
			sc.IsActive = false
		}
		return p.store.UpdateSchedule(ctx, sc)
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return outcomeFailed, nil, err
	}

	if !inserted {
		// The occurrence already exists; the schedule has caught up with it.
		slog.Warn("occurrence already recorded", "schedule", sc.ID, "occurrence", occurrence, "transaction", id)
		span.SetAttributes(attribute.String("leora.outcome", "duplicate"))
		return outcomeSkipped, nil, nil
	}

	slog.Debug("schedule fired", "schedule", sc.ID, "occurrence", occurrence, "next", next, "transaction", id)
	span.SetAttributes(attribute.String("leora.outcome", "fired"))
	return outcomeProcessed, []bus.Event{
		bus.TxCreated{Transaction: tx},
		bus.RecurringFired{
			ScheduleID:     sc.ID,
			TransactionID:  tx.ID,
			Occurrence:     occurrence,
			NextOccurrence: next,
		},
	}, nil
}

// Due lists the schedules a run on today would consider.
func (p *Processor) Due(ctx context.Context, today date.Date) ([]domain.Schedule, error) {
	return p.store.ListSchedules(ctx, store.ScheduleFilter{DueOnOrBefore: today, ActiveOnly: true})
}
