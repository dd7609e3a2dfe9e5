// Package app wires the store, the event bus, the ledger and every listener
// into one running instance.
package app

import (
	"fmt"
	"log/slog"

	"github.com/OybekDeveloper/leora/internal/budgetsync"
	"github.com/OybekDeveloper/leora/internal/bus"
	"github.com/OybekDeveloper/leora/internal/config"
	"github.com/OybekDeveloper/leora/internal/debtsync"
	"github.com/OybekDeveloper/leora/internal/habiteval"
	"github.com/OybekDeveloper/leora/internal/ident"
	"github.com/OybekDeveloper/leora/internal/ledger"
	"github.com/OybekDeveloper/leora/internal/scheduler"
	"github.com/OybekDeveloper/leora/internal/store"
	"github.com/OybekDeveloper/leora/internal/taskauto"
)

// App is a wired instance. The zero value is not usable; call New.
type App struct {
	Store     *store.Store
	Bus       *bus.Bus
	Ledger    *ledger.Service
	Schedules *scheduler.Service
	Processor *scheduler.Processor
	Habits    *habiteval.Evaluator
	// Events is set when the app was built WithRecorder.
	Events *bus.Recorder

	clock       scheduler.Clock
	unsubscribe []func()
}

// Option configures New.
type Option func(*options)

type options struct {
	clock    scheduler.Clock
	ids      ident.Generator
	state    *scheduler.State
	recorder bool
}

// WithClock replaces the system clock.
func WithClock(c scheduler.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithIDs replaces the UUIDv7 generator used for new transactions and
// schedules.
func WithIDs(g ident.Generator) Option {
	return func(o *options) { o.ids = g }
}

// WithState shares scheduler state with the caller.
func WithState(s *scheduler.State) Option {
	return func(o *options) { o.state = s }
}

// WithRecorder attaches a bus.Recorder ahead of the listeners, so events
// are recorded in the order they were published.
func WithRecorder() Option {
	return func(o *options) { o.recorder = true }
}

// New opens the store named by cfg and subscribes the listeners in a fixed
// order: debts, budgets, habits, tasks. Debt and budget updates land before
// the habit and task listeners see the same transaction.
func New(cfg config.Config, opts ...Option) (*App, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	o := options{
		clock: scheduler.SystemClock{Location: loc},
		ids:   ident.UUIDv7{},
		state: scheduler.NewState(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	s, err := store.Open(cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", cfg.DB, err)
	}

	b := bus.New()
	a := &App{
		Store:  s,
		Bus:    b,
		Ledger: ledger.New(s, b, o.ids, o.clock),
		Habits: habiteval.New(s, b),
		clock:  o.clock,
	}
	if o.recorder {
		a.Events = bus.NewRecorder(b)
	}
	a.Schedules = scheduler.NewService(s, a.Ledger, o.clock, o.ids)
	a.Processor = scheduler.NewProcessor(s, b,
		scheduler.WithClock(o.clock),
		scheduler.WithState(o.state),
	)

	a.unsubscribe = []func(){
		debtsync.New(s, b).Subscribe(b),
		budgetsync.New(s, b).Subscribe(b),
		a.Habits.Subscribe(b),
		taskauto.New(s, b, o.clock).Subscribe(b),
	}
	slog.Debug("app ready", "db", cfg.DB, "timezone", loc.String())
	return a, nil
}

// Clock returns the clock every component shares.
func (a *App) Clock() scheduler.Clock { return a.clock }

// Close unsubscribes the listeners and closes the store.
func (a *App) Close() error {
	for _, off := range a.unsubscribe {
		off()
	}
	a.unsubscribe = nil
	if a.Events != nil {
		a.Events.Close()
	}
	return a.Store.Close()
}
