package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/OybekDeveloper/leora/internal/domain"
	"github.com/OybekDeveloper/leora/internal/money"
	"github.com/OybekDeveloper/leora/internal/store"
)

// NewStore opens a fresh SQLite store in the test's temp directory and
// closes it when the test ends.
//
// Tests get a real schema, real constraints and real write scopes; there is
// no fake store.
func NewStore(t testing.TB) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "leora.db"))
	if err != nil {
		t.Fatalf("store.Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// USD is shorthand for whole US dollars.
func USD(v int64) money.Amount { return money.Of(v, "USD") }

// UZS is shorthand for whole Uzbek som.
func UZS(v int64) money.Amount { return money.Of(v, "UZS") }

// Seed inserts fixtures and fails the test on the first error. Each value
// must be one of the domain entity types the store knows how to create.
func Seed(t testing.TB, s *store.Store, entities ...any) {
	t.Helper()
	ctx := context.Background()
	for _, e := range entities {
		var err error
		switch v := e.(type) {
		case domain.Account:
			err = s.CreateAccount(ctx, v)
		case domain.Debt:
			err = s.CreateDebt(ctx, v)
		case domain.Budget:
			err = s.CreateBudget(ctx, v)
		case domain.Habit:
			err = s.CreateHabit(ctx, v)
		case domain.Goal:
			err = s.CreateGoal(ctx, v)
		case domain.Task:
			err = s.CreateTask(ctx, v)
		case domain.Schedule:
			err = s.CreateSchedule(ctx, v)
		case domain.Transaction:
			_, err = s.CreateTransaction(ctx, v)
		default:
			t.Fatalf("Seed: unsupported fixture %T", e)
		}
		if err != nil {
			t.Fatalf("Seed(%T) failed: %v", e, err)
		}
	}
}
