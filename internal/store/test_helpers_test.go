package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/OybekDeveloper/leora/internal/date"
	"github.com/OybekDeveloper/leora/internal/domain"
	"github.com/OybekDeveloper/leora/internal/money"
)

// createTestStore opens a fresh store in a temp directory for one test.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

var day = date.MustParse

// createTestDebt creates an active i_owe debt in USD.
func createTestDebt(id string, principal, remaining int64) domain.Debt {
	return domain.Debt{
		ID:        id,
		Direction: domain.IOwe,
		Principal: money.Of(principal, "USD"),
		Remaining: money.Of(remaining, "USD"),
		Status:    domain.DebtActive,
	}
}

// createTestTransaction creates a manual USD expense with minimal fields.
func createTestTransaction(id string, amount int64, on string) domain.Transaction {
	return domain.Transaction{
		ID:        id,
		AccountID: "acc-1",
		Type:      domain.TxExpense,
		Amount:    money.Of(amount, "USD"),
		Date:      day(on),
		CreatedAt: time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC),
	}
}

// createTestSchedule creates an active monthly USD expense schedule.
func createTestSchedule(id, start string) domain.Schedule {
	return domain.Schedule{
		ID:             id,
		AccountID:      "acc-1",
		Type:           domain.TxExpense,
		Amount:         money.Of(25, "USD"),
		Pattern:        domain.Monthly,
		Interval:       1,
		StartDate:      day(start),
		NextOccurrence: day(start),
		IsActive:       true,
	}
}
