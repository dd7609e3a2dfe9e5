package fixture

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OybekDeveloper/leora/internal/app"
	"github.com/OybekDeveloper/leora/internal/config"
	"github.com/OybekDeveloper/leora/internal/date"
	"github.com/OybekDeveloper/leora/internal/domain"
	"github.com/OybekDeveloper/leora/internal/ident"
	"github.com/OybekDeveloper/leora/internal/testutil"
)

func TestLoadFillsDefaults(t *testing.T) {
	seed, err := Load(filepath.Join("testdata", "household.cue"))
	require.NoError(t, err)

	require.Len(t, seed.Accounts, 2)
	require.Len(t, seed.Debts, 1)
	assert.Equal(t, "active", seed.Debts[0].Status)
	assert.Equal(t, "0", seed.Budgets[0].Spent)
	assert.Equal(t, "planned", seed.Tasks[1].Status)
	assert.Equal(t, "", seed.Tasks[1].GoalID)
	require.NotNil(t, seed.Habits[1].IsActive)
	assert.True(t, *seed.Habits[1].IsActive)
	assert.Nil(t, seed.Habits[1].Rule)
	assert.Equal(t, 1, seed.Schedules[0].Interval)
	assert.False(t, seed.Schedules[0].IsPaused)
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"unknown top-level field", `wallets: []`},
		{"unknown entity field", `accounts: [{id: "a", name: "A", currency: "USD", color: "red"}]`},
		{"lowercase currency", `accounts: [{id: "a", name: "A", currency: "usd"}]`},
		{"unknown direction", `debts: [{id: "d", direction: "sideways", principal: "1", currency: "USD"}]`},
		{"negative amount", `debts: [{id: "d", direction: "i_owe", principal: "-1", currency: "USD"}]`},
		{"zero interval", `schedules: [{account_id: "a", type: "expense", amount: "1", pattern: "daily", interval: 0, start_date: "2025-01-01"}]`},
		{"bad pattern", `schedules: [{account_id: "a", type: "expense", amount: "1", pattern: "hourly", start_date: "2025-01-01"}]`},
		{"bad date", `schedules: [{account_id: "a", type: "expense", amount: "1", pattern: "daily", start_date: "01/02/2025"}]`},
		{"weekday out of range", `schedules: [{account_id: "a", type: "expense", amount: "1", pattern: "weekly", days_of_week: [7], start_date: "2025-01-01"}]`},
		{"limit rule without limit", `habits: [{id: "h", name: "H", rule: {type: "daily_spend_under"}}]`},
		{"category rule without categories", `habits: [{id: "h", name: "H", rule: {type: "no_spend_in_categories", category_ids: []}}]`},
		{"unknown task link", `tasks: [{id: "t", title: "T", finance_link: "buy_coffee"}]`},
		{"syntax error", `accounts: [`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.src), "bad.cue")
			require.Error(t, err)
		})
	}
}

func TestParseErrorHasPosition(t *testing.T) {
	_, err := Parse([]byte("accounts: [{id: \"a\", name: \"A\", currency: \"usd\"}]\n"), "bad.cue")
	require.Error(t, err)
	var fe *Error
	require.ErrorAs(t, err, &fe)
	assert.Contains(t, err.Error(), "bad.cue")
}

func TestCheck(t *testing.T) {
	seed := Seed{Tasks: []Task{{ID: "t", Title: "T"}}}
	checked, err := seed.Check()
	require.NoError(t, err)
	assert.Equal(t, "none", checked.Tasks[0].FinanceLink)

	seed.Tasks[0].Status = "someday"
	_, err = seed.Check()
	assert.Error(t, err)
}

func TestApply(t *testing.T) {
	clock := testutil.NewClock(date.MustParse("2025-02-10"))
	a, err := app.New(config.Config{DB: filepath.Join(t.TempDir(), "leora.db"), Timezone: "UTC"},
		app.WithClock(clock), app.WithIDs(ident.NewSequence("id")))
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	ctx := context.Background()

	seed, err := Load(filepath.Join("testdata", "household.cue"))
	require.NoError(t, err)
	seed.Transactions = []Transaction{{AccountID: "usd", Type: "expense", Amount: "100", Date: "2025-02-10", DebtID: "loan-ali"}}
	require.NoError(t, seed.Apply(ctx, a))

	acc, err := a.Store.GetAccount(ctx, "card")
	require.NoError(t, err)
	assert.Equal(t, "UZS", acc.Currency)

	rent, err := a.Schedules.Get(ctx, "rent")
	require.NoError(t, err)
	assert.Equal(t, date.MustParse("2025-02-28"), rent.NextOccurrence)
	assert.True(t, rent.Amount.Equal(testutil.UZS(1500000)))

	debt, err := a.Store.GetDebt(ctx, "loan-ali")
	require.NoError(t, err)
	assert.Equal(t, domain.DebtPaid, debt.Status, "seeded payment reaches the debt listener")

	task, err := a.Store.GetTask(ctx, "pay-ali")
	require.NoError(t, err)
	assert.Equal(t, domain.TaskCompleted, task.Status)

	habit, err := a.Store.GetHabit(ctx, "frugal")
	require.NoError(t, err)
	require.NotNil(t, habit.Rule)
	assert.True(t, habit.Rule.Limit.Equal(testutil.UZS(50000)))
}
