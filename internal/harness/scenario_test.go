package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OybekDeveloper/leora/internal/fixture"
)

const validScenario = `
name: valid
description: "A valid scenario"
today: "2025-03-10"
seed:
  accounts:
    - {id: acc-1, name: Cash, currency: USD}
  debts:
    - {id: d1, direction: i_owe, principal: "100", currency: USD}
steps:
  - create_tx: {account_id: acc-1, type: expense, amount: "30", date: "2025-03-10", debt_id: d1}
  - today: "2025-03-11"
  - process: true
assertions:
  - type: debt
    id: d1
    expect: {remaining: "70"}
  - type: process_result
    step: 3
    expect: {processed: 0}
  - type: event_count
    topic: finance.debt.synced
    count: 1
`

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadScenario_ValidFile(t *testing.T) {
	scenario, err := LoadScenario(writeScenario(t, validScenario))
	require.NoError(t, err)

	assert.Equal(t, "valid", scenario.Name)
	assert.Equal(t, "2025-03-10", scenario.Today)
	require.Len(t, scenario.Steps, 3)
	require.NotNil(t, scenario.Steps[0].CreateTx)
	assert.Equal(t, "d1", scenario.Steps[0].CreateTx.DebtID)
	assert.Equal(t, "2025-03-11", scenario.Steps[1].Today)
	assert.True(t, scenario.Steps[2].Process)
	require.Len(t, scenario.Assertions, 3)
	assert.Equal(t, AssertProcessResult, scenario.Assertions[1].Type)
	assert.Equal(t, 3, scenario.Assertions[1].Step)
}

func TestLoadScenario_SeedDefaultsFilled(t *testing.T) {
	scenario, err := ParseScenario([]byte(validScenario))
	require.NoError(t, err)

	require.Len(t, scenario.Seed.Debts, 1)
	assert.Equal(t, "active", scenario.Seed.Debts[0].Status)
	assert.Equal(t, "", scenario.Steps[0].CreateTx.BudgetID)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestParseScenario_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "malformed yaml",
			yaml:    "name: [unclosed",
			wantErr: "failed to parse YAML",
		},
		{
			name: "unknown field",
			yaml: `
name: typo
description: d
today: "2025-03-10"
step:
  - process: true
`,
			wantErr: "field step not found",
		},
		{
			name: "missing name",
			yaml: `
description: d
today: "2025-03-10"
steps: [{process: true}]
assertions: [{type: event_count, topic: finance.tx.created, count: 0}]
`,
			wantErr: "name is required",
		},
		{
			name: "missing description",
			yaml: `
name: n
today: "2025-03-10"
steps: [{process: true}]
assertions: [{type: event_count, topic: finance.tx.created, count: 0}]
`,
			wantErr: "description is required",
		},
		{
			name: "bad today",
			yaml: `
name: n
description: d
today: "march"
steps: [{process: true}]
assertions: [{type: event_count, topic: finance.tx.created, count: 0}]
`,
			wantErr: "today",
		},
		{
			name: "no steps",
			yaml: `
name: n
description: d
today: "2025-03-10"
assertions: [{type: event_count, topic: finance.tx.created, count: 0}]
`,
			wantErr: "steps list is required",
		},
		{
			name: "no assertions",
			yaml: `
name: n
description: d
today: "2025-03-10"
steps: [{process: true}]
`,
			wantErr: "assertions list is required",
		},
		{
			name: "two actions in one step",
			yaml: `
name: n
description: d
today: "2025-03-10"
steps: [{process: true, today: "2025-03-11"}]
assertions: [{type: event_count, topic: finance.tx.created, count: 0}]
`,
			wantErr: "exactly one action is required, got 2",
		},
		{
			name: "empty step",
			yaml: `
name: n
description: d
today: "2025-03-10"
steps: [{}]
assertions: [{type: event_count, topic: finance.tx.created, count: 0}]
`,
			wantErr: "exactly one action is required, got 0",
		},
		{
			name: "bad create_tx amount",
			yaml: `
name: n
description: d
today: "2025-03-10"
steps:
  - create_tx: {account_id: a, type: expense, amount: "-5", date: "2025-03-10"}
assertions: [{type: event_count, topic: finance.tx.created, count: 0}]
`,
			wantErr: "steps[0].create_tx",
		},
		{
			name: "bad seed enum",
			yaml: `
name: n
description: d
today: "2025-03-10"
seed:
  debts:
    - {id: d1, direction: sideways, principal: "1", currency: USD}
steps: [{process: true}]
assertions: [{type: event_count, topic: finance.tx.created, count: 0}]
`,
			wantErr: "seed:",
		},
		{
			name: "unknown assertion type",
			yaml: `
name: n
description: d
today: "2025-03-10"
steps: [{process: true}]
assertions: [{type: vibes, expect: {a: b}}]
`,
			wantErr: `unknown assertion type "vibes"`,
		},
		{
			name: "unknown topic",
			yaml: `
name: n
description: d
today: "2025-03-10"
steps: [{process: true}]
assertions: [{type: event_count, topic: finance.nope, count: 1}]
`,
			wantErr: `unknown topic "finance.nope"`,
		},
		{
			name: "negative count",
			yaml: `
name: n
description: d
today: "2025-03-10"
steps: [{process: true}]
assertions: [{type: event_count, topic: finance.tx.created, count: -1}]
`,
			wantErr: "count must be non-negative",
		},
		{
			name: "process_result on a non-process step",
			yaml: `
name: n
description: d
today: "2025-03-10"
steps: [{today: "2025-03-11"}]
assertions: [{type: process_result, step: 1, expect: {processed: 0}}]
`,
			wantErr: "step 1 is not a process step",
		},
		{
			name: "debt without id",
			yaml: `
name: n
description: d
today: "2025-03-10"
steps: [{process: true}]
assertions: [{type: debt, expect: {status: paid}}]
`,
			wantErr: "id is required for debt",
		},
		{
			name: "habit_entry without date",
			yaml: `
name: n
description: d
today: "2025-03-10"
steps: [{process: true}]
assertions: [{type: habit_entry, id: h, expect: {outcome: done}}]
`,
			wantErr: "assertions[0].date",
		},
		{
			name: "state assertion without expect",
			yaml: `
name: n
description: d
today: "2025-03-10"
steps: [{process: true}]
assertions: [{type: task_status, id: t1}]
`,
			wantErr: "expect is required for task_status",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseScenario_EventCountZeroAllowed(t *testing.T) {
	_, err := ParseScenario([]byte(`
name: n
description: d
today: "2025-03-10"
steps: [{process: true}]
assertions: [{type: event_count, topic: finance.recurring.fired, count: 0}]
`))
	require.NoError(t, err)
}

func TestParseScenario_SeedErrorCarriesFixtureError(t *testing.T) {
	_, err := ParseScenario([]byte(`
name: n
description: d
today: "2025-03-10"
seed:
  accounts:
    - {id: a, name: A, currency: usd}
steps: [{process: true}]
assertions: [{type: event_count, topic: finance.tx.created, count: 0}]
`))
	require.Error(t, err)
	var fe *fixture.Error
	assert.ErrorAs(t, err, &fe)
}

func TestAssertionConstants(t *testing.T) {
	assert.Equal(t, "debt", AssertDebt)
	assert.Equal(t, "habit_entry", AssertHabitEntry)
	assert.Equal(t, "task_status", AssertTaskStatus)
	assert.Equal(t, "schedule_next", AssertScheduleNext)
	assert.Equal(t, "event_count", AssertEventCount)
	assert.Equal(t, "process_result", AssertProcessResult)
}

func TestLoadExampleScenarios(t *testing.T) {
	paths, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			scenario, err := LoadScenario(path)
			require.NoError(t, err)
			assert.NotEmpty(t, scenario.Name)
		})
	}
}
