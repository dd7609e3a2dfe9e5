package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/OybekDeveloper/leora/internal/bus"
	"github.com/OybekDeveloper/leora/internal/date"
	"github.com/OybekDeveloper/leora/internal/fixture"
)

// Scenario defines one end-to-end run.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Today is the calendar day the clock starts on.
	Today string `yaml:"today"`

	// Seed is inserted before the first step.
	Seed fixture.Seed `yaml:"seed"`

	// Steps run in order. Each step sets exactly one field.
	Steps []Step `yaml:"steps"`

	// Assertions are checked after the last step.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is a single action. Exactly one field is set.
type Step struct {
	// Today moves the clock to another day.
	Today string `yaml:"today,omitempty"`

	// CreateTx records a transaction through the ledger. An empty id is
	// filled from the sequence.
	CreateTx *fixture.Transaction `yaml:"create_tx,omitempty"`

	// DeleteTx deletes a transaction through the ledger.
	DeleteTx string `yaml:"delete_tx,omitempty"`

	// Process runs the schedule processor once.
	Process bool `yaml:"process,omitempty"`

	// EvaluateHabits re-evaluates every finance-linked habit for a day.
	EvaluateHabits string `yaml:"evaluate_habits,omitempty"`
}

// Assertion validates final state or the event trace.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// ID names the debt, habit, task or schedule.
	ID string `yaml:"id,omitempty"`

	// Date selects the habit entry (habit_entry).
	Date string `yaml:"date,omitempty"`

	// Topic is the event topic (event_count).
	Topic string `yaml:"topic,omitempty"`

	// Count is the expected number of events (event_count).
	Count int `yaml:"count,omitempty"`

	// Step is the 1-based index of a process step (process_result).
	Step int `yaml:"step,omitempty"`

	// Expect holds expected field values. Subset match: fields not listed
	// are not checked.
	Expect map[string]any `yaml:"expect,omitempty"`
}

// Assertion type constants.
const (
	AssertDebt          = "debt"
	AssertHabitEntry    = "habit_entry"
	AssertTaskStatus    = "task_status"
	AssertScheduleNext  = "schedule_next"
	AssertEventCount    = "event_count"
	AssertProcessResult = "process_result"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML and checks the seed against the seed
// schema.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict fields catch typos like "assertion:" vs "assertions:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks required fields and normalizes the seed and
// create_tx steps through the seed schema.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if _, err := date.Parse(s.Today); err != nil {
		return fmt.Errorf("today: %w", err)
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	seed, err := s.Seed.Check()
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	s.Seed = *seed

	for i := range s.Steps {
		if err := validateStep(i, &s.Steps[i]); err != nil {
			return err
		}
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a, s.Steps); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(index int, st *Step) error {
	set := 0
	if st.Today != "" {
		set++
		if _, err := date.Parse(st.Today); err != nil {
			return fmt.Errorf("steps[%d].today: %w", index, err)
		}
	}
	if st.CreateTx != nil {
		set++
		checked, err := fixture.Seed{Transactions: []fixture.Transaction{*st.CreateTx}}.Check()
		if err != nil {
			return fmt.Errorf("steps[%d].create_tx: %w", index, err)
		}
		st.CreateTx = &checked.Transactions[0]
	}
	if st.DeleteTx != "" {
		set++
	}
	if st.Process {
		set++
	}
	if st.EvaluateHabits != "" {
		set++
		if _, err := date.Parse(st.EvaluateHabits); err != nil {
			return fmt.Errorf("steps[%d].evaluate_habits: %w", index, err)
		}
	}
	if set != 1 {
		return fmt.Errorf("steps[%d]: exactly one action is required, got %d", index, set)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion, steps []Step) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertDebt, AssertTaskStatus, AssertScheduleNext:
		if a.ID == "" {
			return fmt.Errorf("assertions[%d]: id is required for %s", index, a.Type)
		}
	case AssertHabitEntry:
		if a.ID == "" {
			return fmt.Errorf("assertions[%d]: id is required for habit_entry", index)
		}
		if _, err := date.Parse(a.Date); err != nil {
			return fmt.Errorf("assertions[%d].date: %w", index, err)
		}
	case AssertEventCount:
		if !knownTopic(a.Topic) {
			return fmt.Errorf("assertions[%d]: unknown topic %q", index, a.Topic)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for event_count", index)
		}
		return nil
	case AssertProcessResult:
		if a.Step < 1 || a.Step > len(steps) || !steps[a.Step-1].Process {
			return fmt.Errorf("assertions[%d]: step %d is not a process step", index, a.Step)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	if len(a.Expect) == 0 {
		return fmt.Errorf("assertions[%d]: expect is required for %s", index, a.Type)
	}
	return nil
}

func knownTopic(topic string) bool {
	for _, t := range bus.Topics() {
		if string(t) == topic {
			return true
		}
	}
	return false
}
