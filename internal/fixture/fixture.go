// Package fixture loads seed data written in CUE and inserts it into a
// running app.
//
// Every seed is unified with the embedded schema before use, so defaults
// are filled in and unknown fields, unknown enum values and malformed dates
// or amounts are rejected with a source position.
package fixture

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

//go:embed schema.cue
var schemaCUE string

// Seed is a set of entities to insert. Fields mirror schema.cue.
type Seed struct {
	Accounts     []Account     `json:"accounts,omitempty" yaml:"accounts"`
	Debts        []Debt        `json:"debts,omitempty" yaml:"debts"`
	Budgets      []Budget      `json:"budgets,omitempty" yaml:"budgets"`
	Goals        []Goal        `json:"goals,omitempty" yaml:"goals"`
	Tasks        []Task        `json:"tasks,omitempty" yaml:"tasks"`
	Habits       []Habit       `json:"habits,omitempty" yaml:"habits"`
	Schedules    []Schedule    `json:"schedules,omitempty" yaml:"schedules"`
	Transactions []Transaction `json:"transactions,omitempty" yaml:"transactions"`
}

type Account struct {
	ID       string `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	Currency string `json:"currency" yaml:"currency"`
}

type Debt struct {
	ID           string `json:"id" yaml:"id"`
	Direction    string `json:"direction" yaml:"direction"`
	Counterparty string `json:"counterparty,omitempty" yaml:"counterparty"`
	Principal    string `json:"principal" yaml:"principal"`
	Remaining    string `json:"remaining,omitempty" yaml:"remaining"` // defaults to principal
	Currency     string `json:"currency" yaml:"currency"`
	Status       string `json:"status,omitempty" yaml:"status"`
	DueDate      string `json:"due_date,omitempty" yaml:"due_date"`
}

type Budget struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Limit       string   `json:"limit" yaml:"limit"`
	Spent       string   `json:"spent,omitempty" yaml:"spent"`
	Currency    string   `json:"currency" yaml:"currency"`
	CategoryIDs []string `json:"category_ids,omitempty" yaml:"category_ids"`
}

type Rule struct {
	Type        string   `json:"type" yaml:"type"`
	CategoryIDs []string `json:"category_ids,omitempty" yaml:"category_ids"`
	MinAmount   string   `json:"min_amount,omitempty" yaml:"min_amount"`
	AccountIDs  []string `json:"account_ids,omitempty" yaml:"account_ids"`
	Limit       string   `json:"limit,omitempty" yaml:"limit"`
	Currency    string   `json:"currency,omitempty" yaml:"currency"`
}

type Habit struct {
	ID       string `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	IsActive *bool  `json:"is_active,omitempty" yaml:"is_active"`
	Rule     *Rule  `json:"rule,omitempty" yaml:"rule"`
}

type Goal struct {
	ID             string `json:"id" yaml:"id"`
	Title          string `json:"title" yaml:"title"`
	LinkedDebtID   string `json:"linked_debt_id,omitempty" yaml:"linked_debt_id"`
	LinkedBudgetID string `json:"linked_budget_id,omitempty" yaml:"linked_budget_id"`
}

type Task struct {
	ID          string `json:"id" yaml:"id"`
	Title       string `json:"title" yaml:"title"`
	Status      string `json:"status,omitempty" yaml:"status"`
	FinanceLink string `json:"finance_link,omitempty" yaml:"finance_link"`
	GoalID      string `json:"goal_id,omitempty" yaml:"goal_id"`
}

type Schedule struct {
	ID          string   `json:"id,omitempty" yaml:"id"`
	AccountID   string   `json:"account_id" yaml:"account_id"`
	Type        string   `json:"type" yaml:"type"`
	Amount      string   `json:"amount" yaml:"amount"`
	CategoryID  string   `json:"category_id,omitempty" yaml:"category_id"`
	Description string   `json:"description,omitempty" yaml:"description"`
	DebtID      string   `json:"debt_id,omitempty" yaml:"debt_id"`
	BudgetID    string   `json:"budget_id,omitempty" yaml:"budget_id"`
	Pattern     string   `json:"pattern" yaml:"pattern"`
	Interval    int      `json:"interval,omitempty" yaml:"interval"`
	DaysOfWeek  []int    `json:"days_of_week,omitempty" yaml:"days_of_week"`
	DayOfMonth  int      `json:"day_of_month,omitempty" yaml:"day_of_month"`
	StartDate   string   `json:"start_date" yaml:"start_date"`
	EndDate     string   `json:"end_date,omitempty" yaml:"end_date"`
	SkipDates   []string `json:"skip_dates,omitempty" yaml:"skip_dates"`
	IsPaused    bool     `json:"is_paused,omitempty" yaml:"is_paused"`
}

type Transaction struct {
	ID          string `json:"id,omitempty" yaml:"id"`
	AccountID   string `json:"account_id" yaml:"account_id"`
	Type        string `json:"type" yaml:"type"`
	Amount      string `json:"amount" yaml:"amount"`
	Date        string `json:"date" yaml:"date"`
	CategoryID  string `json:"category_id,omitempty" yaml:"category_id"`
	Description string `json:"description,omitempty" yaml:"description"`
	DebtID      string `json:"debt_id,omitempty" yaml:"debt_id"`
	BudgetID    string `json:"budget_id,omitempty" yaml:"budget_id"`
}

// Error is a schema violation with its CUE source position.
type Error struct {
	Message string
	Pos     token.Pos
}

func (e *Error) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Message)
	}
	return e.Message
}

// Load reads and validates a CUE seed file.
func Load(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed: %w", err)
	}
	return Parse(data, path)
}

// Parse validates CUE source against the seed schema and decodes it.
func Parse(data []byte, filename string) (*Seed, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return decode(ctx, v)
}

// Check runs a seed that was built in Go, or decoded from another format,
// through the schema. It returns a copy with defaults filled in.
func (s Seed) Check() (*Seed, error) {
	ctx := cuecontext.New()
	v := ctx.Encode(s)
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return decode(ctx, v)
}

func decode(ctx *cue.Context, v cue.Value) (*Seed, error) {
	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("seed schema: %w", err)
	}
	u := schema.LookupPath(cue.ParsePath("#Seed")).Unify(v)
	if err := u.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}
	var seed Seed
	if err := u.Decode(&seed); err != nil {
		return nil, formatCUEError(err)
	}
	return &seed, nil
}

// formatCUEError keeps the first CUE error and its position.
func formatCUEError(err error) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	e := &Error{Message: first.Error()}
	if positions := errors.Positions(first); len(positions) > 0 {
		e.Pos = positions[0]
	}
	return e
}
