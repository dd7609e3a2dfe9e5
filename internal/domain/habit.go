package domain

import (
	"slices"

	"github.com/shopspring/decimal"

	"github.com/OybekDeveloper/leora/internal/date"
	"github.com/OybekDeveloper/leora/internal/money"
)

// RuleType names a finance rule variant.
type RuleType string

const (
	RuleNone                RuleType = ""
	RuleNoSpendInCategories RuleType = "no_spend_in_categories"
	RuleSpendInCategories   RuleType = "spend_in_categories"
	RuleHasAnyTransactions  RuleType = "has_any_transactions"
	RuleDailySpendUnder     RuleType = "daily_spend_under"
)

func (r RuleType) Valid() bool {
	switch r {
	case RuleNoSpendInCategories, RuleSpendInCategories, RuleHasAnyTransactions, RuleDailySpendUnder:
		return true
	}
	return false
}

// FinanceRule is the tagged variant that drives a habit from the ledger.
// Only the fields of the chosen Type are meaningful.
type FinanceRule struct {
	Type RuleType `json:"type"`

	// no_spend_in_categories, spend_in_categories
	CategoryIDs []string `json:"category_ids,omitempty"`
	// spend_in_categories; nil means any positive spend
	MinAmount *decimal.Decimal `json:"min_amount,omitempty"`
	// has_any_transactions; empty means every account
	AccountIDs []string `json:"account_ids,omitempty"`
	// daily_spend_under
	Limit money.Amount `json:"limit,omitzero"`
}

func (r FinanceRule) HasCategory(id string) bool { return slices.Contains(r.CategoryIDs, id) }
func (r FinanceRule) HasAccount(id string) bool  { return slices.Contains(r.AccountIDs, id) }

// Validate checks the parameters of the chosen variant.
func (r FinanceRule) Validate() error {
	switch r.Type {
	case RuleNoSpendInCategories, RuleSpendInCategories:
		if len(r.CategoryIDs) == 0 {
			return invalid("habit", "finance_rule.category_ids", "required for %s", r.Type)
		}
	case RuleDailySpendUnder:
		if !r.Limit.IsPositive() || r.Limit.Currency() == "" {
			return invalid("habit", "finance_rule.limit", "positive amount with currency required")
		}
	case RuleHasAnyTransactions:
	default:
		return invalid("habit", "finance_rule.type", "unknown rule %q", r.Type)
	}
	return nil
}

// Outcome is the recorded result of a habit for one day.
type Outcome string

const (
	Done Outcome = "done"
	Miss Outcome = "miss"
)

// Habit is the finance-linked subset of a planner habit.
type Habit struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	IsActive bool         `json:"is_active"`
	Rule     *FinanceRule `json:"finance_rule,omitempty"`
}

// FinanceLinked reports whether the ledger drives this habit.
func (h Habit) FinanceLinked() bool { return h.Rule != nil && h.Rule.Type != RuleNone }

// HabitEntry is the single outcome stored for a habit on a calendar day.
type HabitEntry struct {
	HabitID string           `json:"habit_id"`
	Day     date.Date        `json:"day"`
	Outcome Outcome          `json:"outcome"`
	Value   *decimal.Decimal `json:"value,omitempty"`
}
