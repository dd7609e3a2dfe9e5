package domain

import (
	"time"

	"github.com/OybekDeveloper/leora/internal/date"
	"github.com/OybekDeveloper/leora/internal/money"
)

// Pattern is a recurrence pattern name.
type Pattern string

const (
	Daily     Pattern = "daily"
	Weekly    Pattern = "weekly"
	Biweekly  Pattern = "biweekly"
	Monthly   Pattern = "monthly"
	Quarterly Pattern = "quarterly"
	Yearly    Pattern = "yearly"
)

func (p Pattern) Valid() bool {
	switch p {
	case Daily, Weekly, Biweekly, Monthly, Quarterly, Yearly:
		return true
	}
	return false
}

// Schedule is a template for periodic ledger entries.
//
// NextOccurrence is never before StartDate and never in SkipDates; it only
// moves forward through the recurrence calculator.
type Schedule struct {
	ID          string         `json:"id"`
	AccountID   string         `json:"account_id"`
	Type        TxType         `json:"type"`
	Amount      money.Amount   `json:"amount"`
	CategoryID  string         `json:"category_id,omitempty"`
	Description string         `json:"description,omitempty"`
	DebtID      string         `json:"debt_id,omitempty"`
	BudgetID    string         `json:"budget_id,omitempty"`
	Pattern     Pattern        `json:"pattern"`
	Interval    int            `json:"interval"`
	DaysOfWeek  []time.Weekday `json:"days_of_week,omitempty"`
	DayOfMonth  int            `json:"day_of_month,omitempty"`
	StartDate   date.Date      `json:"start_date"`
	EndDate     date.Date      `json:"end_date,omitempty"`

	NextOccurrence date.Date `json:"next_occurrence"`
	SkipDates      date.Set  `json:"skip_dates,omitempty"`
	IsActive       bool      `json:"is_active"`
	IsPaused       bool      `json:"is_paused"`
	TransactionIDs []string  `json:"transaction_ids,omitempty"`
}

// Ended reports whether d lies past the schedule's end date.
func (s Schedule) Ended(d date.Date) bool {
	return !s.EndDate.IsZero() && d.After(s.EndDate)
}

// Due reports whether the schedule should fire on or before today.
func (s Schedule) Due(today date.Date) bool {
	return s.IsActive && !s.NextOccurrence.IsZero() && !s.NextOccurrence.After(today)
}

// Validate checks the template fields. Recurrence constraints are checked
// separately by the recurrence package.
func (s Schedule) Validate() error {
	if s.AccountID == "" {
		return invalid("schedule", "account_id", "required")
	}
	if !s.Type.Valid() {
		return invalid("schedule", "type", "unknown type %q", s.Type)
	}
	if !s.Amount.IsPositive() {
		return invalid("schedule", "amount", "must be positive")
	}
	if s.StartDate.IsZero() {
		return invalid("schedule", "start_date", "required")
	}
	if !s.EndDate.IsZero() && s.EndDate.Before(s.StartDate) {
		return invalid("schedule", "end_date", "before start_date")
	}
	return nil
}

// Occurrence builds the ledger entry for one firing of the schedule.
func (s Schedule) Occurrence(id string, on date.Date, now time.Time) Transaction {
	return Transaction{
		ID:          id,
		AccountID:   s.AccountID,
		Type:        s.Type,
		Amount:      s.Amount,
		CategoryID:  s.CategoryID,
		Date:        on,
		Description: s.Description,
		DebtID:      s.DebtID,
		BudgetID:    s.BudgetID,
		ScheduleID:  s.ID,
		Occurrence:  on,
		CreatedAt:   now,
	}
}
