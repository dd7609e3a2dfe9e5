package domain

import (
	"time"

	"github.com/OybekDeveloper/leora/internal/date"
	"github.com/OybekDeveloper/leora/internal/money"
)

// Transaction is one ledger entry. Amount is stored as entered; listeners
// always work on its absolute value.
type Transaction struct {
	ID          string       `json:"id"`
	AccountID   string       `json:"account_id"`
	Type        TxType       `json:"type"`
	Amount      money.Amount `json:"amount"`
	CategoryID  string       `json:"category_id,omitempty"`
	Date        date.Date    `json:"date"`
	Description string       `json:"description,omitempty"`

	// Tag references into other domains.
	DebtID   string `json:"debt_id,omitempty"`
	BudgetID string `json:"budget_id,omitempty"`
	HabitID  string `json:"habit_id,omitempty"`

	// ScheduleID and Occurrence are set when the processor created the entry.
	ScheduleID string    `json:"schedule_id,omitempty"`
	Occurrence date.Date `json:"occurrence,omitempty"`

	Status    string    `json:"status,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Validate checks the fields every transaction must carry.
func (t Transaction) Validate() error {
	if t.AccountID == "" {
		return invalid("transaction", "account_id", "required")
	}
	if !t.Type.Valid() {
		return invalid("transaction", "type", "unknown type %q", t.Type)
	}
	if t.Amount.Currency() == "" {
		return invalid("transaction", "amount", "currency required")
	}
	if t.Amount.IsZero() {
		return invalid("transaction", "amount", "must be non-zero")
	}
	if t.Date.IsZero() {
		return invalid("transaction", "date", "required")
	}
	return nil
}

func (t Transaction) IsExpense() bool  { return t.Type == TxExpense }
func (t Transaction) IsTransfer() bool { return t.Type == TxTransfer }
