package bus

import (
	"time"

	"github.com/OybekDeveloper/leora/internal/date"
	"github.com/OybekDeveloper/leora/internal/domain"
	"github.com/OybekDeveloper/leora/internal/money"
)

// Topic names one kind of event. The set is closed: every Topic has exactly
// one payload type below.
type Topic string

const (
	TopicTxCreated             Topic = "finance.tx.created"
	TopicTxUpdated             Topic = "finance.tx.updated"
	TopicTxDeleted             Topic = "finance.tx.deleted"
	TopicDebtPaymentAdded      Topic = "finance.debt.payment_added"
	TopicDebtStatusChanged     Topic = "finance.debt.status_changed"
	TopicDebtSynced            Topic = "finance.debt.synced"
	TopicDebtSyncReversed      Topic = "finance.debt.sync_reversed"
	TopicBudgetSpendingChanged Topic = "finance.budget.spending_changed"
	TopicRecurringFired        Topic = "finance.recurring.fired"
	TopicHabitDayEvaluated     Topic = "planner.habit.day_evaluated"
	TopicTaskAutoCompleted     Topic = "planner.task.auto_completed"
)

// Topics lists every topic in a stable order.
func Topics() []Topic {
	return []Topic{
		TopicTxCreated,
		TopicTxUpdated,
		TopicTxDeleted,
		TopicDebtPaymentAdded,
		TopicDebtStatusChanged,
		TopicDebtSynced,
		TopicDebtSyncReversed,
		TopicBudgetSpendingChanged,
		TopicRecurringFired,
		TopicHabitDayEvaluated,
		TopicTaskAutoCompleted,
	}
}

// Event is implemented only by the payload types of this package.
type Event interface {
	Topic() Topic
	event()
}

// TxCreated is published after a ledger transaction is committed.
type TxCreated struct {
	Transaction domain.Transaction `json:"transaction"`
}

// TxUpdated carries both versions so listeners can re-evaluate the old day
// as well as the new one.
type TxUpdated struct {
	Before domain.Transaction `json:"before"`
	After  domain.Transaction `json:"after"`
}

// TxDeleted carries the transaction as it was before deletion.
type TxDeleted struct {
	Transaction domain.Transaction `json:"transaction"`
}

// Payment is the debt-side view of a debt-tagged transaction.
type Payment struct {
	ID     string       `json:"id"`
	Amount money.Amount `json:"amount"`
	PaidAt date.Date    `json:"paid_at"`
	Note   string       `json:"note,omitempty"`
}

type DebtPaymentAdded struct {
	DebtID  string  `json:"debt_id"`
	Payment Payment `json:"payment"`
}

type DebtStatusChanged struct {
	DebtID        string            `json:"debt_id"`
	From          domain.DebtStatus `json:"from"`
	To            domain.DebtStatus `json:"to"`
	TransactionID string            `json:"transaction_id,omitempty"`
}

// DebtSynced reports the amount a transaction actually took off a debt.
type DebtSynced struct {
	DebtID        string            `json:"debt_id"`
	TransactionID string            `json:"transaction_id"`
	Applied       money.Amount      `json:"applied"`
	Remaining     money.Amount      `json:"remaining"`
	Status        domain.DebtStatus `json:"status"`
}

// DebtSyncReversed reports the amount put back when a transaction went away.
type DebtSyncReversed struct {
	DebtID        string            `json:"debt_id"`
	TransactionID string            `json:"transaction_id"`
	Restored      money.Amount      `json:"restored"`
	Remaining     money.Amount      `json:"remaining"`
	Status        domain.DebtStatus `json:"status"`
}

type BudgetSpendingChanged struct {
	BudgetID      string       `json:"budget_id"`
	Spent         money.Amount `json:"spent"`
	TransactionID string       `json:"transaction_id,omitempty"`
}

// RecurringFired is published by the schedule processor for every
// occurrence it turned into a ledger transaction.
type RecurringFired struct {
	ScheduleID     string    `json:"schedule_id"`
	TransactionID  string    `json:"transaction_id"`
	Occurrence     date.Date `json:"occurrence"`
	NextOccurrence date.Date `json:"next_occurrence"`
}

type HabitDayEvaluated struct {
	HabitID  string          `json:"habit_id"`
	Date     date.Date       `json:"date"`
	Result   domain.Outcome  `json:"result"`
	RuleType domain.RuleType `json:"rule_type"`
}

type TaskAutoCompleted struct {
	TaskID        string             `json:"task_id"`
	FinanceLink   domain.FinanceLink `json:"finance_link"`
	TransactionID string             `json:"transaction_id,omitempty"`
	CompletedAt   time.Time          `json:"completed_at"`
}

func (TxCreated) Topic() Topic             { return TopicTxCreated }
func (TxUpdated) Topic() Topic             { return TopicTxUpdated }
func (TxDeleted) Topic() Topic             { return TopicTxDeleted }
func (DebtPaymentAdded) Topic() Topic      { return TopicDebtPaymentAdded }
func (DebtStatusChanged) Topic() Topic     { return TopicDebtStatusChanged }
func (DebtSynced) Topic() Topic            { return TopicDebtSynced }
func (DebtSyncReversed) Topic() Topic      { return TopicDebtSyncReversed }
func (BudgetSpendingChanged) Topic() Topic { return TopicBudgetSpendingChanged }
func (RecurringFired) Topic() Topic        { return TopicRecurringFired }
func (HabitDayEvaluated) Topic() Topic     { return TopicHabitDayEvaluated }
func (TaskAutoCompleted) Topic() Topic     { return TopicTaskAutoCompleted }

func (TxCreated) event()             {}
func (TxUpdated) event()             {}
func (TxDeleted) event()             {}
func (DebtPaymentAdded) event()      {}
func (DebtStatusChanged) event()     {}
func (DebtSynced) event()            {}
func (DebtSyncReversed) event()      {}
func (BudgetSpendingChanged) event() {}
func (RecurringFired) event()        {}
func (HabitDayEvaluated) event()     {}
func (TaskAutoCompleted) event()     {}
