package domain

import (
	"time"

	"github.com/OybekDeveloper/leora/internal/money"
)

// TaskStatus is the planner state of a task.
type TaskStatus string

const (
	TaskPlanned    TaskStatus = "planned"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
	TaskCanceled   TaskStatus = "canceled"
	TaskArchived   TaskStatus = "archived"
	TaskDeleted    TaskStatus = "deleted"
)

// FinanceLink names the financial event that completes a task.
type FinanceLink string

const (
	LinkNone           FinanceLink = "none"
	LinkRecordExpenses FinanceLink = "record_expenses"
	LinkPayDebt        FinanceLink = "pay_debt"
	LinkReviewBudget   FinanceLink = "review_budget"
	LinkTransferMoney  FinanceLink = "transfer_money"
)

// Task is the finance-linked subset of a planner task.
type Task struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Status      TaskStatus  `json:"status"`
	FinanceLink FinanceLink `json:"finance_link"`
	GoalID      string      `json:"goal_id,omitempty"`
	CompletedAt *time.Time  `json:"completed_at,omitempty"`
}

// IsOpen reports whether the task may still change status automatically.
// Completed, canceled, archived and deleted tasks are final.
func (t Task) IsOpen() bool {
	return t.Status == TaskPlanned || t.Status == TaskInProgress
}

// Linked reports whether some financial event can complete the task.
func (t Task) Linked() bool {
	return t.FinanceLink != "" && t.FinanceLink != LinkNone
}

// Goal is a planner goal; tasks may belong to one. Linked IDs narrow which
// debt or budget events count for the goal's tasks.
type Goal struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	LinkedDebtID   string `json:"linked_debt_id,omitempty"`
	LinkedBudgetID string `json:"linked_budget_id,omitempty"`
}

// Budget caps spending over a set of categories.
type Budget struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Limit       money.Amount `json:"limit"`
	Spent       money.Amount `json:"spent"`
	CategoryIDs []string     `json:"category_ids,omitempty"`
}

// Exceeded reports whether spending has reached the limit.
func (b Budget) Exceeded() bool {
	return b.Spent.Decimal().GreaterThanOrEqual(b.Limit.Decimal())
}
