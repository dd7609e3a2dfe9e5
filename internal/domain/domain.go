// Package domain defines the entities the reconciliation engine keeps
// consistent: recurring schedules, ledger transactions, debts, habits,
// tasks, goals, budgets and accounts.
//
// Types here carry invariants as methods (Debt.ApplyPayment,
// Task.IsOpen...) but know nothing about persistence or events.
package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound is wrapped by stores when an entity does not exist.
var ErrNotFound = errors.New("not found")

// ValidationError reports a rejected entity field.
type ValidationError struct {
	Entity string
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s.%s: %s", e.Entity, e.Field, e.Reason)
}

func invalid(entity, field, format string, args ...any) *ValidationError {
	return &ValidationError{Entity: entity, Field: field, Reason: fmt.Sprintf(format, args...)}
}

// TxType is the kind of ledger transaction.
type TxType string

const (
	TxIncome   TxType = "income"
	TxExpense  TxType = "expense"
	TxTransfer TxType = "transfer"
)

func (t TxType) Valid() bool {
	switch t {
	case TxIncome, TxExpense, TxTransfer:
		return true
	}
	return false
}

// Account is the owner of transactions and schedules.
type Account struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Currency string `json:"currency"`
}
