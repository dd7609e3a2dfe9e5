package domain

import (
	"github.com/shopspring/decimal"

	"github.com/OybekDeveloper/leora/internal/date"
	"github.com/OybekDeveloper/leora/internal/money"
)

// DebtDirection says who owes whom.
type DebtDirection string

const (
	IOwe      DebtDirection = "i_owe"
	TheyOweMe DebtDirection = "they_owe_me"
)

// DebtStatus is the lifecycle state of a debt.
type DebtStatus string

const (
	DebtActive   DebtStatus = "active"
	DebtPaid     DebtStatus = "paid"
	DebtOverdue  DebtStatus = "overdue"
	DebtCanceled DebtStatus = "canceled"
)

// Debt is an obligation between the user and a counterparty.
//
// 0 <= Remaining <= Principal always holds, and Status is paid exactly when
// Remaining is zero after a payment.
type Debt struct {
	ID           string        `json:"id"`
	Direction    DebtDirection `json:"direction"`
	Counterparty string        `json:"counterparty,omitempty"`
	Principal    money.Amount  `json:"principal"`
	Remaining    money.Amount  `json:"remaining"`
	Status       DebtStatus    `json:"status"`
	DueDate      date.Date     `json:"due_date,omitempty"`
}

// ApplyPayment lowers Remaining by amount, floored at zero, and returns the
// part of amount that was actually applied.
func (d *Debt) ApplyPayment(amount decimal.Decimal) decimal.Decimal {
	rem := d.Remaining
	d.Remaining = money.Max(rem.WithValue(decimal.Zero), rem.Sub(rem.WithValue(amount.Abs())))
	if d.Remaining.IsZero() {
		d.Status = DebtPaid
	}
	return rem.Sub(d.Remaining).Decimal()
}

// ReversePayment raises Remaining by amount, capped at Principal. A paid
// debt that is no longer settled reopens as reopenAs, or as active when
// reopenAs is empty or paid.
func (d *Debt) ReversePayment(amount decimal.Decimal, reopenAs DebtStatus) {
	d.Remaining = money.Min(d.Principal, d.Remaining.Add(d.Remaining.WithValue(amount.Abs())))
	if d.Status == DebtPaid && d.Remaining.IsPositive() {
		switch reopenAs {
		case "", DebtPaid:
			d.Status = DebtActive
		default:
			d.Status = reopenAs
		}
	}
}

// Validate checks the balance invariant.
func (d Debt) Validate() error {
	switch d.Direction {
	case IOwe, TheyOweMe:
	default:
		return invalid("debt", "direction", "unknown direction %q", d.Direction)
	}
	if d.Principal.IsNegative() {
		return invalid("debt", "principal", "must not be negative")
	}
	if d.Remaining.IsNegative() || d.Remaining.Decimal().GreaterThan(d.Principal.Decimal()) {
		return invalid("debt", "remaining", "must be within 0..principal")
	}
	return nil
}

// DebtSync records what one transaction took off a debt. Reversal restores
// exactly Applied, so create-then-delete always nets to zero even when the
// payment was clamped at the remaining balance.
//
// PriorStatus is set only on the payment that settled the debt and holds
// the status it had before, so a reversal reopens it as overdue when it was
// overdue.
type DebtSync struct {
	TransactionID string       `json:"transaction_id"`
	DebtID        string       `json:"debt_id"`
	Applied       money.Amount `json:"applied"`
	SyncedOn      date.Date    `json:"synced_on"`
	PriorStatus   DebtStatus   `json:"prior_status,omitempty"`
}
