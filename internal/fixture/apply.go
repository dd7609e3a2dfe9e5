package fixture

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/OybekDeveloper/leora/internal/app"
	"github.com/OybekDeveloper/leora/internal/date"
	"github.com/OybekDeveloper/leora/internal/domain"
	"github.com/OybekDeveloper/leora/internal/money"
)

// Apply inserts the seed into a.
//
// Plain entities go straight into the store in one write scope. Schedules
// then go through the schedule service so their first occurrence is
// computed, and transactions through the ledger so every listener reacts
// to them as it would to a live entry.
func (s *Seed) Apply(ctx context.Context, a *app.App) error {
	err := a.Store.WithWriteScope(ctx, func(ctx context.Context) error {
		for _, r := range s.Accounts {
			cur, err := money.NormalizeCurrency(r.Currency)
			if err != nil {
				return fmt.Errorf("account %s: %w", r.ID, err)
			}
			if err := a.Store.CreateAccount(ctx, domain.Account{ID: r.ID, Name: r.Name, Currency: cur}); err != nil {
				return err
			}
		}
		for _, r := range s.Debts {
			d, err := r.domain()
			if err != nil {
				return fmt.Errorf("debt %s: %w", r.ID, err)
			}
			if err := a.Store.CreateDebt(ctx, d); err != nil {
				return err
			}
		}
		for _, r := range s.Budgets {
			b, err := r.domain()
			if err != nil {
				return fmt.Errorf("budget %s: %w", r.ID, err)
			}
			if err := a.Store.CreateBudget(ctx, b); err != nil {
				return err
			}
		}
		for _, r := range s.Goals {
			g := domain.Goal{ID: r.ID, Title: r.Title, LinkedDebtID: r.LinkedDebtID, LinkedBudgetID: r.LinkedBudgetID}
			if err := a.Store.CreateGoal(ctx, g); err != nil {
				return err
			}
		}
		for _, r := range s.Tasks {
			t := domain.Task{
				ID:          r.ID,
				Title:       r.Title,
				Status:      domain.TaskStatus(r.Status),
				FinanceLink: domain.FinanceLink(r.FinanceLink),
				GoalID:      r.GoalID,
			}
			if t.Status == domain.TaskCompleted {
				now := a.Clock().Now().UTC()
				t.CompletedAt = &now
			}
			if err := a.Store.CreateTask(ctx, t); err != nil {
				return err
			}
		}
		for _, r := range s.Habits {
			h, err := r.domain()
			if err != nil {
				return fmt.Errorf("habit %s: %w", r.ID, err)
			}
			if err := a.Store.CreateHabit(ctx, h); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("seed entities: %w", err)
	}

	for i, r := range s.Schedules {
		if _, err := r.Create(ctx, a); err != nil {
			return fmt.Errorf("schedule %d: %w", i, err)
		}
	}
	for i, r := range s.Transactions {
		if _, err := r.Create(ctx, a); err != nil {
			return fmt.Errorf("transaction %d: %w", i, err)
		}
	}
	return nil
}

// Create adds the schedule through the schedule service and pauses it when
// the record says so.
func (r Schedule) Create(ctx context.Context, a *app.App) (domain.Schedule, error) {
	sc, err := r.domain(ctx, a)
	if err != nil {
		return domain.Schedule{}, err
	}
	created, err := a.Schedules.Create(ctx, sc)
	if err != nil {
		return domain.Schedule{}, err
	}
	if !r.IsPaused {
		return created, nil
	}
	return a.Schedules.Pause(ctx, created.ID)
}

// Create records the transaction through the ledger.
func (r Transaction) Create(ctx context.Context, a *app.App) (domain.Transaction, error) {
	tx, err := r.domain(ctx, a)
	if err != nil {
		return domain.Transaction{}, err
	}
	return a.Ledger.Create(ctx, tx)
}

func (r Debt) domain() (domain.Debt, error) {
	principal, err := money.Parse(r.Principal, r.Currency)
	if err != nil {
		return domain.Debt{}, err
	}
	remaining := principal
	if r.Remaining != "" {
		if remaining, err = money.Parse(r.Remaining, r.Currency); err != nil {
			return domain.Debt{}, err
		}
	}
	if remaining.Cmp(principal) > 0 {
		return domain.Debt{}, errors.New("remaining exceeds principal")
	}
	d := domain.Debt{
		ID:           r.ID,
		Direction:    domain.DebtDirection(r.Direction),
		Counterparty: r.Counterparty,
		Principal:    principal,
		Remaining:    remaining,
		Status:       domain.DebtStatus(r.Status),
	}
	if r.DueDate != "" {
		if d.DueDate, err = date.Parse(r.DueDate); err != nil {
			return domain.Debt{}, err
		}
	}
	return d, nil
}

func (r Budget) domain() (domain.Budget, error) {
	limit, err := money.Parse(r.Limit, r.Currency)
	if err != nil {
		return domain.Budget{}, err
	}
	spent, err := money.Parse(r.Spent, r.Currency)
	if err != nil {
		return domain.Budget{}, err
	}
	return domain.Budget{ID: r.ID, Name: r.Name, Limit: limit, Spent: spent, CategoryIDs: r.CategoryIDs}, nil
}

func (r Habit) domain() (domain.Habit, error) {
	h := domain.Habit{ID: r.ID, Name: r.Name, IsActive: r.IsActive == nil || *r.IsActive}
	if r.Rule == nil {
		return h, nil
	}
	rule := domain.FinanceRule{
		Type:        domain.RuleType(r.Rule.Type),
		CategoryIDs: r.Rule.CategoryIDs,
		AccountIDs:  r.Rule.AccountIDs,
	}
	if r.Rule.MinAmount != "" {
		v, err := decimal.NewFromString(r.Rule.MinAmount)
		if err != nil {
			return domain.Habit{}, fmt.Errorf("min_amount: %w", err)
		}
		rule.MinAmount = &v
	}
	if r.Rule.Limit != "" {
		limit, err := money.Parse(r.Rule.Limit, r.Rule.Currency)
		if err != nil {
			return domain.Habit{}, fmt.Errorf("limit: %w", err)
		}
		rule.Limit = limit
	}
	if err := rule.Validate(); err != nil {
		return domain.Habit{}, err
	}
	h.Rule = &rule
	return h, nil
}

func (r Schedule) domain(ctx context.Context, a *app.App) (domain.Schedule, error) {
	amount, err := accountAmount(ctx, a, r.AccountID, r.Amount)
	if err != nil {
		return domain.Schedule{}, err
	}
	sc := domain.Schedule{
		ID:          r.ID,
		AccountID:   r.AccountID,
		Type:        domain.TxType(r.Type),
		Amount:      amount,
		CategoryID:  r.CategoryID,
		Description: r.Description,
		DebtID:      r.DebtID,
		BudgetID:    r.BudgetID,
		Pattern:     domain.Pattern(r.Pattern),
		Interval:    r.Interval,
		DayOfMonth:  r.DayOfMonth,
		SkipDates:   date.NewSet(),
	}
	for _, wd := range r.DaysOfWeek {
		sc.DaysOfWeek = append(sc.DaysOfWeek, time.Weekday(wd))
	}
	if sc.StartDate, err = date.Parse(r.StartDate); err != nil {
		return domain.Schedule{}, err
	}
	if r.EndDate != "" {
		if sc.EndDate, err = date.Parse(r.EndDate); err != nil {
			return domain.Schedule{}, err
		}
	}
	for _, s := range r.SkipDates {
		d, err := date.Parse(s)
		if err != nil {
			return domain.Schedule{}, err
		}
		sc.SkipDates.Add(d)
	}
	return sc, nil
}

func (r Transaction) domain(ctx context.Context, a *app.App) (domain.Transaction, error) {
	amount, err := accountAmount(ctx, a, r.AccountID, r.Amount)
	if err != nil {
		return domain.Transaction{}, err
	}
	on, err := date.Parse(r.Date)
	if err != nil {
		return domain.Transaction{}, err
	}
	return domain.Transaction{
		ID:          r.ID,
		AccountID:   r.AccountID,
		Type:        domain.TxType(r.Type),
		Amount:      amount,
		Date:        on,
		CategoryID:  r.CategoryID,
		Description: r.Description,
		DebtID:      r.DebtID,
		BudgetID:    r.BudgetID,
	}, nil
}

// accountAmount parses v in the currency of the account it is booked on.
func accountAmount(ctx context.Context, a *app.App, accountID, v string) (money.Amount, error) {
	acc, err := a.Store.GetAccount(ctx, accountID)
	if err != nil {
		return money.Amount{}, err
	}
	return money.Parse(v, acc.Currency)
}
