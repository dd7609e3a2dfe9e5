package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/OybekDeveloper/leora/internal/domain"
)

const budgetColumns = `id, name, limit_amount, spent, currency, category_ids`

func (s *Store) CreateBudget(ctx context.Context, b domain.Budget) error {
	args, err := budgetArgs(b)
	if err != nil {
		return fmt.Errorf("create budget %s: %w", b.ID, err)
	}
	_, err = s.conn(ctx).ExecContext(ctx, `
		INSERT INTO budgets (`+budgetColumns+`) VALUES (?, ?, ?, ?, ?, ?)
	`, append([]any{b.ID}, args...)...)
	if err != nil {
		return fmt.Errorf("create budget %s: %w", b.ID, err)
	}
	return nil
}

func (s *Store) UpdateBudget(ctx context.Context, b domain.Budget) error {
	args, err := budgetArgs(b)
	if err != nil {
		return fmt.Errorf("update budget %s: %w", b.ID, err)
	}
	res, err := s.conn(ctx).ExecContext(ctx, `
		UPDATE budgets SET name = ?, limit_amount = ?, spent = ?, currency = ?, category_ids = ?
		WHERE id = ?
	`, append(args, b.ID)...)
	if err != nil {
		return fmt.Errorf("update budget %s: %w", b.ID, err)
	}
	return requireRow(res, "budget", b.ID)
}

func (s *Store) GetBudget(ctx context.Context, id string) (domain.Budget, error) {
	row := s.conn(ctx).QueryRowContext(ctx, `SELECT `+budgetColumns+` FROM budgets WHERE id = ?`, id)
	b, err := scanBudget(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Budget{}, notFound("budget", id)
	}
	return b, err
}

func (s *Store) ListBudgets(ctx context.Context) ([]domain.Budget, error) {
	rows, err := s.conn(ctx).QueryContext(ctx, `SELECT `+budgetColumns+` FROM budgets ORDER BY id COLLATE BINARY ASC`)
	if err != nil {
		return nil, fmt.Errorf("query budgets: %w", err)
	}
	defer rows.Close()

	out := []domain.Budget{}
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate budgets: %w", err)
	}
	return out, nil
}

func budgetArgs(b domain.Budget) ([]any, error) {
	cats := b.CategoryIDs
	if cats == nil {
		cats = []string{}
	}
	catsJSON, err := marshalJSON(cats)
	if err != nil {
		return nil, err
	}
	cur := b.Limit.Currency()
	if cur == "" {
		cur = b.Spent.Currency()
	}
	return []any{b.Name, b.Limit.Decimal().String(), b.Spent.Decimal().String(), cur, catsJSON}, nil
}

func scanBudget(r rowScanner) (domain.Budget, error) {
	var (
		b                                domain.Budget
		limit, spent, currency, catsJSON string
	)
	if err := r.Scan(&b.ID, &b.Name, &limit, &spent, &currency, &catsJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return b, err
		}
		return b, fmt.Errorf("scan budget: %w", err)
	}
	var err error
	if b.Limit, err = parseAmount(limit, currency); err != nil {
		return b, fmt.Errorf("scan budget %s: %w", b.ID, err)
	}
	if b.Spent, err = parseAmount(spent, currency); err != nil {
		return b, fmt.Errorf("scan budget %s: %w", b.ID, err)
	}
	if err := unmarshalJSON(catsJSON, &b.CategoryIDs); err != nil {
		return b, fmt.Errorf("scan budget %s: category_ids: %w", b.ID, err)
	}
	if len(b.CategoryIDs) == 0 {
		b.CategoryIDs = nil
	}
	return b, nil
}
