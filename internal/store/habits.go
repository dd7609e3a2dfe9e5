package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/OybekDeveloper/leora/internal/date"
	"github.com/OybekDeveloper/leora/internal/domain"
)

// HabitFilter narrows ListHabits.
type HabitFilter struct {
	ActiveOnly bool
	// FinanceLinked keeps habits that carry a finance rule.
	FinanceLinked bool
}

func (s *Store) CreateHabit(ctx context.Context, h domain.Habit) error {
	rule, err := marshalRule(h.Rule)
	if err != nil {
		return fmt.Errorf("create habit %s: %w", h.ID, err)
	}
	_, err = s.conn(ctx).ExecContext(ctx, `
		INSERT INTO habits (id, name, is_active, finance_rule) VALUES (?, ?, ?, ?)
	`, h.ID, h.Name, boolInt(h.IsActive), rule)
	if err != nil {
		return fmt.Errorf("create habit %s: %w", h.ID, err)
	}
	return nil
}

func (s *Store) UpdateHabit(ctx context.Context, h domain.Habit) error {
	rule, err := marshalRule(h.Rule)
	if err != nil {
		return fmt.Errorf("update habit %s: %w", h.ID, err)
	}
	res, err := s.conn(ctx).ExecContext(ctx, `
		UPDATE habits SET name = ?, is_active = ?, finance_rule = ? WHERE id = ?
	`, h.Name, boolInt(h.IsActive), rule, h.ID)
	if err != nil {
		return fmt.Errorf("update habit %s: %w", h.ID, err)
	}
	return requireRow(res, "habit", h.ID)
}

func (s *Store) GetHabit(ctx context.Context, id string) (domain.Habit, error) {
	row := s.conn(ctx).QueryRowContext(ctx, `SELECT id, name, is_active, finance_rule FROM habits WHERE id = ?`, id)
	h, err := scanHabit(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Habit{}, notFound("habit", id)
	}
	return h, err
}

func (s *Store) ListHabits(ctx context.Context, f HabitFilter) ([]domain.Habit, error) {
	query := `SELECT id, name, is_active, finance_rule FROM habits WHERE 1 = 1`
	if f.ActiveOnly {
		query += ` AND is_active = 1`
	}
	if f.FinanceLinked {
		query += ` AND finance_rule IS NOT NULL`
	}
	rows, err := s.conn(ctx).QueryContext(ctx, query+` ORDER BY id COLLATE BINARY ASC`)
	if err != nil {
		return nil, fmt.Errorf("query habits: %w", err)
	}
	defer rows.Close()

	out := []domain.Habit{}
	for rows.Next() {
		h, err := scanHabit(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate habits: %w", err)
	}
	return out, nil
}

func marshalRule(r *domain.FinanceRule) (any, error) {
	if r == nil || r.Type == domain.RuleNone {
		return nil, nil
	}
	return marshalJSON(r)
}

func scanHabit(r rowScanner) (domain.Habit, error) {
	var (
		h      domain.Habit
		active int
		rule   sql.NullString
	)
	if err := r.Scan(&h.ID, &h.Name, &active, &rule); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return h, err
		}
		return h, fmt.Errorf("scan habit: %w", err)
	}
	h.IsActive = active == 1
	if rule.Valid {
		h.Rule = &domain.FinanceRule{}
		if err := unmarshalJSON(rule.String, h.Rule); err != nil {
			return h, fmt.Errorf("scan habit %s: finance_rule: %w", h.ID, err)
		}
	}
	return h, nil
}

// UpsertHabitEntry records the outcome of a habit for a day. The
// (habit_id, day) key keeps one outcome per day; a later write replaces it.
func (s *Store) UpsertHabitEntry(ctx context.Context, e domain.HabitEntry) error {
	var value any
	if e.Value != nil {
		value = e.Value.String()
	}
	_, err := s.conn(ctx).ExecContext(ctx, `
		INSERT INTO habit_entries (habit_id, day, outcome, value) VALUES (?, ?, ?, ?)
		ON CONFLICT(habit_id, day) DO UPDATE SET outcome = excluded.outcome, value = excluded.value
	`, e.HabitID, e.Day, string(e.Outcome), value)
	if err != nil {
		return fmt.Errorf("upsert habit entry %s@%s: %w", e.HabitID, e.Day, err)
	}
	return nil
}

func (s *Store) GetHabitEntry(ctx context.Context, habitID string, day date.Date) (domain.HabitEntry, error) {
	row := s.conn(ctx).QueryRowContext(ctx, `
		SELECT habit_id, day, outcome, value FROM habit_entries WHERE habit_id = ? AND day = ?
	`, habitID, day)
	e, err := scanHabitEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return e, notFound("habit entry", habitID+"@"+day.String())
	}
	return e, err
}

// ListHabitEntries returns the history of a habit in day order.
func (s *Store) ListHabitEntries(ctx context.Context, habitID string) ([]domain.HabitEntry, error) {
	rows, err := s.conn(ctx).QueryContext(ctx, `
		SELECT habit_id, day, outcome, value FROM habit_entries WHERE habit_id = ? ORDER BY day ASC
	`, habitID)
	if err != nil {
		return nil, fmt.Errorf("query habit entries: %w", err)
	}
	defer rows.Close()

	out := []domain.HabitEntry{}
	for rows.Next() {
		e, err := scanHabitEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate habit entries: %w", err)
	}
	return out, nil
}

func scanHabitEntry(r rowScanner) (domain.HabitEntry, error) {
	var (
		e       domain.HabitEntry
		outcome string
		value   sql.NullString
	)
	if err := r.Scan(&e.HabitID, &e.Day, &outcome, &value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return e, err
		}
		return e, fmt.Errorf("scan habit entry: %w", err)
	}
	e.Outcome = domain.Outcome(outcome)
	if value.Valid {
		v, err := decimal.NewFromString(value.String)
		if err != nil {
			return e, fmt.Errorf("scan habit entry %s: value: %w", e.HabitID, err)
		}
		e.Value = &v
	}
	return e, nil
}
