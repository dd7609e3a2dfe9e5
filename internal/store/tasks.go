package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/OybekDeveloper/leora/internal/domain"
)

// TaskFilter narrows ListTasks.
type TaskFilter struct {
	// Open keeps planned and in-progress tasks.
	Open bool
	// Linked keeps tasks whose finance link is not none.
	Linked bool
}

const taskColumns = `id, title, status, finance_link, goal_id, completed_at`

func (s *Store) CreateTask(ctx context.Context, t domain.Task) error {
	link := t.FinanceLink
	if link == "" {
		link = domain.LinkNone
	}
	_, err := s.conn(ctx).ExecContext(ctx, `
		INSERT INTO tasks (`+taskColumns+`) VALUES (?, ?, ?, ?, ?, ?)
	`, t.ID, t.Title, string(t.Status), string(link), t.GoalID, formatNullTime(t.CompletedAt))
	if err != nil {
		return fmt.Errorf("create task %s: %w", t.ID, err)
	}
	return nil
}

func (s *Store) UpdateTask(ctx context.Context, t domain.Task) error {
	res, err := s.conn(ctx).ExecContext(ctx, `
		UPDATE tasks SET title = ?, status = ?, finance_link = ?, goal_id = ?, completed_at = ?
		WHERE id = ?
	`, t.Title, string(t.Status), string(t.FinanceLink), t.GoalID, formatNullTime(t.CompletedAt), t.ID)
	if err != nil {
		return fmt.Errorf("update task %s: %w", t.ID, err)
	}
	return requireRow(res, "task", t.ID)
}

func (s *Store) GetTask(ctx context.Context, id string) (domain.Task, error) {
	row := s.conn(ctx).QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Task{}, notFound("task", id)
	}
	return t, err
}

func (s *Store) ListTasks(ctx context.Context, f TaskFilter) ([]domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE 1 = 1`
	var args []any
	if f.Open {
		query += ` AND status IN (?, ?)`
		args = append(args, string(domain.TaskPlanned), string(domain.TaskInProgress))
	}
	if f.Linked {
		query += ` AND finance_link NOT IN ('', ?)`
		args = append(args, string(domain.LinkNone))
	}
	rows, err := s.conn(ctx).QueryContext(ctx, query+` ORDER BY id COLLATE BINARY ASC`, args...)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	out := []domain.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return out, nil
}

func scanTask(r rowScanner) (domain.Task, error) {
	var (
		t            domain.Task
		status, link string
		completedAt  sql.NullString
	)
	if err := r.Scan(&t.ID, &t.Title, &status, &link, &t.GoalID, &completedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return t, err
		}
		return t, fmt.Errorf("scan task: %w", err)
	}
	t.Status = domain.TaskStatus(status)
	t.FinanceLink = domain.FinanceLink(link)
	var err error
	if t.CompletedAt, err = parseNullTime(completedAt); err != nil {
		return t, fmt.Errorf("scan task %s: %w", t.ID, err)
	}
	return t, nil
}

func (s *Store) CreateGoal(ctx context.Context, g domain.Goal) error {
	_, err := s.conn(ctx).ExecContext(ctx, `
		INSERT INTO goals (id, title, linked_debt_id, linked_budget_id) VALUES (?, ?, ?, ?)
	`, g.ID, g.Title, g.LinkedDebtID, g.LinkedBudgetID)
	if err != nil {
		return fmt.Errorf("create goal %s: %w", g.ID, err)
	}
	return nil
}

func (s *Store) GetGoal(ctx context.Context, id string) (domain.Goal, error) {
	var g domain.Goal
	err := s.conn(ctx).QueryRowContext(ctx, `
		SELECT id, title, linked_debt_id, linked_budget_id FROM goals WHERE id = ?
	`, id).Scan(&g.ID, &g.Title, &g.LinkedDebtID, &g.LinkedBudgetID)
	if errors.Is(err, sql.ErrNoRows) {
		return g, notFound("goal", id)
	}
	if err != nil {
		return g, fmt.Errorf("get goal %s: %w", id, err)
	}
	return g, nil
}
