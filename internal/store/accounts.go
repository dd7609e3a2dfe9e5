package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/OybekDeveloper/leora/internal/date"
	"github.com/OybekDeveloper/leora/internal/domain"
)

func (s *Store) CreateAccount(ctx context.Context, a domain.Account) error {
	_, err := s.conn(ctx).ExecContext(ctx, `
		INSERT INTO accounts (id, name, currency) VALUES (?, ?, ?)
	`, a.ID, a.Name, a.Currency)
	if err != nil {
		return fmt.Errorf("create account %s: %w", a.ID, err)
	}
	return nil
}

func (s *Store) GetAccount(ctx context.Context, id string) (domain.Account, error) {
	var a domain.Account
	err := s.conn(ctx).QueryRowContext(ctx, `
		SELECT id, name, currency FROM accounts WHERE id = ?
	`, id).Scan(&a.ID, &a.Name, &a.Currency)
	if errors.Is(err, sql.ErrNoRows) {
		return a, notFound("account", id)
	}
	if err != nil {
		return a, fmt.Errorf("get account %s: %w", id, err)
	}
	return a, nil
}

// LastProcessedDate returns the day the schedule processor last completed a
// run, or the zero date if it never has.
func (s *Store) LastProcessedDate(ctx context.Context) (date.Date, error) {
	var d date.Date
	err := s.conn(ctx).QueryRowContext(ctx, `SELECT last_processed FROM scheduler_state WHERE id = 1`).Scan(&d)
	if errors.Is(err, sql.ErrNoRows) {
		return date.Date{}, nil
	}
	if err != nil {
		return date.Date{}, fmt.Errorf("get last processed date: %w", err)
	}
	return d, nil
}

func (s *Store) SetLastProcessedDate(ctx context.Context, d date.Date) error {
	_, err := s.conn(ctx).ExecContext(ctx, `
		INSERT INTO scheduler_state (id, last_processed) VALUES (1, ?)
		ON CONFLICT(id) DO UPDATE SET last_processed = excluded.last_processed
	`, d)
	if err != nil {
		return fmt.Errorf("set last processed date: %w", err)
	}
	return nil
}
