package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/OybekDeveloper/leora/internal/date"
	"github.com/OybekDeveloper/leora/internal/domain"
)

// TransactionFilter narrows ListTransactions. Zero fields match everything.
type TransactionFilter struct {
	Date       date.Date
	AccountID  string
	Type       domain.TxType
	DebtID     string
	BudgetID   string
	ScheduleID string
}

func (f TransactionFilter) where() (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		conds = append(conds, cond)
		args = append(args, arg)
	}
	if !f.Date.IsZero() {
		add("date = ?", f.Date)
	}
	if f.AccountID != "" {
		add("account_id = ?", f.AccountID)
	}
	if f.Type != "" {
		add("type = ?", string(f.Type))
	}
	if f.DebtID != "" {
		add("debt_id = ?", f.DebtID)
	}
	if f.BudgetID != "" {
		add("budget_id = ?", f.BudgetID)
	}
	if f.ScheduleID != "" {
		add("schedule_id = ?", f.ScheduleID)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

const transactionColumns = `id, account_id, type, amount, currency, category_id, date, description,
	debt_id, budget_id, habit_id, schedule_id, occurrence, status, created_at`

// CreateTransaction inserts a ledger transaction.
//
// Uses ON CONFLICT DO NOTHING for idempotency: a duplicate ID, or a second
// row for the same (schedule_id, occurrence), is silently ignored and
// reported as inserted=false.
func (s *Store) CreateTransaction(ctx context.Context, t domain.Transaction) (inserted bool, err error) {
	res, err := s.conn(ctx).ExecContext(ctx, `
		INSERT INTO transactions (`+transactionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`,
		t.ID,
		t.AccountID,
		string(t.Type),
		t.Amount.Decimal().String(),
		t.Amount.Currency(),
		t.CategoryID,
		t.Date,
		t.Description,
		t.DebtID,
		t.BudgetID,
		t.HabitID,
		nullString(t.ScheduleID),
		t.Occurrence,
		t.Status,
		formatTime(t.CreatedAt),
	)
	if err != nil {
		return false, fmt.Errorf("create transaction %s: %w", t.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("create transaction %s: rows affected: %w", t.ID, err)
	}
	return n > 0, nil
}

// UpdateTransaction rewrites the editable fields of an existing transaction.
// The schedule link and creation time never change.
func (s *Store) UpdateTransaction(ctx context.Context, t domain.Transaction) error {
	res, err := s.conn(ctx).ExecContext(ctx, `
		UPDATE transactions SET
			account_id = ?, type = ?, amount = ?, currency = ?, category_id = ?, date = ?,
			description = ?, debt_id = ?, budget_id = ?, habit_id = ?, status = ?
		WHERE id = ?
	`,
		t.AccountID,
		string(t.Type),
		t.Amount.Decimal().String(),
		t.Amount.Currency(),
		t.CategoryID,
		t.Date,
		t.Description,
		t.DebtID,
		t.BudgetID,
		t.HabitID,
		t.Status,
		t.ID,
	)
	if err != nil {
		return fmt.Errorf("update transaction %s: %w", t.ID, err)
	}
	return requireRow(res, "transaction", t.ID)
}

// DeleteTransaction removes a transaction.
func (s *Store) DeleteTransaction(ctx context.Context, id string) error {
	res, err := s.conn(ctx).ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}
	return requireRow(res, "transaction", id)
}

// GetTransaction returns the transaction with the given ID or an error
// wrapping domain.ErrNotFound.
func (s *Store) GetTransaction(ctx context.Context, id string) (domain.Transaction, error) {
	row := s.conn(ctx).QueryRowContext(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Transaction{}, notFound("transaction", id)
	}
	return t, err
}

// ListTransactions returns matching transactions ordered by date, creation
// time and ID.
func (s *Store) ListTransactions(ctx context.Context, f TransactionFilter) ([]domain.Transaction, error) {
	where, args := f.where()
	rows, err := s.conn(ctx).QueryContext(ctx, `
		SELECT `+transactionColumns+` FROM transactions `+where+`
		ORDER BY date ASC, created_at ASC, id COLLATE BINARY ASC
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	txs := []domain.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return txs, nil
}

func scanTransaction(r rowScanner) (domain.Transaction, error) {
	var (
		t                                domain.Transaction
		typ, amount, currency, createdAt string
		scheduleID                       sql.NullString
	)
	err := r.Scan(
		&t.ID,
		&t.AccountID,
		&typ,
		&amount,
		&currency,
		&t.CategoryID,
		&t.Date,
		&t.Description,
		&t.DebtID,
		&t.BudgetID,
		&t.HabitID,
		&scheduleID,
		&t.Occurrence,
		&t.Status,
		&createdAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return t, err
		}
		return t, fmt.Errorf("scan transaction: %w", err)
	}
	t.Type = domain.TxType(typ)
	t.ScheduleID = scheduleID.String
	if t.Amount, err = parseAmount(amount, currency); err != nil {
		return t, fmt.Errorf("scan transaction %s: %w", t.ID, err)
	}
	if t.CreatedAt, err = parseTime(createdAt); err != nil {
		return t, fmt.Errorf("scan transaction %s: %w", t.ID, err)
	}
	return t, nil
}

func notFound(entity, id string) error {
	return fmt.Errorf("%s %s: %w", entity, id, domain.ErrNotFound)
}

// requireRow turns a zero-row UPDATE or DELETE into domain.ErrNotFound.
func requireRow(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s %s: rows affected: %w", entity, id, err)
	}
	if n == 0 {
		return notFound(entity, id)
	}
	return nil
}
