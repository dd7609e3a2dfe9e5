package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/OybekDeveloper/leora/internal/domain"
)

const debtColumns = `id, direction, counterparty, principal, remaining, currency, status, due_date`

func (s *Store) CreateDebt(ctx context.Context, d domain.Debt) error {
	_, err := s.conn(ctx).ExecContext(ctx, `
		INSERT INTO debts (`+debtColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, d.ID, string(d.Direction), d.Counterparty,
		d.Principal.Decimal().String(), d.Remaining.Decimal().String(), debtCurrency(d),
		string(d.Status), d.DueDate)
	if err != nil {
		return fmt.Errorf("create debt %s: %w", d.ID, err)
	}
	return nil
}

// UpdateDebt writes the balance, status and due date of a debt.
func (s *Store) UpdateDebt(ctx context.Context, d domain.Debt) error {
	res, err := s.conn(ctx).ExecContext(ctx, `
		UPDATE debts SET counterparty = ?, principal = ?, remaining = ?, status = ?, due_date = ?
		WHERE id = ?
	`, d.Counterparty, d.Principal.Decimal().String(), d.Remaining.Decimal().String(),
		string(d.Status), d.DueDate, d.ID)
	if err != nil {
		return fmt.Errorf("update debt %s: %w", d.ID, err)
	}
	return requireRow(res, "debt", d.ID)
}

func (s *Store) DeleteDebt(ctx context.Context, id string) error {
	res, err := s.conn(ctx).ExecContext(ctx, `DELETE FROM debts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete debt %s: %w", id, err)
	}
	return requireRow(res, "debt", id)
}

func (s *Store) GetDebt(ctx context.Context, id string) (domain.Debt, error) {
	row := s.conn(ctx).QueryRowContext(ctx, `SELECT `+debtColumns+` FROM debts WHERE id = ?`, id)
	d, err := scanDebt(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Debt{}, notFound("debt", id)
	}
	return d, err
}

func (s *Store) ListDebts(ctx context.Context) ([]domain.Debt, error) {
	rows, err := s.conn(ctx).QueryContext(ctx, `SELECT `+debtColumns+` FROM debts ORDER BY id COLLATE BINARY ASC`)
	if err != nil {
		return nil, fmt.Errorf("query debts: %w", err)
	}
	defer rows.Close()

	out := []domain.Debt{}
	for rows.Next() {
		d, err := scanDebt(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate debts: %w", err)
	}
	return out, nil
}

func debtCurrency(d domain.Debt) string {
	if c := d.Principal.Currency(); c != "" {
		return c
	}
	return d.Remaining.Currency()
}

func scanDebt(r rowScanner) (domain.Debt, error) {
	var (
		d                               domain.Debt
		direction, principal, remaining string
		currency, status                string
	)
	err := r.Scan(&d.ID, &direction, &d.Counterparty, &principal, &remaining, &currency, &status, &d.DueDate)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return d, err
		}
		return d, fmt.Errorf("scan debt: %w", err)
	}
	d.Direction = domain.DebtDirection(direction)
	d.Status = domain.DebtStatus(status)
	if d.Principal, err = parseAmount(principal, currency); err != nil {
		return d, fmt.Errorf("scan debt %s: %w", d.ID, err)
	}
	if d.Remaining, err = parseAmount(remaining, currency); err != nil {
		return d, fmt.Errorf("scan debt %s: %w", d.ID, err)
	}
	return d, nil
}

// RecordDebtSync stores the amount a transaction applied to a debt.
// Uses ON CONFLICT(transaction_id) DO NOTHING: a second record for the same
// transaction is ignored and reported as inserted=false.
func (s *Store) RecordDebtSync(ctx context.Context, ds domain.DebtSync) (inserted bool, err error) {
	res, err := s.conn(ctx).ExecContext(ctx, `
		INSERT INTO debt_syncs (transaction_id, debt_id, applied, currency, synced_on, prior_status)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(transaction_id) DO NOTHING
	`, ds.TransactionID, ds.DebtID, ds.Applied.Decimal().String(), ds.Applied.Currency(), ds.SyncedOn,
		string(ds.PriorStatus))
	if err != nil {
		return false, fmt.Errorf("record debt sync %s: %w", ds.TransactionID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("record debt sync %s: rows affected: %w", ds.TransactionID, err)
	}
	return n > 0, nil
}

// GetDebtSync returns the sync record of a transaction or an error
// wrapping domain.ErrNotFound.
func (s *Store) GetDebtSync(ctx context.Context, transactionID string) (domain.DebtSync, error) {
	var (
		ds                     domain.DebtSync
		applied, currency, pri string
	)
	err := s.conn(ctx).QueryRowContext(ctx, `
		SELECT transaction_id, debt_id, applied, currency, synced_on, prior_status
		FROM debt_syncs WHERE transaction_id = ?
	`, transactionID).Scan(&ds.TransactionID, &ds.DebtID, &applied, &currency, &ds.SyncedOn, &pri)
	if errors.Is(err, sql.ErrNoRows) {
		return ds, notFound("debt sync", transactionID)
	}
	if err != nil {
		return ds, fmt.Errorf("get debt sync %s: %w", transactionID, err)
	}
	ds.PriorStatus = domain.DebtStatus(pri)
	if ds.Applied, err = parseAmount(applied, currency); err != nil {
		return ds, fmt.Errorf("get debt sync %s: %w", transactionID, err)
	}
	return ds, nil
}

// PriorDebtStatus returns the status the debt had before the latest
// still-recorded payment that settled it, or "" when no such payment exists.
func (s *Store) PriorDebtStatus(ctx context.Context, debtID string) (domain.DebtStatus, error) {
	var status string
	err := s.conn(ctx).QueryRowContext(ctx, `
		SELECT prior_status FROM debt_syncs
		WHERE debt_id = ? AND prior_status <> ''
		ORDER BY rowid DESC LIMIT 1
	`, debtID).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("prior status of debt %s: %w", debtID, err)
	}
	return domain.DebtStatus(status), nil
}

func (s *Store) DeleteDebtSync(ctx context.Context, transactionID string) error {
	res, err := s.conn(ctx).ExecContext(ctx, `DELETE FROM debt_syncs WHERE transaction_id = ?`, transactionID)
	if err != nil {
		return fmt.Errorf("delete debt sync %s: %w", transactionID, err)
	}
	return requireRow(res, "debt sync", transactionID)
}
