package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/OybekDeveloper/leora/internal/date"
	"github.com/OybekDeveloper/leora/internal/domain"
)

// ScheduleFilter narrows ListSchedules.
type ScheduleFilter struct {
	// DueOnOrBefore keeps schedules whose next occurrence is on or before
	// the date. Zero matches every schedule.
	DueOnOrBefore date.Date
	ActiveOnly    bool
	AccountID     string
}

const scheduleColumns = `id, account_id, type, amount, currency, category_id, description, debt_id, budget_id,
	pattern, interval, days_of_week, day_of_month, start_date, end_date, next_occurrence, skip_dates,
	is_active, is_paused, transaction_ids`

// CreateSchedule inserts a new schedule. A duplicate ID is an error.
func (s *Store) CreateSchedule(ctx context.Context, sc domain.Schedule) error {
	args, err := scheduleArgs(sc)
	if err != nil {
		return fmt.Errorf("create schedule %s: %w", sc.ID, err)
	}
	_, err = s.conn(ctx).ExecContext(ctx, `
		INSERT INTO schedules (`+scheduleColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, append([]any{sc.ID}, args...)...)
	if err != nil {
		return fmt.Errorf("create schedule %s: %w", sc.ID, err)
	}
	return nil
}

// UpdateSchedule overwrites every field of an existing schedule.
func (s *Store) UpdateSchedule(ctx context.Context, sc domain.Schedule) error {
	args, err := scheduleArgs(sc)
	if err != nil {
		return fmt.Errorf("update schedule %s: %w", sc.ID, err)
	}
	res, err := s.conn(ctx).ExecContext(ctx, `
		UPDATE schedules SET
			account_id = ?, type = ?, amount = ?, currency = ?, category_id = ?, description = ?,
			debt_id = ?, budget_id = ?, pattern = ?, interval = ?, days_of_week = ?, day_of_month = ?,
			start_date = ?, end_date = ?, next_occurrence = ?, skip_dates = ?,
			is_active = ?, is_paused = ?, transaction_ids = ?
		WHERE id = ?
	`, append(args, sc.ID)...)
	if err != nil {
		return fmt.Errorf("update schedule %s: %w", sc.ID, err)
	}
	return requireRow(res, "schedule", sc.ID)
}

// DeleteSchedule removes a schedule. Its transactions are left alone.
func (s *Store) DeleteSchedule(ctx context.Context, id string) error {
	res, err := s.conn(ctx).ExecContext(ctx, `DELETE FROM schedules WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete schedule %s: %w", id, err)
	}
	return requireRow(res, "schedule", id)
}

func (s *Store) GetSchedule(ctx context.Context, id string) (domain.Schedule, error) {
	row := s.conn(ctx).QueryRowContext(ctx, `SELECT `+scheduleColumns+` FROM schedules WHERE id = ?`, id)
	sc, err := scanSchedule(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Schedule{}, notFound("schedule", id)
	}
	return sc, err
}

// ListSchedules returns matching schedules ordered by next occurrence, then ID.
func (s *Store) ListSchedules(ctx context.Context, f ScheduleFilter) ([]domain.Schedule, error) {
	var (
		conds []string
		args  []any
	)
	if !f.DueOnOrBefore.IsZero() {
		conds = append(conds, "next_occurrence IS NOT NULL AND next_occurrence <= ?")
		args = append(args, f.DueOnOrBefore)
	}
	if f.ActiveOnly {
		conds = append(conds, "is_active = 1")
	}
	if f.AccountID != "" {
		conds = append(conds, "account_id = ?")
		args = append(args, f.AccountID)
	}
	where := ""
	if len(conds) > 0 {
		where = "WHERE " + strings.Join(conds, " AND ")
	}

	rows, err := s.conn(ctx).QueryContext(ctx, `
		SELECT `+scheduleColumns+` FROM schedules `+where+`
		ORDER BY next_occurrence ASC, id COLLATE BINARY ASC
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("query schedules: %w", err)
	}
	defer rows.Close()

	out := []domain.Schedule{}
	for rows.Next() {
		sc, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate schedules: %w", err)
	}
	return out, nil
}

// scheduleArgs returns every column after id, in scheduleColumns order.
func scheduleArgs(sc domain.Schedule) ([]any, error) {
	days := sc.DaysOfWeek
	if days == nil {
		days = []time.Weekday{}
	}
	daysJSON, err := marshalJSON(days)
	if err != nil {
		return nil, err
	}
	skip := sc.SkipDates
	if skip == nil {
		skip = date.NewSet()
	}
	skipJSON, err := marshalJSON(skip)
	if err != nil {
		return nil, err
	}
	ids := sc.TransactionIDs
	if ids == nil {
		ids = []string{}
	}
	idsJSON, err := marshalJSON(ids)
	if err != nil {
		return nil, err
	}
	return []any{
		sc.AccountID,
		string(sc.Type),
		sc.Amount.Decimal().String(),
		sc.Amount.Currency(),
		sc.CategoryID,
		sc.Description,
		sc.DebtID,
		sc.BudgetID,
		string(sc.Pattern),
		sc.Interval,
		daysJSON,
		sc.DayOfMonth,
		sc.StartDate,
		sc.EndDate,
		sc.NextOccurrence,
		skipJSON,
		boolInt(sc.IsActive),
		boolInt(sc.IsPaused),
		idsJSON,
	}, nil
}

func scanSchedule(r rowScanner) (domain.Schedule, error) {
	var (
		sc                             domain.Schedule
		typ, amount, currency, pattern string
		daysJSON, skipJSON, idsJSON    string
		active, paused                 int
	)
	err := r.Scan(
		&sc.ID,
		&sc.AccountID,
		&typ,
		&amount,
		&currency,
		&sc.CategoryID,
		&sc.Description,
		&sc.DebtID,
		&sc.BudgetID,
		&pattern,
		&sc.Interval,
		&daysJSON,
		&sc.DayOfMonth,
		&sc.StartDate,
		&sc.EndDate,
		&sc.NextOccurrence,
		&skipJSON,
		&active,
		&paused,
		&idsJSON,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return sc, err
		}
		return sc, fmt.Errorf("scan schedule: %w", err)
	}
	sc.Type = domain.TxType(typ)
	sc.Pattern = domain.Pattern(pattern)
	sc.IsActive = active == 1
	sc.IsPaused = paused == 1
	if sc.Amount, err = parseAmount(amount, currency); err != nil {
		return sc, fmt.Errorf("scan schedule %s: %w", sc.ID, err)
	}
	if err := unmarshalJSON(daysJSON, &sc.DaysOfWeek); err != nil {
		return sc, fmt.Errorf("scan schedule %s: days_of_week: %w", sc.ID, err)
	}
	sc.SkipDates = date.NewSet()
	if err := unmarshalJSON(skipJSON, &sc.SkipDates); err != nil {
		return sc, fmt.Errorf("scan schedule %s: skip_dates: %w", sc.ID, err)
	}
	if err := unmarshalJSON(idsJSON, &sc.TransactionIDs); err != nil {
		return sc, fmt.Errorf("scan schedule %s: transaction_ids: %w", sc.ID, err)
	}
	if len(sc.DaysOfWeek) == 0 {
		sc.DaysOfWeek = nil
	}
	if len(sc.TransactionIDs) == 0 {
		sc.TransactionIDs = nil
	}
	return sc, nil
}
