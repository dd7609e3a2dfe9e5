// Package date provides a calendar date with day granularity.
//
// Recurrence arithmetic, habit history and the processor's once-per-day
// guard all reason about calendar days, never instants. A Date is stored
// as (year, month, day) and normalized through time.Date at UTC midnight,
// so adding days or months never drifts across DST boundaries.
package date

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Format is the ISO-8601 layout used to write dates.
const Format = "2006-01-02"

// readFormat is permissive and also accepts single-digit month and day.
const readFormat = "2006-1-2"

// Date is a calendar day. The zero value is "no date".
type Date struct {
	y int
	m time.Month
	d int
}

// New returns a normalized Date; out-of-range days roll over like time.Date.
func New(year int, month time.Month, day int) Date {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return Date{t.Year(), t.Month(), t.Day()}
}

// FromTime returns the calendar day of t in t's own location.
func FromTime(t time.Time) Date {
	return New(t.Date())
}

// Today returns the current calendar day in loc (local time when nil).
func Today(loc *time.Location) Date {
	if loc == nil {
		loc = time.Local
	}
	return FromTime(time.Now().In(loc))
}

// Parse parses an ISO-8601 date. It accepts "2025-7-1" as well as "2025-07-01".
func Parse(s string) (Date, error) {
	t, err := time.Parse(readFormat, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q want format %q: %w", s, Format, err)
	}
	return FromTime(t), nil
}

// MustParse is like Parse but panics on error.
func MustParse(s string) Date {
	d, err := Parse(s)
	if err != nil {
		panic(err.Error())
	}
	return d
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func (d Date) time() time.Time { return time.Date(d.y, d.m, d.d, 0, 0, 0, 0, time.UTC) }

// Time returns midnight UTC of the day.
func (d Date) Time() time.Time { return d.time() }

func (d Date) Year() int             { return d.y }
func (d Date) Month() time.Month     { return d.m }
func (d Date) Day() int              { return d.d }
func (d Date) Weekday() time.Weekday { return d.time().Weekday() }
func (d Date) IsZero() bool          { return d.y == 0 && d.m == 0 && d.d == 0 }

// AddDays returns d shifted by n days.
func (d Date) AddDays(n int) Date { return New(d.y, d.m, d.d+n) }

// AddMonthsClamped moves d by n months and lands on day, clamped to the
// last day of the target month (day 31 in April becomes April 30).
func (d Date) AddMonthsClamped(n, day int) Date {
	first := New(d.y, d.m+time.Month(n), 1)
	if last := DaysIn(first.y, first.m); day > last {
		day = last
	}
	if day < 1 {
		day = 1
	}
	return Date{first.y, first.m, day}
}

func (d Date) Before(x Date) bool { return d.Compare(x) < 0 }
func (d Date) After(x Date) bool  { return d.Compare(x) > 0 }
func (d Date) Equal(x Date) bool  { return d == x }

// Compare returns -1, 0 or +1.
func (d Date) Compare(x Date) int {
	switch {
	case d.y != x.y:
		return cmp(d.y, x.y)
	case d.m != x.m:
		return cmp(int(d.m), int(x.m))
	default:
		return cmp(d.d, x.d)
	}
}

func cmp(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// DaysUntil returns the number of days from d to x (negative when x is earlier).
func (d Date) DaysUntil(x Date) int {
	return int(x.time().Sub(d.time()).Hours() / 24)
}

// String formats the date as YYYY-MM-DD, or "" for the zero value.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.time().Format(Format)
}

func (d Date) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *Date) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*d = Date{}
		return nil
	}
	v, err := Parse(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	return d.UnmarshalText([]byte(s))
}

// Value implements driver.Valuer. The zero date is stored as NULL.
func (d Date) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.String(), nil
}

// Scan implements sql.Scanner for TEXT columns.
func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*d = Date{}
		return nil
	case string:
		return d.UnmarshalText([]byte(v))
	case []byte:
		return d.UnmarshalText(v)
	case time.Time:
		*d = FromTime(v)
		return nil
	default:
		return fmt.Errorf("date: cannot scan %T", src)
	}
}
