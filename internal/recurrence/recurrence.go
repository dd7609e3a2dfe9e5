// Package recurrence computes when recurring schedules fire.
//
// Everything here is a pure function of its arguments: no store, no clock,
// no schedule entity. The processor and the first-occurrence backfill both
// call Next, so a schedule advances the same way whichever path moved it.
//
// Pattern semantics:
//   - daily:     ref + interval days
//   - weekly:    ref + 7*interval days, or the next allowed weekday (later
//     in the same week, else the first allowed weekday interval weeks on)
//   - biweekly:  weekly with a fixed interval of 2
//   - monthly:   interval months on, same day of month
//   - quarterly: 3*interval months on
//   - yearly:    12*interval months on
//
// The monthly family lands on DayOfMonth, else the anchor's day, else the
// reference day, clamped to the month length. Anchoring keeps a 31st
// schedule on the 31st after passing through February.
package recurrence

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/OybekDeveloper/leora/internal/date"
	"github.com/OybekDeveloper/leora/internal/domain"
)

const (
	// MaxSkipIterations bounds the search past skip dates for one call to Next.
	MaxSkipIterations = 512

	// MaxBackfillSteps bounds FirstOnOrAfter's walk from the start date.
	MaxBackfillSteps = 1 << 16
)

// ErrIterationLimit is wrapped by ConfigError when a search hits its bound.
var ErrIterationLimit = errors.New("iteration limit exceeded")

// ConfigError reports a recurrence that cannot produce a valid date. It is
// fatal for the schedule and never retried.
type ConfigError struct {
	Pattern domain.Pattern
	Ref     date.Date
	Reason  string
	Err     error
}

func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("recurrence %s from %s: %s", e.Pattern, e.Ref, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigError) Unwrap() error { return e.Err }

// IsConfigError reports whether err is (or wraps) a ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// Constraints are the optional knobs of a recurrence.
type Constraints struct {
	DaysOfWeek []time.Weekday
	DayOfMonth int
	// Anchor is the schedule's start date.
	Anchor    date.Date
	SkipDates date.Set
}

// Rule bundles a pattern, its interval and its constraints.
type Rule struct {
	Pattern  domain.Pattern
	Interval int
	Constraints
}

// RuleOf extracts the recurrence rule of a schedule.
func RuleOf(s domain.Schedule) Rule {
	return Rule{
		Pattern:  s.Pattern,
		Interval: s.Interval,
		Constraints: Constraints{
			DaysOfWeek: s.DaysOfWeek,
			DayOfMonth: s.DayOfMonth,
			Anchor:     s.StartDate,
			SkipDates:  s.SkipDates,
		},
	}
}

// Next is shorthand for the package-level Next with the rule's fields.
func (r Rule) Next(ref date.Date) (date.Date, error) {
	return Next(r.Pattern, r.Interval, ref, r.Constraints)
}

// Validate rejects rules that can never produce an occurrence.
func Validate(p domain.Pattern, interval int, c Constraints) error {
	if !p.Valid() {
		return &ConfigError{Pattern: p, Reason: "unknown pattern"}
	}
	if interval < 1 {
		return &ConfigError{Pattern: p, Reason: fmt.Sprintf("interval %d must be >= 1", interval)}
	}
	if c.DayOfMonth < 0 || c.DayOfMonth > 31 {
		return &ConfigError{Pattern: p, Reason: fmt.Sprintf("day of month %d outside 1..31", c.DayOfMonth)}
	}
	for _, wd := range c.DaysOfWeek {
		if wd < time.Sunday || wd > time.Saturday {
			return &ConfigError{Pattern: p, Reason: fmt.Sprintf("invalid weekday %d", wd)}
		}
	}
	return nil
}

// Next returns the first occurrence strictly after ref that is not a skip date.
func Next(p domain.Pattern, interval int, ref date.Date, c Constraints) (date.Date, error) {
	if err := Validate(p, interval, c); err != nil {
		return date.Date{}, err
	}
	d := step(p, interval, ref, c)
	for i := 0; c.SkipDates.Has(d); i++ {
		if i >= MaxSkipIterations {
			return date.Date{}, &ConfigError{
				Pattern: p,
				Ref:     ref,
				Reason:  fmt.Sprintf("every candidate after %d skip dates is skipped", MaxSkipIterations),
				Err:     ErrIterationLimit,
			}
		}
		d = step(p, interval, d, c)
	}
	return d, nil
}

// FirstOnOrAfter returns the first occurrence of r on or after today,
// walking forward from the anchor. A future anchor is returned as is (or
// the first occurrence after it when the anchor itself does not match).
// An anchor off the allowed weekdays moves to the next allowed weekday
// before the interval applies.
// No transactions are implied for the occurrences walked over.
func FirstOnOrAfter(r Rule, today date.Date) (date.Date, error) {
	if err := Validate(r.Pattern, r.Interval, r.Constraints); err != nil {
		return date.Date{}, err
	}
	if r.Anchor.IsZero() {
		return date.Date{}, &ConfigError{Pattern: r.Pattern, Reason: "start date required"}
	}
	d := r.Anchor
	if !matches(r.Pattern, d, r.Constraints) {
		if aligned, ok := alignWeekday(r, d); ok {
			d = aligned
		} else {
			var err error
			if d, err = r.Next(d); err != nil {
				return date.Date{}, err
			}
		}
	}
	if r.SkipDates.Has(d) {
		var err error
		if d, err = r.Next(d); err != nil {
			return date.Date{}, err
		}
	}
	for steps := 0; d.Before(today); steps++ {
		if steps >= MaxBackfillSteps {
			return date.Date{}, &ConfigError{
				Pattern: r.Pattern,
				Ref:     r.Anchor,
				Reason:  fmt.Sprintf("no occurrence reaches %s within %d steps", today, MaxBackfillSteps),
				Err:     ErrIterationLimit,
			}
		}
		var err error
		if d, err = r.Next(d); err != nil {
			return date.Date{}, err
		}
	}
	return d, nil
}

// alignWeekday returns the first allowed weekday after d, within a week,
// for weekly rules restricted to a day-of-week set.
func alignWeekday(r Rule, d date.Date) (date.Date, bool) {
	if (r.Pattern != domain.Weekly && r.Pattern != domain.Biweekly) || len(r.DaysOfWeek) == 0 {
		return date.Date{}, false
	}
	for i := 1; i <= 7; i++ {
		if c := d.AddDays(i); slices.Contains(r.DaysOfWeek, c.Weekday()) {
			return c, true
		}
	}
	return date.Date{}, false
}

// step computes the naive next candidate, ignoring skip dates.
func step(p domain.Pattern, interval int, ref date.Date, c Constraints) date.Date {
	switch p {
	case domain.Daily:
		return ref.AddDays(interval)
	case domain.Weekly:
		return nextWeekly(ref, interval, c.DaysOfWeek)
	case domain.Biweekly:
		return nextWeekly(ref, 2, c.DaysOfWeek)
	case domain.Monthly:
		return nextMonthly(ref, interval, c)
	case domain.Quarterly:
		return nextMonthly(ref, 3*interval, c)
	default: // domain.Yearly; Validate rejected anything else
		return nextMonthly(ref, 12*interval, c)
	}
}

func nextWeekly(ref date.Date, weeks int, days []time.Weekday) date.Date {
	if len(days) == 0 {
		return ref.AddDays(7 * weeks)
	}
	allowed := slices.Clone(days)
	slices.Sort(allowed)
	wd := ref.Weekday()
	for _, d := range allowed {
		if d > wd {
			return ref.AddDays(int(d - wd))
		}
	}
	weekStart := ref.AddDays(-int(wd))
	return weekStart.AddDays(7*weeks + int(allowed[0]))
}

func nextMonthly(ref date.Date, months int, c Constraints) date.Date {
	day := targetDay(ref, c)
	if same := ref.AddMonthsClamped(0, day); same.After(ref) {
		return same
	}
	return ref.AddMonthsClamped(months, day)
}

func targetDay(ref date.Date, c Constraints) int {
	switch {
	case c.DayOfMonth > 0:
		return c.DayOfMonth
	case !c.Anchor.IsZero():
		return c.Anchor.Day()
	default:
		return ref.Day()
	}
}

// matches reports whether d is itself a valid occurrence date for p.
func matches(p domain.Pattern, d date.Date, c Constraints) bool {
	switch p {
	case domain.Weekly, domain.Biweekly:
		return len(c.DaysOfWeek) == 0 || slices.Contains(c.DaysOfWeek, d.Weekday())
	case domain.Monthly, domain.Quarterly, domain.Yearly:
		return d == d.AddMonthsClamped(0, targetDay(d, c))
	default:
		return true
	}
}
