package harness

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/OybekDeveloper/leora/internal/app"
	"github.com/OybekDeveloper/leora/internal/date"
	"github.com/OybekDeveloper/leora/internal/scheduler"
)

// AssertionContext gives assertions access to the final state.
type AssertionContext struct {
	App       *app.App
	Processed map[int]scheduler.Result
	Ctx       context.Context
}

// AssertionError is returned when an assertion fails.
// It includes the trace to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for _, event := range e.Trace {
		fmt.Fprintf(&buf, "  [%d] step %d %s %s\n", event.Seq, event.Step, event.Topic, formatFields(event.Fields))
	}
	return buf.String()
}

// EvaluateAssertions checks every assertion and returns the failure
// messages. An empty slice means all assertions held.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluate(result, a, actx); err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func evaluate(result *Result, a Assertion, actx *AssertionContext) error {
	if a.Type == AssertEventCount {
		return assertEventCount(result.Trace, a)
	}

	actual, err := actualState(a, actx)
	if err != nil {
		return err
	}
	for key, want := range a.Expect {
		got, ok := actual[key]
		if !ok {
			return fmt.Errorf("%s %s: unknown field %q", a.Type, a.ID, key)
		}
		if got != fmt.Sprint(want) {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("%s %s: %s = %v", a.Type, a.ID, key, want),
				Actual:   fmt.Sprintf("%s = %s", key, got),
				Trace:    result.Trace,
			}
		}
	}
	return nil
}

// actualState reads the fields an assertion type can check.
func actualState(a Assertion, actx *AssertionContext) (map[string]string, error) {
	ctx, s := actx.Ctx, actx.App.Store
	switch a.Type {
	case AssertDebt:
		d, err := s.GetDebt(ctx, a.ID)
		if err != nil {
			return nil, err
		}
		return map[string]string{
			"remaining": d.Remaining.Decimal().String(),
			"principal": d.Principal.Decimal().String(),
			"status":    string(d.Status),
			"currency":  d.Remaining.Currency(),
		}, nil

	case AssertHabitEntry:
		day, err := date.Parse(a.Date)
		if err != nil {
			return nil, err
		}
		e, err := s.GetHabitEntry(ctx, a.ID, day)
		if err != nil {
			return nil, err
		}
		value := ""
		if e.Value != nil {
			value = e.Value.String()
		}
		return map[string]string{"outcome": string(e.Outcome), "value": value}, nil

	case AssertTaskStatus:
		t, err := s.GetTask(ctx, a.ID)
		if err != nil {
			return nil, err
		}
		return map[string]string{
			"status":    string(t.Status),
			"completed": strconv.FormatBool(t.CompletedAt != nil),
		}, nil

	case AssertScheduleNext:
		sc, err := s.GetSchedule(ctx, a.ID)
		if err != nil {
			return nil, err
		}
		return map[string]string{
			"next_occurrence": sc.NextOccurrence.String(),
			"active":          strconv.FormatBool(sc.IsActive),
			"paused":          strconv.FormatBool(sc.IsPaused),
			"transactions":    strconv.Itoa(len(sc.TransactionIDs)),
		}, nil

	case AssertProcessResult:
		res, ok := actx.Processed[a.Step]
		if !ok {
			return nil, fmt.Errorf("process step %d did not complete", a.Step)
		}
		return map[string]string{
			"processed": strconv.Itoa(res.Processed),
			"failed":    strconv.Itoa(res.Failed),
			"skipped":   strconv.Itoa(res.Skipped),
		}, nil
	}
	return nil, fmt.Errorf("unknown assertion type %q", a.Type)
}

// assertEventCount checks that the topic was published exactly Count times.
func assertEventCount(trace []TraceEvent, a Assertion) error {
	count := 0
	for _, event := range trace {
		if event.Topic == a.Topic {
			count++
		}
	}
	if count != a.Count {
		return &AssertionError{
			Type:     AssertEventCount,
			Expected: fmt.Sprintf("%d events on %s", a.Count, a.Topic),
			Actual:   fmt.Sprintf("%d events", count),
			Trace:    trace,
		}
	}
	return nil
}

func formatFields(f map[string]string) string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + f[k]
	}
	return strings.Join(parts, " ")
}
