package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/OybekDeveloper/leora/internal/ident"
)

// TraceSnapshot captures the complete trace of a scenario run.
type TraceSnapshot struct {
	ScenarioName string
	Trace        []TraceEvent
}

// Marshal encodes the snapshot as canonical JSON, so equal traces are
// byte-identical.
func (s *TraceSnapshot) Marshal() ([]byte, error) {
	trace := make([]any, len(s.Trace))
	for i, event := range s.Trace {
		fields := make(map[string]any, len(event.Fields))
		for k, v := range event.Fields {
			fields[k] = v
		}
		trace[i] = map[string]any{
			"seq":    event.Seq,
			"step":   event.Step,
			"topic":  event.Topic,
			"fields": fields,
		}
	}
	return ident.MarshalCanonical(map[string]any{
		"scenario": s.ScenarioName,
		"trace":    trace,
	})
}

// RunWithGolden executes a scenario and compares the trace against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails. Test failure (via goldie)
// occurs if the trace doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	return AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an existing result's trace against a golden file
// without re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	snapshot := TraceSnapshot{ScenarioName: scenarioName, Trace: result.Trace}
	traceJSON, err := snapshot.Marshal()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, traceJSON)
	return nil
}
