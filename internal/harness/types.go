package harness

// TraceEvent is one bus event published while the steps ran.
type TraceEvent struct {
	Seq    int               `json:"seq"`
	Step   int               `json:"step"` // 1-based index into Scenario.Steps
	Topic  string            `json:"topic"`
	Fields map[string]string `json:"fields,omitempty"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every step ran and every assertion held.
	Pass bool `json:"pass"`

	// Trace lists the events of all steps in publish order. Events caused
	// by the seed are not included.
	Trace []TraceEvent `json:"trace"`

	// Errors holds step failures and assertion failures. Empty if Pass.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError records a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
