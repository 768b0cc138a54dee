package harness

// StepRecord is the outcome of one executed step.
type StepRecord struct {
	Index int    `json:"index"`
	Op    string `json:"op"`
	Error string `json:"error,omitempty"` // error code, empty on success
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every step matched its expect_error and all assertions held.
	Pass bool `json:"pass"`

	// Steps records each executed step in order.
	Steps []StepRecord `json:"steps"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Snapshot is the final layer state, keyed by instance name.
	Snapshot *Snapshot `json:"snapshot,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Steps:  []StepRecord{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddStep records an executed step.
func (r *Result) AddStep(index int, op, code string) {
	r.Steps = append(r.Steps, StepRecord{Index: index, Op: op, Error: code})
}
