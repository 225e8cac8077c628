package harness

// TraceEvent is one executed step.
type TraceEvent struct {
	// Step is the 1-based index of the step in the scenario.
	Step int    `json:"step"`
	Op   string `json:"op"`

	// Args are the step's operands in canonical form.
	Args map[string]any `json:"args"`

	// Seq is the journal seq; 0 for rejected steps and steps the engine
	// does not journal.
	Seq int64 `json:"seq"`

	// Outcome is "ok" or the name of the error the step was rejected with.
	Outcome string `json:"outcome"`
}

// HomeState is a loaded home at the end of a scenario.
type HomeState struct {
	Pos            string `json:"pos"`
	Connections    string `json:"connections"`
	WireSystemInfo string `json:"wire_system_info"`

	// SongRadius is rendered with ir.FormatCapacity so snapshots stay
	// free of floats.
	SongRadius string `json:"song_radius"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall success: every step behaved as declared and
	// every assertion held.
	Pass bool `json:"pass"`

	Trace []TraceEvent `json:"trace"`
	Homes []HomeState  `json:"homes"`

	// Errors contains step and assertion failures.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Homes:  []HomeState{},
		Errors: []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends an executed step.
func (r *Result) AddTrace(ev TraceEvent) {
	r.Trace = append(r.Trace, ev)
}
