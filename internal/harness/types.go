package harness

// UpdateEvent is one observed buffer update notification.
type UpdateEvent struct {
	BatchID string   `json:"batch_id"`
	Version int64    `json:"version"`
	Applied int      `json:"applied"`
	Skipped int      `json:"skipped"`
	Frames  []string `json:"frames,omitempty"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every expectation matched.
	Pass bool `json:"pass"`

	// Errors contains one message per failed expectation.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Updates holds every update notification in order, one per batch.
	Updates []UpdateEvent `json:"updates"`

	// Tree is the final frame tree rendered by inspect.Render.
	Tree string `json:"tree"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:    true,
		Errors:  []string{},
		Updates: []UpdateEvent{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
