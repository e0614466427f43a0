package harness

// Output is what a scenario's query compiled to.
// On a compile error only ErrorCode and Error are set.
type Output struct {
	View           string  `json:"view_fields,omitempty"`
	Filter         string  `json:"filter,omitempty"`
	OrderBy        string  `json:"order_by,omitempty"`
	QueryText      string  `json:"query_text,omitempty"`
	Folder         string  `json:"folder,omitempty"`
	RowLimit       *uint32 `json:"row_limit,omitempty"`
	ViewAttributes string  `json:"view_attributes,omitempty"`
	ErrorCode      string  `json:"error_code,omitempty"`
	Error          string  `json:"error,omitempty"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every expectation matched.
	Pass bool `json:"pass"`

	// Output is the compiled query, used for expectations and golden comparison.
	Output Output `json:"output"`

	// Errors contains expectation failures.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
