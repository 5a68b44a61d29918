package harness

import (
	"fmt"

	"github.com/reactive-graph/reactive-graph-sub007/internal/ir"
)

// TraceEvent is one journaled transition with its owner shown by alias.
type TraceEvent struct {
	Seq       int64  `json:"seq"`
	Owner     string `json:"owner"`
	Behaviour string `json:"behaviour"`
	From      string `json:"from"`
	Target    string `json:"target"`
	Result    string `json:"result"`
	Outcome   string `json:"outcome"`
	Code      string `json:"code,omitempty"`
}

// Result is the outcome of one scenario run.
type Result struct {
	// Pass is true when every step and assertion held.
	Pass   bool         `json:"pass"`
	Trace  []TraceEvent `json:"trace"`
	Errors []string     `json:"errors,omitempty"`

	// Final holds each instance's properties after the last step, keyed by
	// alias. Deleted instances keep their last values.
	Final map[string]map[string]ir.Value `json:"final"`

	// Behaviours holds each instance's behaviour types after the last step.
	Behaviours map[string][]string `json:"behaviours"`
}

// NewResult returns an empty passing result.
func NewResult() *Result {
	return &Result{
		Pass:       true,
		Trace:      []TraceEvent{},
		Errors:     []string{},
		Final:      make(map[string]map[string]ir.Value),
		Behaviours: make(map[string][]string),
	}
}

// AddError records a failure.
func (r *Result) AddError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
	r.Pass = false
}
