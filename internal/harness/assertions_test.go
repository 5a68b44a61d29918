package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult() *Result {
	r := NewResult()
	r.Trace = []TraceEvent{
		{Seq: 1, Owner: "a", Behaviour: "math::sin", From: "created", Target: "connected", Result: "connected", Outcome: "ok"},
		{Seq: 2, Owner: "b", Behaviour: "math::cos", From: "created", Target: "connected", Result: "created", Outcome: "error", Code: "BEHAVIOUR_INVALID"},
		{Seq: 3, Owner: "a", Behaviour: "math::sin", From: "connected", Target: "disconnected", Result: "disconnected", Outcome: "ok"},
	}
	r.Behaviours["a"] = []string{}
	r.Behaviours["c"] = []string{"logical::not", "core::counter"}
	r.Final["a"] = map[string]any{"lhs": 1.0, "result": 0.0}
	return r
}

func TestEvaluateAssertions(t *testing.T) {
	tests := []struct {
		name      string
		assertion Assertion
		wantErr   string
	}{
		{"contains by owner", Assertion{Type: AssertTraceContains, Owner: "b", Outcome: "error"}, ""},
		{"contains missing", Assertion{Type: AssertTraceContains, Owner: "b", Outcome: "ok"}, "owner=b outcome=ok"},
		{"count all", Assertion{Type: AssertTraceCount, Count: 3}, ""},
		{"count filtered", Assertion{Type: AssertTraceCount, Behaviour: "math::sin", Count: 2}, ""},
		{"count wrong", Assertion{Type: AssertTraceCount, Target: "connected", Count: 1}, "Actual: 2"},
		{"behaves as unordered", Assertion{Type: AssertBehavesAs, Owner: "c", Behaviours: []string{"core::counter", "logical::not"}}, ""},
		{"behaves as empty", Assertion{Type: AssertBehavesAs, Owner: "a"}, ""},
		{"behaves as mismatch", Assertion{Type: AssertBehavesAs, Owner: "c", Behaviours: []string{"core::counter"}}, "c behaves as [core::counter]"},
		{"final state numbers normalise", Assertion{Type: AssertFinalState, Owner: "a", Expect: map[string]any{"lhs": 1}}, ""},
		{"final state mismatch", Assertion{Type: AssertFinalState, Owner: "a", Expect: map[string]any{"result": 2}}, "a.result = 2"},
		{"final state missing", Assertion{Type: AssertFinalState, Owner: "a", Expect: map[string]any{"nope": 1}}, "property missing"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			failures := EvaluateAssertions(sampleResult(), []Assertion{tt.assertion})
			if tt.wantErr == "" {
				assert.Empty(t, failures)
				return
			}
			require.Len(t, failures, 1)
			assert.Contains(t, failures[0], tt.wantErr)
		})
	}
}

func TestAssertionError_IncludesTrace(t *testing.T) {
	err := &AssertionError{
		Type:     AssertTraceCount,
		Expected: "1",
		Actual:   "0",
		Trace:    sampleResult().Trace[:1],
	}

	msg := err.Error()

	assert.Contains(t, msg, "Assertion failed: trace_count")
	assert.Contains(t, msg, "[1] a math::sin created -> connected (ok)")
}
