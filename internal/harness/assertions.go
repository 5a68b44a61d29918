package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/reactive-graph/reactive-graph-sub007/internal/ir"
)

// AssertionError describes a failed assertion.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Trace    []TraceEvent
}

func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)
	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, ev := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s %s %s -> %s (%s)\n", ev.Seq, ev.Owner, ev.Behaviour, ev.From, ev.Result, ev.Outcome)
		}
	}
	return buf.String()
}

// EvaluateAssertions checks every assertion against a result and returns
// the failure messages in assertion order.
func EvaluateAssertions(r *Result, assertions []Assertion) []string {
	var failures []string
	for i, a := range assertions {
		if err := evaluate(r, a); err != nil {
			failures = append(failures, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return failures
}

func evaluate(r *Result, a Assertion) error {
	switch a.Type {
	case AssertTraceContains:
		return assertTraceContains(r.Trace, a)
	case AssertTraceCount:
		return assertTraceCount(r.Trace, a)
	case AssertBehavesAs:
		return assertBehavesAs(r, a)
	case AssertFinalState:
		return assertFinalState(r, a)
	}
	return fmt.Errorf("unknown assertion type %q", a.Type)
}

func (a Assertion) matches(ev TraceEvent) bool {
	return (a.Owner == "" || a.Owner == ev.Owner) &&
		(a.Behaviour == "" || a.Behaviour == ev.Behaviour) &&
		(a.Target == "" || a.Target == ev.Target) &&
		(a.Outcome == "" || a.Outcome == ev.Outcome)
}

func (a Assertion) describe() string {
	var parts []string
	for _, kv := range [][2]string{
		{"owner", a.Owner}, {"behaviour", a.Behaviour}, {"target", a.Target}, {"outcome", a.Outcome},
	} {
		if kv[1] != "" {
			parts = append(parts, kv[0]+"="+kv[1])
		}
	}
	if len(parts) == 0 {
		return "any transition"
	}
	return strings.Join(parts, " ")
}

func assertTraceContains(trace []TraceEvent, a Assertion) error {
	if slices.ContainsFunc(trace, a.matches) {
		return nil
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: a.describe(),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

func assertTraceCount(trace []TraceEvent, a Assertion) error {
	n := 0
	for _, ev := range trace {
		if a.matches(ev) {
			n++
		}
	}
	if n == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertTraceCount,
		Expected: fmt.Sprintf("%d x %s", a.Count, a.describe()),
		Actual:   fmt.Sprintf("%d", n),
		Trace:    trace,
	}
}

func assertBehavesAs(r *Result, a Assertion) error {
	got := r.Behaviours[a.Owner]
	want := slices.Clone(a.Behaviours)
	slices.Sort(want)
	sorted := slices.Clone(got)
	slices.Sort(sorted)
	if slices.Equal(sorted, want) {
		return nil
	}
	return &AssertionError{
		Type:     AssertBehavesAs,
		Expected: fmt.Sprintf("%s behaves as %v", a.Owner, want),
		Actual:   fmt.Sprintf("%v", sorted),
	}
}

func assertFinalState(r *Result, a Assertion) error {
	values := r.Final[a.Owner]
	names := make([]string, 0, len(a.Expect))
	for name := range a.Expect {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		want := a.Expect[name]
		got, ok := values[name]
		if !ok {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("%s.%s = %v", a.Owner, name, want),
				Actual:   "property missing",
			}
		}
		if !ir.Equal(got, want) {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("%s.%s = %v", a.Owner, name, ir.Normalize(want)),
				Actual:   fmt.Sprintf("%v", got),
			}
		}
	}
	return nil
}
