package harness

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/reactive-graph/reactive-graph-sub007/internal/ir"
)

// TraceSnapshot is the golden form of a run: the trace plus the final
// property values.
type TraceSnapshot struct {
	Scenario string                         `json:"scenario"`
	Trace    []TraceEvent                   `json:"trace"`
	Final    map[string]map[string]ir.Value `json:"final"`
}

// Snapshot renders a result as indented JSON with sorted map keys and a
// trailing newline.
func Snapshot(name string, r *Result) ([]byte, error) {
	data, err := json.MarshalIndent(TraceSnapshot{Scenario: name, Trace: r.Trace, Final: r.Final}, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// RunWithGolden runs a scenario and compares its snapshot with
// testdata/golden/<name>.golden. Regenerate with:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, s *Scenario) (*Result, error) {
	t.Helper()
	result, err := Run(s)
	if err != nil {
		return nil, err
	}
	return result, AssertGolden(t, s.Name, result)
}

// AssertGolden compares an existing result with its golden file.
func AssertGolden(t *testing.T, name string, r *Result) error {
	t.Helper()
	data, err := Snapshot(name, r)
	if err != nil {
		return err
	}
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}
