package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/recordwire/internal/ir"
)

// Snapshot captures a scenario run for golden comparison.
// All fields use canonical JSON serialization for deterministic comparison.
type Snapshot struct {
	ScenarioName string       `json:"scenario_name"`
	Generation   string       `json:"generation"`
	Trace        []TraceEvent `json:"trace"`
	Homes        []HomeState  `json:"homes"`
}

// toCanonicalMap converts a Snapshot to a map[string]any for canonical JSON
// serialization, which only handles maps, slices and primitives.
func (s *Snapshot) toCanonicalMap() map[string]any {
	trace := make([]any, len(s.Trace))
	for i, ev := range s.Trace {
		args := ev.Args
		if args == nil {
			args = map[string]any{}
		}
		trace[i] = map[string]any{
			"step":    ev.Step,
			"op":      ev.Op,
			"args":    args,
			"seq":     ev.Seq,
			"outcome": ev.Outcome,
		}
	}

	homes := make([]any, len(s.Homes))
	for i, h := range s.Homes {
		homes[i] = map[string]any{
			"pos":              h.Pos,
			"connections":      h.Connections,
			"wire_system_info": h.WireSystemInfo,
			"song_radius":      h.SongRadius,
		}
	}

	return map[string]any{
		"scenario_name": s.ScenarioName,
		"generation":    s.Generation,
		"trace":         trace,
		"homes":         homes,
	}
}

// MarshalSnapshot renders a scenario result as canonical JSON.
func MarshalSnapshot(scenario *Scenario, result *Result) ([]byte, error) {
	generation := scenario.Generation
	if generation == "" {
		generation = DefaultGeneration
	}

	snap := Snapshot{
		ScenarioName: scenario.Name,
		Generation:   generation,
		Trace:        result.Trace,
		Homes:        result.Homes,
	}
	return ir.MarshalCanonical(snap.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns the result so callers can also check Pass. Test failure (via
// goldie) occurs if the snapshot doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}

	data, err := MarshalSnapshot(scenario, result)
	if err != nil {
		return nil, err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, data)

	return result, nil
}
