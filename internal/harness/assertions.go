package harness

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/roach88/recordwire/internal/ir"
	"github.com/roach88/recordwire/internal/store"
	"github.com/roach88/recordwire/internal/world"
)

// radiusTolerance absorbs float noise when comparing song radii.
const radiusTolerance = 1e-9

// AssertionContext is what assertions are evaluated against.
type AssertionContext struct {
	Ctx        context.Context
	World      *world.World
	Store      *store.Store
	Generation string
}

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Home     string // Home position, if the assertion targets one
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s", e.Type)
	if e.Home != "" {
		fmt.Fprintf(&buf, " at %s", e.Home)
	}
	fmt.Fprintf(&buf, "\n  Expected: %s\n  Actual: %s", e.Expected, e.Actual)
	return buf.String()
}

// EvaluateAssertions evaluates all assertions and returns failure messages.
// Every assertion is evaluated even after a failure.
func EvaluateAssertions(assertions []Assertion, actx *AssertionContext) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluateAssertion(a, actx); err != nil {
			errs = append(errs, fmt.Sprintf("assertion %d: %v", i+1, err))
		}
	}
	return errs
}

func evaluateAssertion(a Assertion, actx *AssertionContext) error {
	switch a.Type {
	case AssertSongRadius:
		return assertSongRadius(a, actx)
	case AssertCounts:
		return assertCounts(a, actx)
	case AssertConnections:
		return assertConnections(a, actx)
	case AssertLoaded:
		return assertLoaded(a, actx)
	case AssertStoredRecord:
		return assertStoredRecord(a, actx)
	case AssertJournalCount:
		return assertJournalCount(a, actx)
	case AssertBlockCount:
		return assertBlockCount(a, actx)
	case AssertConsistent:
		return assertConsistent(a, actx)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func assertSongRadius(a Assertion, actx *AssertionContext) error {
	node, err := actx.World.Home(ir.MustParsePos(a.Home))
	if err != nil {
		return fail(a, ir.FormatCapacity(*a.Value), err.Error())
	}
	if got := node.SongRadius(); math.Abs(got-*a.Value) > radiusTolerance {
		return fail(a, ir.FormatCapacity(*a.Value), ir.FormatCapacity(got))
	}
	return nil
}

func assertCounts(a Assertion, actx *AssertionContext) error {
	want := ir.Counts(a.Counts)
	node, err := actx.World.Home(ir.MustParsePos(a.Home))
	if err != nil {
		return fail(a, formatCounts(want), err.Error())
	}
	if got := node.Network().Counts(); !got.Equal(want) {
		return fail(a, formatCounts(want), formatCounts(got))
	}
	return nil
}

func assertConnections(a Assertion, actx *AssertionContext) error {
	want := slices.Sorted(slices.Values(a.Connections))
	node, err := actx.World.Home(ir.MustParsePos(a.Home))
	if err != nil {
		return fail(a, fmt.Sprint(want), err.Error())
	}

	got := []string{}
	for _, c := range node.Connections() {
		got = append(got, c.String())
	}
	slices.Sort(got)

	if !slices.Equal(got, want) {
		return fail(a, fmt.Sprint(want), fmt.Sprint(got))
	}
	return nil
}

func assertLoaded(a Assertion, actx *AssertionContext) error {
	_, err := actx.World.Home(ir.MustParsePos(a.Home))
	if got := err == nil; got != *a.Loaded {
		return fail(a, fmt.Sprintf("loaded=%t", *a.Loaded), fmt.Sprintf("loaded=%t", got))
	}
	return nil
}

func assertStoredRecord(a Assertion, actx *AssertionContext) error {
	want := a.Record
	rec, err := actx.Store.ReadRecord(actx.Ctx, ir.MustParsePos(a.Home))
	if err != nil {
		return fail(a, "stored record", err.Error())
	}

	if rec.Record.Connections != want.Connections {
		return fail(a, "connections "+want.Connections, "connections "+rec.Record.Connections)
	}
	if rec.Record.WireSystemInfo != want.WireSystemInfo {
		return fail(a, "wire_system_info "+want.WireSystemInfo, "wire_system_info "+rec.Record.WireSystemInfo)
	}
	if want.PlayRadius != nil {
		if rec.Record.PlayRadius == nil || math.Abs(*rec.Record.PlayRadius-*want.PlayRadius) > radiusTolerance {
			return fail(a, "play_radius "+ir.FormatCapacity(*want.PlayRadius), fmt.Sprintf("play_radius %v", formatRadius(rec.Record.PlayRadius)))
		}
	}
	if !rec.Intact() {
		return fail(a, "intact digest", "digest mismatch")
	}
	return nil
}

func assertJournalCount(a Assertion, actx *AssertionContext) error {
	events, err := actx.Store.ReadEvents(actx.Ctx, actx.Generation)
	if err != nil {
		return fail(a, fmt.Sprint(*a.Count), err.Error())
	}
	if len(events) != *a.Count {
		return fail(a, fmt.Sprint(*a.Count), fmt.Sprint(len(events)))
	}
	return nil
}

func assertBlockCount(a Assertion, actx *AssertionContext) error {
	if got := len(actx.World.Blocks()); got != *a.Count {
		return fail(a, fmt.Sprint(*a.Count), fmt.Sprint(got))
	}
	return nil
}

func assertConsistent(a Assertion, actx *AssertionContext) error {
	var bad []string
	for _, check := range actx.World.Verify(false) {
		if !check.OK() {
			bad = append(bad, fmt.Sprintf("%s: %v", check.Pos, check.Problem))
		}
	}
	if len(bad) > 0 {
		return fail(a, "all homes consistent", strings.Join(bad, "; "))
	}
	return nil
}

func fail(a Assertion, expected, actual string) *AssertionError {
	return &AssertionError{Type: a.Type, Home: a.Home, Expected: expected, Actual: actual}
}

func formatCounts(c ir.Counts) string {
	parts := make([]string, 0, len(c))
	for _, name := range c.Names() {
		if c[name] > 0 {
			parts = append(parts, fmt.Sprintf("%s=%d", name, c[name]))
		}
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func formatRadius(v *float64) string {
	if v == nil {
		return "absent"
	}
	return ir.FormatCapacity(*v)
}
