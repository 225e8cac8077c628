package ir

import (
	"maps"
	"slices"
)

// Counts maps a component name to the number of connected instances.
// A name with no live instances is absent, never present with zero.
type Counts map[string]int

// Clone returns an independent copy. The result is never nil.
func (c Counts) Clone() Counts {
	out := make(Counts, len(c))
	maps.Copy(out, c)
	return out
}

// Names returns the names in sorted order.
func (c Counts) Names() []string {
	return slices.Sorted(maps.Keys(c))
}

// Total returns the number of counted instances.
func (c Counts) Total() int {
	total := 0
	for _, n := range c {
		total += n
	}
	return total
}

// Equal reports whether both maps hold the same positive entries.
// Entries with a count of zero or less are treated as absent.
func (c Counts) Equal(o Counts) bool {
	for name, n := range c {
		if n > 0 && o[name] != n {
			return false
		}
	}
	for name, n := range o {
		if n > 0 && c[name] != n {
			return false
		}
	}
	return true
}

// CountDiff is the difference for one name between two count maps.
type CountDiff struct {
	Name     string `json:"name"`
	Stored   int    `json:"stored"`
	Expected int    `json:"expected"`
}

// Diff lists names whose counts differ, sorted by name.
// stored is the receiver, expected is o.
func (c Counts) Diff(o Counts) []CountDiff {
	seen := make(map[string]bool, len(c)+len(o))
	for name := range c {
		seen[name] = true
	}
	for name := range o {
		seen[name] = true
	}

	var diffs []CountDiff
	for _, name := range slices.Sorted(maps.Keys(seen)) {
		stored, expected := max(c[name], 0), max(o[name], 0)
		if stored != expected {
			diffs = append(diffs, CountDiff{Name: name, Stored: stored, Expected: expected})
		}
	}
	return diffs
}
