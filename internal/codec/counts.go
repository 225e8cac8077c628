package codec

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/roach88/recordwire/internal/ir"
)

// ValidName reports whether name can be encoded and read back unchanged:
// non-empty valid UTF-8, already in ir.NormalizeName form, and free of the
// entry and count separators.
func ValidName(name string) bool {
	return name != "" &&
		utf8.ValidString(name) &&
		name == ir.NormalizeName(name) &&
		!strings.ContainsAny(name, EntrySep+CountSep)
}

// EncodeCounts renders counts as name=count entries sorted by name.
// Counts of zero or less are skipped.
func EncodeCounts(counts ir.Counts) (string, error) {
	entries := make([]string, 0, len(counts))
	for _, name := range counts.Names() {
		n := counts[name]
		if n <= 0 {
			continue
		}
		if !ValidName(name) {
			return "", fmt.Errorf("encode %q: %w", name, ErrReservedName)
		}
		entries = append(entries, name+CountSep+strconv.Itoa(n))
	}
	return envelope(entries), nil
}

// ParseCounts strictly parses encoded counts. Names are normalized; a name
// that appears twice or a count that is not a positive integer is an error.
func ParseCounts(s string) (ir.Counts, error) {
	return parseCounts(s, true)
}

// DecodeCounts leniently parses encoded counts. Corrupt input yields empty
// counts; repeated names are summed and non-positive counts are dropped.
func DecodeCounts(s string) ir.Counts {
	res := InspectCounts(s)
	if res.Err != nil {
		slog.Debug("discarding unreadable counts", "error", res.Err)
	}
	return res.Counts
}

// DecodedCounts is the result of InspectCounts.
type DecodedCounts struct {
	Counts ir.Counts

	// Repaired is set when the strict grammar was violated but the lenient
	// decode recovered the counts, for example a repeated name.
	Repaired bool

	// Err is set when the string could not be read at all. Counts is then
	// empty.
	Err error
}

// InspectCounts decodes leniently and reports whether repair was needed.
func InspectCounts(s string) DecodedCounts {
	if counts, err := parseCounts(s, true); err == nil {
		return DecodedCounts{Counts: counts}
	}
	counts, err := parseCounts(s, false)
	if err != nil {
		return DecodedCounts{Counts: ir.Counts{}, Err: err}
	}
	return DecodedCounts{Counts: counts, Repaired: true}
}

func parseCounts(s string, strict bool) (ir.Counts, error) {
	entries, err := openEnvelope(FieldWireSystemInfo, s)
	if err != nil {
		return ir.Counts{}, err
	}

	counts := make(ir.Counts, len(entries))
	for i, entry := range entries {
		fail := func(reason string) (ir.Counts, error) {
			return ir.Counts{}, &FormatError{Field: FieldWireSystemInfo, Index: i, Entry: entry, Reason: reason}
		}

		rawName, rawCount, ok := strings.Cut(entry, CountSep)
		if !ok {
			return fail("missing " + CountSep)
		}

		name := ir.NormalizeName(rawName)
		if name == "" {
			return fail("empty name")
		}

		n, err := strconv.Atoi(strings.TrimSpace(rawCount))
		if err != nil {
			return fail("count is not an integer")
		}

		if n <= 0 {
			if strict {
				return fail("count must be positive")
			}
			continue
		}

		if _, seen := counts[name]; seen && strict {
			return fail("duplicate name")
		}
		counts[name] += n
	}
	return counts, nil
}
