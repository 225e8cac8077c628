package codec

import (
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/roach88/recordwire/internal/ir"
)

// EncodeConnections renders edges in order, home endpoint first.
func EncodeConnections(conns []ir.Connection) string {
	entries := make([]string, len(conns))
	for i, c := range conns {
		entries[i] = c.String()
	}
	return envelope(entries)
}

// ParseConnections strictly parses an encoded connection list. Malformed
// entries, self loops and repeated pairs are errors.
func ParseConnections(s string) ([]ir.Connection, error) {
	entries, err := openEnvelope(FieldConnections, s)
	if err != nil {
		return []ir.Connection{}, err
	}

	conns := make([]ir.Connection, 0, len(entries))
	for i, entry := range entries {
		c, reason := parseConnection(entry)
		if reason != "" {
			return []ir.Connection{}, &FormatError{Field: FieldConnections, Index: i, Entry: entry, Reason: reason}
		}
		if c.IsSelfLoop() {
			return []ir.Connection{}, &FormatError{Field: FieldConnections, Index: i, Entry: entry, Reason: "self loop"}
		}
		if slices.ContainsFunc(conns, c.SameLink) {
			return []ir.Connection{}, &FormatError{Field: FieldConnections, Index: i, Entry: entry, Reason: "duplicate pair"}
		}
		conns = append(conns, c)
	}
	return conns, nil
}

func parseConnection(entry string) (ir.Connection, string) {
	parts := strings.Split(strings.TrimSpace(entry), ",")
	if len(parts) != 6 {
		return ir.Connection{}, "want 6 coordinates, got " + strconv.Itoa(len(parts))
	}

	var v [6]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return ir.Connection{}, "coordinate " + strconv.Itoa(i) + " is not an integer"
		}
		v[i] = n
	}
	return ir.NewConnection(ir.P(v[0], v[1], v[2]), ir.P(v[3], v[4], v[5])), ""
}

// DecodedConnections is the detailed result of a lenient decode.
type DecodedConnections struct {
	Connections []ir.Connection

	// Dangling are well-formed edges dropped because an endpoint is gone.
	Dangling []ir.Connection

	// Discarded counts self loops and repeated pairs that were dropped.
	Discarded int

	// Err is the parse error when the whole string was unreadable.
	Err error
}

// InspectConnections decodes leniently and reports what was dropped.
// exists reports whether a node is still present; nil keeps every edge.
func InspectConnections(s string, exists func(ir.Pos) bool) DecodedConnections {
	out := DecodedConnections{Connections: []ir.Connection{}}

	entries, err := openEnvelope(FieldConnections, s)
	if err != nil {
		out.Err = err
		return out
	}

	parsed := make([]ir.Connection, 0, len(entries))
	for i, entry := range entries {
		c, reason := parseConnection(entry)
		if reason != "" {
			out.Err = &FormatError{Field: FieldConnections, Index: i, Entry: entry, Reason: reason}
			return out
		}
		parsed = append(parsed, c)
	}

	for _, c := range parsed {
		if c.IsSelfLoop() || slices.ContainsFunc(out.Connections, c.SameLink) || slices.ContainsFunc(out.Dangling, c.SameLink) {
			out.Discarded++
			continue
		}
		if exists != nil && (!exists(c.Home) || !exists(c.To)) {
			out.Dangling = append(out.Dangling, c)
			continue
		}
		out.Connections = append(out.Connections, c)
	}
	return out
}

// DecodeConnections leniently decodes an encoded connection list. Corrupt
// input yields an empty list; dangling edges and repeated pairs are dropped.
func DecodeConnections(s string, exists func(ir.Pos) bool) []ir.Connection {
	res := InspectConnections(s, exists)
	if res.Err != nil {
		slog.Debug("discarding unreadable connections", "error", res.Err)
	}
	return res.Connections
}
