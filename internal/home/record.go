package home

import (
	"math"
	"slices"

	"github.com/roach88/recordwire/internal/codec"
	"github.com/roach88/recordwire/internal/ir"
	"github.com/roach88/recordwire/internal/network"
)

// Record is the persisted form of a home.
type Record struct {
	// Item is the opaque record blob owned by the item subsystem.
	Item []byte `json:"record,omitempty"`

	Opening        bool   `json:"opening"`
	Connections    string `json:"connections"`
	WireSystemInfo string `json:"wireSystemInfo"`

	// PlayRadius is the cached aggregate; nil when the key was absent.
	PlayRadius *float64 `json:"playRadius,omitempty"`
}

// Resolver answers questions about the world around a home during load.
type Resolver interface {
	network.Resolver
	Exists(pos ir.Pos) bool
}

// LoadReport describes what Load had to change to produce a consistent
// network.
type LoadReport struct {
	// Dropped are edges discarded because an endpoint no longer exists.
	Dropped []ir.Connection `json:"dropped,omitempty"`

	// Discarded counts self loops and repeated pairs in the stored string.
	Discarded int `json:"discarded,omitempty"`

	// Corrupt is set when a stored string could not be read at all.
	Corrupt bool `json:"corrupt,omitempty"`

	// Repaired is set when the stored counts broke the strict grammar but
	// were recovered, for example a repeated name or a zero count.
	Repaired bool `json:"repaired,omitempty"`

	// Healed is set when counts were re-derived from the edges.
	Healed bool           `json:"healed,omitempty"`
	Diffs  []ir.CountDiff `json:"diffs,omitempty"`

	// Diverged is set when the cached playRadius disagreed with the counts.
	Diverged bool `json:"diverged,omitempty"`

	// Source names where the final aggregate came from: derived, cached,
	// or edges.
	Source string `json:"source"`
}

// Changed reports whether loading departed from the stored record.
func (r LoadReport) Changed() bool {
	return len(r.Dropped) > 0 || r.Discarded > 0 || r.Corrupt || r.Repaired || r.Healed || r.Diverged
}

const radiusEpsilon = 1e-6

// Save renders the node into its persisted form.
func (n *Node) Save() (Record, error) {
	snap := n.net.Snapshot()

	counts, err := codec.EncodeCounts(snap.Counts)
	if err != nil {
		return Record{}, err
	}

	capacity := snap.Capacity
	return Record{
		Item:           n.Item(),
		Opening:        n.Opening(),
		Connections:    codec.EncodeConnections(snap.Edges),
		WireSystemInfo: counts,
		PlayRadius:     &capacity,
	}, nil
}

// Load replaces the node's state with rec. Edges are the source of truth:
// dangling edges are dropped and, when the stored counts disagree with the
// edges, counts and aggregate are rebuilt from the edges.
func (n *Node) Load(rec Record, resolve Resolver, contrib network.Contributions, policy RadiusPolicy) LoadReport {
	n.mu.Lock()
	n.item = slices.Clone(rec.Item)
	n.opening = rec.Opening
	n.mu.Unlock()

	var report LoadReport

	decoded := codec.InspectConnections(rec.Connections, resolve.Exists)
	if decoded.Err != nil {
		n.logger.Debug("stored connections unreadable, starting empty",
			"pos", n.pos.String(), "error", decoded.Err)
		report.Corrupt = true
	}
	report.Dropped = decoded.Dangling
	report.Discarded = decoded.Discarded

	decodedCounts := codec.InspectCounts(rec.WireSystemInfo)
	switch {
	case decodedCounts.Err != nil:
		n.logger.Debug("stored counts unreadable, starting empty",
			"pos", n.pos.String(), "error", decodedCounts.Err)
		report.Corrupt = true
	case decodedCounts.Repaired:
		n.logger.Debug("stored counts repaired by lenient decode", "pos", n.pos.String())
		report.Repaired = true
	}
	counts := decodedCounts.Counts

	capacity, source, diverged := n.chooseCapacity(counts, rec.PlayRadius, contrib, policy)
	report.Source = source
	report.Diverged = diverged

	n.net.Replace(decoded.Connections, counts, capacity)

	ie := n.net.Verify(resolve)
	switch {
	case ie == nil:
	case len(ie.Diffs) == 0 && len(ie.Unresolved) == 0 && source == string(RadiusCached):
		// counts agree, only the cached aggregate differs
		n.logger.Warn("cached play radius disagrees with connected components, keeping cache",
			"pos", n.pos.String(),
			"cached", ir.FormatCapacity(ie.StoredCapacity),
			"derived", ir.FormatCapacity(ie.ExpectedCapacity))
		report.Diverged = true
	default:
		res := n.net.Rebuild(resolve)
		report.Healed = true
		report.Diffs = res.Diffs
		report.Source = "edges"
		if len(decoded.Dangling) > 0 || report.Corrupt {
			n.logger.Debug("rebuilt counts after dropping edges",
				"pos", n.pos.String(), "dropped", len(decoded.Dangling))
		} else {
			n.logger.Warn("stored counts disagree with connections, rebuilt from edges",
				"pos", n.pos.String(), "error", ie.Error())
		}
	}

	return report
}

// chooseCapacity picks the initial aggregate per policy.
func (n *Node) chooseCapacity(counts ir.Counts, cached *float64, contrib network.Contributions, policy RadiusPolicy) (float64, string, bool) {
	derived, err := network.Sum(counts, contrib)
	known := err == nil

	switch {
	case policy == RadiusCached && cached != nil:
		return *cached, string(RadiusCached), known && math.Abs(derived-*cached) > radiusEpsilon
	case known:
		diverged := cached != nil && math.Abs(derived-*cached) > radiusEpsilon
		if diverged {
			n.logger.Warn("cached play radius differs from catalog, using catalog",
				"pos", n.pos.String(),
				"cached", ir.FormatCapacity(*cached),
				"derived", ir.FormatCapacity(derived))
		}
		return derived, string(RadiusDerived), diverged
	case cached != nil:
		return *cached, string(RadiusCached), false
	default:
		return derived, string(RadiusDerived), false
	}
}
