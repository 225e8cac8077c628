package network

import (
	"fmt"
	"math"
	"slices"
	"sync"

	"github.com/roach88/recordwire/internal/ir"
)

// capacityEpsilon absorbs float drift between the incremental aggregate and
// a from-scratch sum.
const capacityEpsilon = 1e-9

// Resolver maps a position to the component placed there.
type Resolver interface {
	ComponentAt(pos ir.Pos) (ir.Component, bool)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(pos ir.Pos) (ir.Component, bool)

// ComponentAt implements Resolver.
func (f ResolverFunc) ComponentAt(pos ir.Pos) (ir.Component, bool) { return f(pos) }

// Contributions maps a component name to its capacity contribution.
type Contributions interface {
	Contribution(name string) (float64, bool)
}

// Network is the edge set and capacity aggregate owned by one home.
// It is safe for concurrent use; all methods take the lock themselves.
type Network struct {
	mu       sync.RWMutex
	base     float64
	edges    []ir.Connection
	counts   ir.Counts
	capacity float64
}

// New creates an empty network for a home with the given base capacity.
func New(base float64) *Network {
	return &Network{
		base:   base,
		counts: ir.Counts{},
	}
}

// AddComponent counts one more instance of c and adds its contribution.
// Adding a name that is already present increments the shared count.
func (n *Network) AddComponent(c ir.Component) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.addLocked(c)
}

// RemoveComponent counts one fewer instance of c and subtracts its
// contribution. Removing a name that is not counted is a no-op.
func (n *Network) RemoveComponent(c ir.Component) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.removeLocked(c)
}

func (n *Network) addLocked(c ir.Component) {
	n.counts[c.Name()]++
	n.capacity += c.CapacityIncrease()
}

func (n *Network) removeLocked(c ir.Component) bool {
	name := c.Name()
	count, ok := n.counts[name]
	if !ok {
		return false
	}

	if count <= 1 {
		delete(n.counts, name)
	} else {
		n.counts[name] = count - 1
	}
	n.capacity -= c.CapacityIncrease()

	if len(n.counts) == 0 {
		n.capacity = 0
	}
	return true
}

// Connect appends conn and counts c in one step.
func (n *Network) Connect(conn ir.Connection, c ir.Component) error {
	if conn.IsSelfLoop() {
		return fmt.Errorf("connect %s: %w", conn, ErrSelfLoop)
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if n.indexLocked(conn) >= 0 {
		return fmt.Errorf("connect %s: %w", conn, ErrDuplicateEdge)
	}

	n.edges = append(n.edges, conn)
	n.addLocked(c)
	return nil
}

// Disconnect removes conn and uncounts c in one step. It reports false when
// the pair is not connected, in which case nothing changes.
func (n *Network) Disconnect(conn ir.Connection, c ir.Component) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	i := n.indexLocked(conn)
	if i < 0 {
		return false
	}

	n.edges = slices.Delete(n.edges, i, i+1)
	n.removeLocked(c)
	return true
}

// DisconnectAt removes every edge touching pos, uncounting c once per edge.
// It returns the number of edges removed.
func (n *Network) DisconnectAt(pos ir.Pos, c ir.Component) int {
	n.mu.Lock()
	defer n.mu.Unlock()

	before := len(n.edges)
	n.edges = slices.DeleteFunc(n.edges, func(e ir.Connection) bool {
		return e.Involves(pos)
	})

	removed := before - len(n.edges)
	for range removed {
		n.removeLocked(c)
	}
	return removed
}

func (n *Network) indexLocked(conn ir.Connection) int {
	return slices.IndexFunc(n.edges, conn.SameLink)
}

// Has reports whether the pair a, b is connected.
func (n *Network) Has(a, b ir.Pos) bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return slices.ContainsFunc(n.edges, func(e ir.Connection) bool { return e.Joins(a, b) })
}

// SongRadius returns base + capacity.
func (n *Network) SongRadius() float64 {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.base + n.capacity
}

// Capacity returns the aggregate without the base.
func (n *Network) Capacity() float64 {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.capacity
}

// Base returns the home's base capacity.
func (n *Network) Base() float64 {
	return n.base
}

// Connections returns a copy of the edges in insertion order.
func (n *Network) Connections() []ir.Connection {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return cloneEdges(n.edges)
}

// cloneEdges copies edges into a non-nil slice.
func cloneEdges(edges []ir.Connection) []ir.Connection {
	return append(make([]ir.Connection, 0, len(edges)), edges...)
}

// Counts returns a copy of the per-name counts.
func (n *Network) Counts() ir.Counts {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.counts.Clone()
}

// Len returns the number of edges.
func (n *Network) Len() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.edges)
}

// Snapshot is one consistent read of a network.
type Snapshot struct {
	Base       float64         `json:"base"`
	Capacity   float64         `json:"capacity"`
	SongRadius float64         `json:"song_radius"`
	Edges      []ir.Connection `json:"edges"`
	Counts     ir.Counts       `json:"counts"`
}

// Snapshot returns base, edges, counts and capacity under one read lock.
func (n *Network) Snapshot() Snapshot {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return Snapshot{
		Base:       n.base,
		Capacity:   n.capacity,
		SongRadius: n.base + n.capacity,
		Edges:      cloneEdges(n.edges),
		Counts:     n.counts.Clone(),
	}
}

// Replace swaps in a complete state, as done on load. Counts of zero or less
// are dropped. The inputs are copied.
func (n *Network) Replace(edges []ir.Connection, counts ir.Counts, capacity float64) {
	clean := make(ir.Counts, len(counts))
	for name, c := range counts {
		if c > 0 {
			clean[name] = c
		}
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	n.edges = cloneEdges(edges)
	n.counts = clean
	n.capacity = capacity
}

// Clear drops every edge and count.
func (n *Network) Clear() {
	n.Replace(nil, nil, 0)
}

// Recompute sums count*contribution over the current counts. It does not
// modify the network.
func (n *Network) Recompute(contrib Contributions) (float64, error) {
	return Sum(n.Counts(), contrib)
}

// Sum returns the aggregate for counts without the base.
func Sum(counts ir.Counts, contrib Contributions) (float64, error) {
	total := 0.0
	for _, name := range counts.Names() {
		c, ok := contrib.Contribution(name)
		if !ok {
			return 0, fmt.Errorf("recompute %q: %w", name, ErrUnknownName)
		}
		total += float64(counts[name]) * c
	}
	return total, nil
}

// derive walks the edges and resolves each far endpoint. A far end that is
// missing or holds a home is unresolved.
func derive(edges []ir.Connection, resolve Resolver) (ir.Counts, float64, []ir.Connection, []ir.Connection) {
	counts := ir.Counts{}
	capacity := 0.0
	var kept, unresolved []ir.Connection

	for _, e := range edges {
		c, ok := resolve.ComponentAt(e.To)
		if !ok || ir.IsHome(c) {
			unresolved = append(unresolved, e)
			continue
		}
		counts[c.Name()]++
		capacity += c.CapacityIncrease()
		kept = append(kept, e)
	}
	return counts, capacity, kept, unresolved
}

// Verify derives counts from the edges and compares them with the
// incremental state. It returns nil when they agree.
func (n *Network) Verify(resolve Resolver) *InvariantError {
	snap := n.Snapshot()
	expected, capacity, _, unresolved := derive(snap.Edges, resolve)

	diffs := snap.Counts.Diff(expected)
	if len(diffs) == 0 && len(unresolved) == 0 && math.Abs(capacity-snap.Capacity) <= capacityEpsilon {
		return nil
	}

	return &InvariantError{
		Diffs:            diffs,
		Unresolved:       unresolved,
		StoredCapacity:   snap.Capacity,
		ExpectedCapacity: capacity,
	}
}

// RebuildResult describes what Rebuild changed.
type RebuildResult struct {
	Dropped []ir.Connection `json:"dropped,omitempty"`
	Diffs   []ir.CountDiff  `json:"diffs,omitempty"`
}

// Changed reports whether the rebuild altered anything.
func (r RebuildResult) Changed() bool {
	return len(r.Dropped) > 0 || len(r.Diffs) > 0
}

// Rebuild re-derives counts and capacity from the edge set. Edges whose far
// endpoint no longer resolves are dropped.
func (n *Network) Rebuild(resolve Resolver) RebuildResult {
	n.mu.Lock()
	defer n.mu.Unlock()

	counts, capacity, kept, unresolved := derive(n.edges, resolve)
	result := RebuildResult{
		Dropped: unresolved,
		Diffs:   n.counts.Diff(counts),
	}

	n.edges = kept
	n.counts = counts
	n.capacity = capacity
	return result
}
