// Package home implements the root node of a wire network: the home block
// that owns one network, exposes its song radius, and persists it.
package home

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/roach88/recordwire/internal/catalog"
	"github.com/roach88/recordwire/internal/ir"
	"github.com/roach88/recordwire/internal/network"
)

// ErrNotHome is returned when a node is created from a link definition.
var ErrNotHome = errors.New("component is not a home")

// Node is one placed home and the network it owns.
type Node struct {
	pos    ir.Pos
	def    catalog.Def
	net    *network.Network
	logger *slog.Logger

	// pass-through fields, persisted but never interpreted
	mu      sync.RWMutex
	item    []byte
	opening bool
}

// Option configures a Node.
type Option func(*Node)

// WithLogger sets the logger used for load diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(n *Node) {
		n.logger = logger
	}
}

// New creates an active node with an empty network; its song radius is the
// definition's base capacity.
func New(pos ir.Pos, def catalog.Def, opts ...Option) (*Node, error) {
	if !def.IsHome() {
		return nil, fmt.Errorf("new home %q at %s: %w", def.Name(), pos, ErrNotHome)
	}

	n := &Node{
		pos:    pos,
		def:    def,
		net:    network.New(def.CapacityIncrease()),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n, nil
}

// Pos returns the node's position.
func (n *Node) Pos() ir.Pos { return n.pos }

// Def returns the node's catalog definition.
func (n *Node) Def() catalog.Def { return n.def }

// Name implements ir.Component.
func (n *Node) Name() string { return n.def.Name() }

// CapacityIncrease implements ir.Component; for a home it is the base.
func (n *Node) CapacityIncrease() float64 { return n.def.CapacityIncrease() }

// Connections implements ir.Home.
func (n *Node) Connections() []ir.Connection { return n.net.Connections() }

// SongRadius returns base + aggregate.
func (n *Node) SongRadius() float64 { return n.net.SongRadius() }

// Network returns the owned network.
func (n *Node) Network() *network.Network { return n.net }

// Item returns a copy of the opaque item blob.
func (n *Node) Item() []byte {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return slices.Clone(n.item)
}

// SetItem replaces the opaque item blob.
func (n *Node) SetItem(b []byte) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.item = slices.Clone(b)
}

// Opening returns the cosmetic opening flag.
func (n *Node) Opening() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.opening
}

// SetOpening sets the cosmetic opening flag.
func (n *Node) SetOpening(v bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.opening = v
}

var _ ir.Home = (*Node)(nil)
