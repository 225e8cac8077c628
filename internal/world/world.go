// Package world is the placement system: it tracks which component sits at
// each position, owns the loaded home nodes, and enforces wiring rules
// before mutating a home's network.
//
// World is safe for concurrent readers; mutations are expected to come from
// a single writer (the engine loop) but are locked regardless.
package world

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/roach88/recordwire/internal/catalog"
	"github.com/roach88/recordwire/internal/home"
	"github.com/roach88/recordwire/internal/ir"
)

// DefaultMaxCableLength is the longest cable accepted when none is configured.
const DefaultMaxCableLength = 7.0

// Block is one placed component.
type Block struct {
	Pos       ir.Pos `json:"pos"`
	Component string `json:"component"`
}

// World holds placements and loaded homes.
type World struct {
	mu       sync.RWMutex
	registry *catalog.Registry
	blocks   map[ir.Pos]catalog.Def
	homes    map[ir.Pos]*home.Node

	maxCable float64
	policy   home.RadiusPolicy
	logger   *slog.Logger
}

// Option configures a World.
type Option func(*World)

// WithMaxCableLength sets the longest accepted cable.
func WithMaxCableLength(length float64) Option {
	return func(w *World) {
		w.maxCable = length
	}
}

// WithRadiusPolicy sets how loaded homes choose their aggregate.
func WithRadiusPolicy(p home.RadiusPolicy) Option {
	return func(w *World) {
		w.policy = p
	}
}

// WithLogger sets the logger passed to home nodes.
func WithLogger(logger *slog.Logger) Option {
	return func(w *World) {
		w.logger = logger
	}
}

// New creates an empty world over a catalog.
func New(registry *catalog.Registry, opts ...Option) *World {
	w := &World{
		registry: registry,
		blocks:   make(map[ir.Pos]catalog.Def),
		homes:    make(map[ir.Pos]*home.Node),
		maxCable: DefaultMaxCableLength,
		policy:   home.RadiusDerived,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Registry returns the catalog the world was built with.
func (w *World) Registry() *catalog.Registry { return w.registry }

// Place puts a component at pos. A home is created loaded with an empty
// network.
func (w *World) Place(pos ir.Pos, name string) error {
	def, err := w.registry.Require(name)
	if err != nil {
		return fmt.Errorf("place at %s: %w", pos, err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.blocks[pos]; ok {
		return fmt.Errorf("place %q at %s: %w", def.Name(), pos, ErrOccupied)
	}

	if def.IsHome() {
		node, err := home.New(pos, def, home.WithLogger(w.logger))
		if err != nil {
			return err
		}
		w.homes[pos] = node
	}
	w.blocks[pos] = def
	return nil
}

// Break removes the block at pos. Breaking a home discards its network;
// breaking a link disconnects it from every loaded home. Homes that are
// unloaded keep the stale edge until they are loaded again, when it is
// dropped as dangling. It returns the removed block's definition.
func (w *World) Break(pos ir.Pos) (catalog.Def, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	def, ok := w.blocks[pos]
	if !ok {
		return catalog.Def{}, fmt.Errorf("break at %s: %w", pos, ErrEmpty)
	}

	if def.IsHome() {
		if node, loaded := w.homes[pos]; loaded {
			node.Network().Clear()
			delete(w.homes, pos)
		}
	} else {
		for _, node := range w.homes {
			node.Network().DisconnectAt(pos, def)
		}
	}

	delete(w.blocks, pos)
	return def, nil
}

// Connect wires a to b. Exactly one endpoint must be a loaded home; it is
// recorded as the connection's home regardless of argument order.
func (w *World) Connect(a, b ir.Pos) (ir.Connection, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	node, link, conn, err := w.cableLocked(a, b)
	if err != nil {
		return ir.Connection{}, err
	}

	if conn.Length() > w.maxCable {
		return ir.Connection{}, fmt.Errorf("connect %s: length %.2f > %.2f: %w",
			conn, conn.Length(), w.maxCable, ErrCableTooLong)
	}

	if err := node.Network().Connect(conn, link); err != nil {
		return ir.Connection{}, err
	}
	return conn, nil
}

// Disconnect removes the cable between a and b. It reports false when the
// pair was not connected.
func (w *World) Disconnect(a, b ir.Pos) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	node, link, conn, err := w.cableLocked(a, b)
	if err != nil {
		return false, err
	}
	return node.Network().Disconnect(conn, link), nil
}

// cableLocked validates a cable between a and b and orients it home first.
func (w *World) cableLocked(a, b ir.Pos) (*home.Node, catalog.Def, ir.Connection, error) {
	if a == b {
		return nil, catalog.Def{}, ir.Connection{}, fmt.Errorf("cable at %s: %w", a, ErrSameNode)
	}

	da, ok := w.blocks[a]
	if !ok {
		return nil, catalog.Def{}, ir.Connection{}, fmt.Errorf("cable from %s: %w", a, ErrEmpty)
	}
	db, ok := w.blocks[b]
	if !ok {
		return nil, catalog.Def{}, ir.Connection{}, fmt.Errorf("cable to %s: %w", b, ErrEmpty)
	}

	switch {
	case da.IsHome() && db.IsHome():
		return nil, catalog.Def{}, ir.Connection{}, fmt.Errorf("cable %s-%s: %w", a, b, ErrTwoHomes)
	case !da.IsHome() && !db.IsHome():
		return nil, catalog.Def{}, ir.Connection{}, fmt.Errorf("cable %s-%s: %w", a, b, ErrNoHome)
	case db.IsHome():
		a, b = b, a
		db = da
	}

	node, loaded := w.homes[a]
	if !loaded {
		return nil, catalog.Def{}, ir.Connection{}, fmt.Errorf("cable at %s: %w", a, ErrUnloaded)
	}
	return node, db, ir.NewConnection(a, b), nil
}

// Home returns the loaded home at pos.
func (w *World) Home(pos ir.Pos) (*home.Node, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.homeLocked(pos)
}

func (w *World) homeLocked(pos ir.Pos) (*home.Node, error) {
	def, ok := w.blocks[pos]
	if !ok {
		return nil, fmt.Errorf("home at %s: %w", pos, ErrEmpty)
	}
	if !def.IsHome() {
		return nil, fmt.Errorf("home at %s: %w", pos, ErrNotHome)
	}
	node, ok := w.homes[pos]
	if !ok {
		return nil, fmt.Errorf("home at %s: %w", pos, ErrUnloaded)
	}
	return node, nil
}

// Homes returns the loaded homes ordered by position.
func (w *World) Homes() []*home.Node {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.sortedHomesLocked()
}

func (w *World) sortedHomesLocked() []*home.Node {
	out := make([]*home.Node, 0, len(w.homes))
	for _, pos := range slices.SortedFunc(maps.Keys(w.homes), ir.ComparePos) {
		out = append(out, w.homes[pos])
	}
	return out
}

// Blocks returns every placement ordered by position.
func (w *World) Blocks() []Block {
	w.mu.RLock()
	defer w.mu.RUnlock()

	out := make([]Block, 0, len(w.blocks))
	for _, pos := range slices.SortedFunc(maps.Keys(w.blocks), ir.ComparePos) {
		out = append(out, Block{Pos: pos, Component: w.blocks[pos].Name()})
	}
	return out
}

// Restore places blocks without creating home networks; used when a world
// is read back from storage and homes are loaded one by one afterwards.
func (w *World) Restore(blocks []Block) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, b := range blocks {
		def, err := w.registry.Require(b.Component)
		if err != nil {
			return fmt.Errorf("restore %s: %w", b.Pos, err)
		}
		if _, ok := w.blocks[b.Pos]; ok {
			return fmt.Errorf("restore %q at %s: %w", def.Name(), b.Pos, ErrOccupied)
		}
		w.blocks[b.Pos] = def
	}
	return nil
}

// Unload saves the home at pos and discards its network. The block stays
// placed.
func (w *World) Unload(pos ir.Pos) (home.Record, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	node, err := w.homeLocked(pos)
	if err != nil {
		return home.Record{}, err
	}

	rec, err := node.Save()
	if err != nil {
		return home.Record{}, fmt.Errorf("unload %s: %w", pos, err)
	}

	delete(w.homes, pos)
	return rec, nil
}

// LoadHome rebuilds the home at pos from a persisted record.
func (w *World) LoadHome(pos ir.Pos, rec home.Record) (home.LoadReport, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	def, ok := w.blocks[pos]
	if !ok {
		return home.LoadReport{}, fmt.Errorf("load home at %s: %w", pos, ErrEmpty)
	}
	if !def.IsHome() {
		return home.LoadReport{}, fmt.Errorf("load home at %s: %w", pos, ErrNotHome)
	}
	if _, loaded := w.homes[pos]; loaded {
		return home.LoadReport{}, fmt.Errorf("load home at %s: %w", pos, ErrLoaded)
	}

	node, err := home.New(pos, def, home.WithLogger(w.logger))
	if err != nil {
		return home.LoadReport{}, err
	}

	report := node.Load(rec, linkResolver{lockedResolver{w}}, w.registry, w.policy)
	w.homes[pos] = node
	return report, nil
}

// ComponentAt implements network.Resolver.
func (w *World) ComponentAt(pos ir.Pos) (ir.Component, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return lockedResolver{w}.ComponentAt(pos)
}

// Exists reports whether a block is placed at pos.
func (w *World) Exists(pos ir.Pos) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return lockedResolver{w}.Exists(pos)
}

// lockedResolver reads the world while the caller already holds its lock.
type lockedResolver struct{ w *World }

func (r lockedResolver) ComponentAt(pos ir.Pos) (ir.Component, bool) {
	if node, ok := r.w.homes[pos]; ok {
		return node, true
	}
	def, ok := r.w.blocks[pos]
	if !ok {
		return nil, false
	}
	return def, true
}

func (r lockedResolver) Exists(pos ir.Pos) bool {
	_, ok := r.w.blocks[pos]
	return ok
}

// linkResolver is the resolver a loading home sees: only link blocks can be
// the far end of one of its edges.
type linkResolver struct{ lockedResolver }

func (r linkResolver) Exists(pos ir.Pos) bool {
	def, ok := r.w.blocks[pos]
	return ok && !def.IsHome()
}
