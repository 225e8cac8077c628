package engine

import (
	"context"
	"fmt"
	"slices"

	"github.com/roach88/recordwire/internal/catalog"
	"github.com/roach88/recordwire/internal/home"
	"github.com/roach88/recordwire/internal/ir"
	"github.com/roach88/recordwire/internal/store"
	"github.com/roach88/recordwire/internal/world"
)

// Replay re-applies the journals of generations, in order, to a fresh world.
//
// Unload and load round-trip through in-memory records rather than the
// store, so replay never writes. Save events are no-ops. An event that the
// fresh world rejects is an error: the journal only holds accepted events.
func Replay(ctx context.Context, s *store.Store, reg *catalog.Registry, generations []string, opts ...world.Option) (*world.World, error) {
	w := world.New(reg, opts...)
	records := make(map[ir.Pos]home.Record)

	for _, generation := range generations {
		events, err := s.ReadEvents(ctx, generation)
		if err != nil {
			return nil, fmt.Errorf("replay %s: %w", generation, err)
		}

		for _, stored := range events {
			ev, err := eventFromJournal(stored.Kind, stored.Args)
			if err != nil {
				return nil, fmt.Errorf("replay %s/%d: %w", generation, stored.Seq, err)
			}
			if err := replayOne(w, records, ev); err != nil {
				return nil, fmt.Errorf("replay %s/%d: %w", generation, stored.Seq, err)
			}
		}
	}

	return w, nil
}

func replayOne(w *world.World, records map[ir.Pos]home.Record, ev Event) error {
	var err error
	switch ev.Type {
	case EventPlace:
		err = w.Place(ev.Pos, ev.Component)
	case EventBreak:
		delete(records, ev.Pos)
		_, err = w.Break(ev.Pos)
	case EventConnect:
		_, err = w.Connect(ev.Pos, ev.Other)
	case EventDisconnect:
		_, err = w.Disconnect(ev.Pos, ev.Other)
	case EventUnload:
		var rec home.Record
		rec, err = w.Unload(ev.Pos)
		records[ev.Pos] = rec
	case EventLoad:
		_, err = w.LoadHome(ev.Pos, records[ev.Pos])
	case EventSave:
	}
	if err != nil {
		return rejected(ev.Type, err)
	}
	return nil
}

// Divergence is a home whose topology differs between two worlds.
// An empty digest means the home is not loaded in that world.
type Divergence struct {
	Pos      ir.Pos `json:"pos"`
	Live     string `json:"live"`
	Replayed string `json:"replayed"`
}

// Compare reports loaded homes whose topology digests differ between a
// live world and a replayed one, ordered by position.
func Compare(live, replayed *world.World) ([]Divergence, error) {
	a, err := topologyDigests(live)
	if err != nil {
		return nil, err
	}
	b, err := topologyDigests(replayed)
	if err != nil {
		return nil, err
	}

	seen := make(map[ir.Pos]bool, len(a)+len(b))
	var positions []ir.Pos
	for _, m := range []map[ir.Pos]string{a, b} {
		for pos := range m {
			if !seen[pos] {
				seen[pos] = true
				positions = append(positions, pos)
			}
		}
	}
	slices.SortFunc(positions, ir.ComparePos)

	var out []Divergence
	for _, pos := range positions {
		if a[pos] != b[pos] {
			out = append(out, Divergence{Pos: pos, Live: a[pos], Replayed: b[pos]})
		}
	}
	return out, nil
}

func topologyDigests(w *world.World) (map[ir.Pos]string, error) {
	out := make(map[ir.Pos]string)
	for _, node := range w.Homes() {
		rec, err := node.Save()
		if err != nil {
			return nil, fmt.Errorf("digest %s: %w", node.Pos(), err)
		}
		digest, err := ir.TopologyDigest(rec.Connections, rec.WireSystemInfo)
		if err != nil {
			return nil, fmt.Errorf("digest %s: %w", node.Pos(), err)
		}
		out[node.Pos()] = digest
	}
	return out, nil
}
