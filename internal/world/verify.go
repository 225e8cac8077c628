package world

import (
	"github.com/roach88/recordwire/internal/ir"
	"github.com/roach88/recordwire/internal/network"
)

// Check is the verification outcome for one loaded home.
type Check struct {
	Pos     ir.Pos                 `json:"pos"`
	Problem *network.InvariantError `json:"problem,omitempty"`
	Rebuilt *network.RebuildResult  `json:"rebuilt,omitempty"`
}

// OK reports whether the home's counts matched its edges.
func (c Check) OK() bool { return c.Problem == nil }

// Verify checks every loaded home's counts against its edges. With fix set,
// homes that disagree are rebuilt from their edges.
func (w *World) Verify(fix bool) []Check {
	w.mu.RLock()
	defer w.mu.RUnlock()

	r := lockedResolver{w}
	var checks []Check
	for _, node := range w.sortedHomesLocked() {
		c := Check{Pos: node.Pos(), Problem: node.Network().Verify(r)}
		if c.Problem != nil && fix {
			res := node.Network().Rebuild(r)
			c.Rebuilt = &res
			w.logger.Warn("rebuilt home network from edges",
				"pos", node.Pos().String(), "error", c.Problem.Error())
		}
		checks = append(checks, c)
	}
	return checks
}
