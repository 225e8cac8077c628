package network

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/recordwire/internal/ir"
)

var (
	// ErrSelfLoop is returned when both endpoints of a connection are the
	// same position.
	ErrSelfLoop = errors.New("connection endpoints are the same position")

	// ErrDuplicateEdge is returned when the pair is already connected.
	ErrDuplicateEdge = errors.New("positions are already connected")

	// ErrUnknownName is returned by Recompute for a counted name with no
	// known contribution.
	ErrUnknownName = errors.New("no contribution for component")
)

// InvariantError reports that the incremental counts disagree with the
// counts derived from the edge set.
type InvariantError struct {
	// Diffs lists per-name differences; Stored is the incremental count,
	// Expected is derived from edges.
	Diffs []ir.CountDiff

	// Unresolved lists edges whose far endpoint has no component.
	Unresolved []ir.Connection

	StoredCapacity   float64
	ExpectedCapacity float64
}

// Error implements the error interface.
func (e *InvariantError) Error() string {
	var parts []string
	for _, d := range e.Diffs {
		parts = append(parts, fmt.Sprintf("%s stored=%d expected=%d", d.Name, d.Stored, d.Expected))
	}
	if len(e.Unresolved) > 0 {
		parts = append(parts, fmt.Sprintf("%d unresolved edge(s)", len(e.Unresolved)))
	}
	if len(parts) == 0 {
		parts = append(parts, fmt.Sprintf("capacity stored=%s expected=%s",
			ir.FormatCapacity(e.StoredCapacity), ir.FormatCapacity(e.ExpectedCapacity)))
	}
	return "network invariant violated: " + strings.Join(parts, ", ")
}

// IsInvariantError returns true if err is or wraps an *InvariantError.
func IsInvariantError(err error) bool {
	var ie *InvariantError
	return errors.As(err, &ie)
}
