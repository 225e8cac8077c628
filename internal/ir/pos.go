package ir

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Pos is the block position of a physical node.
type Pos struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
	Z int `json:"z" yaml:"z"`
}

// P is a shorthand constructor for Pos.
func P(x, y, z int) Pos {
	return Pos{X: x, Y: y, Z: z}
}

// String renders the position as "x,y,z".
func (p Pos) String() string {
	return fmt.Sprintf("%d,%d,%d", p.X, p.Y, p.Z)
}

// Distance returns the Euclidean distance between two positions.
func (p Pos) Distance(o Pos) float64 {
	dx := float64(p.X - o.X)
	dy := float64(p.Y - o.Y)
	dz := float64(p.Z - o.Z)
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// ParsePos parses the "x,y,z" form produced by Pos.String.
func ParsePos(s string) (Pos, error) {
	parts := strings.Split(strings.TrimSpace(s), ",")
	if len(parts) != 3 {
		return Pos{}, fmt.Errorf("parse pos %q: want 3 coordinates, got %d", s, len(parts))
	}

	var coords [3]int
	for i, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return Pos{}, fmt.Errorf("parse pos %q: coordinate %d: %w", s, i, err)
		}
		coords[i] = n
	}

	return Pos{X: coords[0], Y: coords[1], Z: coords[2]}, nil
}

// MustParsePos is ParsePos for inputs already validated; it panics on error.
func MustParsePos(s string) Pos {
	p, err := ParsePos(s)
	if err != nil {
		panic(err)
	}
	return p
}

// ComparePos orders positions by X, then Y, then Z.
func ComparePos(a, b Pos) int {
	switch {
	case a.X != b.X:
		return cmpInt(a.X, b.X)
	case a.Y != b.Y:
		return cmpInt(a.Y, b.Y)
	default:
		return cmpInt(a.Z, b.Z)
	}
}

func cmpInt(a, b int) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}
