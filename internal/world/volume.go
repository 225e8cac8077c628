package world

import (
	"math"

	"github.com/roach88/recordwire/internal/ir"
)

// Volume constants, in decibels.
const (
	// NoVolume is the gain offset applied to the audible level.
	NoVolume = -80.0

	// measureDistance is the reference distance for a component's loudness.
	measureDistance = 1.0

	// speakerSpread scales listener distance to linked speakers.
	speakerSpread = 1.5
)

// Point is a listener position; unlike block positions it is continuous.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// PointOf returns the point at a block position.
func PointOf(p ir.Pos) Point {
	return Point{X: float64(p.X), Y: float64(p.Y), Z: float64(p.Z)}
}

// Distance returns the Euclidean distance between two points.
func (p Point) Distance(o Point) float64 {
	dx, dy, dz := p.X-o.X, p.Y-o.Y, p.Z-o.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// SPLOverDistance attenuates a sound pressure level measured at 1 unit to
// the given distance.
func SPLOverDistance(base, distance float64) float64 {
	return base - (measureDistance + 20*math.Log(distance/measureDistance))
}

// CoherentPressure sums levels from coherent sources.
func CoherentPressure(levels ...float64) float64 {
	sum := 0.0
	for _, l := range levels {
		sum += math.Pow(10, l/20)
	}
	return 20 * math.Log10(sum)
}

// Gain returns the gain a listener hears from the home at pos: the home's
// own loudness plus every audible linked component, attenuated by distance
// and offset by NoVolume. A non-finite result is reported as 0.
func (w *World) Gain(listener Point, pos ir.Pos) (float64, error) {
	node, err := w.Home(pos)
	if err != nil {
		return NoVolume, err
	}

	levels := []float64{
		SPLOverDistance(node.Def().Loudness, listener.Distance(PointOf(pos))),
	}

	for _, conn := range node.Connections() {
		c, ok := w.ComponentAt(conn.To)
		if !ok {
			continue
		}
		def, ok := w.registry.Lookup(c.Name())
		if !ok || def.IsHome() || !def.Audible() {
			continue
		}
		d := listener.Distance(PointOf(conn.To)) / speakerSpread
		levels = append(levels, SPLOverDistance(def.Loudness, d))
	}

	gain := NoVolume + CoherentPressure(levels...)
	if math.IsInf(gain, 0) || math.IsNaN(gain) {
		return 0, nil
	}
	return gain, nil
}
