package catalog

import "github.com/roach88/recordwire/internal/ir"

// Def is one compiled component definition.
type Def struct {
	ComponentName string  `json:"name"`
	Role          ir.Role `json:"role"`
	Capacity      float64 `json:"capacity"`
	Loudness      float64 `json:"loudness,omitempty"`
	Description   string  `json:"description,omitempty"`
}

// Name implements ir.Component.
func (d Def) Name() string { return d.ComponentName }

// CapacityIncrease implements ir.Component.
func (d Def) CapacityIncrease() float64 { return d.Capacity }

// IsHome reports whether the definition owns a network.
func (d Def) IsHome() bool { return d.Role == ir.RoleHome }

// Audible reports whether the component produces sound.
func (d Def) Audible() bool { return d.Loudness > 0 }
