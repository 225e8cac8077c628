package ir

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Component is anything that can take part in a wire network.
//
// Name is the aggregation key for connection counts and must be stable.
// CapacityIncrease is the non-negative amount the component adds to the
// song radius of every home it is connected to.
type Component interface {
	Name() string
	CapacityIncrease() float64
}

// Home is a component that aggregates a network. Its own CapacityIncrease is
// the network's base capacity.
type Home interface {
	Component
	Connections() []Connection
}

// Role tags what part a component plays in a network.
type Role string

const (
	// RoleHome owns a network and contributes the base capacity.
	RoleHome Role = "home"
	// RoleLink relays and contributes its increment when connected.
	RoleLink Role = "link"
)

// ValidRoles defines allowed component roles.
var ValidRoles = map[Role]bool{
	RoleHome: true,
	RoleLink: true,
}

// NormalizeName returns the canonical form of a component name:
// surrounding whitespace trimmed and NFC normalized.
func NormalizeName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

// Unit is a minimal Component used where only a name and contribution are
// known, for example when replaying counts without a catalog.
type Unit struct {
	N string
	C float64
}

// Name returns the unit's name.
func (u Unit) Name() string { return u.N }

// CapacityIncrease returns the unit's contribution.
func (u Unit) CapacityIncrease() float64 { return u.C }

// IsHome reports whether c owns a network: either it is a Home or it reports
// itself as one through an IsHome method.
func IsHome(c Component) bool {
	if _, ok := c.(Home); ok {
		return true
	}
	h, ok := c.(interface{ IsHome() bool })
	return ok && h.IsHome()
}
