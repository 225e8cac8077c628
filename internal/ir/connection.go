package ir

import "fmt"

// Connection is one wire between a home node and another node.
//
// Home is always the aggregating endpoint. Identity is the unordered pair:
// two connections joining the same two positions are the same link no matter
// which end was recorded first.
type Connection struct {
	Home Pos `json:"home" yaml:"home"`
	To   Pos `json:"to" yaml:"to"`
}

// NewConnection creates a connection from a home position to another node.
func NewConnection(home, to Pos) Connection {
	return Connection{Home: home, To: to}
}

// String renders the connection as "x1,y1,z1,x2,y2,z2".
func (c Connection) String() string {
	return fmt.Sprintf("%d,%d,%d,%d,%d,%d", c.Home.X, c.Home.Y, c.Home.Z, c.To.X, c.To.Y, c.To.Z)
}

// IsSelfLoop reports whether both endpoints are the same position.
func (c Connection) IsSelfLoop() bool {
	return c.Home == c.To
}

// Involves reports whether pos is one of the endpoints.
func (c Connection) Involves(pos Pos) bool {
	return c.Home == pos || c.To == pos
}

// OtherEnd returns the endpoint opposite to pos.
func (c Connection) OtherEnd(pos Pos) Pos {
	if c.Home == pos {
		return c.To
	}
	return c.Home
}

// Joins reports whether the connection links a and b, in either direction.
func (c Connection) Joins(a, b Pos) bool {
	return (c.Home == a && c.To == b) || (c.Home == b && c.To == a)
}

// SameLink reports whether two connections join the same pair of positions.
func (c Connection) SameLink(o Connection) bool {
	return c.Joins(o.Home, o.To)
}

// Length returns the cable length between the endpoints.
func (c Connection) Length() float64 {
	return c.Home.Distance(c.To)
}
