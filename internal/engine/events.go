package engine

import (
	"fmt"

	"github.com/roach88/recordwire/internal/catalog"
	"github.com/roach88/recordwire/internal/home"
	"github.com/roach88/recordwire/internal/ir"
)

// EventType distinguishes between event kinds.
type EventType int

const (
	// EventPlace puts a component at Pos.
	EventPlace EventType = iota + 1
	// EventBreak removes the block at Pos.
	EventBreak
	// EventConnect wires Pos to Other.
	EventConnect
	// EventDisconnect removes the cable between Pos and Other.
	EventDisconnect
	// EventUnload persists the home at Pos and discards its network.
	EventUnload
	// EventLoad restores the home at Pos from its stored record.
	EventLoad
	// EventSave persists all placements and loaded homes.
	EventSave
)

var eventNames = map[EventType]string{
	EventPlace:      "place",
	EventBreak:      "break",
	EventConnect:    "connect",
	EventDisconnect: "disconnect",
	EventUnload:     "unload",
	EventLoad:       "load",
	EventSave:       "save",
}

// String returns the journal name of the event type.
func (t EventType) String() string {
	if name, ok := eventNames[t]; ok {
		return name
	}
	return fmt.Sprintf("event(%d)", int(t))
}

// ParseEventType returns the event type for a journal name.
func ParseEventType(name string) (EventType, error) {
	for t, n := range eventNames {
		if n == name {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown event type %q", name)
}

// Event is one request to mutate the world.
type Event struct {
	Type      EventType
	Pos       ir.Pos
	Other     ir.Pos
	Component string

	reply chan Result
}

// Place returns an event that puts component at pos.
func Place(pos ir.Pos, component string) Event {
	return Event{Type: EventPlace, Pos: pos, Component: component}
}

// Break returns an event that removes the block at pos.
func Break(pos ir.Pos) Event {
	return Event{Type: EventBreak, Pos: pos}
}

// Connect returns an event that wires a to b.
func Connect(a, b ir.Pos) Event {
	return Event{Type: EventConnect, Pos: a, Other: b}
}

// Disconnect returns an event that removes the cable between a and b.
func Disconnect(a, b ir.Pos) Event {
	return Event{Type: EventDisconnect, Pos: a, Other: b}
}

// Unload returns an event that persists and unloads the home at pos.
func Unload(pos ir.Pos) Event {
	return Event{Type: EventUnload, Pos: pos}
}

// Load returns an event that restores the home at pos from the store.
func Load(pos ir.Pos) Event {
	return Event{Type: EventLoad, Pos: pos}
}

// Save returns an event that persists the whole world.
func Save() Event {
	return Event{Type: EventSave}
}

// args renders the event for the journal. Positions are stored in their
// "x,y,z" form so args stay free of floats.
func (e Event) args() map[string]any {
	switch e.Type {
	case EventPlace:
		return map[string]any{"pos": e.Pos.String(), "component": e.Component}
	case EventConnect, EventDisconnect:
		return map[string]any{"a": e.Pos.String(), "b": e.Other.String()}
	case EventSave:
		return map[string]any{}
	default:
		return map[string]any{"pos": e.Pos.String()}
	}
}

// eventFromJournal rebuilds an event from its journaled kind and args.
func eventFromJournal(kind string, args map[string]any) (Event, error) {
	t, err := ParseEventType(kind)
	if err != nil {
		return Event{}, err
	}

	ev := Event{Type: t}
	switch t {
	case EventConnect, EventDisconnect:
		if ev.Pos, err = posArg(args, "a"); err != nil {
			return Event{}, err
		}
		if ev.Other, err = posArg(args, "b"); err != nil {
			return Event{}, err
		}
	case EventSave:
	default:
		if ev.Pos, err = posArg(args, "pos"); err != nil {
			return Event{}, err
		}
	}

	if t == EventPlace {
		name, ok := args["component"].(string)
		if !ok {
			return Event{}, fmt.Errorf("%s: missing component", kind)
		}
		ev.Component = name
	}
	return ev, nil
}

func posArg(args map[string]any, key string) (ir.Pos, error) {
	s, ok := args[key].(string)
	if !ok {
		return ir.Pos{}, fmt.Errorf("missing %s", key)
	}
	return ir.ParsePos(s)
}

// Result is the outcome of one applied event.
type Result struct {
	// Seq is the journal seq of the event; 0 when it was not applied.
	Seq int64

	// Connection is the oriented cable created by a connect.
	Connection ir.Connection

	// Removed reports whether a disconnect removed a cable.
	Removed bool

	// Broken is the definition of the block removed by a break.
	Broken catalog.Def

	// Report describes how a loaded home was reconciled.
	Report *home.LoadReport

	// Saved is the number of home records written.
	Saved int

	Err error
}
