package world

import "errors"

var (
	// ErrOccupied is returned when placing onto a position that holds a block.
	ErrOccupied = errors.New("position is occupied")

	// ErrEmpty is returned when a position holds no block.
	ErrEmpty = errors.New("no block at position")

	// ErrSameNode is returned when both ends of a cable are the same block.
	ErrSameNode = errors.New("cable connects a block to itself")

	// ErrCableTooLong is returned when the endpoints are further apart than
	// the configured maximum cable length.
	ErrCableTooLong = errors.New("cable too long")

	// ErrNoHome is returned when neither endpoint is a home.
	ErrNoHome = errors.New("one endpoint must be a home")

	// ErrTwoHomes is returned when both endpoints are homes.
	ErrTwoHomes = errors.New("homes cannot be wired to each other")

	// ErrNotHome is returned when a home operation targets a link.
	ErrNotHome = errors.New("block is not a home")

	// ErrUnloaded is returned when a home's network is not in memory.
	ErrUnloaded = errors.New("home is not loaded")

	// ErrLoaded is returned when loading a home that is already in memory.
	ErrLoaded = errors.New("home is already loaded")
)
