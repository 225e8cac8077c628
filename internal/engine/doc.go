// Package engine is the single writer for a recordwire world.
//
// Events (place, break, connect, disconnect, unload, load, save) are
// enqueued from any goroutine and applied one at a time by Run. Every
// applied event is stamped by a logical clock and journaled to the store
// under the engine's generation, so a generation can be replayed onto a
// fresh world.
//
// # Single-Writer Event Loop
//
//  1. Callers Enqueue or Submit an event
//  2. Run dequeues events in FIFO order
//  3. apply mutates the world and, for unload, load and save, the store
//  4. Accepted events are journaled with the next seq
//
// A rejected event (occupied position, cable too long, unknown component)
// is not journaled and does not advance the clock.
//
// # Lifecycle
//
// Start opens a new generation. Restore reads placements and home records
// back from the store and must run before Run. Stop closes the queue.
package engine
