// Package network maintains the wire network owned by one home node.
//
// A Network holds three pieces of owned state behind a single RWMutex:
//   - edges: the connections, in insertion order, with no duplicate pairs
//   - counts: how many connected instances of each component name exist
//   - capacity: the aggregate contribution of every counted instance
//
// The aggregate is maintained incrementally by AddComponent and
// RemoveComponent and never includes the home's base capacity. SongRadius is
// base + capacity.
//
// Connect and Disconnect change an edge and the counts in one critical
// section, so readers never observe an edge without its count. The raw
// AddComponent and RemoveComponent are pure counter operations.
//
// Recompute, Verify and Rebuild are the verification path: they derive
// counts from the edge set and compare or replace the incremental state.
package network
