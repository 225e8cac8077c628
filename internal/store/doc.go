// Package store provides SQLite-backed durable storage for recordwire worlds.
//
// The store holds:
//   - Blocks: every placed component, keyed by position
//   - Home records: the persisted form of each home's network
//   - Events: an append-only journal of applied engine events
//   - Sessions: one row per engine generation
//
// # Integrity
//
// Each home record carries a digest over its connections and counts strings
// (ir.TopologyDigest). A record whose digest does not match was torn between
// the two fields; readers still get the record and can check Intact.
//
// # Ordering
//
//   - Blocks and records are returned ordered by x, y, z
//   - Events are ordered by seq within a generation, generations by id
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
