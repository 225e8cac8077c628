// Package harness runs recordwire scenarios through the real engine.
//
// A scenario is a YAML file listing steps (place, break, connect,
// disconnect, unload, load, save, reload, write_record) and assertions over
// the resulting world and store. Each run gets a fresh in-memory SQLite
// store, a fixed generation id, and the engine's logical clock, so the
// same scenario always produces the same trace.
//
// # Steps
//
// Every step except reload and write_record is submitted to the engine and
// waits for its result. A step may declare expect_error naming the world
// error it should be rejected with; a rejected step that declared nothing
// fails the scenario.
//
//   - reload stops the engine, then starts a new one over a fresh world
//     and the same store, restoring placements and home records
//   - write_record stores a home record directly, bypassing the engine,
//     to model stale or corrupt persisted data
//
// # Golden Files
//
// RunWithGolden serializes the trace and final homes with canonical JSON
// and compares them against testdata/golden/{name}.golden. Regenerate with:
//
//	go test ./internal/harness -update
package harness
