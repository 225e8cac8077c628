// Package testutil holds deterministic helpers shared by package tests.
package testutil

// FixedGenerationGenerator returns the same generation id every time.
//
// An engine restarted with it resumes the same journal, so a scenario that
// reloads its world still produces one contiguous, byte-identical event log.
//
// Thread-safety: FixedGenerationGenerator is stateless and safe for
// concurrent use.
type FixedGenerationGenerator struct {
	id string
}

// NewFixedGenerationGenerator creates a fixed generator. If id is empty,
// Generate returns "test-generation-default".
func NewFixedGenerationGenerator(id string) *FixedGenerationGenerator {
	if id == "" {
		id = "test-generation-default"
	}
	return &FixedGenerationGenerator{id: id}
}

// Generate returns the fixed id.
//
// Implements engine.GenerationGenerator.
func (g *FixedGenerationGenerator) Generate() string {
	return g.id
}
