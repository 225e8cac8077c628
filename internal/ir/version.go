package ir

// Version constants for the persisted format and engine.
const (
	// FormatVersion is the topology encoding version written by the codec.
	FormatVersion = "1"

	// EngineVersion is the recordwire engine version.
	EngineVersion = "0.1.0"
)
