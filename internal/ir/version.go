package ir

// Version constants for the definition schema and engine.
const (
	// IRVersion is the definition schema version.
	IRVersion = "1"

	// EngineVersion is the groupwire engine version.
	EngineVersion = "0.1.0"
)
