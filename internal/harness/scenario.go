package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/recordwire/internal/home"
	"github.com/roach88/recordwire/internal/ir"
)

// Scenario defines a wiring scenario and what must hold afterwards.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Catalog is an optional CUE catalog path, relative to the scenario
	// file. Empty means the embedded catalog.
	Catalog string `yaml:"catalog,omitempty"`

	// Generation is the fixed generation id. Defaults to
	// "scenario-generation".
	Generation string `yaml:"generation,omitempty"`

	// MaxCableLength overrides the world's cable limit when positive.
	MaxCableLength float64 `yaml:"max_cable_length,omitempty"`

	// RadiusSource is the load policy: derived (default) or cached.
	RadiusSource string `yaml:"radius_source,omitempty"`

	Steps      []Step      `yaml:"steps"`
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one operation in a scenario.
type Step struct {
	// Op is the operation: place, break, connect, disconnect, unload, load,
	// save, reload or write_record.
	Op string `yaml:"op"`

	// Pos is the target position for single-position ops, as "x,y,z".
	Pos string `yaml:"pos,omitempty"`

	// A and B are the cable ends for connect and disconnect.
	A string `yaml:"a,omitempty"`
	B string `yaml:"b,omitempty"`

	// Component is the catalog name for place and write_record.
	Component string `yaml:"component,omitempty"`

	// Record is the raw record for write_record.
	Record *RecordStep `yaml:"record,omitempty"`

	// ExpectError names the error the step must be rejected with.
	ExpectError string `yaml:"expect_error,omitempty"`
}

// RecordStep is a stored home record written verbatim.
type RecordStep struct {
	Connections    string   `yaml:"connections"`
	WireSystemInfo string   `yaml:"wire_system_info"`
	PlayRadius     *float64 `yaml:"play_radius,omitempty"`
}

// Step operations.
const (
	OpPlace       = "place"
	OpBreak       = "break"
	OpConnect     = "connect"
	OpDisconnect  = "disconnect"
	OpUnload      = "unload"
	OpLoad        = "load"
	OpSave        = "save"
	OpReload      = "reload"
	OpWriteRecord = "write_record"
)

// Assertion validates the final world or store.
type Assertion struct {
	// Type specifies the assertion type:
	// - "song_radius": Home's song radius equals Value
	// - "counts": Home's component counts equal Counts
	// - "connections": Home's edges equal Connections, in any order
	// - "loaded": Home's loaded state equals Loaded
	// - "stored_record": Stored record strings equal Record
	// - "journal_count": Number of journaled events equals Count
	// - "block_count": Number of placed blocks equals Count
	// - "consistent": Every loaded home's counts match its edges
	Type string `yaml:"type"`

	// Home is the home position as "x,y,z".
	Home string `yaml:"home,omitempty"`

	Value       *float64       `yaml:"value,omitempty"`
	Loaded      *bool          `yaml:"loaded,omitempty"`
	Counts      map[string]int `yaml:"counts,omitempty"`
	Connections []string       `yaml:"connections,omitempty"`
	Record      *RecordStep    `yaml:"record,omitempty"`
	Count       *int           `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertSongRadius   = "song_radius"
	AssertCounts       = "counts"
	AssertConnections  = "connections"
	AssertLoaded       = "loaded"
	AssertStoredRecord = "stored_record"
	AssertJournalCount = "journal_count"
	AssertBlockCount   = "block_count"
	AssertConsistent   = "consistent"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
//
// A relative catalog path is resolved against the scenario's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	if scenario.Catalog != "" && !filepath.IsAbs(scenario.Catalog) {
		scenario.Catalog = filepath.Join(filepath.Dir(path), scenario.Catalog)
	}
	return scenario, nil
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	if s.MaxCableLength < 0 {
		return fmt.Errorf("max_cable_length must not be negative")
	}

	if _, err := home.ParseRadiusPolicy(s.RadiusSource); err != nil {
		return fmt.Errorf("radius_source: %w", err)
	}

	for i, step := range s.Steps {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateStep validates a single step based on its op.
func validateStep(index int, s *Step) error {
	switch s.Op {
	case OpPlace:
		if s.Component == "" {
			return fmt.Errorf("steps[%d]: component is required for place", index)
		}
		return validatePos(index, "pos", s.Pos)
	case OpBreak, OpUnload, OpLoad:
		return validatePos(index, "pos", s.Pos)
	case OpConnect, OpDisconnect:
		if err := validatePos(index, "a", s.A); err != nil {
			return err
		}
		return validatePos(index, "b", s.B)
	case OpSave, OpReload:
		return nil
	case OpWriteRecord:
		if s.Component == "" {
			return fmt.Errorf("steps[%d]: component is required for write_record", index)
		}
		if s.Record == nil {
			return fmt.Errorf("steps[%d]: record is required for write_record", index)
		}
		return validatePos(index, "pos", s.Pos)
	case "":
		return fmt.Errorf("steps[%d]: op is required", index)
	default:
		return fmt.Errorf("steps[%d]: unknown op %q", index, s.Op)
	}
}

func validatePos(index int, field, value string) error {
	if value == "" {
		return fmt.Errorf("steps[%d]: %s is required", index, field)
	}
	if _, err := ir.ParsePos(value); err != nil {
		return fmt.Errorf("steps[%d]: %s: %w", index, field, err)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	needsHome := func() error {
		if a.Home == "" {
			return fmt.Errorf("assertions[%d]: home is required for %s", index, a.Type)
		}
		if _, err := ir.ParsePos(a.Home); err != nil {
			return fmt.Errorf("assertions[%d]: home: %w", index, err)
		}
		return nil
	}

	switch a.Type {
	case AssertSongRadius:
		if a.Value == nil {
			return fmt.Errorf("assertions[%d]: value is required for song_radius", index)
		}
		return needsHome()
	case AssertLoaded:
		if a.Loaded == nil {
			return fmt.Errorf("assertions[%d]: loaded is required for loaded", index)
		}
		return needsHome()
	case AssertCounts:
		if a.Counts == nil {
			return fmt.Errorf("assertions[%d]: counts is required for counts (use {} for none)", index)
		}
		return needsHome()
	case AssertConnections:
		return needsHome()
	case AssertStoredRecord:
		if a.Record == nil {
			return fmt.Errorf("assertions[%d]: record is required for stored_record", index)
		}
		return needsHome()
	case AssertJournalCount, AssertBlockCount:
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: non-negative count is required for %s", index, a.Type)
		}
	case AssertConsistent:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
