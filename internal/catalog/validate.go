package catalog

import (
	"fmt"
	"strings"

	"github.com/roach88/recordwire/internal/ir"
)

// Validation error codes (E100-E199)
const (
	ErrNameEmpty        = "E101" // name is required
	ErrNameReserved     = "E102" // name contains a codec delimiter
	ErrCapacityNegative = "E103" // capacity must be >= 0
	ErrInvalidRole      = "E104" // role is not home or link
	ErrDuplicateName    = "E105" // two definitions normalize to the same name
	ErrLoudnessNegative = "E106" // loudness must be >= 0
	ErrNoHome           = "E107" // catalog defines no home component
)

// ReservedChars are the characters the topology codec uses as delimiters.
// Component names must not contain them.
const ReservedChars = ";="

// ValidationError represents a catalog validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// ValidateDef validates a single definition.
// Returns all errors found (does not fail-fast).
func ValidateDef(def Def) []ValidationError {
	var errs []ValidationError
	field := fmt.Sprintf("component[%q]", def.ComponentName)

	if def.ComponentName == "" {
		errs = append(errs, ValidationError{
			Field:   "component",
			Message: "name is required and must be non-empty",
			Code:    ErrNameEmpty,
		})
	}

	if strings.ContainsAny(def.ComponentName, ReservedChars) {
		errs = append(errs, ValidationError{
			Field:   field,
			Message: fmt.Sprintf("name must not contain any of %q", ReservedChars),
			Code:    ErrNameReserved,
		})
	}

	if def.Capacity < 0 {
		errs = append(errs, ValidationError{
			Field:   field + ".capacity",
			Message: fmt.Sprintf("capacity must be >= 0, got %s", ir.FormatCapacity(def.Capacity)),
			Code:    ErrCapacityNegative,
		})
	}

	if def.Loudness < 0 {
		errs = append(errs, ValidationError{
			Field:   field + ".loudness",
			Message: fmt.Sprintf("loudness must be >= 0, got %s", ir.FormatCapacity(def.Loudness)),
			Code:    ErrLoudnessNegative,
		})
	}

	if !ir.ValidRoles[def.Role] {
		errs = append(errs, ValidationError{
			Field:   field + ".role",
			Message: fmt.Sprintf("invalid role %q, must be \"home\" or \"link\"", def.Role),
			Code:    ErrInvalidRole,
		})
	}

	return errs
}

// Validate validates a full catalog: every definition, duplicate names after
// normalization, and the presence of at least one home.
func Validate(defs []Def) []ValidationError {
	var errs []ValidationError
	seen := make(map[string]bool, len(defs))
	hasHome := false

	for i, def := range defs {
		errs = append(errs, ValidateDef(def)...)

		name := ir.NormalizeName(def.ComponentName)
		if seen[name] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("component[%d]", i),
				Message: fmt.Sprintf("duplicate component name: %q", name),
				Code:    ErrDuplicateName,
			})
		}
		seen[name] = true

		if def.IsHome() {
			hasHome = true
		}
	}

	if len(defs) > 0 && !hasHome {
		errs = append(errs, ValidationError{
			Field:   "component",
			Message: "at least one home component is required",
			Code:    ErrNoHome,
		})
	}

	return errs
}
