package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/recordwire/internal/ir"
)

func hasCode(errs []ValidationError, code string) bool {
	for _, e := range errs {
		if e.Code == code {
			return true
		}
	}
	return false
}

func TestValidateDefValid(t *testing.T) {
	errs := ValidateDef(Def{ComponentName: "Wire", Role: ir.RoleLink})
	assert.Empty(t, errs)
}

func TestValidateDefErrors(t *testing.T) {
	tests := []struct {
		name string
		def  Def
		code string
	}{
		{"empty name", Def{Role: ir.RoleLink}, ErrNameEmpty},
		{"semicolon", Def{ComponentName: "a;b", Role: ir.RoleLink}, ErrNameReserved},
		{"equals", Def{ComponentName: "a=b", Role: ir.RoleLink}, ErrNameReserved},
		{"negative capacity", Def{ComponentName: "x", Role: ir.RoleLink, Capacity: -1}, ErrCapacityNegative},
		{"negative loudness", Def{ComponentName: "x", Role: ir.RoleLink, Loudness: -1}, ErrLoudnessNegative},
		{"bad role", Def{ComponentName: "x", Role: "relay"}, ErrInvalidRole},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := ValidateDef(tt.def)
			assert.True(t, hasCode(errs, tt.code), "want %s in %v", tt.code, errs)
		})
	}
}

func TestValidateDefCollectsAllErrors(t *testing.T) {
	errs := ValidateDef(Def{ComponentName: "a;b", Role: "relay", Capacity: -1})
	assert.Len(t, errs, 3)
}

func TestValidateDuplicateAfterNormalization(t *testing.T) {
	errs := Validate([]Def{
		{ComponentName: "Caf\u00e9", Role: ir.RoleHome},
		{ComponentName: "Cafe\u0301", Role: ir.RoleLink},
	})
	assert.True(t, hasCode(errs, ErrDuplicateName))
}

func TestValidateRequiresHome(t *testing.T) {
	errs := Validate([]Def{{ComponentName: "Wire", Role: ir.RoleLink}})
	assert.True(t, hasCode(errs, ErrNoHome))
}

func TestValidationErrorString(t *testing.T) {
	e := ValidationError{Field: "component", Message: "bad", Code: ErrNameEmpty}
	assert.Equal(t, "[E101] component: bad", e.Error())
}
