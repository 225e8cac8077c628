// Package catalog compiles component definitions from CUE and serves them
// through an immutable, name-normalized Registry.
package catalog

import (
	_ "embed"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/recordwire/internal/ir"
)

//go:embed schema.cue
var schemaSource []byte

//go:embed catalog.cue
var defaultSource []byte

// Compile parses CUE source into component definitions. The source is
// unified with the built-in schema, so a catalog file only lists components.
//
//	defs, err := catalog.Compile("catalog.cue", src)
func Compile(filename string, src []byte) ([]Def, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileBytes(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	v := ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	v = schema.Unify(v)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	compVal := v.LookupPath(cue.ParsePath("component"))
	iter, err := compVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var defs []Def
	for iter.Next() {
		def, err := CompileDef(iter.Label(), iter.Value())
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}

	if len(defs) == 0 {
		return nil, &CompileError{
			Field:   "component",
			Message: "at least one component is required",
			Pos:     compVal.Pos(),
		}
	}

	return defs, nil
}

// CompileDef parses a single component struct.
func CompileDef(name string, v cue.Value) (Def, error) {
	if err := v.Err(); err != nil {
		return Def{}, formatCUEError(err)
	}

	def := Def{ComponentName: ir.NormalizeName(name)}

	role, err := v.LookupPath(cue.ParsePath("role")).String()
	if err != nil {
		return Def{}, formatCUEError(err)
	}
	def.Role = ir.Role(role)

	def.Capacity, err = v.LookupPath(cue.ParsePath("capacity")).Float64()
	if err != nil {
		return Def{}, formatCUEError(err)
	}

	if lv := v.LookupPath(cue.ParsePath("loudness")); lv.Exists() {
		if d, ok := lv.Default(); ok {
			lv = d
		}
		def.Loudness, err = lv.Float64()
		if err != nil {
			return Def{}, formatCUEError(err)
		}
	}

	if dv := v.LookupPath(cue.ParsePath("description")); dv.Exists() {
		def.Description, err = dv.String()
		if err != nil {
			return Def{}, formatCUEError(err)
		}
	}

	if errs := ValidateDef(def); len(errs) > 0 {
		return Def{}, &CompileError{
			Field:   errs[0].Field,
			Message: errs[0].Message,
			Pos:     v.Pos(),
		}
	}

	return def, nil
}

// CompileError is a catalog compilation failure with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	// Return first error with position info
	first := errs[0]
	positions := errors.Positions(first)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
