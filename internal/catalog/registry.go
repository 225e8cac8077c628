package catalog

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"

	"github.com/roach88/recordwire/internal/ir"
)

// ErrUnknownComponent is returned when a name is not in the catalog.
var ErrUnknownComponent = errors.New("unknown component")

// Registry is an immutable set of definitions keyed by normalized name.
// It is safe for concurrent use.
type Registry struct {
	defs   map[string]Def
	digest string
}

// NewRegistry validates defs and builds a registry.
func NewRegistry(defs []Def) (*Registry, error) {
	normalized := make([]Def, len(defs))
	for i, def := range defs {
		def.ComponentName = ir.NormalizeName(def.ComponentName)
		normalized[i] = def
	}

	if errs := Validate(normalized); len(errs) > 0 {
		return nil, fmt.Errorf("validate catalog: %w", errs[0])
	}

	r := &Registry{defs: make(map[string]Def, len(normalized))}
	entries := make(map[string]any, len(normalized))
	for _, def := range normalized {
		r.defs[def.ComponentName] = def
		entries[def.ComponentName] = map[string]any{
			"role":     string(def.Role),
			"capacity": ir.FormatCapacity(def.Capacity),
			"loudness": ir.FormatCapacity(def.Loudness),
		}
	}

	digest, err := ir.CatalogDigest(entries)
	if err != nil {
		return nil, fmt.Errorf("digest catalog: %w", err)
	}
	r.digest = digest

	return r, nil
}

// Default returns the registry compiled from the embedded catalog.
func Default() (*Registry, error) {
	defs, err := Compile("catalog.cue", defaultSource)
	if err != nil {
		return nil, err
	}
	return NewRegistry(defs)
}

// Load compiles the catalog at path, or the embedded catalog when path is
// empty.
func Load(path string) (*Registry, error) {
	if path == "" {
		return Default()
	}

	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	defs, err := Compile(filepath.Base(path), src)
	if err != nil {
		return nil, err
	}
	return NewRegistry(defs)
}

// Lookup returns the definition for name. The name is normalized first.
func (r *Registry) Lookup(name string) (Def, bool) {
	def, ok := r.defs[ir.NormalizeName(name)]
	return def, ok
}

// Require is like Lookup but returns ErrUnknownComponent when absent.
func (r *Registry) Require(name string) (Def, error) {
	def, ok := r.Lookup(name)
	if !ok {
		return Def{}, fmt.Errorf("%w: %q", ErrUnknownComponent, name)
	}
	return def, nil
}

// Contribution returns the capacity a named component adds to a network.
func (r *Registry) Contribution(name string) (float64, bool) {
	def, ok := r.Lookup(name)
	if !ok {
		return 0, false
	}
	return def.Capacity, true
}

// KnowsAll reports whether every name in counts is defined.
func (r *Registry) KnowsAll(counts ir.Counts) bool {
	for name := range counts {
		if _, ok := r.Lookup(name); !ok {
			return false
		}
	}
	return true
}

// Defs returns all definitions sorted by name.
func (r *Registry) Defs() []Def {
	out := make([]Def, 0, len(r.defs))
	for _, name := range slices.Sorted(maps.Keys(r.defs)) {
		out = append(out, r.defs[name])
	}
	return out
}

// Homes returns the home definitions sorted by name.
func (r *Registry) Homes() []Def {
	var out []Def
	for _, def := range r.Defs() {
		if def.IsHome() {
			out = append(out, def)
		}
	}
	return out
}

// Len returns the number of definitions.
func (r *Registry) Len() int { return len(r.defs) }

// Digest identifies the catalog contents. Two registries with the same
// digest assign the same roles and capacities.
func (r *Registry) Digest() string { return r.digest }
