package home

import "fmt"

// RadiusPolicy selects where a loaded network's aggregate comes from.
type RadiusPolicy string

const (
	// RadiusDerived recomputes the aggregate from the decoded counts and the
	// catalog. The cached playRadius is used only when a counted name is
	// unknown to the catalog.
	RadiusDerived RadiusPolicy = "derived"

	// RadiusCached trusts the persisted playRadius when it is present.
	RadiusCached RadiusPolicy = "cached"
)

// ParseRadiusPolicy validates a policy name. Empty selects RadiusDerived.
func ParseRadiusPolicy(s string) (RadiusPolicy, error) {
	switch RadiusPolicy(s) {
	case "", RadiusDerived:
		return RadiusDerived, nil
	case RadiusCached:
		return RadiusCached, nil
	default:
		return "", fmt.Errorf("invalid radius policy %q, must be %q or %q", s, RadiusDerived, RadiusCached)
	}
}
