package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed digests.
// The version suffix leaves room for a future algorithm change.
const (
	DomainTopology = "recordwire/topology/v1"
	DomainCatalog  = "recordwire/catalog/v1"
)

// hashWithDomain computes SHA-256 with domain separation:
// SHA256(domain + 0x00 + data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// TopologyDigest computes the digest of a home's persisted topology.
// Two records with the same digest describe the same edges and counts.
func TopologyDigest(connections, wireSystemInfo string) (string, error) {
	canonical, err := MarshalCanonical(map[string]any{
		"connections":      connections,
		"wire_system_info": wireSystemInfo,
	})
	if err != nil {
		return "", fmt.Errorf("TopologyDigest: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainTopology, canonical), nil
}

// CatalogDigest computes the digest of a component catalog given each
// entry's canonical fields. Capacities must already be formatted with
// FormatCapacity.
func CatalogDigest(entries map[string]any) (string, error) {
	canonical, err := MarshalCanonical(entries)
	if err != nil {
		return "", fmt.Errorf("CatalogDigest: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainCatalog, canonical), nil
}

// MustTopologyDigest is like TopologyDigest but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustTopologyDigest(connections, wireSystemInfo string) string {
	d, err := TopologyDigest(connections, wireSystemInfo)
	if err != nil {
		panic(err)
	}
	return d
}
