package store

import (
	"github.com/roach88/recordwire/internal/home"
	"github.com/roach88/recordwire/internal/ir"
)

// HomeRecord is a persisted home with its bookkeeping columns.
type HomeRecord struct {
	Pos    ir.Pos      `json:"pos"`
	Kind   string      `json:"kind"`
	Record home.Record `json:"record"`

	// Digest is ir.TopologyDigest over Record.Connections and
	// Record.WireSystemInfo.
	Digest string `json:"digest"`

	// Seq is the logical clock value of the save.
	Seq int64 `json:"seq"`

	// Generation is the engine session that wrote the record.
	Generation string `json:"generation"`
}

// NewHomeRecord builds a record and computes its digest.
func NewHomeRecord(pos ir.Pos, kind string, rec home.Record, seq int64, generation string) (HomeRecord, error) {
	digest, err := ir.TopologyDigest(rec.Connections, rec.WireSystemInfo)
	if err != nil {
		return HomeRecord{}, err
	}
	return HomeRecord{
		Pos:        pos,
		Kind:       kind,
		Record:     rec,
		Digest:     digest,
		Seq:        seq,
		Generation: generation,
	}, nil
}

// Intact reports whether the digest matches the topology strings.
func (r HomeRecord) Intact() bool {
	digest, err := ir.TopologyDigest(r.Record.Connections, r.Record.WireSystemInfo)
	return err == nil && digest == r.Digest
}

// Event is one journaled engine event.
type Event struct {
	Generation string         `json:"generation"`
	Seq        int64          `json:"seq"`
	Kind       string         `json:"kind"`
	Args       map[string]any `json:"args"`
}

// Session identifies one engine run.
type Session struct {
	Generation    string `json:"generation"`
	EngineVersion string `json:"engine_version"`
	CatalogDigest string `json:"catalog_digest"`
}
