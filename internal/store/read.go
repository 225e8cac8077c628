package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/recordwire/internal/ir"
	"github.com/roach88/recordwire/internal/world"
)

// scanner is the subset shared by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

const recordColumns = `x, y, z, kind, item, opening, connections, wire_system_info, play_radius, digest, seq, generation`

// ReadRecord returns the record stored for pos, or ErrNotFound.
func (s *Store) ReadRecord(ctx context.Context, pos ir.Pos) (HomeRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+recordColumns+`
		FROM home_records
		WHERE x = ? AND y = ? AND z = ?
	`, pos.X, pos.Y, pos.Z)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return HomeRecord{}, fmt.Errorf("read record %s: %w", pos, ErrNotFound)
	}
	if err != nil {
		return HomeRecord{}, fmt.Errorf("read record %s: %w", pos, err)
	}
	return rec, nil
}

// ListRecords returns all stored records ordered by position.
//
// Returns an empty slice (not nil) when nothing is stored.
func (s *Store) ListRecords(ctx context.Context) ([]HomeRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+recordColumns+`
		FROM home_records
		ORDER BY x ASC, y ASC, z ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	records := []HomeRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return records, nil
}

// ListBlocks returns all stored placements ordered by position.
func (s *Store) ListBlocks(ctx context.Context) ([]world.Block, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT x, y, z, component
		FROM blocks
		ORDER BY x ASC, y ASC, z ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query blocks: %w", err)
	}
	defer rows.Close()

	blocks := []world.Block{}
	for rows.Next() {
		var b world.Block
		if err := rows.Scan(&b.Pos.X, &b.Pos.Y, &b.Pos.Z, &b.Component); err != nil {
			return nil, fmt.Errorf("scan block: %w", err)
		}
		blocks = append(blocks, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate blocks: %w", err)
	}
	return blocks, nil
}

func scanRecord(row scanner) (HomeRecord, error) {
	var (
		rec        HomeRecord
		item       []byte
		playRadius sql.NullFloat64
	)

	err := row.Scan(
		&rec.Pos.X, &rec.Pos.Y, &rec.Pos.Z,
		&rec.Kind,
		&item,
		&rec.Record.Opening,
		&rec.Record.Connections,
		&rec.Record.WireSystemInfo,
		&playRadius,
		&rec.Digest,
		&rec.Seq,
		&rec.Generation,
	)
	if err != nil {
		return HomeRecord{}, err
	}

	if len(item) > 0 {
		rec.Record.Item = item
	}
	if playRadius.Valid {
		v := playRadius.Float64
		rec.Record.PlayRadius = &v
	}
	return rec, nil
}
