package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/recordwire/internal/ir"
	"github.com/roach88/recordwire/internal/world"
)

// execer is the subset shared by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// WriteRecord inserts or replaces the record for a home position.
func (s *Store) WriteRecord(ctx context.Context, rec HomeRecord) error {
	if err := writeRecord(ctx, s.db, rec); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	return nil
}

func writeRecord(ctx context.Context, db execer, rec HomeRecord) error {
	var playRadius sql.NullFloat64
	if rec.Record.PlayRadius != nil {
		playRadius = sql.NullFloat64{Float64: *rec.Record.PlayRadius, Valid: true}
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO home_records
		(x, y, z, kind, item, opening, connections, wire_system_info, play_radius, digest, seq, generation)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(x, y, z) DO UPDATE SET
			kind = excluded.kind,
			item = excluded.item,
			opening = excluded.opening,
			connections = excluded.connections,
			wire_system_info = excluded.wire_system_info,
			play_radius = excluded.play_radius,
			digest = excluded.digest,
			seq = excluded.seq,
			generation = excluded.generation
	`,
		rec.Pos.X, rec.Pos.Y, rec.Pos.Z,
		rec.Kind,
		rec.Record.Item,
		rec.Record.Opening,
		rec.Record.Connections,
		rec.Record.WireSystemInfo,
		playRadius,
		rec.Digest,
		rec.Seq,
		rec.Generation,
	)
	return err
}

// DeleteRecord removes the record at pos. Deleting a missing record is not
// an error.
func (s *Store) DeleteRecord(ctx context.Context, pos ir.Pos) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM home_records WHERE x = ? AND y = ? AND z = ?`,
		pos.X, pos.Y, pos.Z)
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	return nil
}

// SaveWorld replaces the stored placements with blocks and upserts records,
// in one transaction. Records for positions that no longer hold a block
// are deleted.
func (s *Store) SaveWorld(ctx context.Context, blocks []world.Block, records []HomeRecord) error {
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM blocks`); err != nil {
			return fmt.Errorf("clear blocks: %w", err)
		}

		for _, b := range blocks {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO blocks (x, y, z, component) VALUES (?, ?, ?, ?)
			`, b.Pos.X, b.Pos.Y, b.Pos.Z, b.Component)
			if err != nil {
				return fmt.Errorf("insert block %s: %w", b.Pos, err)
			}
		}

		_, err := tx.ExecContext(ctx, `
			DELETE FROM home_records
			WHERE NOT EXISTS (
				SELECT 1 FROM blocks b
				WHERE b.x = home_records.x AND b.y = home_records.y AND b.z = home_records.z
			)
		`)
		if err != nil {
			return fmt.Errorf("prune records: %w", err)
		}

		for _, rec := range records {
			if err := writeRecord(ctx, tx, rec); err != nil {
				return fmt.Errorf("write record %s: %w", rec.Pos, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save world: %w", err)
	}
	return nil
}

// AppendEvent journals an applied event.
// Uses ON CONFLICT DO NOTHING so replays of the same (generation, seq) are
// idempotent.
func (s *Store) AppendEvent(ctx context.Context, ev Event) error {
	args, err := marshalArgs(ev.Args)
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO events (generation, seq, kind, args)
		VALUES (?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`, ev.Generation, ev.Seq, ev.Kind, args)
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

// WriteSession records the start of an engine generation.
func (s *Store) WriteSession(ctx context.Context, sess Session) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (generation, engine_version, catalog_digest)
		VALUES (?, ?, ?)
		ON CONFLICT(generation) DO NOTHING
	`, sess.Generation, sess.EngineVersion, sess.CatalogDigest)
	if err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}
