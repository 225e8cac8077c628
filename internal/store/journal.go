package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ReadEvents returns the journal for one generation ordered by seq.
//
// Returns an empty slice (not nil) if the generation has no events.
func (s *Store) ReadEvents(ctx context.Context, generation string) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT generation, seq, kind, args
		FROM events
		WHERE generation = ?
		ORDER BY seq ASC
	`, generation)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := []Event{}
	for rows.Next() {
		var (
			ev   Event
			args string
		)
		if err := rows.Scan(&ev.Generation, &ev.Seq, &ev.Kind, &args); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.Args, err = unmarshalArgs(args)
		if err != nil {
			return nil, fmt.Errorf("event %s/%d: %w", ev.Generation, ev.Seq, err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

// LastSeq returns the highest journaled seq for a generation, or 0.
func (s *Store) LastSeq(ctx context.Context, generation string) (int64, error) {
	var seq sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT MAX(seq) FROM events WHERE generation = ?
	`, generation).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("last seq: %w", err)
	}
	return seq.Int64, nil
}

// ListSessions returns all sessions ordered by generation. Generations are
// UUIDv7 strings, so this is start order.
func (s *Store) ListSessions(ctx context.Context) ([]Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT generation, engine_version, catalog_digest
		FROM sessions
		ORDER BY generation COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []Session{}
	for rows.Next() {
		var sess Session
		if err := rows.Scan(&sess.Generation, &sess.EngineVersion, &sess.CatalogDigest); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

// LatestSession returns the most recent session, or ErrNotFound.
func (s *Store) LatestSession(ctx context.Context) (Session, error) {
	var sess Session
	err := s.db.QueryRowContext(ctx, `
		SELECT generation, engine_version, catalog_digest
		FROM sessions
		ORDER BY generation COLLATE BINARY DESC
		LIMIT 1
	`).Scan(&sess.Generation, &sess.EngineVersion, &sess.CatalogDigest)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, fmt.Errorf("latest session: %w", ErrNotFound)
	}
	if err != nil {
		return Session{}, fmt.Errorf("latest session: %w", err)
	}
	return sess, nil
}
