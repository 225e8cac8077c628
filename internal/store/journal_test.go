package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendEvent_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	events := []Event{
		{Generation: "g1", Seq: 2, Kind: "connect", Args: map[string]any{"a": "0,0,0", "b": "1,0,0"}},
		{Generation: "g1", Seq: 1, Kind: "place", Args: map[string]any{"pos": "0,0,0", "component": "Radio"}},
		{Generation: "g2", Seq: 1, Kind: "save", Args: nil},
	}
	for _, ev := range events {
		require.NoError(t, s.AppendEvent(ctx, ev))
	}

	got, err := s.ReadEvents(ctx, "g1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "place", got[0].Kind)
	assert.Equal(t, "connect", got[1].Kind)
	assert.Equal(t, map[string]any{"a": "0,0,0", "b": "1,0,0"}, got[1].Args)

	other, err := s.ReadEvents(ctx, "g2")
	require.NoError(t, err)
	require.Len(t, other, 1)
	assert.Equal(t, map[string]any{}, other[0].Args)
}

func TestAppendEvent_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	ev := Event{Generation: "g1", Seq: 1, Kind: "place", Args: map[string]any{"pos": "0,0,0"}}
	require.NoError(t, s.AppendEvent(ctx, ev))
	require.NoError(t, s.AppendEvent(ctx, ev))

	got, err := s.ReadEvents(ctx, "g1")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestAppendEvent_CanonicalArgs(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	ev := Event{Generation: "g1", Seq: 1, Kind: "place", Args: map[string]any{"z": "last", "a": "first", "n": int64(3)}}
	require.NoError(t, s.AppendEvent(ctx, ev))

	var raw string
	require.NoError(t, s.db.QueryRow(`SELECT args FROM events WHERE generation = 'g1'`).Scan(&raw))
	assert.Equal(t, `{"a":"first","n":3,"z":"last"}`, raw)

	got, err := s.ReadEvents(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), got[0].Args["n"])
}

func TestAppendEvent_RejectsFloats(t *testing.T) {
	s := createTestStore(t)

	err := s.AppendEvent(context.Background(), Event{
		Generation: "g1", Seq: 1, Kind: "place", Args: map[string]any{"x": 1.5},
	})
	assert.Error(t, err)
}

func TestReadEvents_EmptyNotNil(t *testing.T) {
	s := createTestStore(t)

	got, err := s.ReadEvents(context.Background(), "missing")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestLastSeq(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	seq, err := s.LastSeq(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), seq)

	for i := int64(1); i <= 4; i++ {
		require.NoError(t, s.AppendEvent(ctx, Event{Generation: "g1", Seq: i, Kind: "place"}))
	}

	seq, err = s.LastSeq(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, int64(4), seq)
}

func TestSessions(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, err := s.LatestSession(ctx)
	assert.True(t, IsNotFound(err))

	older := Session{Generation: "0190a000-0000-7000-8000-000000000001", EngineVersion: "0.1.0", CatalogDigest: "d1"}
	newer := Session{Generation: "0190a000-0000-7000-8000-000000000002", EngineVersion: "0.1.0", CatalogDigest: "d2"}
	require.NoError(t, s.WriteSession(ctx, newer))
	require.NoError(t, s.WriteSession(ctx, older))
	require.NoError(t, s.WriteSession(ctx, older))

	all, err := s.ListSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Session{older, newer}, all)

	latest, err := s.LatestSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, newer, latest)
}
