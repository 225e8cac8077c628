package engine

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/recordwire/internal/catalog"
	"github.com/roach88/recordwire/internal/ir"
	"github.com/roach88/recordwire/internal/store"
	"github.com/roach88/recordwire/internal/world"
)

var (
	homePos = ir.P(0, 64, 0)
	ampPos  = ir.P(3, 64, 0)
	wirePos = ir.P(0, 64, 2)
)

func setupTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func newWorld(t *testing.T) *world.World {
	t.Helper()
	reg, err := catalog.Default()
	require.NoError(t, err)
	return world.New(reg)
}

// runEngine starts a generation and runs the loop until the test ends.
func runEngine(t *testing.T, s *store.Store, w *world.World, generation string) *Engine {
	t.Helper()
	e := New(s, w, NewFixedGenerator(generation))
	require.NoError(t, e.Start(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.Run(ctx) }()

	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Error("engine did not stop")
		}
	})
	return e
}

func submit(t *testing.T, e *Engine, ev Event) Result {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	res, err := e.Submit(ctx, ev)
	require.NoError(t, err, "%s failed", ev.Type)
	return res
}

// buildAmpNetwork places a record player wired to an amplifier and a wire.
func buildAmpNetwork(t *testing.T, e *Engine) {
	t.Helper()
	submit(t, e, Place(homePos, "Record Player"))
	submit(t, e, Place(ampPos, "Amplifier"))
	submit(t, e, Place(wirePos, "Wire"))
	submit(t, e, Connect(ampPos, homePos))
	submit(t, e, Connect(homePos, wirePos))
}

func TestEngine_AppliesEventsInOrder(t *testing.T) {
	s := setupTestStore(t)
	e := runEngine(t, s, newWorld(t), "gen-1")

	buildAmpNetwork(t, e)

	node, err := e.World().Home(homePos)
	require.NoError(t, err)
	assert.Equal(t, 60.0, node.SongRadius(), "base 40 plus amplifier 20")
	assert.Equal(t, ir.Counts{"Amplifier": 1, "Wire": 1}, node.Network().Counts())

	events, err := s.ReadEvents(context.Background(), "gen-1")
	require.NoError(t, err)
	require.Len(t, events, 5)
	for i, ev := range events {
		assert.Equal(t, int64(i+1), ev.Seq)
	}
	assert.Equal(t, "connect", events[3].Kind)
	assert.Equal(t, map[string]any{"a": ampPos.String(), "b": homePos.String()}, events[3].Args)
}

func TestEngine_ConnectOrientsHomeFirst(t *testing.T) {
	e := runEngine(t, setupTestStore(t), newWorld(t), "gen-1")

	submit(t, e, Place(homePos, "Record Player"))
	submit(t, e, Place(ampPos, "Amplifier"))
	res := submit(t, e, Connect(ampPos, homePos))

	assert.Equal(t, ir.NewConnection(homePos, ampPos), res.Connection)
}

func TestEngine_RejectedEventNotJournaled(t *testing.T) {
	s := setupTestStore(t)
	e := runEngine(t, s, newWorld(t), "gen-1")

	submit(t, e, Place(homePos, "Record Player"))

	res, err := e.Submit(context.Background(), Place(homePos, "Radio"))
	require.Error(t, err)
	assert.True(t, IsRejected(err))
	assert.True(t, errors.Is(err, world.ErrOccupied))
	assert.Zero(t, res.Seq)

	last, err := s.LastSeq(context.Background(), "gen-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), last)
	assert.Equal(t, int64(1), e.Clock().Current())
}

func TestEngine_CableTooLongRejected(t *testing.T) {
	e := runEngine(t, setupTestStore(t), newWorld(t), "gen-1")

	submit(t, e, Place(homePos, "Record Player"))
	submit(t, e, Place(ir.P(20, 64, 0), "Wire"))

	_, err := e.Submit(context.Background(), Connect(homePos, ir.P(20, 64, 0)))
	assert.True(t, errors.Is(err, world.ErrCableTooLong))
}

func TestEngine_UnloadLoadRoundTrip(t *testing.T) {
	s := setupTestStore(t)
	e := runEngine(t, s, newWorld(t), "gen-1")
	buildAmpNetwork(t, e)

	res := submit(t, e, Unload(homePos))
	assert.Equal(t, 1, res.Saved)

	_, err := e.World().Home(homePos)
	assert.True(t, errors.Is(err, world.ErrUnloaded))

	stored, err := s.ReadRecord(context.Background(), homePos)
	require.NoError(t, err)
	assert.True(t, stored.Intact())
	assert.Equal(t, "Record Player", stored.Kind)
	assert.Equal(t, res.Seq, stored.Seq, "record carries the seq of the unload")

	res = submit(t, e, Load(homePos))
	require.NotNil(t, res.Report)
	assert.Empty(t, res.Report.Dropped)
	assert.False(t, res.Report.Healed)

	node, err := e.World().Home(homePos)
	require.NoError(t, err)
	assert.Equal(t, 60.0, node.SongRadius())
	assert.Len(t, node.Connections(), 2)
}

func TestEngine_LinkBrokenWhileUnloadedIsDroppedOnLoad(t *testing.T) {
	e := runEngine(t, setupTestStore(t), newWorld(t), "gen-1")
	buildAmpNetwork(t, e)

	submit(t, e, Unload(homePos))
	submit(t, e, Break(ampPos))
	res := submit(t, e, Load(homePos))

	require.NotNil(t, res.Report)
	assert.Equal(t, []ir.Connection{ir.NewConnection(homePos, ampPos)}, res.Report.Dropped)

	node, err := e.World().Home(homePos)
	require.NoError(t, err)
	assert.Equal(t, 40.0, node.SongRadius())
	assert.Equal(t, ir.Counts{"Wire": 1}, node.Network().Counts())
}

func TestEngine_LoadWithoutRecordStartsEmpty(t *testing.T) {
	e := runEngine(t, setupTestStore(t), newWorld(t), "gen-1")

	submit(t, e, Place(homePos, "Radio"))
	submit(t, e, Unload(homePos))
	require.NoError(t, e.Store().DeleteRecord(context.Background(), homePos))

	res := submit(t, e, Load(homePos))
	require.NotNil(t, res.Report)

	node, err := e.World().Home(homePos)
	require.NoError(t, err)
	assert.Equal(t, 40.0, node.SongRadius())
	assert.Empty(t, node.Connections())
}

func TestEngine_SaveAndRestore(t *testing.T) {
	s := setupTestStore(t)
	e := runEngine(t, s, newWorld(t), "gen-1")
	buildAmpNetwork(t, e)

	res := submit(t, e, Save())
	assert.Equal(t, 1, res.Saved)

	blocks, err := s.ListBlocks(context.Background())
	require.NoError(t, err)
	assert.Len(t, blocks, 3)

	restored := newWorld(t)
	e2 := New(s, restored, NewFixedGenerator("gen-2"))
	require.NoError(t, e2.Start(context.Background()))

	out, err := e2.Restore(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.True(t, out[0].Stored)
	assert.True(t, out[0].Intact)

	node, err := restored.Home(homePos)
	require.NoError(t, err)
	assert.Equal(t, 60.0, node.SongRadius())

	sessions, err := s.ListSessions(context.Background())
	require.NoError(t, err)
	assert.Len(t, sessions, 2)
}

func TestEngine_BreakHomeKeepsRecordUntilSave(t *testing.T) {
	s := setupTestStore(t)
	e := runEngine(t, s, newWorld(t), "gen-1")
	buildAmpNetwork(t, e)
	submit(t, e, Save())

	res := submit(t, e, Break(homePos))
	assert.True(t, res.Broken.IsHome())

	stored, err := s.ReadRecord(context.Background(), homePos)
	require.NoError(t, err, "break does not touch the store")
	assert.True(t, stored.Intact())

	events, err := s.ReadEvents(context.Background(), "gen-1")
	require.NoError(t, err)
	assert.Equal(t, "break", events[len(events)-1].Kind)

	submit(t, e, Save())
	_, err = s.ReadRecord(context.Background(), homePos)
	assert.True(t, store.IsNotFound(err), "save prunes the record with its block")
}

func TestEngine_BreakHomeThenRestoreWithoutSave(t *testing.T) {
	s := setupTestStore(t)
	e := runEngine(t, s, newWorld(t), "gen-1")
	buildAmpNetwork(t, e)
	submit(t, e, Save())
	submit(t, e, Break(homePos))

	restored := newWorld(t)
	e2 := New(s, restored, NewFixedGenerator("gen-2"))
	require.NoError(t, e2.Start(context.Background()))

	out, err := e2.Restore(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.True(t, out[0].Stored)

	node, err := restored.Home(homePos)
	require.NoError(t, err)
	assert.Equal(t, 60.0, node.SongRadius(), "last saved topology survives")
	assert.Equal(t, ir.Counts{"Amplifier": 1, "Wire": 1}, node.Network().Counts())
	assert.Len(t, node.Connections(), 2)
}

func TestEngine_SubmitAfterStop(t *testing.T) {
	s := setupTestStore(t)
	e := New(s, newWorld(t), NewFixedGenerator("gen-1"))
	require.NoError(t, e.Start(context.Background()))

	done := make(chan error, 1)
	go func() { done <- e.Run(context.Background()) }()

	e.Stop()
	require.NoError(t, <-done)

	_, err := e.Submit(context.Background(), Save())
	assert.True(t, IsStopped(err))
	assert.False(t, e.Enqueue(Save()))
}

func TestEngine_StopAppliesQueuedEvents(t *testing.T) {
	s := setupTestStore(t)
	w := newWorld(t)
	e := New(s, w, NewFixedGenerator("gen-1"))
	require.NoError(t, e.Start(context.Background()))

	e.Enqueue(Place(homePos, "Record Player"))
	e.Enqueue(Place(ampPos, "Amplifier"))
	e.Stop()

	require.NoError(t, e.Run(context.Background()))
	assert.Len(t, w.Blocks(), 2)
}

func TestEngine_RunReturnsOnCancel(t *testing.T) {
	e := New(setupTestStore(t), newWorld(t), NewFixedGenerator("gen-1"))
	require.NoError(t, e.Start(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := e.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRuntimeError_Message(t *testing.T) {
	err := rejected(EventPlace, world.ErrOccupied)
	assert.Contains(t, err.Error(), "REJECTED")
	assert.Contains(t, err.Error(), "event=place")
	assert.ErrorIs(t, err, world.ErrOccupied)

	assert.Equal(t, "STOPPED: engine stopped", errStopped.Error())
}
