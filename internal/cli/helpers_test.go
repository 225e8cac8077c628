package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/roach88/recordwire/internal/catalog"
	"github.com/roach88/recordwire/internal/config"
	"github.com/roach88/recordwire/internal/engine"
	"github.com/roach88/recordwire/internal/home"
	"github.com/roach88/recordwire/internal/ir"
	"github.com/roach88/recordwire/internal/store"
	"github.com/roach88/recordwire/internal/world"
)

// seedGeneration sorts before any real UUIDv7, so later generations
// replay after it.
const seedGeneration = "00000000-0000-7000-8000-000000000001"

// testOptions returns root options over a fresh database path.
func testOptions(t *testing.T, format string) *RootOptions {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Database.Path = filepath.Join(t.TempDir(), "test.db")
	return &RootOptions{Format: format, cfg: cfg}
}

// execute runs cmd with args and returns its stdout.
func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	return executeWithContext(t, context.Background(), cmd, args...)
}

func executeWithContext(t *testing.T, ctx context.Context, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}

// seedWorld wires a record player at 0,64,0 to an amplifier and a wire and
// saves, all through the engine, so the journal replays to the same world.
func seedWorld(t *testing.T, dbPath string) {
	t.Helper()
	ctx := context.Background()

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	reg, err := catalog.Default()
	require.NoError(t, err)

	eng := engine.New(st, world.New(reg), engine.NewFixedGenerator(seedGeneration))
	require.NoError(t, eng.Start(ctx))

	done := make(chan error, 1)
	go func() { done <- eng.Run(ctx) }()

	for _, ev := range []engine.Event{
		engine.Place(ir.P(0, 64, 0), "Record Player"),
		engine.Place(ir.P(3, 64, 0), "Amplifier"),
		engine.Place(ir.P(0, 64, 2), "Wire"),
		engine.Connect(ir.P(3, 64, 0), ir.P(0, 64, 0)),
		engine.Connect(ir.P(0, 64, 0), ir.P(0, 64, 2)),
		engine.Save(),
	} {
		_, err := eng.Submit(ctx, ev)
		require.NoError(t, err)
	}

	eng.Stop()
	require.NoError(t, <-done)
}

// writeStaleRecord overwrites the home record at 0,64,0 with counts that
// disagree with its edges.
func writeStaleRecord(t *testing.T, dbPath string) {
	t.Helper()
	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	radius := 60.0
	rec, err := store.NewHomeRecord(ir.P(0, 64, 0), "Record Player", home.Record{
		Connections:    "1:0,64,0,3,64,0;0,64,0,0,64,2",
		WireSystemInfo: "1:Amplifier=2",
		PlayRadius:     &radius,
	}, 99, "stale-generation")
	require.NoError(t, err)
	require.NoError(t, st.WriteRecord(context.Background(), rec))
}
