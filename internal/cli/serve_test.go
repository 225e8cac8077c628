package cli

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/recordwire/internal/store"
)

func TestServe_SavesOnShutdown(t *testing.T) {
	opts := testOptions(t, "text")
	dbPath := opts.settings().Database.Path
	seedWorld(t, dbPath)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	cmd := NewServeCommand(opts)
	out, err := executeWithContext(t, ctx, cmd, "--addr", "127.0.0.1:0")
	require.NoError(t, err)
	assert.Contains(t, out, "Serving 1 home(s) on 127.0.0.1:0")

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	sessions, err := st.ListSessions(context.Background())
	require.NoError(t, err)
	require.Len(t, sessions, 2)

	latest, err := st.LatestSession(context.Background())
	require.NoError(t, err)
	events, err := st.ReadEvents(context.Background(), latest.Generation)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "save", events[0].Kind)
}

func TestServe_BadCatalog(t *testing.T) {
	opts := testOptions(t, "text")
	opts.settings().Catalog.Path = "/nonexistent/parts.cue"

	_, err := execute(t, NewServeCommand(opts), "--addr", "127.0.0.1:0")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
