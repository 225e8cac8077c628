package cli

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/recordwire/internal/ir"
	"github.com/roach88/recordwire/internal/store"
)

func TestVerify_Consistent(t *testing.T) {
	opts := testOptions(t, "text")
	seedWorld(t, opts.settings().Database.Path)

	out, err := execute(t, NewVerifyCommand(opts))
	require.NoError(t, err)
	assert.Contains(t, out, "0,64,0")
	assert.NotContains(t, out, "healed")
	assert.NotContains(t, out, "World saved")
}

func TestVerify_EmptyDatabase(t *testing.T) {
	out, err := execute(t, NewVerifyCommand(testOptions(t, "text")))
	require.NoError(t, err)
	assert.Contains(t, out, "No homes found.")
}

func TestVerify_ReportsHealedRecord(t *testing.T) {
	opts := testOptions(t, "json")
	seedWorld(t, opts.settings().Database.Path)
	writeStaleRecord(t, opts.settings().Database.Path)

	out, err := execute(t, NewVerifyCommand(opts))
	require.NoError(t, err)

	var resp struct {
		Status string       `json:"status"`
		Data   VerifyResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 0, resp.Data.Inconsistent)
	assert.False(t, resp.Data.Fixed)
	require.Len(t, resp.Data.Restored, 1)
	assert.True(t, resp.Data.Restored[0].Report.Healed)
	assert.True(t, resp.Data.Restored[0].Intact)
}

func TestVerify_FixSavesHealedRecord(t *testing.T) {
	opts := testOptions(t, "text")
	dbPath := opts.settings().Database.Path
	seedWorld(t, dbPath)
	writeStaleRecord(t, dbPath)

	out, err := execute(t, NewVerifyCommand(opts), "--fix")
	require.NoError(t, err)
	assert.Contains(t, out, "healed on restore")
	assert.Contains(t, out, "World saved")

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	rec, err := st.ReadRecord(context.Background(), ir.P(0, 64, 0))
	require.NoError(t, err)
	assert.Equal(t, "1:Amplifier=1;Wire=1", rec.Record.WireSystemInfo)
	assert.NotEqual(t, "stale-generation", rec.Generation)
	assert.True(t, rec.Intact())

	sessions, err := st.ListSessions(context.Background())
	require.NoError(t, err)
	assert.Len(t, sessions, 2)
}
