package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInspect_Text(t *testing.T) {
	opts := testOptions(t, "text")
	seedWorld(t, opts.settings().Database.Path)

	out, err := execute(t, NewInspectCommand(opts), "0,64,0")
	require.NoError(t, err)
	assert.Contains(t, out, "Record Player at 0,64,0")
	assert.Contains(t, out, "60")
	assert.Contains(t, out, "Amplifier at 3,64,0 (3.00)")
	assert.Contains(t, out, "Wire at 0,64,2 (2.00)")
	assert.Contains(t, out, "1:Amplifier=1;Wire=1")
	assert.Contains(t, out, seedGeneration+"/6")
	assert.NotContains(t, out, "digest does not match")
}

func TestInspect_JSON(t *testing.T) {
	opts := testOptions(t, "json")
	seedWorld(t, opts.settings().Database.Path)

	out, err := execute(t, NewInspectCommand(opts), "0,64,0")
	require.NoError(t, err)

	var resp struct {
		Data InspectResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))

	r := resp.Data
	assert.Equal(t, "Record Player", r.Component)
	assert.InDelta(t, 60.0, r.Network.SongRadius, 1e-9)
	assert.InDelta(t, 20.0, r.Network.Capacity, 1e-9)
	require.Len(t, r.Links, 2)
	assert.Equal(t, "3,64,0", r.Links[0].Pos)
	require.NotNil(t, r.Record)
	assert.Equal(t, "1:0,64,0,3,64,0;0,64,0,0,64,2", r.Record.Connections)
	assert.True(t, r.Intact)
	assert.Equal(t, int64(6), r.Seq)
}

func TestInspect_DOT(t *testing.T) {
	opts := testOptions(t, "text")
	seedWorld(t, opts.settings().Database.Path)

	out, err := execute(t, NewInspectCommand(opts), "0,64,0", "--dot")
	require.NoError(t, err)
	assert.Contains(t, out, "graph G {")
	assert.Contains(t, out, `"0,64,0" -- "3,64,0" [label="3.00"];`)
	assert.Contains(t, out, `"0,64,0" -- "0,64,2" [label="2.00"];`)
}

func TestInspect_SVG(t *testing.T) {
	opts := testOptions(t, "text")
	seedWorld(t, opts.settings().Database.Path)
	path := filepath.Join(t.TempDir(), "home.svg")

	_, err := execute(t, NewInspectCommand(opts), "0,64,0", "--svg", path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<svg")
}

func TestInspect_StaleRecord(t *testing.T) {
	opts := testOptions(t, "text")
	seedWorld(t, opts.settings().Database.Path)
	writeStaleRecord(t, opts.settings().Database.Path)

	out, err := execute(t, NewInspectCommand(opts), "0,64,0")
	require.NoError(t, err)
	assert.Contains(t, out, "stale-generation/99")
	assert.Contains(t, out, "Amplifier at 3,64,0")
}

func TestInspect_Errors(t *testing.T) {
	opts := testOptions(t, "text")
	seedWorld(t, opts.settings().Database.Path)

	tests := []struct {
		name string
		arg  string
		msg  string
	}{
		{"invalid position", "0,64", "invalid position"},
		{"empty position", "9,9,9", "no home to inspect"},
		{"link position", "3,64,0", "no home to inspect"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, NewInspectCommand(opts), tt.arg)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}
