package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const harnessScenarios = "../harness/testdata/scenarios"

const failingScenario = `
name: failing
description: asserts a radius the network does not have
steps:
  - op: place
    pos: "0,0,0"
    component: Radio
assertions:
  - type: song_radius
    home: "0,0,0"
    value: 41
`

const passingScenario = `
name: passing
description: a lone radio
steps:
  - op: place
    pos: "0,0,0"
    component: Radio
assertions:
  - type: song_radius
    home: "0,0,0"
    value: 40
`

func writeScenario(t *testing.T, dir, name, content string) string {
	t.Helper()
	scenarios := filepath.Join(dir, "scenarios")
	require.NoError(t, os.MkdirAll(scenarios, 0755))
	path := filepath.Join(scenarios, name+".yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestScenario_HarnessScenariosPass(t *testing.T) {
	out, err := execute(t, NewScenarioCommand(testOptions(t, "text")), harnessScenarios)
	require.NoError(t, err)
	assert.Contains(t, out, "amp_network")
	assert.Contains(t, out, "unload_reload")
	assert.Contains(t, out, "Summary: 3 passed, 0 failed, 3 total")
	assert.Contains(t, out, "All scenarios passed")
}

func TestScenario_Filter(t *testing.T) {
	out, err := execute(t, NewScenarioCommand(testOptions(t, "text")), harnessScenarios, "--filter", "amp_*")
	require.NoError(t, err)
	assert.Contains(t, out, "1 passed, 0 failed, 1 total")
}

func TestScenario_SingleFile(t *testing.T) {
	out, err := execute(t, NewScenarioCommand(testOptions(t, "text")), filepath.Join(harnessScenarios, "heal_stale_counts.yaml"))
	require.NoError(t, err)
	assert.Contains(t, out, "heal_stale_counts")
	assert.Contains(t, out, "1 passed")
}

func TestScenario_Failure(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "failing", failingScenario)
	writeScenario(t, dir, "passing", passingScenario)

	out, err := execute(t, NewScenarioCommand(testOptions(t, "text")), filepath.Join(dir, "scenarios"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Expected: 41")
	assert.Contains(t, out, "1 passed, 1 failed, 2 total")
}

func TestScenario_FailureJSON(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "failing", failingScenario)

	out, err := execute(t, NewScenarioCommand(testOptions(t, "json")), filepath.Join(dir, "scenarios"))
	require.Error(t, err)

	var resp struct {
		Status string          `json:"status"`
		Data   ScenarioSummary `json:"data"`
		Error  *CLIError       `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "E_SCENARIO_FAILED", resp.Error.Code)
	assert.Equal(t, 1, resp.Data.Failed)
	require.Len(t, resp.Data.Scenarios, 1)
	assert.False(t, resp.Data.Scenarios[0].Pass)
}

func TestScenario_UpdateThenCompare(t *testing.T) {
	dir := t.TempDir()
	path := writeScenario(t, dir, "passing", passingScenario)

	_, err := execute(t, NewScenarioCommand(testOptions(t, "text")), path, "--update")
	require.NoError(t, err)

	golden := filepath.Join(dir, "golden", "passing.golden")
	data, err := os.ReadFile(golden)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"scenario_name":"passing"`)

	_, err = execute(t, NewScenarioCommand(testOptions(t, "text")), path)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(golden, []byte("{}"), 0644))
	out, err := execute(t, NewScenarioCommand(testOptions(t, "text")), path)
	require.Error(t, err)
	assert.Contains(t, out, "does not match golden file")
}

func TestScenario_InvalidScenario(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "broken", "name: broken\nsteps: nope\n")

	out, err := execute(t, NewScenarioCommand(testOptions(t, "text")), filepath.Join(dir, "scenarios"))
	require.Error(t, err)
	assert.Contains(t, out, "failed to load scenario")
}

func TestScenario_MissingPath(t *testing.T) {
	_, err := execute(t, NewScenarioCommand(testOptions(t, "text")), filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestScenario_EmptyDir(t *testing.T) {
	out, err := execute(t, NewScenarioCommand(testOptions(t, "text")), t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found.")
}
